// Package metrics exposes the Prometheus counters the API increments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RosterResolutions counts roster resolves by outcome.
	RosterResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_roster_resolutions_total",
		Help: "Roster resolutions by outcome.",
	}, []string{"outcome"})

	// SessionSaves counts attendance session saves by outcome.
	SessionSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_attendance_saves_total",
		Help: "Attendance session saves by outcome.",
	}, []string{"outcome"})

	// RecordsUpserted counts attendance records written through saves.
	RecordsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_attendance_records_upserted_total",
		Help: "Attendance records written through batch upserts.",
	})
)
