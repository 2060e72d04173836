// Package attendance stores per-day attendance records keyed by
// (student, course, date) and exposes the batch upsert the session core
// writes through.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is a recorded attendance status. "unmarked" exists only in
// session edit maps and is never persisted.
type Status string

const (
	Present Status = "present"
	Absent  Status = "absent"
	Late    Status = "late"

	// Unmarked is the edit-map starting state for a roster member with no
	// persisted record. It never reaches a Store.
	Unmarked Status = "unmarked"
)

// ValidStatus reports whether s may be persisted.
func ValidStatus(s Status) bool {
	return s == Present || s == Absent || s == Late
}

// Date is a calendar date in YYYY-MM-DD form with no time or timezone
// component. Attendance is a calendar-day concept, not an instant.
type Date string

// ParseDate validates an ISO calendar string.
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date(s), nil
}

// Today returns the current UTC calendar date.
func Today() Date {
	return Date(time.Now().UTC().Format("2006-01-02"))
}

func (d Date) String() string { return string(d) }

// Record is one persisted attendance mark. At most one record exists per
// (StudentID, CourseID, Date) triple; BulkUpsert enforces this on write.
type Record struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"student_id"`
	CourseID  int64  `json:"course_id"`
	Date      Date   `json:"date"`
	Status    Status `json:"status"`
	MarkedBy  string `json:"marked_by"`
	Remarks   string `json:"remarks,omitempty"`
}

// ErrEmptyBatch is returned by BulkUpsert when there is nothing to write.
var ErrEmptyBatch = errors.New("empty attendance batch")

// Store is the attendance persistence contract. BulkUpsert commits the
// whole batch or reports the whole batch failed; partial writes are never
// left behind.
type Store interface {
	GetByCourseAndDate(ctx context.Context, courseID int64, date Date) ([]Record, error)
	GetByStudentID(ctx context.Context, studentID int64) ([]Record, error)
	GetByDate(ctx context.Context, date Date) ([]Record, error)
	BulkUpsert(ctx context.Context, records []Record) error
}

func validateBatch(records []Record) error {
	if len(records) == 0 {
		return ErrEmptyBatch
	}
	for _, rec := range records {
		if !ValidStatus(rec.Status) {
			return fmt.Errorf("record for student %d: invalid status %q", rec.StudentID, rec.Status)
		}
		if _, err := ParseDate(string(rec.Date)); err != nil {
			return fmt.Errorf("record for student %d: %w", rec.StudentID, err)
		}
	}
	return nil
}
