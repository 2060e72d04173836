// Package session holds the working state for one attendance-marking pass:
// the selected (course, date), the resolved roster, and the in-progress
// edit map, reconciled against previously saved records on load and
// flushed to the attendance store as one batch on save.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"campus/internal/attendance"
	"campus/internal/directory"
)

// State is the session lifecycle state.
type State string

const (
	StateEmpty         State = "empty"
	StateRosterLoading State = "roster_loading"
	StateReady         State = "ready"
	StateSaving        State = "saving"
)

// RosterResolver is the slice of the roster package the session needs.
type RosterResolver interface {
	Resolve(ctx context.Context, courseID int64) ([]directory.Student, error)
}

// ErrNotReady is returned when an operation requires a hydrated session.
var ErrNotReady = errors.New("no attendance session is ready")

// ErrNothingMarked is returned by Save when every edit-map entry is still
// unmarked; there is nothing to persist.
var ErrNothingMarked = errors.New("no statuses marked")

// ErrEmptyRoster is returned by Save when the course has no active
// enrollments to mark.
var ErrEmptyRoster = errors.New("roster is empty")

// ErrSelectionSuperseded is returned to a Select or Save whose result
// arrived after a newer selection replaced it; the late result is
// discarded rather than overwriting the newer state.
var ErrSelectionSuperseded = errors.New("selection superseded by a newer one")

// NotInRosterError flags an attempt to mark a student outside the current
// roster. It indicates a caller bug, not a user mistake.
type NotInRosterError struct {
	StudentID int64
}

func (e NotInRosterError) Error() string {
	return fmt.Sprintf("student %d is not in the current roster", e.StudentID)
}

// PersistenceError wraps a failed batch write. The edit map survives it so
// the operator can retry.
type PersistenceError struct {
	Err error
}

func (e PersistenceError) Error() string { return "attendance save failed: " + e.Err.Error() }
func (e PersistenceError) Unwrap() error { return e.Err }

// TimeoutError flags a collaborator read that exceeded the select timeout.
// Retrying with the same selection is safe.
type TimeoutError struct {
	Err error
}

func (e TimeoutError) Error() string { return "collaborator timed out: " + e.Err.Error() }
func (e TimeoutError) Unwrap() error { return e.Err }

// Session is the stateful core for a single operator. All methods are safe
// for concurrent use, though the model is one operator driving one session.
type Session struct {
	resolver RosterResolver
	store    attendance.Store
	operator string
	timeout  time.Duration

	mu       sync.Mutex
	state    State
	courseID int64
	date     attendance.Date
	roster   []directory.Student
	members  map[int64]bool
	edits    map[int64]attendance.Status
	gen      uint64
}

// New creates an empty session for the given operator.
func New(resolver RosterResolver, store attendance.Store, operator string, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Session{
		resolver: resolver,
		store:    store,
		operator: operator,
		timeout:  timeout,
		state:    StateEmpty,
	}
}

// Select loads the roster for (courseID, date) and reconciles the edit map
// against previously saved records: every roster member starts unmarked,
// then any existing record for the same student overwrites its entry. The
// roster and record fetches are independent reads issued concurrently; the
// session does not become ready until both complete, so partial hydration
// is never observable. Selecting again while a load is in flight discards
// the in-flight result.
func (s *Session) Select(ctx context.Context, courseID int64, date attendance.Date) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = StateRosterLoading
	s.courseID = courseID
	s.date = date
	s.roster = nil
	s.members = nil
	s.edits = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		wg         sync.WaitGroup
		students   []directory.Student
		existing   []attendance.Record
		rosterErr  error
		recordsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		students, rosterErr = s.resolver.Resolve(ctx, courseID)
	}()
	go func() {
		defer wg.Done()
		existing, recordsErr = s.store.GetByCourseAndDate(ctx, courseID, date)
	}()
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return ErrSelectionSuperseded
	}
	if err := firstError(rosterErr, recordsErr); err != nil {
		// A failed load leaves no trace of the attempted selection.
		s.state = StateEmpty
		s.courseID = 0
		s.date = ""
		if errors.Is(err, context.DeadlineExceeded) {
			return TimeoutError{Err: err}
		}
		return err
	}

	members := make(map[int64]bool, len(students))
	edits := make(map[int64]attendance.Status, len(students))
	for _, st := range students {
		members[st.ID] = true
		edits[st.ID] = attendance.Unmarked
	}
	// Reconciliation: a re-opened session shows exactly what was last
	// saved. Records for students no longer on the roster are ignored.
	for _, rec := range existing {
		if members[rec.StudentID] {
			edits[rec.StudentID] = rec.Status
		}
	}

	s.roster = students
	s.members = members
	s.edits = edits
	s.state = StateReady
	return nil
}

// SetStatus updates one edit-map entry. The student must belong to the
// current roster and the status must be persistable.
func (s *Session) SetStatus(studentID int64, status attendance.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	if !s.members[studentID] {
		return NotInRosterError{StudentID: studentID}
	}
	if !attendance.ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	s.edits[studentID] = status
	return nil
}

// MarkAll sets every roster member to status in one step. Readers never
// observe a partially applied map.
func (s *Session) MarkAll(status attendance.Status) error {
	if !attendance.ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	edits := make(map[int64]attendance.Status, len(s.roster))
	for _, st := range s.roster {
		edits[st.ID] = status
	}
	s.edits = edits
	return nil
}

// Save flushes the marked entries as one batch upsert keyed by
// (student, course, date), making repeated saves idempotent. On failure
// the edit map is untouched and the session returns to ready so the
// operator can retry.
func (s *Session) Save(ctx context.Context) ([]attendance.Record, error) {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	if len(s.roster) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyRoster
	}
	var batch []attendance.Record
	for _, st := range s.roster {
		status := s.edits[st.ID]
		if status == attendance.Unmarked {
			continue
		}
		batch = append(batch, attendance.Record{
			StudentID: st.ID,
			CourseID:  s.courseID,
			Date:      s.date,
			Status:    status,
			MarkedBy:  s.operator,
		})
	}
	if len(batch) == 0 {
		s.mu.Unlock()
		return nil, ErrNothingMarked
	}
	gen := s.gen
	s.state = StateSaving
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.store.BulkUpsert(ctx, batch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.state = StateReady
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, TimeoutError{Err: err}
		}
		return nil, PersistenceError{Err: err}
	}
	if s.gen != gen {
		return batch, ErrSelectionSuperseded
	}
	return batch, nil
}

// Abandon discards the current roster and edit map.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = StateEmpty
	s.courseID = 0
	s.date = ""
	s.roster = nil
	s.members = nil
	s.edits = nil
}

// Snapshot is a point-in-time copy of the session for callers to render.
type Snapshot struct {
	State    State                       `json:"state"`
	CourseID int64                       `json:"course_id,omitempty"`
	Date     attendance.Date             `json:"date,omitempty"`
	Roster   []directory.Student         `json:"roster,omitempty"`
	Edits    map[int64]attendance.Status `json:"edits,omitempty"`
	Operator string                      `json:"operator"`
}

// Snapshot returns a copy of the current state; mutating it does not
// affect the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:    s.state,
		CourseID: s.courseID,
		Date:     s.date,
		Operator: s.operator,
	}
	if s.roster != nil {
		snap.Roster = append([]directory.Student(nil), s.roster...)
	}
	if s.edits != nil {
		snap.Edits = make(map[int64]attendance.Status, len(s.edits))
		for id, status := range s.edits {
			snap.Edits[id] = status
		}
	}
	return snap
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
