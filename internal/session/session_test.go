package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus/internal/attendance"
	"campus/internal/directory"
	"campus/internal/enrollment"
	"campus/internal/roster"
	"campus/internal/seed"
)

// fixture wires real memory-backed stores loaded with the demo dataset:
// course 1 has students 1, 2, 3 actively enrolled and one existing record
// marking student 2 late on 2024-03-01.
type fixture struct {
	resolver *roster.Resolver
	store    *attendance.Memory
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	students := directory.NewMemoryStudents()
	courses := directory.NewMemoryCourses()
	faculty := directory.NewMemoryFaculty()
	enrollments := enrollment.NewMemory()
	records := attendance.NewMemory()
	err := seed.Load(context.Background(), seed.Stores{
		Students:    students,
		Courses:     courses,
		Faculty:     faculty,
		Enrollments: enrollments,
		Attendance:  records,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return fixture{
		resolver: roster.NewResolver(courses, students, enrollments),
		store:    records,
	}
}

func newReadySession(t *testing.T, fx fixture) *Session {
	t.Helper()
	s := New(fx.resolver, fx.store, "op-1", time.Second)
	if err := s.Select(context.Background(), 1, "2024-03-01"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	return s
}

func TestSelectReconcilesExistingRecords(t *testing.T) {
	s := newReadySession(t, newFixture(t))

	snap := s.Snapshot()
	if snap.State != StateReady {
		t.Fatalf("state = %s, want %s", snap.State, StateReady)
	}
	if len(snap.Roster) != 3 {
		t.Fatalf("roster size = %d, want 3", len(snap.Roster))
	}
	want := map[int64]attendance.Status{
		1: attendance.Unmarked,
		2: attendance.Late,
		3: attendance.Unmarked,
	}
	for id, status := range want {
		if snap.Edits[id] != status {
			t.Errorf("edits[%d] = %s, want %s", id, snap.Edits[id], status)
		}
	}
}

func TestSelectUnknownCourse(t *testing.T) {
	fx := newFixture(t)
	s := New(fx.resolver, fx.store, "op-1", time.Second)

	err := s.Select(context.Background(), 999, "2024-03-01")
	if !directory.IsNotFound(err) {
		t.Fatalf("err = %v, want not-found", err)
	}
	snap := s.Snapshot()
	if snap.State != StateEmpty {
		t.Errorf("state = %s, want %s", snap.State, StateEmpty)
	}
	if snap.Roster != nil || snap.Edits != nil {
		t.Errorf("session hydrated after failed select: %+v", snap)
	}
	if snap.CourseID != 0 || snap.Date != "" {
		t.Errorf("failed select left selection (%d, %s) behind", snap.CourseID, snap.Date)
	}
}

// stuckResolver never answers until its context gives up.
type stuckResolver struct{}

func (stuckResolver) Resolve(ctx context.Context, courseID int64) ([]directory.Student, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSelectTimeout(t *testing.T) {
	fx := newFixture(t)
	s := New(stuckResolver{}, fx.store, "op-1", 50*time.Millisecond)

	err := s.Select(context.Background(), 1, "2024-03-01")
	var te TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
	snap := s.Snapshot()
	if snap.State != StateEmpty {
		t.Errorf("state = %s, want %s after timed-out select", snap.State, StateEmpty)
	}
	if snap.CourseID != 0 || snap.Date != "" {
		t.Errorf("timed-out select left selection (%d, %s) behind", snap.CourseID, snap.Date)
	}
}

func TestSetStatus(t *testing.T) {
	s := newReadySession(t, newFixture(t))

	tests := []struct {
		name      string
		studentID int64
		status    attendance.Status
		wantErr   bool
	}{
		{name: "roster member", studentID: 1, status: attendance.Present},
		{name: "overwrite reconciled", studentID: 2, status: attendance.Absent},
		{name: "outside roster", studentID: 4, status: attendance.Present, wantErr: true},
		{name: "unknown student", studentID: 42, status: attendance.Present, wantErr: true},
		{name: "bad status", studentID: 1, status: "asleep", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetStatus(tt.studentID, tt.status)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetStatus: %v", err)
			}
			if got := s.Snapshot().Edits[tt.studentID]; got != tt.status {
				t.Errorf("edits[%d] = %s, want %s", tt.studentID, got, tt.status)
			}
		})
	}
}

func TestSetStatusOutsideRosterLeavesEditsUntouched(t *testing.T) {
	s := newReadySession(t, newFixture(t))
	before := s.Snapshot().Edits

	var nir NotInRosterError
	if err := s.SetStatus(42, attendance.Present); !errors.As(err, &nir) {
		t.Fatalf("err = %v, want NotInRosterError", err)
	}
	after := s.Snapshot().Edits
	if len(after) != len(before) {
		t.Fatalf("edit map changed size: %d -> %d", len(before), len(after))
	}
	for id, status := range before {
		if after[id] != status {
			t.Errorf("edits[%d] changed: %s -> %s", id, status, after[id])
		}
	}
}

func TestMarkAll(t *testing.T) {
	s := newReadySession(t, newFixture(t))

	if err := s.MarkAll(attendance.Present); err != nil {
		t.Fatalf("MarkAll: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Edits) != 3 {
		t.Fatalf("edits size = %d, want 3", len(snap.Edits))
	}
	for id, status := range snap.Edits {
		if status != attendance.Present {
			t.Errorf("edits[%d] = %s, want present", id, status)
		}
	}
}

func TestMarkAllRequiresReady(t *testing.T) {
	fx := newFixture(t)
	s := New(fx.resolver, fx.store, "op-1", time.Second)
	if err := s.MarkAll(attendance.Present); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestSaveScenario(t *testing.T) {
	// Mark all present, flip one to absent, save. The pre-existing record
	// for student 2 must be replaced, not duplicated.
	fx := newFixture(t)
	s := newReadySession(t, fx)

	if err := s.MarkAll(attendance.Present); err != nil {
		t.Fatalf("MarkAll: %v", err)
	}
	if err := s.SetStatus(2, attendance.Absent); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	batch, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("batch size = %d, want 3", len(batch))
	}
	for _, rec := range batch {
		if rec.MarkedBy != "op-1" {
			t.Errorf("record %d markedBy = %q, want op-1", rec.StudentID, rec.MarkedBy)
		}
	}

	persisted, err := fx.store.GetByCourseAndDate(context.Background(), 1, "2024-03-01")
	if err != nil {
		t.Fatalf("GetByCourseAndDate: %v", err)
	}
	if len(persisted) != 3 {
		t.Fatalf("persisted = %d records, want 3 (no duplicates)", len(persisted))
	}
	want := map[int64]attendance.Status{1: attendance.Present, 2: attendance.Absent, 3: attendance.Present}
	for _, rec := range persisted {
		if rec.Status != want[rec.StudentID] {
			t.Errorf("student %d status = %s, want %s", rec.StudentID, rec.Status, want[rec.StudentID])
		}
	}

	if s.Snapshot().State != StateReady {
		t.Errorf("state after save = %s, want ready", s.Snapshot().State)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	s := newReadySession(t, fx)

	if err := s.MarkAll(attendance.Present); err != nil {
		t.Fatalf("MarkAll: %v", err)
	}
	if _, err := s.Save(context.Background()); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	countAfterFirst := fx.store.Len()
	if _, err := s.Save(context.Background()); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if fx.store.Len() != countAfterFirst {
		t.Fatalf("record count grew on re-save: %d -> %d", countAfterFirst, fx.store.Len())
	}
}

func TestReopenReproducesSavedState(t *testing.T) {
	fx := newFixture(t)
	s := newReadySession(t, fx)

	if err := s.MarkAll(attendance.Late); err != nil {
		t.Fatalf("MarkAll: %v", err)
	}
	if _, err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened := New(fx.resolver, fx.store, "op-2", time.Second)
	if err := reopened.Select(context.Background(), 1, "2024-03-01"); err != nil {
		t.Fatalf("re-Select: %v", err)
	}
	for id, status := range reopened.Snapshot().Edits {
		if status != attendance.Late {
			t.Errorf("reopened edits[%d] = %s, want late", id, status)
		}
	}
}

func TestSaveSkipsUnmarked(t *testing.T) {
	fx := newFixture(t)
	s := newReadySession(t, fx)

	if err := s.SetStatus(1, attendance.Present); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	batch, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(batch) != 2 {
		// Student 2 carries the reconciled "late" mark, so the batch is
		// the explicit mark plus the reconciled one.
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
}

func TestSaveNothingMarked(t *testing.T) {
	fx := newFixture(t)
	s := New(fx.resolver, fx.store, "op-1", time.Second)
	// Course 3 has one enrollment and no prior records; leave everything
	// unmarked.
	if err := s.Select(context.Background(), 3, "2024-03-01"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := s.Save(context.Background()); !errors.Is(err, ErrNothingMarked) {
		t.Fatalf("err = %v, want ErrNothingMarked", err)
	}
}

type failingStore struct {
	*attendance.Memory
}

func (f failingStore) BulkUpsert(ctx context.Context, records []attendance.Record) error {
	return errors.New("connection reset")
}

func TestSaveFailurePreservesEdits(t *testing.T) {
	fx := newFixture(t)
	s := New(fx.resolver, failingStore{fx.store}, "op-1", time.Second)
	if err := s.Select(context.Background(), 1, "2024-03-01"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.MarkAll(attendance.Present); err != nil {
		t.Fatalf("MarkAll: %v", err)
	}

	_, err := s.Save(context.Background())
	var pe PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	snap := s.Snapshot()
	if snap.State != StateReady {
		t.Errorf("state = %s, want ready for retry", snap.State)
	}
	for id, status := range snap.Edits {
		if status != attendance.Present {
			t.Errorf("edits[%d] = %s, edits must survive a failed save", id, status)
		}
	}
}

// slowResolver delays resolution until released, to simulate an in-flight
// fetch racing a newer selection.
type slowResolver struct {
	inner   RosterResolver
	release chan struct{}
}

func (r *slowResolver) Resolve(ctx context.Context, courseID int64) ([]directory.Student, error) {
	if courseID == 1 {
		<-r.release
	}
	return r.inner.Resolve(ctx, courseID)
}

func TestStaleSelectionIsDiscarded(t *testing.T) {
	fx := newFixture(t)
	slow := &slowResolver{inner: fx.resolver, release: make(chan struct{})}
	s := New(slow, fx.store, "op-1", 5*time.Second)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.Select(context.Background(), 1, "2024-03-01")
	}()

	// Let the first select reach its fetch, then supersede it.
	time.Sleep(20 * time.Millisecond)
	if err := s.Select(context.Background(), 3, "2024-03-02"); err != nil {
		t.Fatalf("second Select: %v", err)
	}
	close(slow.release)

	if err := <-firstDone; !errors.Is(err, ErrSelectionSuperseded) {
		t.Fatalf("first select err = %v, want ErrSelectionSuperseded", err)
	}
	snap := s.Snapshot()
	if snap.CourseID != 3 || snap.Date != "2024-03-02" {
		t.Errorf("session holds (%d, %s), want newer selection (3, 2024-03-02)", snap.CourseID, snap.Date)
	}
}

func TestAbandonResetsSession(t *testing.T) {
	s := newReadySession(t, newFixture(t))
	s.Abandon()
	snap := s.Snapshot()
	if snap.State != StateEmpty || snap.Roster != nil || snap.Edits != nil {
		t.Fatalf("abandon left state behind: %+v", snap)
	}
	if err := s.SetStatus(1, attendance.Present); !errors.Is(err, ErrNotReady) {
		t.Errorf("SetStatus after abandon = %v, want ErrNotReady", err)
	}
}

func TestSwitchingSelectionDropsEdits(t *testing.T) {
	fx := newFixture(t)
	s := newReadySession(t, fx)
	if err := s.MarkAll(attendance.Present); err != nil {
		t.Fatalf("MarkAll: %v", err)
	}

	if err := s.Select(context.Background(), 2, "2024-03-01"); err != nil {
		t.Fatalf("Select course 2: %v", err)
	}
	snap := s.Snapshot()
	if snap.CourseID != 2 {
		t.Fatalf("courseID = %d, want 2", snap.CourseID)
	}
	// Course 2 has only student 1 enrolled; no carry-over from course 1.
	if len(snap.Edits) != 1 {
		t.Fatalf("edits size = %d, want 1", len(snap.Edits))
	}
	if snap.Edits[1] != attendance.Unmarked {
		t.Errorf("edits[1] = %s, want unmarked after switch", snap.Edits[1])
	}
}

func TestManagerReturnsSameSessionPerOperator(t *testing.T) {
	fx := newFixture(t)
	m := NewManager(fx.resolver, fx.store, time.Second)
	a := m.ForOperator("op-a")
	if m.ForOperator("op-a") != a {
		t.Error("same operator should get the same session")
	}
	if m.ForOperator("op-b") == a {
		t.Error("different operators must not share a session")
	}
}
