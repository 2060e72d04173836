package enrollment

import (
	"context"
	"sort"
	"sync"

	"campus/internal/directory"
)

// Memory is a mutex-guarded in-memory enrollment index.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]Enrollment
}

// NewMemory creates an empty in-memory enrollment index.
func NewMemory() *Memory {
	return &Memory{nextID: 1, items: make(map[int64]Enrollment)}
}

func (r *Memory) GetByCourseID(ctx context.Context, courseID int64) ([]Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Enrollment
	for _, e := range r.items {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Memory) GetByStudentID(ctx context.Context, studentID int64) ([]Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Enrollment
	for _, e := range r.items {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Memory) GetByID(ctx context.Context, id int64) (Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[id]
	if !ok {
		return Enrollment{}, directory.NotFoundError{Entity: "enrollment", ID: id}
	}
	return e, nil
}

func (r *Memory) Create(ctx context.Context, e Enrollment) (Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.StudentID == e.StudentID && existing.CourseID == e.CourseID && existing.Status == StatusEnrolled {
			return Enrollment{}, ErrAlreadyEnrolled{StudentID: e.StudentID, CourseID: e.CourseID}
		}
	}
	e.ID = r.nextID
	r.nextID++
	if e.Status == "" {
		e.Status = StatusEnrolled
	}
	r.items[e.ID] = e
	return e, nil
}

func (r *Memory) Drop(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return directory.NotFoundError{Entity: "enrollment", ID: id}
	}
	e.Status = StatusDropped
	r.items[id] = e
	return nil
}
