package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStudents is a mutex-guarded in-memory student directory.
// Ids are assigned monotonically; listings are sorted by id so repeated
// reads are deterministic.
type MemoryStudents struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]Student
}

// NewMemoryStudents creates an empty in-memory student directory.
func NewMemoryStudents() *MemoryStudents {
	return &MemoryStudents{nextID: 1, items: make(map[int64]Student)}
}

func (r *MemoryStudents) GetAll(ctx context.Context) ([]Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Student, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryStudents) GetByID(ctx context.Context, id int64) (Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return Student{}, NotFoundError{Entity: "student", ID: id}
	}
	return s, nil
}

func (r *MemoryStudents) Create(ctx context.Context, s Student) (Student, error) {
	if s.Status == "" {
		s.Status = StudentActive
	}
	if err := s.Validate(); err != nil {
		return Student{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	if s.Code == "" {
		s.Code = fmt.Sprintf("ST%d%03d", time.Now().Year(), s.ID)
	}
	r.items[s.ID] = s
	return s, nil
}

func (r *MemoryStudents) Update(ctx context.Context, s Student) (Student, error) {
	if err := s.Validate(); err != nil {
		return Student{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; !ok {
		return Student{}, NotFoundError{Entity: "student", ID: s.ID}
	}
	r.items[s.ID] = s
	return s, nil
}

func (r *MemoryStudents) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return NotFoundError{Entity: "student", ID: id}
	}
	delete(r.items, id)
	return nil
}

// MemoryCourses is a mutex-guarded in-memory course directory.
type MemoryCourses struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]Course
}

// NewMemoryCourses creates an empty in-memory course directory.
func NewMemoryCourses() *MemoryCourses {
	return &MemoryCourses{nextID: 1, items: make(map[int64]Course)}
}

func (r *MemoryCourses) GetAll(ctx context.Context) ([]Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Course, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryCourses) GetByID(ctx context.Context, id int64) (Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return Course{}, NotFoundError{Entity: "course", ID: id}
	}
	return c, nil
}

func (r *MemoryCourses) Create(ctx context.Context, c Course) (Course, error) {
	if c.Status == "" {
		c.Status = CourseActive
	}
	c.EnrolledCount = 0
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	r.items[c.ID] = c
	return c, nil
}

func (r *MemoryCourses) Update(ctx context.Context, c Course) (Course, error) {
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.ID]; !ok {
		return Course{}, NotFoundError{Entity: "course", ID: c.ID}
	}
	r.items[c.ID] = c
	return c, nil
}

func (r *MemoryCourses) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return NotFoundError{Entity: "course", ID: id}
	}
	delete(r.items, id)
	return nil
}

// MemoryFaculty is a mutex-guarded in-memory faculty directory.
type MemoryFaculty struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]Faculty
}

// NewMemoryFaculty creates an empty in-memory faculty directory.
func NewMemoryFaculty() *MemoryFaculty {
	return &MemoryFaculty{nextID: 1, items: make(map[int64]Faculty)}
}

func (r *MemoryFaculty) GetAll(ctx context.Context) ([]Faculty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Faculty, 0, len(r.items))
	for _, f := range r.items {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryFaculty) GetByID(ctx context.Context, id int64) (Faculty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.items[id]
	if !ok {
		return Faculty{}, NotFoundError{Entity: "faculty", ID: id}
	}
	return f, nil
}

func (r *MemoryFaculty) Create(ctx context.Context, f Faculty) (Faculty, error) {
	if err := f.Validate(); err != nil {
		return Faculty{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = r.nextID
	r.nextID++
	r.items[f.ID] = f
	return f, nil
}

func (r *MemoryFaculty) Update(ctx context.Context, f Faculty) (Faculty, error) {
	if err := f.Validate(); err != nil {
		return Faculty{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[f.ID]; !ok {
		return Faculty{}, NotFoundError{Entity: "faculty", ID: f.ID}
	}
	r.items[f.ID] = f
	return f, nil
}

func (r *MemoryFaculty) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return NotFoundError{Entity: "faculty", ID: id}
	}
	delete(r.items, id)
	return nil
}
