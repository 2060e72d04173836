package attendance

import (
	"context"
	"sort"
	"sync"
)

type tripleKey struct {
	studentID int64
	courseID  int64
	date      Date
}

// Memory is a mutex-guarded in-memory attendance store. Records are
// indexed by the (student, course, date) triple so upserts replace in
// place instead of appending duplicates.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	byKey  map[tripleKey]Record
}

// NewMemory creates an empty in-memory attendance store.
func NewMemory() *Memory {
	return &Memory{nextID: 1, byKey: make(map[tripleKey]Record)}
}

func (m *Memory) GetByCourseAndDate(ctx context.Context, courseID int64, date Date) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.byKey {
		if rec.CourseID == courseID && rec.Date == date {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (m *Memory) GetByStudentID(ctx context.Context, studentID int64) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.byKey {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CourseID < out[j].CourseID
	})
	return out, nil
}

func (m *Memory) GetByDate(ctx context.Context, date Date) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.byKey {
		if rec.Date == date {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseID != out[j].CourseID {
			return out[i].CourseID < out[j].CourseID
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

// BulkUpsert validates the whole batch before touching state so a bad
// record never leaves a partial write behind.
func (m *Memory) BulkUpsert(ctx context.Context, records []Record) error {
	if err := validateBatch(records); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		key := tripleKey{studentID: rec.StudentID, courseID: rec.CourseID, date: rec.Date}
		if existing, ok := m.byKey[key]; ok {
			rec.ID = existing.ID
		} else {
			rec.ID = m.nextID
			m.nextID++
		}
		m.byKey[key] = rec
	}
	return nil
}

// Len reports the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byKey)
}
