package attendance

import (
	"context"
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "2024-03-01"},
		{in: "2024-12-31"},
		{in: "2024-13-01", wantErr: true},
		{in: "01-03-2024", wantErr: true},
		{in: "2024-03-01T10:00:00Z", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestBulkUpsertReplacesByTriple(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first := []Record{
		{StudentID: 1, CourseID: 10, Date: "2024-03-01", Status: Present, MarkedBy: "a"},
		{StudentID: 2, CourseID: 10, Date: "2024-03-01", Status: Late, MarkedBy: "a"},
	}
	if err := m.BulkUpsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}

	second := []Record{
		{StudentID: 2, CourseID: 10, Date: "2024-03-01", Status: Absent, MarkedBy: "b", Remarks: "left early"},
	}
	if err := m.BulkUpsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("len after re-upsert = %d, want 2 (replace, not append)", m.Len())
	}

	records, err := m.GetByCourseAndDate(ctx, 10, "2024-03-01")
	if err != nil {
		t.Fatalf("GetByCourseAndDate: %v", err)
	}
	for _, rec := range records {
		if rec.StudentID == 2 {
			if rec.Status != Absent || rec.MarkedBy != "b" || rec.Remarks != "left early" {
				t.Errorf("student 2 record not replaced: %+v", rec)
			}
		}
	}
}

func TestBulkUpsertKeepsIDsStable(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	batch := []Record{{StudentID: 1, CourseID: 10, Date: "2024-03-01", Status: Present}}
	if err := m.BulkUpsert(ctx, batch); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	before, _ := m.GetByCourseAndDate(ctx, 10, "2024-03-01")

	batch[0].Status = Late
	if err := m.BulkUpsert(ctx, batch); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	after, _ := m.GetByCourseAndDate(ctx, 10, "2024-03-01")
	if before[0].ID != after[0].ID {
		t.Errorf("record id changed on upsert: %d -> %d", before[0].ID, after[0].ID)
	}
}

func TestBulkUpsertRejectsWholeBatch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	bad := []Record{
		{StudentID: 1, CourseID: 10, Date: "2024-03-01", Status: Present},
		{StudentID: 2, CourseID: 10, Date: "2024-03-01", Status: "unmarked"},
	}
	if err := m.BulkUpsert(ctx, bad); err == nil {
		t.Fatal("expected error for unpersistable status")
	}
	// No partial write: the valid leading record must not have landed.
	if m.Len() != 0 {
		t.Fatalf("len = %d, want 0 after rejected batch", m.Len())
	}
}

func TestBulkUpsertEmptyBatch(t *testing.T) {
	m := NewMemory()
	if err := m.BulkUpsert(context.Background(), nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
}

func TestGetByDate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	batch := []Record{
		{StudentID: 2, CourseID: 11, Date: "2024-03-01", Status: Present},
		{StudentID: 1, CourseID: 10, Date: "2024-03-01", Status: Absent},
		{StudentID: 2, CourseID: 10, Date: "2024-03-01", Status: Late},
		{StudentID: 1, CourseID: 10, Date: "2024-03-02", Status: Present},
	}
	if err := m.BulkUpsert(ctx, batch); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	records, err := m.GetByDate(ctx, "2024-03-01")
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3 (other days excluded)", len(records))
	}
	want := []struct{ courseID, studentID int64 }{{10, 1}, {10, 2}, {11, 2}}
	for i, w := range want {
		if records[i].CourseID != w.courseID || records[i].StudentID != w.studentID {
			t.Errorf("records[%d] = course %d student %d, want course %d student %d",
				i, records[i].CourseID, records[i].StudentID, w.courseID, w.studentID)
		}
	}
}

func TestGetByStudentID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	batch := []Record{
		{StudentID: 1, CourseID: 10, Date: "2024-03-02", Status: Present},
		{StudentID: 1, CourseID: 11, Date: "2024-03-01", Status: Late},
		{StudentID: 2, CourseID: 10, Date: "2024-03-01", Status: Absent},
	}
	if err := m.BulkUpsert(ctx, batch); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	records, err := m.GetByStudentID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByStudentID: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].Date != "2024-03-01" {
		t.Errorf("records not sorted by date: %+v", records)
	}
}
