package seed

import (
	"context"
	"testing"

	"campus/internal/attendance"
	"campus/internal/directory"
	"campus/internal/enrollment"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	students := directory.NewMemoryStudents()
	courses := directory.NewMemoryCourses()
	faculty := directory.NewMemoryFaculty()
	enrollments := enrollment.NewMemory()
	records := attendance.NewMemory()

	err := Load(ctx, Stores{
		Students:    students,
		Courses:     courses,
		Faculty:     faculty,
		Enrollments: enrollments,
		Attendance:  records,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	allStudents, _ := students.GetAll(ctx)
	if len(allStudents) != 5 {
		t.Errorf("students = %d, want 5", len(allStudents))
	}
	allCourses, _ := courses.GetAll(ctx)
	if len(allCourses) != 4 {
		t.Errorf("courses = %d, want 4", len(allCourses))
	}

	// Course 1 carries three active enrollments; the enrolled count must
	// reflect them.
	course, err := courses.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if course.EnrolledCount != 3 {
		t.Errorf("course 1 enrolled count = %d, want 3", course.EnrolledCount)
	}

	existing, err := records.GetByCourseAndDate(ctx, 1, "2024-03-01")
	if err != nil {
		t.Fatalf("GetByCourseAndDate: %v", err)
	}
	if len(existing) != 1 || existing[0].StudentID != 2 || existing[0].Status != attendance.Late {
		t.Errorf("seed attendance = %+v", existing)
	}
}
