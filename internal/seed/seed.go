// Package seed loads a small deterministic demo dataset into the memory
// backend so the API is usable out of the box and tests have fixtures.
package seed

import (
	"context"
	"fmt"

	"campus/internal/attendance"
	"campus/internal/directory"
	"campus/internal/enrollment"
)

// Stores groups the repositories the seeder fills.
type Stores struct {
	Students    directory.StudentRepository
	Courses     directory.CourseRepository
	Faculty     directory.FacultyRepository
	Enrollments enrollment.Repository
	Attendance  attendance.Store
}

// Load fills the stores with the demo dataset. Ids are assigned in
// insertion order, so the dataset below is stable run to run.
func Load(ctx context.Context, s Stores) error {
	faculty := []directory.Faculty{
		{FirstName: "Meera", LastName: "Iyer", Email: "meera.iyer@campus.edu", Department: "Computer Science", Designation: "Professor"},
		{FirstName: "Arjun", LastName: "Nair", Email: "arjun.nair@campus.edu", Department: "Mathematics", Designation: "Assistant Professor"},
	}
	for _, f := range faculty {
		if _, err := s.Faculty.Create(ctx, f); err != nil {
			return fmt.Errorf("seed faculty: %w", err)
		}
	}

	students := []directory.Student{
		{Code: "ST2024001", FirstName: "Aisha", LastName: "Khan", Email: "aisha.khan@campus.edu", Department: "Computer Science", Semester: 5, Status: directory.StudentActive},
		{Code: "ST2024002", FirstName: "Rohan", LastName: "Patel", Email: "rohan.patel@campus.edu", Department: "Computer Science", Semester: 5, Status: directory.StudentActive},
		{Code: "ST2024003", FirstName: "Sara", LastName: "D'Souza", Email: "sara.dsouza@campus.edu", Department: "Computer Science", Semester: 5, Status: directory.StudentActive},
		{Code: "ST2024004", FirstName: "Vikram", LastName: "Rao", Email: "vikram.rao@campus.edu", Department: "Mathematics", Semester: 3, Status: directory.StudentActive},
		{Code: "ST2023017", FirstName: "Nisha", LastName: "Menon", Email: "nisha.menon@campus.edu", Department: "Computer Science", Semester: 7, Status: directory.StudentGraduated},
	}
	for _, st := range students {
		if _, err := s.Students.Create(ctx, st); err != nil {
			return fmt.Errorf("seed students: %w", err)
		}
	}

	courses := []directory.Course{
		{Code: "CS301", Name: "Operating Systems", Department: "Computer Science", Credits: 4, Semester: 5, Capacity: 60, Status: directory.CourseActive},
		{Code: "CS305", Name: "Database Systems", Department: "Computer Science", Credits: 4, Semester: 5, Capacity: 60, Status: directory.CourseActive},
		{Code: "MA201", Name: "Linear Algebra", Department: "Mathematics", Credits: 3, Semester: 3, Capacity: 80, Status: directory.CourseActive},
		{Code: "CS110", Name: "Intro to Programming", Department: "Computer Science", Credits: 4, Semester: 1, Capacity: 120, Status: directory.CourseInactive},
	}
	for i, c := range courses {
		c.FacultyID = int64(i%2 + 1)
		if _, err := s.Courses.Create(ctx, c); err != nil {
			return fmt.Errorf("seed courses: %w", err)
		}
	}

	links := []enrollment.Enrollment{
		{StudentID: 1, CourseID: 1, EnrolledOn: "2024-01-15", Status: enrollment.StatusEnrolled},
		{StudentID: 2, CourseID: 1, EnrolledOn: "2024-01-15", Status: enrollment.StatusEnrolled},
		{StudentID: 3, CourseID: 1, EnrolledOn: "2024-01-16", Status: enrollment.StatusEnrolled},
		{StudentID: 1, CourseID: 2, EnrolledOn: "2024-01-15", Status: enrollment.StatusEnrolled},
		{StudentID: 3, CourseID: 2, EnrolledOn: "2024-01-16", Status: enrollment.StatusDropped},
		{StudentID: 4, CourseID: 3, EnrolledOn: "2024-01-20", Status: enrollment.StatusEnrolled},
	}
	counts := map[int64]int{}
	for _, link := range links {
		if _, err := s.Enrollments.Create(ctx, link); err != nil {
			return fmt.Errorf("seed enrollments: %w", err)
		}
		if link.Status == enrollment.StatusEnrolled {
			counts[link.CourseID]++
		}
	}
	for courseID, n := range counts {
		course, err := s.Courses.GetByID(ctx, courseID)
		if err != nil {
			return err
		}
		course.EnrolledCount = n
		if _, err := s.Courses.Update(ctx, course); err != nil {
			return err
		}
	}

	records := []attendance.Record{
		{StudentID: 2, CourseID: 1, Date: "2024-03-01", Status: attendance.Late, MarkedBy: "seed", Remarks: ""},
	}
	if err := s.Attendance.BulkUpsert(ctx, records); err != nil {
		return fmt.Errorf("seed attendance: %w", err)
	}
	return nil
}
