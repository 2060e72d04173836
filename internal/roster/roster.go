// Package roster resolves the authoritative list of students eligible for
// attendance marking on a course: the join of active enrollment links with
// the student directory.
package roster

import (
	"context"
	"fmt"
	"sort"

	"campus/internal/directory"
	"campus/internal/enrollment"
)

// Resolver joins the enrollment index with the student directory.
type Resolver struct {
	courses     directory.CourseRepository
	students    directory.StudentRepository
	enrollments enrollment.Repository
}

// NewResolver creates a roster resolver.
func NewResolver(courses directory.CourseRepository, students directory.StudentRepository, enrollments enrollment.Repository) *Resolver {
	return &Resolver{courses: courses, students: students, enrollments: enrollments}
}

// Resolve returns the students with an active enrollment in courseID,
// sorted by student id so repeated calls yield the same order. Inactive
// courses may still be resolved for historical marking. Enrollment links
// pointing at a student id with no directory record are skipped rather
// than failing the call; soft-deleted students leave dangling links
// behind and the roster tolerates them.
func (r *Resolver) Resolve(ctx context.Context, courseID int64) ([]directory.Student, error) {
	if _, err := r.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	links, err := r.enrollments.GetByCourseID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch enrollments for course %d: %w", courseID, err)
	}

	seen := make(map[int64]bool, len(links))
	var out []directory.Student
	for _, link := range links {
		if link.Status != enrollment.StatusEnrolled || seen[link.StudentID] {
			continue
		}
		seen[link.StudentID] = true
		student, err := r.students.GetByID(ctx, link.StudentID)
		if err != nil {
			if directory.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("fetch student %d: %w", link.StudentID, err)
		}
		out = append(out, student)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
