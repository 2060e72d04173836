package directory

import (
	"context"
	"errors"
	"fmt"
)

// StudentStatus is the lifecycle status of a student record.
type StudentStatus string

const (
	StudentActive    StudentStatus = "active"
	StudentInactive  StudentStatus = "inactive"
	StudentGraduated StudentStatus = "graduated"
	StudentWithdrawn StudentStatus = "withdrawn"
)

func (s StudentStatus) valid() bool {
	switch s {
	case StudentActive, StudentInactive, StudentGraduated, StudentWithdrawn:
		return true
	}
	return false
}

// CourseStatus marks whether a course is open for activity.
type CourseStatus string

const (
	CourseActive   CourseStatus = "active"
	CourseInactive CourseStatus = "inactive"
)

func (s CourseStatus) valid() bool {
	return s == CourseActive || s == CourseInactive
}

// Student is a directory record keyed by a numeric id assigned on create.
// Code is the externally visible student number (e.g. ST2024001).
type Student struct {
	ID         int64         `json:"id"`
	Code       string        `json:"code"`
	FirstName  string        `json:"first_name"`
	LastName   string        `json:"last_name"`
	Email      string        `json:"email,omitempty"`
	Department string        `json:"department"`
	Semester   int           `json:"semester"`
	Status     StudentStatus `json:"status"`
}

// Validate checks required fields and enumerated values before a write.
func (s Student) Validate() error {
	if s.FirstName == "" || s.LastName == "" {
		return ValidationError{Field: "name", Reason: "first and last name required"}
	}
	if s.Department == "" {
		return ValidationError{Field: "department", Reason: "required"}
	}
	if s.Semester < 1 || s.Semester > 8 {
		return ValidationError{Field: "semester", Reason: "must be between 1 and 8"}
	}
	if !s.Status.valid() {
		return ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s.Status)}
	}
	return nil
}

// Course is a directory record for an offered course.
// EnrolledCount is derived from enrollment links and never exceeds Capacity.
type Course struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Department    string       `json:"department"`
	Credits       int          `json:"credits"`
	Semester      int          `json:"semester"`
	Capacity      int          `json:"capacity"`
	EnrolledCount int          `json:"enrolled_count"`
	FacultyID     int64        `json:"faculty_id,omitempty"`
	Status        CourseStatus `json:"status"`
}

// Validate checks required fields and enumerated values before a write.
func (c Course) Validate() error {
	if c.Code == "" || c.Name == "" {
		return ValidationError{Field: "code", Reason: "course code and name required"}
	}
	if c.Capacity <= 0 {
		return ValidationError{Field: "capacity", Reason: "must be positive"}
	}
	if c.EnrolledCount < 0 || c.EnrolledCount > c.Capacity {
		return ValidationError{Field: "enrolled_count", Reason: "must be between 0 and capacity"}
	}
	if !c.Status.valid() {
		return ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", c.Status)}
	}
	return nil
}

// Faculty is a directory record for a faculty member.
type Faculty struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email,omitempty"`
	Department  string `json:"department"`
	Designation string `json:"designation,omitempty"`
}

// Validate checks required fields before a write.
func (f Faculty) Validate() error {
	if f.FirstName == "" || f.LastName == "" {
		return ValidationError{Field: "name", Reason: "first and last name required"}
	}
	if f.Department == "" {
		return ValidationError{Field: "department", Reason: "required"}
	}
	return nil
}

// NotFoundError reports a lookup for an id that has no record.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// ValidationError reports a record that fails constructor-time checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StudentRepository is the student directory contract.
type StudentRepository interface {
	GetAll(ctx context.Context) ([]Student, error)
	GetByID(ctx context.Context, id int64) (Student, error)
	Create(ctx context.Context, s Student) (Student, error)
	Update(ctx context.Context, s Student) (Student, error)
	Delete(ctx context.Context, id int64) error
}

// CourseRepository is the course directory contract.
type CourseRepository interface {
	GetAll(ctx context.Context) ([]Course, error)
	GetByID(ctx context.Context, id int64) (Course, error)
	Create(ctx context.Context, c Course) (Course, error)
	Update(ctx context.Context, c Course) (Course, error)
	Delete(ctx context.Context, id int64) error
}

// FacultyRepository is the faculty directory contract.
type FacultyRepository interface {
	GetAll(ctx context.Context) ([]Faculty, error)
	GetByID(ctx context.Context, id int64) (Faculty, error)
	Create(ctx context.Context, f Faculty) (Faculty, error)
	Update(ctx context.Context, f Faculty) (Faculty, error)
	Delete(ctx context.Context, id int64) error
}
