package enrollment

import (
	"context"
	"database/sql"
	"errors"

	"campus/internal/directory"
)

// Postgres persists the enrollment index in Postgres. A partial unique
// index on (student_id, course_id) WHERE status = 'enrolled' backs the
// one-active-link invariant.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates an enrollment repo over an open connection.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const cols = `id, student_id, course_id, enrolled_on, status`

func (r *Postgres) GetByCourseID(ctx context.Context, courseID int64) ([]Enrollment, error) {
	return r.list(ctx, `SELECT `+cols+` FROM enrollments WHERE course_id = $1 ORDER BY id`, courseID)
}

func (r *Postgres) GetByStudentID(ctx context.Context, studentID int64) ([]Enrollment, error) {
	return r.list(ctx, `SELECT `+cols+` FROM enrollments WHERE student_id = $1 ORDER BY id`, studentID)
}

func (r *Postgres) list(ctx context.Context, query string, arg any) ([]Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.EnrolledOn, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Postgres) GetByID(ctx context.Context, id int64) (Enrollment, error) {
	var e Enrollment
	err := r.db.QueryRowContext(ctx, `SELECT `+cols+` FROM enrollments WHERE id = $1`, id).
		Scan(&e.ID, &e.StudentID, &e.CourseID, &e.EnrolledOn, &e.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Enrollment{}, directory.NotFoundError{Entity: "enrollment", ID: id}
	}
	return e, err
}

func (r *Postgres) Create(ctx context.Context, e Enrollment) (Enrollment, error) {
	if e.Status == "" {
		e.Status = StatusEnrolled
	}
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM enrollments
			WHERE student_id = $1 AND course_id = $2 AND status = 'enrolled'
		)
	`, e.StudentID, e.CourseID).Scan(&exists)
	if err != nil {
		return Enrollment{}, err
	}
	if exists {
		return Enrollment{}, ErrAlreadyEnrolled{StudentID: e.StudentID, CourseID: e.CourseID}
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO enrollments (student_id, course_id, enrolled_on, status)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, e.StudentID, e.CourseID, e.EnrolledOn, e.Status)
	if err := row.Scan(&e.ID); err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

func (r *Postgres) Drop(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE enrollments SET status = 'dropped' WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return directory.NotFoundError{Entity: "enrollment", ID: id}
	}
	return nil
}
