package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStudents persists the student directory in Postgres.
type PostgresStudents struct {
	db *sql.DB
}

// NewPostgresStudents creates a student repo over an open connection.
func NewPostgresStudents(db *sql.DB) *PostgresStudents {
	return &PostgresStudents{db: db}
}

const studentCols = `id, code, first_name, last_name, email, department, semester, status`

func scanStudent(row interface{ Scan(...any) error }) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.Code, &s.FirstName, &s.LastName, &s.Email, &s.Department, &s.Semester, &s.Status)
	return s, err
}

func (r *PostgresStudents) GetAll(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+studentCols+` FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresStudents) GetByID(ctx context.Context, id int64) (Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, NotFoundError{Entity: "student", ID: id}
	}
	return s, err
}

func (r *PostgresStudents) Create(ctx context.Context, s Student) (Student, error) {
	if s.Status == "" {
		s.Status = StudentActive
	}
	if err := s.Validate(); err != nil {
		return Student{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (code, first_name, last_name, email, department, semester, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, s.Code, s.FirstName, s.LastName, s.Email, s.Department, s.Semester, s.Status)
	if err := row.Scan(&s.ID); err != nil {
		return Student{}, err
	}
	if s.Code == "" {
		s.Code = fmt.Sprintf("ST%d%03d", time.Now().Year(), s.ID)
		if _, err := r.db.ExecContext(ctx, `UPDATE students SET code = $2 WHERE id = $1`, s.ID, s.Code); err != nil {
			return Student{}, err
		}
	}
	return s, nil
}

func (r *PostgresStudents) Update(ctx context.Context, s Student) (Student, error) {
	if err := s.Validate(); err != nil {
		return Student{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET code=$2, first_name=$3, last_name=$4, email=$5, department=$6, semester=$7, status=$8
		WHERE id=$1
	`, s.ID, s.Code, s.FirstName, s.LastName, s.Email, s.Department, s.Semester, s.Status)
	if err != nil {
		return Student{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Student{}, NotFoundError{Entity: "student", ID: s.ID}
	}
	return s, nil
}

func (r *PostgresStudents) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Entity: "student", ID: id}
	}
	return nil
}

// PostgresCourses persists the course directory in Postgres.
type PostgresCourses struct {
	db *sql.DB
}

// NewPostgresCourses creates a course repo over an open connection.
func NewPostgresCourses(db *sql.DB) *PostgresCourses {
	return &PostgresCourses{db: db}
}

const courseCols = `id, code, name, department, credits, semester, capacity, enrolled_count, faculty_id, status`

func scanCourse(row interface{ Scan(...any) error }) (Course, error) {
	var c Course
	var facultyID sql.NullInt64
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Department, &c.Credits, &c.Semester, &c.Capacity, &c.EnrolledCount, &facultyID, &c.Status)
	if facultyID.Valid {
		c.FacultyID = facultyID.Int64
	}
	return c, err
}

func (r *PostgresCourses) GetAll(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+courseCols+` FROM courses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresCourses) GetByID(ctx context.Context, id int64) (Course, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+courseCols+` FROM courses WHERE id = $1`, id)
	c, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, NotFoundError{Entity: "course", ID: id}
	}
	return c, err
}

func (r *PostgresCourses) Create(ctx context.Context, c Course) (Course, error) {
	if c.Status == "" {
		c.Status = CourseActive
	}
	c.EnrolledCount = 0
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	var facultyID any
	if c.FacultyID != 0 {
		facultyID = c.FacultyID
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO courses (code, name, department, credits, semester, capacity, enrolled_count, faculty_id, status)
		VALUES ($1,$2,$3,$4,$5,$6,0,$7,$8)
		RETURNING id
	`, c.Code, c.Name, c.Department, c.Credits, c.Semester, c.Capacity, facultyID, c.Status)
	if err := row.Scan(&c.ID); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (r *PostgresCourses) Update(ctx context.Context, c Course) (Course, error) {
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	var facultyID any
	if c.FacultyID != 0 {
		facultyID = c.FacultyID
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses
		SET code=$2, name=$3, department=$4, credits=$5, semester=$6, capacity=$7, enrolled_count=$8, faculty_id=$9, status=$10
		WHERE id=$1
	`, c.ID, c.Code, c.Name, c.Department, c.Credits, c.Semester, c.Capacity, c.EnrolledCount, facultyID, c.Status)
	if err != nil {
		return Course{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Course{}, NotFoundError{Entity: "course", ID: c.ID}
	}
	return c, nil
}

func (r *PostgresCourses) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Entity: "course", ID: id}
	}
	return nil
}

// PostgresFaculty persists the faculty directory in Postgres.
type PostgresFaculty struct {
	db *sql.DB
}

// NewPostgresFaculty creates a faculty repo over an open connection.
func NewPostgresFaculty(db *sql.DB) *PostgresFaculty {
	return &PostgresFaculty{db: db}
}

const facultyCols = `id, first_name, last_name, email, department, designation`

func scanFaculty(row interface{ Scan(...any) error }) (Faculty, error) {
	var f Faculty
	err := row.Scan(&f.ID, &f.FirstName, &f.LastName, &f.Email, &f.Department, &f.Designation)
	return f, err
}

func (r *PostgresFaculty) GetAll(ctx context.Context) ([]Faculty, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+facultyCols+` FROM faculty ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Faculty
	for rows.Next() {
		f, err := scanFaculty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PostgresFaculty) GetByID(ctx context.Context, id int64) (Faculty, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+facultyCols+` FROM faculty WHERE id = $1`, id)
	f, err := scanFaculty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Faculty{}, NotFoundError{Entity: "faculty", ID: id}
	}
	return f, err
}

func (r *PostgresFaculty) Create(ctx context.Context, f Faculty) (Faculty, error) {
	if err := f.Validate(); err != nil {
		return Faculty{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO faculty (first_name, last_name, email, department, designation)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, f.FirstName, f.LastName, f.Email, f.Department, f.Designation)
	if err := row.Scan(&f.ID); err != nil {
		return Faculty{}, err
	}
	return f, nil
}

func (r *PostgresFaculty) Update(ctx context.Context, f Faculty) (Faculty, error) {
	if err := f.Validate(); err != nil {
		return Faculty{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE faculty
		SET first_name=$2, last_name=$3, email=$4, department=$5, designation=$6
		WHERE id=$1
	`, f.ID, f.FirstName, f.LastName, f.Email, f.Department, f.Designation)
	if err != nil {
		return Faculty{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Faculty{}, NotFoundError{Entity: "faculty", ID: f.ID}
	}
	return f, nil
}

func (r *PostgresFaculty) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM faculty WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Entity: "faculty", ID: id}
	}
	return nil
}
