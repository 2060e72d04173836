package store

import "database/sql"

// Migrate applies the schema. Idempotent; safe to run at startup.
func Migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id          BIGSERIAL PRIMARY KEY,
		code        TEXT NOT NULL DEFAULT '',
		first_name  TEXT NOT NULL,
		last_name   TEXT NOT NULL,
		email       TEXT NOT NULL DEFAULT '',
		department  TEXT NOT NULL,
		semester    INT  NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active'
	);

	CREATE TABLE IF NOT EXISTS courses (
		id             BIGSERIAL PRIMARY KEY,
		code           TEXT NOT NULL,
		name           TEXT NOT NULL,
		department     TEXT NOT NULL DEFAULT '',
		credits        INT  NOT NULL DEFAULT 0,
		semester       INT  NOT NULL DEFAULT 1,
		capacity       INT  NOT NULL,
		enrolled_count INT  NOT NULL DEFAULT 0,
		faculty_id     BIGINT,
		status         TEXT NOT NULL DEFAULT 'active'
	);

	CREATE TABLE IF NOT EXISTS faculty (
		id          BIGSERIAL PRIMARY KEY,
		first_name  TEXT NOT NULL,
		last_name   TEXT NOT NULL,
		email       TEXT NOT NULL DEFAULT '',
		department  TEXT NOT NULL,
		designation TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS enrollments (
		id          BIGSERIAL PRIMARY KEY,
		student_id  BIGINT NOT NULL,
		course_id   BIGINT NOT NULL,
		enrolled_on TEXT   NOT NULL,
		status      TEXT   NOT NULL DEFAULT 'enrolled'
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_active
		ON enrollments (student_id, course_id) WHERE status = 'enrolled';

	CREATE TABLE IF NOT EXISTS attendance_records (
		id         BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL,
		course_id  BIGINT NOT NULL,
		marked_on  TEXT   NOT NULL,
		status     TEXT   NOT NULL,
		marked_by  TEXT   NOT NULL DEFAULT '',
		remarks    TEXT   NOT NULL DEFAULT '',
		UNIQUE (student_id, course_id, marked_on)
	);
	CREATE INDEX IF NOT EXISTS idx_attendance_course_date
		ON attendance_records (course_id, marked_on);
	`
	_, err := db.Exec(schema)
	return err
}
