package attendance

import (
	"context"
	"database/sql"
	"fmt"
)

// Postgres persists attendance records in Postgres. The unique index on
// (student_id, course_id, marked_on) backs the one-record-per-triple
// invariant; BulkUpsert rides on it with ON CONFLICT DO UPDATE.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates an attendance store over an open connection.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const cols = `id, student_id, course_id, marked_on, status, marked_by, remarks`

func (p *Postgres) GetByCourseAndDate(ctx context.Context, courseID int64, date Date) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+cols+` FROM attendance_records
		WHERE course_id = $1 AND marked_on = $2
		ORDER BY student_id
	`, courseID, string(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (p *Postgres) GetByStudentID(ctx context.Context, studentID int64) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+cols+` FROM attendance_records
		WHERE student_id = $1
		ORDER BY marked_on, course_id
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var date string
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.CourseID, &date, &rec.Status, &rec.MarkedBy, &rec.Remarks); err != nil {
			return nil, err
		}
		rec.Date = Date(date)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) GetByDate(ctx context.Context, date Date) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+cols+` FROM attendance_records
		WHERE marked_on = $1
		ORDER BY course_id, student_id
	`, string(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// BulkUpsert writes the batch inside one transaction so the whole batch
// commits or the whole batch rolls back.
func (p *Postgres) BulkUpsert(ctx context.Context, records []Record) error {
	if err := validateBatch(records); err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert batch: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records (student_id, course_id, marked_on, status, marked_by, remarks)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (student_id, course_id, marked_on) DO UPDATE SET
				status = EXCLUDED.status,
				marked_by = EXCLUDED.marked_by,
				remarks = EXCLUDED.remarks
		`, rec.StudentID, rec.CourseID, string(rec.Date), rec.Status, rec.MarkedBy, rec.Remarks)
		if err != nil {
			return fmt.Errorf("upsert record for student %d: %w", rec.StudentID, err)
		}
	}
	return tx.Commit()
}
