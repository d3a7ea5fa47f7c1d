package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alvishnu/school-desk/internal/models"
)

// StudentRow is the students table shape. Wire conversion lives in ToModel so
// handlers never see db tags.
type StudentRow struct {
	ID               int64        `db:"id"`
	StudentName      string       `db:"student_name"`
	ParentsName      string       `db:"parents_name"`
	RollNumber       string       `db:"roll_number"`
	ClassName        string       `db:"class_name"`
	Section          string       `db:"section"`
	SchoolJoinedDate time.Time    `db:"school_joined_date"`
	DateOfBirth      time.Time    `db:"date_of_birth"`
	PhoneNumber      string       `db:"phone_number"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        sql.NullTime `db:"updated_at"`
}

// ToModel converts a row to the wire entity: calendar dates as YYYY-MM-DD,
// audit timestamps as RFC3339.
func (r StudentRow) ToModel() models.Student {
	s := models.Student{
		ID:               r.ID,
		StudentName:      r.StudentName,
		ParentsName:      r.ParentsName,
		RollNumber:       r.RollNumber,
		Class:            r.ClassName,
		Section:          r.Section,
		SchoolJoinedDate: r.SchoolJoinedDate.Format("2006-01-02"),
		DateOfBirth:      r.DateOfBirth.Format("2006-01-02"),
		PhoneNumber:      r.PhoneNumber,
		CreatedAt:        r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.UpdatedAt.Valid {
		s.UpdatedAt = r.UpdatedAt.Time.UTC().Format(time.RFC3339)
	}
	return s
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, student_name, parents_name, roll_number, class_name, section, school_joined_date, date_of_birth, phone_number, created_at, updated_at"

// List returns one page of students plus the unpaginated total. Search
// matches name, roll number or parents name, mirroring the legacy backend.
func (r *StudentRepository) List(ctx context.Context, page, limit int, search string) ([]StudentRow, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	where := "1=1"
	args := []interface{}{}
	if search != "" {
		where = "(student_name ILIKE $1 OR roll_number ILIKE $1 OR parents_name ILIKE $1)"
		args = append(args, "%"+search+"%")
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY id ASC LIMIT %d OFFSET %d",
		studentColumns, where, limit, (page-1)*limit)

	var rows []StudentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return rows, total, nil
}

// FindByID fetches a student by identity.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*StudentRow, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var row StudentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// ExistsByRollNumber checks roll number uniqueness, optionally excluding one id.
func (r *StudentRepository) ExistsByRollNumber(ctx context.Context, rollNumber string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM students WHERE roll_number = $1"
	args := []interface{}{rollNumber}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check roll number: %w", err)
	}
	return true, nil
}

// Create inserts a new student, letting the database assign the identity.
func (r *StudentRepository) Create(ctx context.Context, row *StudentRow) error {
	row.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO students (student_name, parents_name, roll_number, class_name, section, school_joined_date, date_of_birth, phone_number, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		row.StudentName, row.ParentsName, row.RollNumber, row.ClassName, row.Section,
		row.SchoolJoinedDate, row.DateOfBirth, row.PhoneNumber, row.CreatedAt,
	).Scan(&row.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student and stamps updated_at.
func (r *StudentRepository) Update(ctx context.Context, row *StudentRow) error {
	row.UpdatedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	const query = `UPDATE students SET student_name = $1, parents_name = $2, roll_number = $3, class_name = $4, section = $5, school_joined_date = $6, date_of_birth = $7, phone_number = $8, updated_at = $9 WHERE id = $10`
	if _, err := r.db.ExecContext(ctx, query,
		row.StudentName, row.ParentsName, row.RollNumber, row.ClassName, row.Section,
		row.SchoolJoinedDate, row.DateOfBirth, row.PhoneNumber, row.UpdatedAt, row.ID,
	); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student and cascades to its fees and payments.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// ParseWireDate parses a YYYY-MM-DD calendar date from the wire.
func ParseWireDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}
