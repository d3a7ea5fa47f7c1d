package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alvishnu/school-desk/internal/models"
)

// FeeTypeRow is the fee_types table shape.
type FeeTypeRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

// ToModel converts a fee type row to its wire shape.
func (r FeeTypeRow) ToModel() models.FeeType {
	ft := models.FeeType{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.Description.Valid {
		ft.Description = &r.Description.String
	}
	if r.UpdatedAt.Valid {
		updated := r.UpdatedAt.Time.UTC().Format(time.RFC3339)
		ft.UpdatedAt = &updated
	}
	return ft
}

// FeeRow is a fee joined with its denormalised display fields.
type FeeRow struct {
	ID           int64        `db:"id"`
	StudentID    int64        `db:"student_id"`
	FeeTypeID    int64        `db:"fee_type_id"`
	FeeTypeName  string       `db:"fee_type_name"`
	StudentName  string       `db:"student_name"`
	RollNumber   string       `db:"roll_number"`
	ClassName    string       `db:"class_name"`
	TotalAmount  float64      `db:"total_amount"`
	AcademicYear string       `db:"academic_year"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
}

// PaymentRow is the fee_payments table shape.
type PaymentRow struct {
	ID            int64          `db:"id"`
	FeeID         int64          `db:"fee_id"`
	AmountPaid    float64        `db:"amount_paid"`
	PaymentDate   time.Time      `db:"payment_date"`
	PaymentMethod string         `db:"payment_method"`
	Remarks       sql.NullString `db:"remarks"`
	CreatedAt     time.Time      `db:"created_at"`
}

// ToModel converts a payment row to its wire shape.
func (r PaymentRow) ToModel() models.FeePayment {
	p := models.FeePayment{
		ID:            r.ID,
		FeeID:         r.FeeID,
		AmountPaid:    r.AmountPaid,
		PaymentDate:   r.PaymentDate.UTC().Format(time.RFC3339),
		PaymentMethod: r.PaymentMethod,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.Remarks.Valid {
		p.Remarks = &r.Remarks.String
	}
	return p
}

// FeeRepository manages fees, fee types and payments.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// ListFeeTypes returns the whole fee type catalog.
func (r *FeeRepository) ListFeeTypes(ctx context.Context) ([]FeeTypeRow, error) {
	var rows []FeeTypeRow
	const query = "SELECT id, name, description, created_at, updated_at FROM fee_types ORDER BY id ASC"
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list fee types: %w", err)
	}
	return rows, nil
}

// CreateFeeType inserts a catalog entry and returns the stored row.
func (r *FeeRepository) CreateFeeType(ctx context.Context, name string, description *string) (*FeeTypeRow, error) {
	row := FeeTypeRow{Name: name, CreatedAt: time.Now().UTC()}
	if description != nil {
		row.Description = sql.NullString{String: *description, Valid: true}
	}
	const query = `INSERT INTO fee_types (name, description, created_at)
        VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, row.Name, row.Description, row.CreatedAt).Scan(&row.ID); err != nil {
		return nil, fmt.Errorf("create fee type: %w", err)
	}
	return &row, nil
}

// FeesByStudent returns every fee for a student with its payments attached,
// newest payment first. TotalPaid and RemainingAmount are computed here so
// the stored fee only carries the charge.
func (r *FeeRepository) FeesByStudent(ctx context.Context, studentID int64) ([]models.Fee, error) {
	const feeQuery = `SELECT f.id, f.student_id, f.fee_type_id, ft.name AS fee_type_name,
        s.student_name, s.roll_number, s.class_name,
        f.total_amount, f.academic_year, f.created_at, f.updated_at
        FROM fees f
        JOIN fee_types ft ON ft.id = f.fee_type_id
        JOIN students s ON s.id = f.student_id
        WHERE f.student_id = $1 ORDER BY f.id ASC`

	var feeRows []FeeRow
	if err := r.db.SelectContext(ctx, &feeRows, feeQuery, studentID); err != nil {
		return nil, fmt.Errorf("list fees: %w", err)
	}

	fees := make([]models.Fee, 0, len(feeRows))
	for _, row := range feeRows {
		const paymentQuery = `SELECT id, fee_id, amount_paid, payment_date, payment_method, remarks, created_at
            FROM fee_payments WHERE fee_id = $1 ORDER BY payment_date DESC`
		var paymentRows []PaymentRow
		if err := r.db.SelectContext(ctx, &paymentRows, paymentQuery, row.ID); err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}

		payments := make([]models.FeePayment, 0, len(paymentRows))
		totalPaid := 0.0
		for _, p := range paymentRows {
			totalPaid += p.AmountPaid
			payments = append(payments, p.ToModel())
		}

		fee := models.Fee{
			ID:              row.ID,
			StudentID:       row.StudentID,
			FeeTypeID:       row.FeeTypeID,
			FeeTypeName:     row.FeeTypeName,
			StudentName:     row.StudentName,
			RollNumber:      row.RollNumber,
			ClassName:       row.ClassName,
			TotalAmount:     row.TotalAmount,
			TotalPaid:       totalPaid,
			RemainingAmount: row.TotalAmount - totalPaid,
			AcademicYear:    row.AcademicYear,
			Payments:        payments,
			CreatedAt:       row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if fee.RemainingAmount < 0 {
			fee.RemainingAmount = 0
		}
		if row.UpdatedAt.Valid {
			updated := row.UpdatedAt.Time.UTC().Format(time.RFC3339)
			fee.UpdatedAt = &updated
		}
		fees = append(fees, fee)
	}
	return fees, nil
}

// FeeExists reports whether a fee row exists.
func (r *FeeRepository) FeeExists(ctx context.Context, feeID int64) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM fees WHERE id = $1 LIMIT 1", feeID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check fee: %w", err)
	}
	return true, nil
}

// CreateFee opens a new fee against a student.
func (r *FeeRepository) CreateFee(ctx context.Context, studentID, feeTypeID int64, totalAmount float64, academicYear string) (int64, error) {
	const query = `INSERT INTO fees (student_id, fee_type_id, total_amount, academic_year, created_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int64
	if err := r.db.QueryRowxContext(ctx, query, studentID, feeTypeID, totalAmount, academicYear, time.Now().UTC()).Scan(&id); err != nil {
		return 0, fmt.Errorf("create fee: %w", err)
	}
	return id, nil
}

// CreatePayment records a payment against an existing fee.
func (r *FeeRepository) CreatePayment(ctx context.Context, row *PaymentRow) error {
	row.CreatedAt = time.Now().UTC()
	if row.PaymentDate.IsZero() {
		row.PaymentDate = row.CreatedAt
	}
	const query = `INSERT INTO fee_payments (fee_id, amount_paid, payment_date, payment_method, remarks, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		row.FeeID, row.AmountPaid, row.PaymentDate, row.PaymentMethod, row.Remarks, row.CreatedAt,
	).Scan(&row.ID); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}
