package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feeRowColumns() []string {
	return []string{
		"id", "student_id", "fee_type_id", "fee_type_name", "student_name",
		"roll_number", "class_name", "total_amount", "academic_year", "created_at", "updated_at",
	}
}

func paymentRowColumns() []string {
	return []string{"id", "fee_id", "amount_paid", "payment_date", "payment_method", "remarks", "created_at"}
}

func TestListFeeTypes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, created_at, updated_at FROM fee_types ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
			AddRow(1, "Tuition", "Charged monthly", time.Now(), nil).
			AddRow(2, "Transport", nil, time.Now(), nil))

	rows, err := repo.ListFeeTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0].ToModel()
	require.NotNil(t, first.Description)
	assert.Equal(t, "Charged monthly", *first.Description)
	assert.Nil(t, rows[1].ToModel().Description)
}

func TestCreateFeeType(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	desc := "Charged once a term"
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO fee_types (name, description, created_at)")).
		WithArgs("Library", sql.NullString{String: desc, Valid: true}, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	row, err := repo.CreateFeeType(context.Background(), "Library", &desc)
	require.NoError(t, err)
	assert.Equal(t, int64(4), row.ID)

	model := row.ToModel()
	require.NotNil(t, model.Description)
	assert.Equal(t, desc, *model.Description)
}

func TestCreateFeeTypeWithoutDescription(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO fee_types")).
		WithArgs("Transport", sql.NullString{}, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	row, err := repo.CreateFeeType(context.Background(), "Transport", nil)
	require.NoError(t, err)
	assert.Nil(t, row.ToModel().Description)
}

func TestFeesByStudentComputesTotals(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)
	now := time.Date(2026, time.January, 5, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE f.student_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(feeRowColumns()).
			AddRow(12, 7, 1, "Tuition", "Asha Verma", "R-2041", "8", 1500.0, "2025-2026", now, nil))

	mock.ExpectQuery(regexp.QuoteMeta("FROM fee_payments WHERE fee_id = $1 ORDER BY payment_date DESC")).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns()).
			AddRow(3, 12, 600.0, now, "cash", nil, now).
			AddRow(2, 12, 400.0, now.Add(-24*time.Hour), "card", "first installment", now))

	fees, err := repo.FeesByStudent(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, fees, 1)

	fee := fees[0]
	assert.Equal(t, 1500.0, fee.TotalAmount)
	assert.Equal(t, 1000.0, fee.TotalPaid)
	assert.Equal(t, 500.0, fee.RemainingAmount)
	assert.Equal(t, "Tuition", fee.FeeTypeName)
	require.Len(t, fee.Payments, 2)
	// Newest payment comes first.
	assert.Equal(t, int64(3), fee.Payments[0].ID)
	require.NotNil(t, fee.Payments[1].Remarks)
	assert.Equal(t, "first installment", *fee.Payments[1].Remarks)
}

func TestFeesByStudentClampsOverpayment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE f.student_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(feeRowColumns()).
			AddRow(12, 7, 1, "Tuition", "Asha Verma", "R-2041", "8", 500.0, "2025-2026", now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM fee_payments")).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns()).
			AddRow(3, 12, 800.0, now, "cash", nil, now))

	fees, err := repo.FeesByStudent(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, 800.0, fees[0].TotalPaid)
	assert.Zero(t, fees[0].RemainingAmount)
}

func TestFeesByStudentEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE f.student_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(feeRowColumns()))

	fees, err := repo.FeesByStudent(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, fees)
	assert.Empty(t, fees)
}

func TestFeeExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM fees WHERE id = $1 LIMIT 1")).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM fees WHERE id = $1 LIMIT 1")).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.FeeExists(context.Background(), 12)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.FeeExists(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateFeeReturnsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO fees")).
		WithArgs(int64(7), int64(1), 1500.0, "2025-2026", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	id, err := repo.CreateFee(context.Background(), 7, 1, 1500, "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
}

func TestCreatePaymentDefaultsPaymentDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO fee_payments")).
		WithArgs(int64(12), 500.0, sqlmock.AnyArg(), "cash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	row := &PaymentRow{FeeID: 12, AmountPaid: 500, PaymentMethod: "cash"}
	require.NoError(t, repo.CreatePayment(context.Background(), row))
	assert.Equal(t, int64(3), row.ID)
	assert.False(t, row.PaymentDate.IsZero())
	assert.Equal(t, row.CreatedAt, row.PaymentDate)
}
