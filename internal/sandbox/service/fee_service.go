package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alvishnu/school-desk/internal/models"
	"github.com/alvishnu/school-desk/internal/sandbox/repository"
	appErrors "github.com/alvishnu/school-desk/pkg/errors"
)

type feeRepository interface {
	ListFeeTypes(ctx context.Context) ([]repository.FeeTypeRow, error)
	CreateFeeType(ctx context.Context, name string, description *string) (*repository.FeeTypeRow, error)
	FeesByStudent(ctx context.Context, studentID int64) ([]models.Fee, error)
	FeeExists(ctx context.Context, feeID int64) (bool, error)
	CreateFee(ctx context.Context, studentID, feeTypeID int64, totalAmount float64, academicYear string) (int64, error)
	CreatePayment(ctx context.Context, row *repository.PaymentRow) error
}

type feeStudentLookup interface {
	FindByID(ctx context.Context, id int64) (*repository.StudentRow, error)
}

// FeeService implements the sandbox fee ledger use-cases.
type FeeService struct {
	fees      feeRepository
	students  feeStudentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs the fee service.
func NewFeeService(fees feeRepository, students feeStudentLookup, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{fees: fees, students: students, validator: validate, logger: logger}
}

// FeeTypes returns the fee type catalog.
func (s *FeeService) FeeTypes(ctx context.Context) ([]models.FeeType, error) {
	rows, err := s.fees.ListFeeTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee types")
	}
	types := make([]models.FeeType, 0, len(rows))
	for _, row := range rows {
		types = append(types, row.ToModel())
	}
	return types, nil
}

// CreateFeeType adds an entry to the fee type catalog.
func (s *FeeService) CreateFeeType(ctx context.Context, input models.CreateFeeTypeInput) (*models.FeeType, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "fee type name is required")
	}
	row, err := s.fees.CreateFeeType(ctx, input.Name, input.Description)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee type")
	}
	s.logger.Info("fee type created", zap.Int64("fee_type_id", row.ID), zap.String("name", row.Name))

	feeType := row.ToModel()
	return &feeType, nil
}

// StudentFees returns every fee for one student, payments attached.
func (s *FeeService) StudentFees(ctx context.Context, studentID int64) ([]models.Fee, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	fees, err := s.fees.FeesByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}
	return fees, nil
}

// CreateFee opens a new fee against a student and returns it with the
// ledger fields populated.
func (s *FeeService) CreateFee(ctx context.Context, input models.CreateFeeInput) (*models.Fee, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required fee fields")
	}
	if _, err := s.students.FindByID(ctx, input.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	feeID, err := s.fees.CreateFee(ctx, input.StudentID, input.FeeTypeID, input.TotalAmount, input.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee")
	}
	s.logger.Info("fee created", zap.Int64("fee_id", feeID), zap.Int64("student_id", input.StudentID))

	fees, err := s.fees.FeesByStudent(ctx, input.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload fees")
	}
	for i := range fees {
		if fees[i].ID == feeID {
			return &fees[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrInternal, "created fee not found on reload")
}

// RecordPayment records a payment against an existing fee.
func (s *FeeService) RecordPayment(ctx context.Context, input models.RecordPaymentInput) (*models.FeePayment, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required payment fields")
	}
	exists, err := s.fees.FeeExists(ctx, input.FeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fee")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
	}

	row := &repository.PaymentRow{
		FeeID:         input.FeeID,
		AmountPaid:    input.AmountPaid,
		PaymentMethod: input.PaymentMethod,
	}
	if input.Remarks != "" {
		row.Remarks.String = input.Remarks
		row.Remarks.Valid = true
	}
	if err := s.fees.CreatePayment(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.logger.Info("payment recorded", zap.Int64("fee_id", input.FeeID), zap.Float64("amount", input.AmountPaid))

	payment := row.ToModel()
	return &payment, nil
}
