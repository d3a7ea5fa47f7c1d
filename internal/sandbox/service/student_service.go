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

type studentRepository interface {
	List(ctx context.Context, page, limit int, search string) ([]repository.StudentRow, int, error)
	FindByID(ctx context.Context, id int64) (*repository.StudentRow, error)
	ExistsByRollNumber(ctx context.Context, rollNumber string, excludeID int64) (bool, error)
	Create(ctx context.Context, row *repository.StudentRow) error
	Update(ctx context.Context, row *repository.StudentRow) error
	Delete(ctx context.Context, id int64) error
}

// StudentService implements the sandbox student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns one page of students with the applied pagination echoed back.
func (s *StudentService) List(ctx context.Context, page, limit int, search string) ([]models.Student, int, int, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	rows, total, err := s.repo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	students := make([]models.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.ToModel())
	}
	return students, total, page, limit, nil
}

// Get returns one student by identity.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student := row.ToModel()
	return &student, nil
}

// Create registers a new student after validating every required field.
func (s *StudentService) Create(ctx context.Context, input models.CreateStudentInput) (*models.Student, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required student fields")
	}
	joined, err := repository.ParseWireDate(input.SchoolJoinedDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	birth, err := repository.ParseWireDate(input.DateOfBirth)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	exists, err := s.repo.ExistsByRollNumber(ctx, input.RollNumber, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate roll number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "roll number already registered")
	}

	row := &repository.StudentRow{
		StudentName:      input.StudentName,
		ParentsName:      input.ParentsName,
		RollNumber:       input.RollNumber,
		ClassName:        input.Class,
		Section:          input.Section,
		SchoolJoinedDate: joined,
		DateOfBirth:      birth,
		PhoneNumber:      input.PhoneNumber,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.logger.Info("student created", zap.Int64("id", row.ID), zap.String("roll_number", row.RollNumber))
	student := row.ToModel()
	return &student, nil
}

// Update applies the full attribute set to an existing student.
func (s *StudentService) Update(ctx context.Context, id int64, input models.UpdateStudentInput) (*models.Student, error) {
	input.ID = id
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required student fields")
	}
	joined, err := repository.ParseWireDate(input.SchoolJoinedDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	birth, err := repository.ParseWireDate(input.DateOfBirth)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	exists, err := s.repo.ExistsByRollNumber(ctx, input.RollNumber, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate roll number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "roll number already registered")
	}

	row.StudentName = input.StudentName
	row.ParentsName = input.ParentsName
	row.RollNumber = input.RollNumber
	row.ClassName = input.Class
	row.Section = input.Section
	row.SchoolJoinedDate = joined
	row.DateOfBirth = birth
	row.PhoneNumber = input.PhoneNumber
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	student := row.ToModel()
	return &student, nil
}

// Delete removes a student permanently.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.Int64("id", id))
	return nil
}
