package roster

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alvishnu/school-desk/internal/models"
)

// Gateway is the slice of the record gateway the roster needs.
type Gateway interface {
	ListStudents(ctx context.Context, page, limit int) (*models.StudentPage, error)
	CreateStudent(ctx context.Context, input models.CreateStudentInput) (*models.Student, error)
	UpdateStudent(ctx context.Context, input models.UpdateStudentInput) (*models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
}

// Roster maintains the displayed ordered student sequence consistent with
// confirmed remote operations. The remote system stays the system of record;
// this sequence only reflects operations it has confirmed, so there is no
// rollback path. No two elements ever share an id.
type Roster struct {
	gateway Gateway
	logger  *zap.Logger

	mu       sync.Mutex
	students []models.Student
	total    int
	page     int
	limit    int
	loaded   bool
}

// New constructs an empty roster over the given gateway.
func New(gw Gateway, logger *zap.Logger) *Roster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roster{gateway: gw, logger: logger}
}

// Load replaces the entire local sequence with one page from the remote
// collection. This is the only full-refresh path and must run before the
// local sequence is meaningful.
func (r *Roster) Load(ctx context.Context, page, limit int) error {
	result, err := r.gateway.ListStudents(ctx, page, limit)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.students = append([]models.Student(nil), result.Students...)
	r.total = result.Total
	r.page = result.Page
	r.limit = result.Limit
	r.loaded = true
	return nil
}

// Create registers the student remotely and appends it locally only after
// the gateway confirms success.
func (r *Roster) Create(ctx context.Context, input models.CreateStudentInput) (*models.Student, error) {
	student, err := r.gateway.CreateStudent(ctx, input)
	if err != nil {
		return nil, err
	}
	r.RecordCreated(*student)
	return student, nil
}

// Update applies the edit remotely and replaces the local element only after
// the gateway confirms, using the server-confirmed entity.
func (r *Roster) Update(ctx context.Context, input models.UpdateStudentInput) (*models.Student, error) {
	student, err := r.gateway.UpdateStudent(ctx, input)
	if err != nil {
		return nil, err
	}
	r.RecordUpdated(*student)
	return student, nil
}

// Delete removes the student remotely and drops it locally only after the
// gateway confirms.
func (r *Roster) Delete(ctx context.Context, id int64) error {
	if err := r.gateway.DeleteStudent(ctx, id); err != nil {
		return err
	}
	r.RecordDeleted(id)
	return nil
}

// RecordCreated appends a confirmed entity to the end of the sequence. An id
// already present is replaced in place instead, preserving uniqueness.
func (r *Roster) RecordCreated(student models.Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.students {
		if r.students[i].ID == student.ID {
			r.students[i] = student
			return
		}
	}
	r.students = append(r.students, student)
	r.total++
}

// RecordUpdated replaces the element with the matching id, preserving its
// position. A missing id is a benign race (deleted concurrently) and the
// sequence is left unchanged.
func (r *Roster) RecordUpdated(student models.Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.students {
		if r.students[i].ID == student.ID {
			r.students[i] = student
			return
		}
	}
	r.logger.Debug("update for absent student ignored", zap.Int64("id", student.ID))
}

// RecordDeleted removes the element with the matching id. A missing id is a
// benign no-op.
func (r *Roster) RecordDeleted(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.students {
		if r.students[i].ID == id {
			r.students = append(r.students[:i], r.students[i+1:]...)
			if r.total > 0 {
				r.total--
			}
			return
		}
	}
	r.logger.Debug("delete for absent student ignored", zap.Int64("id", id))
}

// Students returns a copy of the current sequence in display order.
func (r *Roster) Students() []models.Student {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Student(nil), r.students...)
}

// Find returns the student with the given id, if present.
func (r *Roster) Find(id int64) (models.Student, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.ID == id {
			return s, true
		}
	}
	return models.Student{}, false
}

// Pagination reports the server-echoed total, page and limit from the most
// recent Load, adjusted by confirmed creates and deletes.
func (r *Roster) Pagination() (total, page, limit int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.page, r.limit
}

// Loaded reports whether Load has completed at least once.
func (r *Roster) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}
