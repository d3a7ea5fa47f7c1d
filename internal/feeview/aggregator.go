package feeview

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alvishnu/school-desk/internal/models"
)

// LoadState tags the per-student fee attachment. Absence of fees means "not
// yet loaded", never "confirmed empty", so the state is explicit rather than
// an implicit nil field.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loaded
	Failed
)

// StudentFees is one branch of the aggregated view model: a student with a
// three-state fee attachment.
type StudentFees struct {
	Student models.Student
	State   LoadState
	Fees    []models.Fee
	Reason  string
}

// View is the assembled student → fees → payments view model.
type View struct {
	mu       sync.Mutex
	branches []StudentFees
	index    map[int64]int
	feeTypes []models.FeeType
	loading  bool
}

// Gateway is the slice of the record gateway the aggregator needs.
type Gateway interface {
	ListStudents(ctx context.Context, page, limit int) (*models.StudentPage, error)
	ListFeeTypes(ctx context.Context) ([]models.FeeType, error)
	StudentFees(ctx context.Context, studentID int64) ([]models.Fee, error)
}

// Aggregator builds the fee view by scattering one fee fetch per student and
// gathering results as they land, in no guaranteed order.
type Aggregator struct {
	gateway  Gateway
	logger   *zap.Logger
	fetchers int
}

// New constructs an Aggregator. fetchers bounds the fee-fetch fan-out; values
// below one fall back to a serial fetch.
func New(gw Gateway, logger *zap.Logger, fetchers int) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetchers < 1 {
		fetchers = 1
	}
	return &Aggregator{gateway: gw, logger: logger, fetchers: fetchers}
}

// Build fetches the full student list, then each student's fees
// independently. One branch failing marks only that branch; siblings keep
// their results. The view stops loading only once every branch has settled.
func (a *Aggregator) Build(ctx context.Context) (*View, error) {
	students, err := a.fullRoster(ctx)
	if err != nil {
		return nil, err
	}

	view := newView(students)

	feeTypes, err := a.gateway.ListFeeTypes(ctx)
	if err != nil {
		// The catalog is display garnish; a missing catalog must not block
		// the ledger itself.
		a.logger.Warn("fee type catalog unavailable", zap.Error(err))
	} else {
		view.setFeeTypes(feeTypes)
	}

	ids := make(chan int64)
	var wg sync.WaitGroup
	for i := 0; i < a.fetchers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				a.fetchBranch(ctx, view, id)
			}
		}()
	}

	for _, s := range students {
		ids <- s.ID
	}
	close(ids)
	wg.Wait()

	view.settle()
	return view, nil
}

// Refresh re-fetches one student's branch into an existing view. Merging is
// keyed and overwrites, so repeating a fetch for the same student is safe.
func (a *Aggregator) Refresh(ctx context.Context, view *View, studentID int64) {
	a.fetchBranch(ctx, view, studentID)
}

func (a *Aggregator) fetchBranch(ctx context.Context, view *View, studentID int64) {
	if ctx.Err() != nil {
		// The owning view has been torn down; leave the branch as it was so
		// a late completion cannot touch discarded state.
		return
	}
	fees, err := a.gateway.StudentFees(ctx, studentID)
	if err != nil {
		a.logger.Warn("fee fetch failed",
			zap.Int64("student_id", studentID),
			zap.Error(err),
		)
		view.markFailed(studentID, err.Error())
		return
	}
	view.merge(studentID, fees)
}

// maxPageLimit is the largest page size the backend will honour.
const maxPageLimit = 100

// fullRoster walks the paginated student collection until the echoed total
// is covered. The server may clamp the requested limit, so every follow-up
// request reuses the limit the server actually applied.
func (a *Aggregator) fullRoster(ctx context.Context) ([]models.Student, error) {
	first, err := a.gateway.ListStudents(ctx, 1, maxPageLimit)
	if err != nil {
		return nil, err
	}

	students := append([]models.Student(nil), first.Students...)
	limit := first.Limit
	if limit <= 0 {
		limit = len(first.Students)
	}
	for page := first.Page + 1; len(students) < first.Total && limit > 0; page++ {
		next, err := a.gateway.ListStudents(ctx, page, limit)
		if err != nil {
			return nil, err
		}
		if len(next.Students) == 0 {
			// A short total would loop forever otherwise.
			break
		}
		students = append(students, next.Students...)
	}
	return students, nil
}

func newView(students []models.Student) *View {
	v := &View{
		branches: make([]StudentFees, len(students)),
		index:    make(map[int64]int, len(students)),
		loading:  true,
	}
	for i, s := range students {
		v.branches[i] = StudentFees{Student: s, State: NotLoaded}
		v.index[s.ID] = i
	}
	return v
}

// merge attaches the fetched fee sequence to the matching student by id.
// Re-merging the same student overwrites the previous attachment, so retries
// and duplicate completions are harmless. Unknown ids are dropped.
func (v *View) merge(studentID int64, fees []models.Fee) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i, ok := v.index[studentID]
	if !ok {
		return
	}
	v.branches[i].State = Loaded
	v.branches[i].Fees = append([]models.Fee(nil), fees...)
	v.branches[i].Reason = ""
}

func (v *View) markFailed(studentID int64, reason string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i, ok := v.index[studentID]
	if !ok {
		return
	}
	v.branches[i].State = Failed
	v.branches[i].Fees = nil
	v.branches[i].Reason = reason
}

func (v *View) setFeeTypes(types []models.FeeType) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.feeTypes = append([]models.FeeType(nil), types...)
}

func (v *View) settle() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
}

// Loading reports whether any branch is still outstanding. It turns false
// only after every branch has settled, successfully or not.
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Branches returns a copy of every student branch in roster order.
func (v *View) Branches() []StudentFees {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]StudentFees, len(v.branches))
	copy(out, v.branches)
	for i := range out {
		out[i].Fees = append([]models.Fee(nil), v.branches[i].Fees...)
	}
	return out
}

// Branch returns the branch for one student, if the student is in the view.
func (v *View) Branch(studentID int64) (StudentFees, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i, ok := v.index[studentID]
	if !ok {
		return StudentFees{}, false
	}
	b := v.branches[i]
	b.Fees = append([]models.Fee(nil), v.branches[i].Fees...)
	return b, true
}

// FeeTypes returns the fee type catalog fetched alongside the view.
func (v *View) FeeTypes() []models.FeeType {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.FeeType(nil), v.feeTypes...)
}
