package sandbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvishnu/school-desk/internal/models"
	"github.com/alvishnu/school-desk/internal/sandbox/handler"
	"github.com/alvishnu/school-desk/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedStudentService struct{}

func (fixedStudentService) List(ctx context.Context, page, limit int, search string) ([]models.Student, int, int, int, error) {
	return []models.Student{{ID: 1, StudentName: "Asha Verma"}}, 1, page, limit, nil
}
func (fixedStudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	return &models.Student{ID: id}, nil
}
func (fixedStudentService) Create(ctx context.Context, input models.CreateStudentInput) (*models.Student, error) {
	return &models.Student{ID: 1}, nil
}
func (fixedStudentService) Update(ctx context.Context, id int64, input models.UpdateStudentInput) (*models.Student, error) {
	return &models.Student{ID: id}, nil
}
func (fixedStudentService) Delete(ctx context.Context, id int64) error { return nil }

type fixedFeeService struct{}

func (fixedFeeService) FeeTypes(ctx context.Context) ([]models.FeeType, error) {
	return []models.FeeType{{ID: 1, Name: "Tuition"}}, nil
}
func (fixedFeeService) CreateFeeType(ctx context.Context, input models.CreateFeeTypeInput) (*models.FeeType, error) {
	return &models.FeeType{ID: 4, Name: input.Name}, nil
}
func (fixedFeeService) StudentFees(ctx context.Context, studentID int64) ([]models.Fee, error) {
	return []models.Fee{{ID: 12, StudentID: studentID}}, nil
}
func (fixedFeeService) CreateFee(ctx context.Context, input models.CreateFeeInput) (*models.Fee, error) {
	return &models.Fee{ID: 12}, nil
}
func (fixedFeeService) RecordPayment(ctx context.Context, input models.RecordPaymentInput) (*models.FeePayment, error) {
	return &models.FeePayment{ID: 3}, nil
}

type fixedAuthService struct{}

func (fixedAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return "token", nil
}

type denyVerifier struct{}

func (denyVerifier) Verify(token string) error { return nil }

func newTestRouter(cfg config.SandboxConfig) *gin.Engine {
	return NewRouter(cfg, Deps{
		Students:        handler.NewStudentHandler(fixedStudentService{}),
		Fees:            handler.NewFeeHandler(fixedFeeService{}),
		Auth:            handler.NewAuthHandler(fixedAuthService{}, 60),
		SessionVerifier: denyVerifier{},
		Registry:        prometheus.NewRegistry(),
	})
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(config.SandboxConfig{Prefix: "/api"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRouterMetricsExposed(t *testing.T) {
	r := newTestRouter(config.SandboxConfig{Prefix: "/api"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterMountsWireContractUnderPrefix(t *testing.T) {
	r := newTestRouter(config.SandboxConfig{Prefix: "/api"})

	for _, target := range []string{
		"/api/students",
		"/api/students/1",
		"/api/fee-types",
		"/api/students/1/fees",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, w.Code, target)
		assert.Contains(t, w.Body.String(), `"success":true`, target)
	}
}

func TestRouterMountsFeeTypeCreation(t *testing.T) {
	r := newTestRouter(config.SandboxConfig{Prefix: "/api"})

	req := httptest.NewRequest(http.MethodPost, "/api/fee-types", strings.NewReader(`{"name":"Library"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"fee_type"`)
}

func TestRouterDefaultsPrefix(t *testing.T) {
	r := newTestRouter(config.SandboxConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterAuthGateOnlyCoversProtectedRoutes(t *testing.T) {
	r := NewRouter(config.SandboxConfig{Prefix: "/api", RequireAuth: true}, Deps{
		Students:        handler.NewStudentHandler(fixedStudentService{}),
		Fees:            handler.NewFeeHandler(fixedFeeService{}),
		Auth:            handler.NewAuthHandler(fixedAuthService{}, 60),
		SessionVerifier: denyVerifier{},
	})

	// Without a session cookie the protected surface refuses.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid cookie passes the gate.
	req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookie, Value: "token"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
