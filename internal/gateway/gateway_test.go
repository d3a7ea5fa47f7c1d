package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alvishnu/school-desk/internal/models"
	"github.com/alvishnu/school-desk/pkg/config"
	appErrors "github.com/alvishnu/school-desk/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(config.APIConfig{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	}, zap.NewNop(), WithMetrics(NewMetrics(prometheus.NewRegistry())))
	require.NoError(t, err)
	return client, server
}

func sampleStudent() models.Student {
	return models.Student{
		ID:               7,
		StudentName:      "Asha Verma",
		ParentsName:      "Rakesh Verma",
		RollNumber:       "R-2041",
		Class:            "8",
		Section:          "B",
		SchoolJoinedDate: "2021-06-01",
		DateOfBirth:      "2010-02-14",
		PhoneNumber:      "9876501234",
	}
}

func sampleInput() models.CreateStudentInput {
	return models.CreateStudentInput{
		StudentName:      "Asha Verma",
		ParentsName:      "Rakesh Verma",
		RollNumber:       "R-2041",
		Class:            "8",
		Section:          "B",
		SchoolJoinedDate: "2021-06-01",
		DateOfBirth:      "2010-02-14",
		PhoneNumber:      "9876501234",
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(config.APIConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestCreateStudentRoundTrip(t *testing.T) {
	var received models.CreateStudentInput
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/students", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.StudentEnvelope{
			Success: true,
			Data: func() *models.Student {
				s := sampleStudent()
				return &s
			}(),
		})
	}))

	student, err := client.CreateStudent(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, int64(7), student.ID)
	assert.Equal(t, "R-2041", received.RollNumber)
	assert.Equal(t, "Asha Verma", received.StudentName)
}

func TestCreateStudentValidatesInput(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not leave the client on invalid input")
	}))

	input := sampleInput()
	input.RollNumber = ""
	_, err := client.CreateStudent(context.Background(), input)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestListStudentsEchoesServerPagination(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(models.StudentListEnvelope{
			Success: true,
			Data:    []models.Student{sampleStudent()},
			Total:   23,
			Page:    2,
			Limit:   5,
		})
	}))

	page, err := client.ListStudents(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Len(t, page.Students, 1)
	assert.Equal(t, 23, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.Limit)
}

func TestListStudentsDefaultsPagination(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(models.StudentListEnvelope{Success: true, Page: 1, Limit: 10})
	}))

	page, err := client.ListStudents(context.Background(), 0, -3)
	require.NoError(t, err)
	assert.NotNil(t, page.Students)
	assert.Empty(t, page.Students)
}

func TestGetStudentNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.StatusEnvelope{Success: false, Error: "Student not found"})
	}))

	_, err := client.GetStudent(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
	assert.False(t, appErrors.IsTransport(err))
	assert.Contains(t, err.Error(), "Student not found")
}

func TestUpdateStudentRejectionCarriesReason(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/students/7", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(models.StatusEnvelope{Success: false, Error: "Roll number already exists"})
	}))

	input := models.UpdateStudentInput{
		ID:               7,
		StudentName:      "Asha Verma",
		ParentsName:      "Rakesh Verma",
		RollNumber:       "R-2041",
		Class:            "8",
		Section:          "B",
		SchoolJoinedDate: "2021-06-01",
		DateOfBirth:      "2010-02-14",
		PhoneNumber:      "9876501234",
	}
	_, err := client.UpdateStudent(context.Background(), input)
	require.Error(t, err)
	assert.True(t, appErrors.IsRejected(err))
	assert.False(t, appErrors.IsNotFound(err))

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Contains(t, appErr.Message, "Roll number already exists")
}

func TestDeleteStudentSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/students/7", r.URL.Path)
		json.NewEncoder(w).Encode(models.StatusEnvelope{Success: true, Message: "Student deleted successfully"})
	}))

	assert.NoError(t, client.DeleteStudent(context.Background(), 7))
}

func TestTransportFailureIsClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := New(config.APIConfig{BaseURL: server.URL, Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	server.Close()

	_, err = client.GetStudent(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, appErrors.IsTransport(err))
	assert.False(t, appErrors.IsRejected(err))
	assert.False(t, appErrors.IsNotFound(err))
}

func TestUndecodableResponseIsNotATransportFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))

	_, err := client.ListStudents(context.Background(), 1, 10)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrDecode.Code))
	assert.False(t, appErrors.IsTransport(err))
}

// The fee endpoints answer with the payload key alone, no success flag.
// A 200 carrying fees must land as a successful fetch, never a rejection.
func TestStudentFeesWithoutSuccessFlag(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students/7/fees", r.URL.Path)
		w.Write([]byte(`{"fees":[{"id":12,"student_id":7,"fee_type_id":1,"total_amount":1500,"total_paid":500,"remaining_amount":1000,"academic_year":"2025-2026","payments":[]}]}`))
	}))

	fees, err := client.StudentFees(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, int64(12), fees[0].ID)
	assert.Equal(t, 1000.0, fees[0].RemainingAmount)
}

func TestStudentFeesEmptyLedger(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students/7/fees", r.URL.Path)
		w.Write([]byte(`{"fees":[]}`))
	}))

	fees, err := client.StudentFees(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, fees)
	assert.Empty(t, fees)
}

func TestStudentFeesExplicitFailureStillRejects(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"ledger locked"}`))
	}))

	_, err := client.StudentFees(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, appErrors.IsRejected(err))
	assert.Contains(t, err.Error(), "ledger locked")
}

func TestRejectionWithoutReasonGetsGenericMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))

	_, err := client.StudentFees(context.Background(), 7)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "operation rejected by the server", appErr.Message)
}

func TestCreateFeePostsToStudentPath(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students/7/fees", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// The student id travels in the path, never the body.
		assert.NotContains(t, body, "student_id")

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"fee":{"id":12,"student_id":7,"fee_type_id":1,"total_amount":1500}}`))
	}))

	fee, err := client.CreateFee(context.Background(), models.CreateFeeInput{
		StudentID:    7,
		FeeTypeID:    1,
		TotalAmount:  1500,
		AcademicYear: "2025-2026",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), fee.ID)
}

func TestRecordPaymentRoundTrip(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fees/12/payments", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"payment":{"id":3,"fee_id":12,"amount_paid":500,"payment_date":"2026-08-01","payment_method":"cash"}}`))
	}))

	payment, err := client.RecordPayment(context.Background(), models.RecordPaymentInput{
		FeeID:         12,
		AmountPaid:    500,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), payment.ID)
}

func TestLoginStoresSessionCookie(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session_token", Value: "abc123", Path: "/"})
			json.NewEncoder(w).Encode(models.StatusEnvelope{Success: true, Message: "Login successful"})
		case "/students/1":
			cookie, err := r.Cookie("session_token")
			if assert.NoError(t, err) {
				assert.Equal(t, "abc123", cookie.Value)
			}
			s := sampleStudent()
			json.NewEncoder(w).Encode(models.StudentEnvelope{Success: true, Data: &s})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	require.NoError(t, client.Login(context.Background(), "admin@school.test", "secret"))
	_, err := client.GetStudent(context.Background(), 1)
	assert.NoError(t, err)
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not leave the client without credentials")
	}))

	err := client.Login(context.Background(), "", "")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestListFeeTypes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fee-types", r.URL.Path)
		w.Write([]byte(`{"fee_types":[{"id":1,"name":"Tuition","description":"Charged every month"}]}`))
	}))

	types, err := client.ListFeeTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Tuition", types[0].Name)
}

func TestCreateFeeTypeRoundTrip(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fee-types", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Library", body["name"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"fee_type":{"id":4,"name":"Library"}}`))
	}))

	feeType, err := client.CreateFeeType(context.Background(), models.CreateFeeTypeInput{Name: "Library"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), feeType.ID)
}

func TestCreateFeeTypeRequiresName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not leave the client on invalid input")
	}))

	_, err := client.CreateFeeType(context.Background(), models.CreateFeeTypeInput{})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestSessionTokenSurvivesRestore(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session_token", Value: "tok-42", Path: "/"})
			json.NewEncoder(w).Encode(models.StatusEnvelope{Success: true})
		case "/students/1":
			cookie, err := r.Cookie("session_token")
			if assert.NoError(t, err) {
				assert.Equal(t, "tok-42", cookie.Value)
			}
			s := sampleStudent()
			json.NewEncoder(w).Encode(models.StudentEnvelope{Success: true, Data: &s})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	require.NoError(t, client.Login(context.Background(), "admin@school.test", "secret"))
	token := client.SessionToken()
	assert.Equal(t, "tok-42", token)

	// A fresh client seeded with the saved token holds the same session.
	fresh, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session_token")
		if assert.NoError(t, err) {
			assert.Equal(t, "tok-42", cookie.Value)
		}
		s := sampleStudent()
		json.NewEncoder(w).Encode(models.StudentEnvelope{Success: true, Data: &s})
	}))
	fresh.RestoreSession(token)
	_, err := fresh.GetStudent(context.Background(), 1)
	assert.NoError(t, err)
}
