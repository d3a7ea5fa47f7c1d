package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alvishnu/school-desk/internal/models"
	"github.com/alvishnu/school-desk/pkg/config"
	appErrors "github.com/alvishnu/school-desk/pkg/errors"
)

const (
	// DefaultPage and DefaultLimit apply when a caller passes non-positive
	// pagination parameters.
	DefaultPage  = 1
	DefaultLimit = 10
)

// Client is the single point of translation between local entity shapes and
// the remote system of record. Every operation resolves to exactly one of
// three distinguishable outcomes: success with payload, rejection with a
// server-supplied reason, or transport failure that never produced a reply.
// Cookies set by the server (the session credential) ride along on every
// subsequent request.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	logger   *zap.Logger
	metrics  *Metrics
}

// Option customises a Client.
type Option func(*Client)

// WithMetrics attaches prometheus instrumentation to outbound calls.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient substitutes the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New constructs a Client against the configured base URL.
func New(cfg config.APIConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: init cookie jar: %w", err)
	}

	c := &Client{
		baseURL:  cfg.BaseURL,
		http:     &http.Client{Timeout: cfg.Timeout, Jar: jar},
		validate: validator.New(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		c.http.Jar = jar
	}
	return c, nil
}

// CreateStudent registers a new student. The input must carry every required
// attribute and no identity; the returned entity is the server-assigned one.
func (c *Client) CreateStudent(ctx context.Context, input models.CreateStudentInput) (*models.Student, error) {
	if err := c.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required student fields")
	}

	var envelope models.StudentEnvelope
	status, err := c.do(ctx, "create_student", http.MethodPost, "/students", nil, input, &envelope)
	if err != nil {
		return nil, err
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, c.rejection("create_student", status, models.Reason(envelope.Error, envelope.Message))
	}
	return envelope.Data, nil
}

// ListStudents returns one page of the remote collection. Non-positive page
// or limit fall back to the defaults. The echoed total/page/limit reflect
// what the server actually applied.
func (c *Client) ListStudents(ctx context.Context, page, limit int) (*models.StudentPage, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var envelope models.StudentListEnvelope
	status, err := c.do(ctx, "list_students", http.MethodGet, "/students", query, nil, &envelope)
	if err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, c.rejection("list_students", status, models.Reason(envelope.Error, envelope.Message))
	}
	if envelope.Data == nil {
		envelope.Data = []models.Student{}
	}
	return &models.StudentPage{
		Students: envelope.Data,
		Total:    envelope.Total,
		Page:     envelope.Page,
		Limit:    envelope.Limit,
	}, nil
}

// GetStudent fetches one student by identity.
func (c *Client) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var envelope models.StudentEnvelope
	status, err := c.do(ctx, "get_student", http.MethodGet, fmt.Sprintf("/students/%d", id), nil, nil, &envelope)
	if err != nil {
		return nil, err
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, c.rejection("get_student", status, models.Reason(envelope.Error, envelope.Message))
	}
	return envelope.Data, nil
}

// UpdateStudent applies the full attribute set to an existing student and
// returns the server-confirmed entity, so server-computed fields such as
// updatedAt stay correct locally.
func (c *Client) UpdateStudent(ctx context.Context, input models.UpdateStudentInput) (*models.Student, error) {
	if err := c.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required student fields")
	}

	var envelope models.StudentEnvelope
	status, err := c.do(ctx, "update_student", http.MethodPut, fmt.Sprintf("/students/%d", input.ID), nil, input, &envelope)
	if err != nil {
		return nil, err
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, c.rejection("update_student", status, models.Reason(envelope.Error, envelope.Message))
	}
	return envelope.Data, nil
}

// DeleteStudent removes a student by identity.
func (c *Client) DeleteStudent(ctx context.Context, id int64) error {
	var envelope models.StatusEnvelope
	status, err := c.do(ctx, "delete_student", http.MethodDelete, fmt.Sprintf("/students/%d", id), nil, nil, &envelope)
	if err != nil {
		return err
	}
	if !envelope.Success {
		return c.rejection("delete_student", status, models.Reason(envelope.Error, envelope.Message))
	}
	return nil
}

// ListFeeTypes fetches the fee type catalog. The endpoint answers with the
// fee_types key alone, so acceptance is judged by status when no explicit
// success flag is present.
func (c *Client) ListFeeTypes(ctx context.Context) ([]models.FeeType, error) {
	var envelope models.FeeTypesEnvelope
	status, err := c.do(ctx, "list_fee_types", http.MethodGet, "/fee-types", nil, nil, &envelope)
	if err != nil {
		return nil, err
	}
	if !models.Accepted(envelope.Success, status) {
		return nil, c.rejection("list_fee_types", status, models.Reason(envelope.Error, envelope.Message))
	}
	return envelope.FeeTypes, nil
}

// CreateFeeType adds an entry to the fee type catalog.
func (c *Client) CreateFeeType(ctx context.Context, input models.CreateFeeTypeInput) (*models.FeeType, error) {
	if err := c.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required fee type fields")
	}

	var envelope models.FeeTypeEnvelope
	status, err := c.do(ctx, "create_fee_type", http.MethodPost, "/fee-types", nil, input, &envelope)
	if err != nil {
		return nil, err
	}
	if !models.Accepted(envelope.Success, status) || envelope.FeeType == nil {
		return nil, c.rejection("create_fee_type", status, models.Reason(envelope.Error, envelope.Message))
	}
	return envelope.FeeType, nil
}

// StudentFees fetches every fee record for one student, payments included.
func (c *Client) StudentFees(ctx context.Context, studentID int64) ([]models.Fee, error) {
	var envelope models.FeesEnvelope
	status, err := c.do(ctx, "student_fees", http.MethodGet, fmt.Sprintf("/students/%d/fees", studentID), nil, nil, &envelope)
	if err != nil {
		return nil, err
	}
	if !models.Accepted(envelope.Success, status) {
		return nil, c.rejection("student_fees", status, models.Reason(envelope.Error, envelope.Message))
	}
	if envelope.Fees == nil {
		envelope.Fees = []models.Fee{}
	}
	return envelope.Fees, nil
}

// CreateFee opens a new fee against a student.
func (c *Client) CreateFee(ctx context.Context, input models.CreateFeeInput) (*models.Fee, error) {
	if err := c.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required fee fields")
	}

	var envelope models.FeeEnvelope
	status, err := c.do(ctx, "create_fee", http.MethodPost, fmt.Sprintf("/students/%d/fees", input.StudentID), nil, input, &envelope)
	if err != nil {
		return nil, err
	}
	if !models.Accepted(envelope.Success, status) || envelope.Fee == nil {
		return nil, c.rejection("create_fee", status, models.Reason(envelope.Error, envelope.Message))
	}
	return envelope.Fee, nil
}

// RecordPayment records a payment against an existing fee.
func (c *Client) RecordPayment(ctx context.Context, input models.RecordPaymentInput) (*models.FeePayment, error) {
	if err := c.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required payment fields")
	}

	var envelope models.PaymentEnvelope
	status, err := c.do(ctx, "record_payment", http.MethodPost, fmt.Sprintf("/fees/%d/payments", input.FeeID), nil, input, &envelope)
	if err != nil {
		return nil, err
	}
	if !models.Accepted(envelope.Success, status) || envelope.Payment == nil {
		return nil, c.rejection("record_payment", status, models.Reason(envelope.Error, envelope.Message))
	}
	return envelope.Payment, nil
}

// Login authenticates against the backend. The session cookie lands in the
// client's jar and rides along on every subsequent request.
func (c *Client) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return appErrors.Clone(appErrors.ErrValidation, "email and password are required")
	}
	body := map[string]string{"email": email, "password": password}

	var envelope models.StatusEnvelope
	status, err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, body, &envelope)
	if err != nil {
		return err
	}
	if !envelope.Success {
		return c.rejection("login", status, models.Reason(envelope.Error, envelope.Message))
	}
	return nil
}

// sessionCookie is the name of the credential cookie the backend sets on
// login.
const sessionCookie = "session_token"

// SessionToken returns the value of the session cookie currently held for
// the base URL, or the empty string when the client has no session.
func (c *Client) SessionToken() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || c.http.Jar == nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == sessionCookie {
			return cookie.Value
		}
	}
	return ""
}

// RestoreSession seeds the cookie jar with a previously saved session token
// so a fresh process can reuse an earlier login.
func (c *Client) RestoreSession(token string) {
	if token == "" || c.http.Jar == nil {
		return
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return
	}
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: sessionCookie, Value: token, Path: "/"}})
}

// do issues one request and decodes the response envelope into out. It
// returns the HTTP status so callers can classify rejections; any returned
// error is already classified (transport or decode).
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out interface{}) (int, error) {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Observe(operation, "transport_failure", time.Since(start))
		c.logger.Warn("gateway request failed",
			zap.String("operation", operation),
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return 0, appErrors.Wrap(err, appErrors.ErrTransport.Code, 0, "could not reach the server")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.Observe(operation, "transport_failure", time.Since(start))
		c.logger.Warn("gateway response aborted",
			zap.String("operation", operation),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return resp.StatusCode, appErrors.Wrap(err, appErrors.ErrTransport.Code, 0, "response aborted mid-read")
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.metrics.Observe(operation, "decode_error", time.Since(start))
		c.logger.Error("gateway response undecodable",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return resp.StatusCode, appErrors.Wrap(err, appErrors.ErrDecode.Code, appErrors.ErrDecode.Status, "could not decode server response")
	}

	c.metrics.Observe(operation, outcomeForStatus(resp.StatusCode), time.Since(start))
	c.logger.Debug("gateway request completed",
		zap.String("operation", operation),
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("latency", time.Since(start)),
	)
	return resp.StatusCode, nil
}

// rejection classifies a server-side refusal, keeping NOT_FOUND
// distinguishable from other rejections so callers can react differently.
func (c *Client) rejection(operation string, status int, reason string) error {
	if reason == "" {
		reason = "operation rejected by the server"
	}
	c.logger.Warn("gateway operation rejected",
		zap.String("operation", operation),
		zap.Int("status", status),
		zap.String("reason", reason),
	)
	if status == http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrNotFound, reason)
	}
	rejected := appErrors.Clone(appErrors.ErrRejected, reason)
	if status >= http.StatusBadRequest {
		rejected.Status = status
	}
	return rejected
}

func outcomeForStatus(status int) string {
	if status >= 200 && status < 300 {
		return "success"
	}
	if status == http.StatusNotFound {
		return "not_found"
	}
	return "rejected"
}
