package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alvishnu/school-desk/internal/models"
	appErrors "github.com/alvishnu/school-desk/pkg/errors"
	"github.com/alvishnu/school-desk/pkg/response"
)

type feeService interface {
	FeeTypes(ctx context.Context) ([]models.FeeType, error)
	CreateFeeType(ctx context.Context, input models.CreateFeeTypeInput) (*models.FeeType, error)
	StudentFees(ctx context.Context, studentID int64) ([]models.Fee, error)
	CreateFee(ctx context.Context, input models.CreateFeeInput) (*models.Fee, error)
	RecordPayment(ctx context.Context, input models.RecordPaymentInput) (*models.FeePayment, error)
}

// FeeHandler exposes the fee ledger endpoints of the wire contract.
type FeeHandler struct {
	fees feeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees feeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// FeeTypes godoc
// @Summary List fee types
// @Tags Fees
// @Produce json
// @Success 200 {object} models.FeeTypesEnvelope
// @Router /fee-types [get]
func (h *FeeHandler) FeeTypes(c *gin.Context) {
	types, err := h.fees.FeeTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if types == nil {
		types = []models.FeeType{}
	}
	response.OK(c, http.StatusOK, gin.H{"fee_types": types})
}

// CreateFeeType godoc
// @Summary Add a fee type to the catalog
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body models.CreateFeeTypeInput true "Fee type payload"
// @Success 201 {object} models.FeeTypeEnvelope
// @Router /fee-types [post]
func (h *FeeHandler) CreateFeeType(c *gin.Context) {
	var input models.CreateFeeTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	feeType, err := h.fees.CreateFeeType(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"fee_type": feeType})
}

// StudentFees godoc
// @Summary Get a student's fees
// @Tags Fees
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} models.FeesEnvelope
// @Router /students/{id}/fees [get]
func (h *FeeHandler) StudentFees(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	fees, err := h.fees.StudentFees(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if fees == nil {
		fees = []models.Fee{}
	}
	response.OK(c, http.StatusOK, gin.H{"fees": fees})
}

// CreateFee godoc
// @Summary Open a fee against a student
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body models.CreateFeeInput true "Fee payload"
// @Success 201 {object} models.FeeEnvelope
// @Router /students/{id}/fees [post]
func (h *FeeHandler) CreateFee(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input models.CreateFeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	input.StudentID = id
	fee, err := h.fees.CreateFee(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"fee": fee})
}

// RecordPayment godoc
// @Summary Record a payment against a fee
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path int true "Fee ID"
// @Param payload body models.RecordPaymentInput true "Payment payload"
// @Success 201 {object} models.PaymentEnvelope
// @Router /fees/{id}/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input models.RecordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	input.FeeID = id
	payment, err := h.fees.RecordPayment(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"payment": payment})
}
