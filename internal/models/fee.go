package models

// FeeType is a catalog entry describing a kind of chargeable fee.
type FeeType struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   *string `json:"updated_at,omitempty"`
}

// Fee is a charge against one student, denormalised for display. The server
// maintains TotalPaid as the sum of payments and RemainingAmount as
// TotalAmount - TotalPaid; the client never recomputes either.
type Fee struct {
	ID              int64        `json:"id"`
	StudentID       int64        `json:"student_id"`
	FeeTypeID       int64        `json:"fee_type_id"`
	FeeTypeName     string       `json:"fee_type_name"`
	StudentName     string       `json:"student_name"`
	RollNumber      string       `json:"roll_number"`
	ClassName       string       `json:"class_name"`
	TotalAmount     float64      `json:"total_amount"`
	TotalPaid       float64      `json:"total_paid"`
	RemainingAmount float64      `json:"remaining_amount"`
	AcademicYear    string       `json:"academic_year"`
	Payments        []FeePayment `json:"payments"`
	CreatedAt       string       `json:"created_at,omitempty"`
	UpdatedAt       *string      `json:"updated_at,omitempty"`
}

// FeePayment is a single payment recorded against a fee.
type FeePayment struct {
	ID            int64   `json:"id"`
	FeeID         int64   `json:"fee_id"`
	AmountPaid    float64 `json:"amount_paid"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMethod string  `json:"payment_method"`
	Remarks       *string `json:"remarks"`
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     *string `json:"updated_at,omitempty"`
}

// CreateFeeTypeInput adds an entry to the fee type catalog.
type CreateFeeTypeInput struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// CreateFeeInput opens a new fee against a student.
type CreateFeeInput struct {
	StudentID    int64   `json:"-" validate:"required"`
	FeeTypeID    int64   `json:"fee_type_id" validate:"required"`
	TotalAmount  float64 `json:"total_amount" validate:"required,gt=0"`
	AcademicYear string  `json:"academic_year" validate:"required"`
}

// RecordPaymentInput records a payment against an existing fee.
type RecordPaymentInput struct {
	FeeID         int64   `json:"-" validate:"required"`
	AmountPaid    float64 `json:"amount_paid" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	Remarks       string  `json:"remarks"`
}
