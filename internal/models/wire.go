package models

// Wire envelopes shared by the record gateway and the sandbox API. Student
// and status envelopes carry an explicit success flag. The fee endpoints
// predate the flag and answer with the payload key alone, so their
// envelopes keep success optional and a 2xx reply without the flag still
// counts as accepted.

// StudentEnvelope wraps a single student response.
type StudentEnvelope struct {
	Success bool     `json:"success"`
	Data    *Student `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
}

// StudentListEnvelope wraps a paginated student list response.
type StudentListEnvelope struct {
	Success bool      `json:"success"`
	Data    []Student `json:"data"`
	Total   int       `json:"total"`
	Page    int       `json:"page"`
	Limit   int       `json:"limit"`
	Error   string    `json:"error,omitempty"`
	Message string    `json:"message,omitempty"`
}

// FeeTypesEnvelope wraps the fee type catalog.
type FeeTypesEnvelope struct {
	Success  *bool     `json:"success,omitempty"`
	FeeTypes []FeeType `json:"fee_types"`
	Error    string    `json:"error,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// FeesEnvelope wraps one student's fee records.
type FeesEnvelope struct {
	Success *bool  `json:"success,omitempty"`
	Fees    []Fee  `json:"fees"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// FeeTypeEnvelope wraps a single created fee type.
type FeeTypeEnvelope struct {
	Success *bool    `json:"success,omitempty"`
	FeeType *FeeType `json:"fee_type,omitempty"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
}

// FeeEnvelope wraps a single created fee.
type FeeEnvelope struct {
	Success *bool  `json:"success,omitempty"`
	Fee     *Fee   `json:"fee,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// PaymentEnvelope wraps a single recorded payment.
type PaymentEnvelope struct {
	Success *bool       `json:"success,omitempty"`
	Payment *FeePayment `json:"payment,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// StatusEnvelope wraps payloadless responses such as delete and login.
type StatusEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Accepted reports whether a fee envelope represents a successful reply.
// An explicit flag wins; absent one, any 2xx status is acceptance.
func Accepted(success *bool, status int) bool {
	if success != nil {
		return *success
	}
	return status >= 200 && status < 300
}

// Reason returns the human-readable failure reason from a failure envelope.
func Reason(errMsg, message string) string {
	if errMsg != "" {
		return errMsg
	}
	return message
}
