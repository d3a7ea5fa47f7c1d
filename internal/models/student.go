package models

// Student is a registered learner as held by the remote system of record.
// The id is server-assigned and immutable; createdAt/updatedAt are server-set
// audit fields the client never writes. Calendar dates travel as YYYY-MM-DD
// strings on the wire.
type Student struct {
	ID               int64  `json:"id"`
	StudentName      string `json:"studentName"`
	ParentsName      string `json:"parentsName"`
	RollNumber       string `json:"rollNumber"`
	Class            string `json:"class"`
	Section          string `json:"section"`
	SchoolJoinedDate string `json:"schoolJoinedDate"`
	DateOfBirth      string `json:"dateOfBirth"`
	PhoneNumber      string `json:"phoneNumber"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
}

// CreateStudentInput carries every required attribute and no identity.
type CreateStudentInput struct {
	StudentName      string `json:"studentName" validate:"required"`
	ParentsName      string `json:"parentsName" validate:"required"`
	RollNumber       string `json:"rollNumber" validate:"required"`
	Class            string `json:"class" validate:"required"`
	Section          string `json:"section" validate:"required"`
	SchoolJoinedDate string `json:"schoolJoinedDate" validate:"required"`
	DateOfBirth      string `json:"dateOfBirth" validate:"required"`
	PhoneNumber      string `json:"phoneNumber" validate:"required"`
}

// UpdateStudentInput carries the identity plus the attribute set to apply.
type UpdateStudentInput struct {
	ID               int64  `json:"id" validate:"required"`
	StudentName      string `json:"studentName" validate:"required"`
	ParentsName      string `json:"parentsName" validate:"required"`
	RollNumber       string `json:"rollNumber" validate:"required"`
	Class            string `json:"class" validate:"required"`
	Section          string `json:"section" validate:"required"`
	SchoolJoinedDate string `json:"schoolJoinedDate" validate:"required"`
	DateOfBirth      string `json:"dateOfBirth" validate:"required"`
	PhoneNumber      string `json:"phoneNumber" validate:"required"`
}

// StudentPage is one page of the remote student collection. Total, Page and
// Limit are the values the server actually applied; callers must use these,
// not their own request parameters, for subsequent pagination math.
type StudentPage struct {
	Students []Student
	Total    int
	Page     int
	Limit    int
}
