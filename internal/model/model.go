package model

type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped-no-phone"
)

// Student is one roster row. GuardianName may be empty ("N/A" in the
// source spreadsheet); GuardianPhone is empty when the cell is blank.
type Student struct {
	Name          string `json:"name"`
	Class         string `json:"class"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
}

// OutboundMessage carries the original identifiers alongside the
// rendered body; audit records are built from these fields, never by
// parsing the body back apart.
type OutboundMessage struct {
	Phone        string
	Body         string
	StudentName  string
	GuardianName string
}

// DispatchRecord is one append-only audit log entry.
type DispatchRecord struct {
	ID       int64   `json:"id"`
	Student  string  `json:"student"`
	Class    string  `json:"class"`
	Date     string  `json:"date"`
	Guardian string  `json:"guardian"`
	Phone    string  `json:"phone"`
	Status   Status  `json:"status"`
	Response *string `json:"response,omitempty"`
}

// Identity is the logged-in staff member, carried per request.
type Identity struct {
	Username string `json:"username"`
}
