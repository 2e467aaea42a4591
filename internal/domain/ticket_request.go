package domain

import "time"

type RequestStatus string

const (
	RequestPending           RequestStatus = "Pending"
	RequestApproved          RequestStatus = "Approved"
	RequestPartiallyApproved RequestStatus = "Partially Approved"
	RequestDenied            RequestStatus = "Denied"
	RequestWaitlisted        RequestStatus = "Waitlisted"
)

// ActiveRequestStatuses are the states that block a graduate from filing another request.
var ActiveRequestStatuses = []RequestStatus{RequestPending, RequestWaitlisted}

func (s RequestStatus) IsActive() bool {
	return s == RequestPending || s == RequestWaitlisted
}

type TicketRequest struct {
	ID                uint          `json:"id"`
	GraduateID        uint          `json:"graduate_id"`
	CeremonyID        uint          `json:"ceremony_id"`
	RequestedQuantity int           `json:"requested_quantity"`
	ApprovedQuantity  int           `json:"approved_quantity"`
	Reason            string        `json:"reason,omitempty"`
	Status            RequestStatus `json:"status"`
	AdminNotes        string        `json:"admin_notes,omitempty"`
	ReviewedBy        *uint         `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Outstanding is how many tickets the request still lacks.
func (r *TicketRequest) Outstanding() int {
	return r.RequestedQuantity - r.ApprovedQuantity
}

// StatusForApproved picks Approved or PartiallyApproved for an approved quantity.
func (r *TicketRequest) StatusForApproved(approved int) RequestStatus {
	if approved >= r.RequestedQuantity {
		return RequestApproved
	}
	return RequestPartiallyApproved
}

// Review stamps the reviewer and the decision onto the request.
func (r *TicketRequest) Review(status RequestStatus, reviewerID uint, notes string, at time.Time) {
	r.Status = status
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &at
	r.AdminNotes = notes
}

type DecisionAction string

const (
	ActionApprove  DecisionAction = "approve"
	ActionDeny     DecisionAction = "deny"
	ActionWaitlist DecisionAction = "waitlist"
)

type Decision struct {
	RequestID        uint           `json:"request_id"`
	Action           DecisionAction `json:"action"`
	ApprovedQuantity *int           `json:"approved_quantity,omitempty"`
	AdminNotes       string         `json:"admin_notes,omitempty"`
}

type BatchError struct {
	RequestID uint   `json:"request_id"`
	Error     string `json:"error"`
}

type BatchResult struct {
	Approved   []TicketRequest `json:"approved"`
	Denied     []TicketRequest `json:"denied"`
	Waitlisted []TicketRequest `json:"waitlisted"`
	Errors     []BatchError    `json:"errors"`
}
