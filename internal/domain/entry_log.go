package domain

import "time"

type VerificationOutcome string

const (
	OutcomeSuccess      VerificationOutcome = "Success"
	OutcomeDuplicate    VerificationOutcome = "Duplicate"
	OutcomeInvalid      VerificationOutcome = "Invalid"
	OutcomeFraudAttempt VerificationOutcome = "Fraud Attempt"
)

// EntryLog is the append-only audit row written for every verification attempt.
type EntryLog struct {
	ID         uint                `json:"id"`
	TicketID   *uint               `json:"ticket_id"`
	CeremonyID *uint               `json:"ceremony_id"`
	ScannedBy  uint                `json:"scanned_by"`
	ScannedAt  time.Time           `json:"scanned_at"`
	EntryPoint string              `json:"entry_point,omitempty"`
	Outcome    VerificationOutcome `json:"verification_status"`
	Notes      string              `json:"notes,omitempty"`
	DeviceInfo string              `json:"device_info,omitempty"`
	Ticket     *Ticket             `json:"ticket,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

type EntryLogFilter struct {
	CeremonyID uint
	Outcome    VerificationOutcome
	Limit      int
	Offset     int
}
