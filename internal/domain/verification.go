package domain

// ScanRequest carries the gate-side context of one verification attempt.
// CeremonyID, when set, is recorded on logs for scans that resolve no ticket.
type ScanRequest struct {
	ScannerID  uint
	CeremonyID uint
	EntryPoint string
	DeviceInfo string
}

type VerificationResult struct {
	Success      bool                `json:"success"`
	Outcome      VerificationOutcome `json:"verification_status"`
	Message      string              `json:"message"`
	Ticket       *Ticket             `json:"ticket"`
	GraduateName string              `json:"graduate_name,omitempty"`
	GuestName    string              `json:"guest_name,omitempty"`
	TicketType   string              `json:"ticket_type,omitempty"`
	EntryLogID   uint                `json:"entry_log_id"`
}

type GraduateAllocation struct {
	GraduateID      uint   `json:"graduate_id"`
	GraduateName    string `json:"graduate_name"`
	RequestID       uint   `json:"request_id"`
	TicketsReceived int    `json:"tickets_received"`
	TicketIDs       []uint `json:"ticket_ids"`
}

type RedistributionSummary struct {
	CeremonyID   uint                 `json:"ceremony_id"`
	Allocations  []GraduateAllocation `json:"allocations"`
	PoolSize     int                  `json:"pool_size"`
	TicketsMoved int                  `json:"tickets_moved"`
	TicketsLeft  int                  `json:"tickets_left"`
}
