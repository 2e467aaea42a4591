package domain

import "time"

type TicketType string

const (
	TicketBase  TicketType = "Base"
	TicketExtra TicketType = "Extra"
)

func (t TicketType) IsValid() bool {
	return t == TicketBase || t == TicketExtra
}

type TicketStatus string

const (
	TicketActive        TicketStatus = "Active"
	TicketUsed          TicketStatus = "Used"
	TicketCancelled     TicketStatus = "Cancelled"
	TicketRedistributed TicketStatus = "Redistributed"
)

type Ticket struct {
	ID         uint         `json:"id"`
	GraduateID uint         `json:"graduate_id"`
	CeremonyID uint         `json:"ceremony_id"`
	Code       string       `json:"ticket_code"`
	QRCodePath string       `json:"qr_code_path,omitempty"`
	GuestName  string       `json:"guest_name,omitempty"`
	GuestEmail string       `json:"guest_email,omitempty"`
	Type       TicketType   `json:"ticket_type"`
	Status     TicketStatus `json:"status"`
	IsScanned  bool         `json:"is_scanned"`
	ScannedAt  *time.Time   `json:"scanned_at,omitempty"`
	ScannedBy  *uint        `json:"scanned_by,omitempty"`
	Graduate   *Graduate    `json:"graduate,omitempty"`
	Ceremony   *Ceremony    `json:"ceremony,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// MarkUsed performs the Active -> Used transition of a successful scan.
func (t *Ticket) MarkUsed(scannerID uint, at time.Time) {
	t.Status = TicketUsed
	t.IsScanned = true
	t.ScannedAt = &at
	t.ScannedBy = &scannerID
}

// TicketTransfer records one reassignment of a ticket to another graduate.
type TicketTransfer struct {
	ID              uint      `json:"id"`
	TicketID        uint      `json:"ticket_id"`
	FromGraduateID  uint      `json:"from_graduate_id"`
	ToGraduateID    uint      `json:"to_graduate_id"`
	TicketRequestID *uint     `json:"ticket_request_id,omitempty"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}

const TransferReasonRedistribution = "redistribution"
