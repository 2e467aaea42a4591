package response

import "github.com/gradpass/ceremony-tickets/internal/domain"

type Ticket struct {
	domain.Ticket
	QRPayload string `json:"qr_payload"`
	QRCodeURL string `json:"qr_code_url,omitempty"`
}

type IssuedTickets struct {
	GraduateID uint   `json:"graduate_id"`
	TicketIDs  []uint `json:"ticket_ids"`
}

type RegisteredGraduate struct {
	Graduate domain.Graduate `json:"graduate"`
	Tickets  []Ticket        `json:"tickets"`
}

type PayloadValidation struct {
	Valid bool `json:"valid"`
}
