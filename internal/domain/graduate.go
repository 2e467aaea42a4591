package domain

import "time"

type DegreeLevel string

const (
	DegreeUndergraduate DegreeLevel = "Undergraduate"
	DegreeMasters       DegreeLevel = "Masters"
	DegreePhD           DegreeLevel = "PhD"
)

type Graduate struct {
	ID                    uint        `json:"id"`
	CeremonyID            uint        `json:"ceremony_id"`
	UserID                *uint       `json:"user_id,omitempty"`
	StudentNumber         string      `json:"student_id"`
	StudentName           string      `json:"student_name"`
	DegreeLevel           DegreeLevel `json:"degree_level"`
	Faculty               string      `json:"faculty"`
	Department            string      `json:"department"`
	TicketsAllocated      int         `json:"tickets_allocated"`
	ExtraTicketsRequested int         `json:"extra_tickets_requested"`
	ExtraTicketsApproved  int         `json:"extra_tickets_approved"`
	TicketsUsed           int         `json:"tickets_used"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

func (g *Graduate) TotalTickets() int {
	return g.TicketsAllocated + g.ExtraTicketsApproved
}

func (g *Graduate) TicketsUnused() int {
	return g.TotalTickets() - g.TicketsUsed
}
