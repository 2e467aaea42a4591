// Package gatefeed distributes entry events (admissions, duplicates, fraud
// alerts) to dashboards watching a ceremony's gates.
package gatefeed

import (
	"context"
	"time"
)

type Event struct {
	CeremonyID uint      `json:"ceremony_id"`
	TicketID   *uint     `json:"ticket_id,omitempty"`
	EntryLogID uint      `json:"entry_log_id"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message"`
	EntryPoint string    `json:"entry_point,omitempty"`
	ScannerID  uint      `json:"scanner_id"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
