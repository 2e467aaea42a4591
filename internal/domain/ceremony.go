package domain

import (
	"errors"
	"time"
)

var (
	ErrRequestDeadlineAfterCeremony        = errors.New("ticket request deadline must be before the ceremony date")
	ErrRedistributionDeadlineAfterCeremony = errors.New("redistribution deadline must be before the ceremony date")
	ErrRedistributionBeforeRequestDeadline = errors.New("redistribution deadline must be after the ticket request deadline")
)

type Ceremony struct {
	ID                     uint       `json:"id"`
	Name                   string     `json:"name"`
	Description            string     `json:"description"`
	Date                   time.Time  `json:"ceremony_date"`
	Venue                  string     `json:"venue"`
	VenueAddress           string     `json:"venue_address"`
	Capacity               int        `json:"total_capacity"`
	BaseTicketsPerGraduate int        `json:"base_tickets_per_graduate"`
	RequestDeadline        *time.Time `json:"ticket_request_deadline"`
	RedistributionDeadline *time.Time `json:"redistribution_deadline"`
	IsActive               bool       `json:"is_active"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// CheckDeadlines enforces request deadline <= redistribution deadline < ceremony date.
func (c *Ceremony) CheckDeadlines() error {
	if c.RequestDeadline != nil && !c.RequestDeadline.Before(c.Date) {
		return ErrRequestDeadlineAfterCeremony
	}
	if c.RedistributionDeadline != nil {
		if !c.RedistributionDeadline.Before(c.Date) {
			return ErrRedistributionDeadlineAfterCeremony
		}
		if c.RequestDeadline != nil && c.RedistributionDeadline.Before(*c.RequestDeadline) {
			return ErrRedistributionBeforeRequestDeadline
		}
	}

	return nil
}

// RequestDeadlinePassed reports whether extra ticket requests are closed at now.
func (c *Ceremony) RequestDeadlinePassed(now time.Time) bool {
	return c.RequestDeadline != nil && now.After(*c.RequestDeadline)
}
