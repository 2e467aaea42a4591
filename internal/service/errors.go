package service

import (
	"errors"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/repository"
)

var (
	ErrCeremonyNotFound      = repository.ErrCeremonyNotFound
	ErrGraduateNotFound      = repository.ErrGraduateNotFound
	ErrStudentNumberExists   = repository.ErrStudentNumberExists
	ErrTicketNotFound        = repository.ErrTicketNotFound
	ErrTicketRequestNotFound = repository.ErrTicketRequestNotFound

	ErrRequestDeadlineAfterCeremony        = domain.ErrRequestDeadlineAfterCeremony
	ErrRedistributionDeadlineAfterCeremony = domain.ErrRedistributionDeadlineAfterCeremony
	ErrRedistributionBeforeRequestDeadline = domain.ErrRedistributionBeforeRequestDeadline
)

var (
	ErrInvalidCapacity             = errors.New("ceremony capacity must be at least 1")
	ErrInvalidBaseTickets          = errors.New("base tickets per graduate must be between 1 and 10")
	ErrCeremonyDateRequired        = errors.New("ceremony date is required")
	ErrCeremonyInactive            = errors.New("ceremony is not active")
	ErrBaseTicketsAlreadyAllocated = errors.New("base tickets have already been allocated to this graduate")
	ErrInvalidQuantity             = errors.New("quantity must be at least 1")
	ErrInvalidTicketType           = errors.New("invalid ticket type")
	ErrTicketCodeExhausted         = errors.New("could not generate a unique ticket code")
	ErrTicketNotActive             = errors.New("ticket is not active")
	ErrActiveRequestExists         = errors.New("graduate already has a pending or waitlisted request")
	ErrRequestDeadlinePassed       = errors.New("ticket request deadline has passed")
	ErrRequestNotReviewable        = errors.New("ticket request cannot be reviewed in its current status")
	ErrInvalidDecision             = errors.New("invalid decision action")
	ErrRedistributionTooEarly      = errors.New("redistribution deadline has not been reached")
)
