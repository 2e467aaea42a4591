package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/repository"
)

const (
	MinBaseTickets = 1
	MaxBaseTickets = 10
)

type CeremonyService struct {
	repo    *repository.TicketingRepository
	tickets *TicketService
}

func NewCeremonyService(repo *repository.TicketingRepository, tickets *TicketService) *CeremonyService {
	return &CeremonyService{
		repo:    repo,
		tickets: tickets,
	}
}

func validateCeremony(c domain.Ceremony) error {
	if c.Date.IsZero() {
		return ErrCeremonyDateRequired
	}
	if c.Capacity < 1 {
		return ErrInvalidCapacity
	}
	if c.BaseTicketsPerGraduate < MinBaseTickets || c.BaseTicketsPerGraduate > MaxBaseTickets {
		return ErrInvalidBaseTickets
	}

	return c.CheckDeadlines()
}

func (s *CeremonyService) CreateCeremony(ctx context.Context, ceremony domain.Ceremony) (domain.Ceremony, error) {
	if err := validateCeremony(ceremony); err != nil {
		return domain.Ceremony{}, err
	}

	created, err := s.repo.CreateCeremony(ctx, ceremony)
	if err != nil {
		return domain.Ceremony{}, fmt.Errorf("s.repo.CreateCeremony -> %w", err)
	}

	return created, nil
}

func (s *CeremonyService) GetCeremony(ctx context.Context, id uint) (domain.Ceremony, error) {
	ceremony, err := s.repo.GetCeremony(ctx, id)
	if err != nil {
		return domain.Ceremony{}, fmt.Errorf("s.repo.GetCeremony -> %w", err)
	}

	return ceremony, nil
}

func (s *CeremonyService) GetGraduate(ctx context.Context, id uint) (domain.Graduate, error) {
	graduate, err := s.repo.GetGraduate(ctx, id)
	if err != nil {
		return domain.Graduate{}, fmt.Errorf("s.repo.GetGraduate -> %w", err)
	}

	return graduate, nil
}

// RegisterGraduate enrolls a graduate in a ceremony and issues their base
// tickets in the same transaction.
func (s *CeremonyService) RegisterGraduate(ctx context.Context, graduate domain.Graduate) (domain.Graduate, []domain.Ticket, error) {
	var tickets []domain.Ticket
	err := s.tickets.inIssuanceTx(ctx, func(tx *repository.TicketingRepository, batch *issuance) error {
		ceremony, err := tx.GetCeremony(ctx, graduate.CeremonyID)
		if err != nil {
			return fmt.Errorf("tx.GetCeremony -> %w", err)
		}
		if !ceremony.IsActive {
			return ErrCeremonyInactive
		}

		graduate.TicketsAllocated = 0
		graduate.ExtraTicketsRequested = 0
		graduate.ExtraTicketsApproved = 0
		graduate.TicketsUsed = 0
		graduate, err = tx.CreateGraduate(ctx, graduate)
		if err != nil {
			return fmt.Errorf("tx.CreateGraduate -> %w", err)
		}

		tickets, err = s.tickets.allocateBaseTickets(ctx, tx, graduate.ID, batch)
		if err != nil {
			return err
		}
		graduate.TicketsAllocated = len(tickets)

		return nil
	})
	if err != nil {
		return domain.Graduate{}, nil, err
	}

	zap.L().Info("graduate registered",
		zap.Uint("graduate_id", graduate.ID),
		zap.Uint("ceremony_id", graduate.CeremonyID),
		zap.Int("base_tickets", len(tickets)),
	)

	return graduate, tickets, nil
}
