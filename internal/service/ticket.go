package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/metrics"
	"github.com/gradpass/ceremony-tickets/internal/pkg/artifact"
	"github.com/gradpass/ceremony-tickets/internal/pkg/qrcodec"
	"github.com/gradpass/ceremony-tickets/internal/repository"
)

const DefaultMaxCodeAttempts = 10

type IssuanceConfig struct {
	CodeLength      int
	MaxCodeAttempts int
}

// TicketService issues tickets and manages their QR artifacts.
type TicketService struct {
	repo        *repository.TicketingRepository
	codec       *qrcodec.Codec
	store       artifact.Store
	codeLength  int
	maxAttempts int
	now         func() time.Time
}

func NewTicketService(repo *repository.TicketingRepository, codec *qrcodec.Codec, store artifact.Store, cfg IssuanceConfig) *TicketService {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.MaxCodeAttempts <= 0 {
		cfg.MaxCodeAttempts = DefaultMaxCodeAttempts
	}

	return &TicketService{
		repo:        repo,
		codec:       codec,
		store:       store,
		codeLength:  cfg.CodeLength,
		maxAttempts: cfg.MaxCodeAttempts,
		now:         time.Now,
	}
}

// issuance tracks what one transaction produced outside the database so it
// can be undone on rollback and counted on commit.
type issuance struct {
	keys    []string
	tickets []domain.Ticket
}

// inIssuanceTx runs fn in a transaction. Artifacts written by a transaction
// that rolls back are deleted again.
func (s *TicketService) inIssuanceTx(ctx context.Context, fn func(tx *repository.TicketingRepository, batch *issuance) error) error {
	batch := &issuance{}
	err := s.repo.InTx(ctx, func(tx *repository.TicketingRepository) error {
		return fn(tx, batch)
	})
	if err != nil {
		s.discardArtifacts(ctx, batch.keys)
		return err
	}

	for _, t := range batch.tickets {
		metrics.TicketIssued(string(t.Type))
	}

	return nil
}

func (s *TicketService) discardArtifacts(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			zap.L().Warn("failed to delete orphaned QR artifact", zap.String("key", key), zap.Error(err))
		}
	}
}

// issueTicket persists one Active ticket under a fresh unique code, then
// renders and stores its QR artifact.
func (s *TicketService) issueTicket(ctx context.Context, tx *repository.TicketingRepository, graduate domain.Graduate, ticketType domain.TicketType, batch *issuance) (domain.Ticket, error) {
	if !ticketType.IsValid() {
		return domain.Ticket{}, ErrInvalidTicketType
	}

	ticket, err := s.insertWithUniqueCode(ctx, tx, domain.Ticket{
		GraduateID: graduate.ID,
		CeremonyID: graduate.CeremonyID,
		Type:       ticketType,
		Status:     domain.TicketActive,
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	key, err := s.writeArtifact(ctx, ticket)
	if err != nil {
		return domain.Ticket{}, err
	}
	batch.keys = append(batch.keys, key)

	if err := tx.SetTicketQRPath(ctx, ticket.ID, key); err != nil {
		return domain.Ticket{}, fmt.Errorf("tx.SetTicketQRPath -> %w", err)
	}
	ticket.QRCodePath = key
	batch.tickets = append(batch.tickets, ticket)

	return ticket, nil
}

// insertWithUniqueCode pre-checks each candidate code and still retries when
// the insert loses a race on the unique index.
func (s *TicketService) insertWithUniqueCode(ctx context.Context, tx *repository.TicketingRepository, ticket domain.Ticket) (domain.Ticket, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		code, err := generateCode(s.codeLength)
		if err != nil {
			return domain.Ticket{}, err
		}

		exists, err := tx.TicketCodeExists(ctx, code)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("tx.TicketCodeExists -> %w", err)
		}
		if exists {
			metrics.CodeCollision()
			continue
		}

		ticket.Code = code
		created, err := tx.CreateTicket(ctx, ticket)
		if errors.Is(err, repository.ErrTicketCodeExists) {
			metrics.CodeCollision()
			continue
		}
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("tx.CreateTicket -> %w", err)
		}

		return created, nil
	}

	return domain.Ticket{}, ErrTicketCodeExhausted
}

func (s *TicketService) writeArtifact(ctx context.Context, ticket domain.Ticket) (string, error) {
	payload, err := s.codec.Encode(ticket)
	if err != nil {
		return "", fmt.Errorf("s.codec.Encode -> %w", err)
	}

	png, err := s.codec.RenderPNG(payload)
	if err != nil {
		return "", fmt.Errorf("s.codec.RenderPNG -> %w", err)
	}

	key := qrcodec.ArtifactKey(ticket)
	if err := s.store.Put(ctx, key, png, artifact.ContentTypePNG); err != nil {
		return "", fmt.Errorf("s.store.Put -> %w", err)
	}

	return key, nil
}

// allocateBaseTickets issues the ceremony's base allocation to a graduate.
// A graduate that already holds base tickets is rejected.
func (s *TicketService) allocateBaseTickets(ctx context.Context, tx *repository.TicketingRepository, graduateID uint, batch *issuance) ([]domain.Ticket, error) {
	graduate, err := tx.LockGraduate(ctx, graduateID)
	if err != nil {
		return nil, fmt.Errorf("tx.LockGraduate -> %w", err)
	}
	if graduate.TicketsAllocated > 0 {
		return nil, ErrBaseTicketsAlreadyAllocated
	}

	existing, err := tx.CountGraduateTickets(ctx, graduate.ID, domain.TicketBase)
	if err != nil {
		return nil, fmt.Errorf("tx.CountGraduateTickets -> %w", err)
	}
	if existing > 0 {
		return nil, ErrBaseTicketsAlreadyAllocated
	}

	ceremony, err := tx.GetCeremony(ctx, graduate.CeremonyID)
	if err != nil {
		return nil, fmt.Errorf("tx.GetCeremony -> %w", err)
	}

	tickets := make([]domain.Ticket, 0, ceremony.BaseTicketsPerGraduate)
	for i := 0; i < ceremony.BaseTicketsPerGraduate; i++ {
		ticket, err := s.issueTicket(ctx, tx, graduate, domain.TicketBase, batch)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	if err := tx.SetTicketsAllocated(ctx, graduate.ID, len(tickets)); err != nil {
		return nil, fmt.Errorf("tx.SetTicketsAllocated -> %w", err)
	}

	return tickets, nil
}

// allocateExtraTickets issues quantity Extra tickets and raises the
// graduate's approved extra count. Callers hold the graduate's row lock.
func (s *TicketService) allocateExtraTickets(ctx context.Context, tx *repository.TicketingRepository, graduate domain.Graduate, quantity int, batch *issuance) ([]domain.Ticket, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	tickets := make([]domain.Ticket, 0, quantity)
	for i := 0; i < quantity; i++ {
		ticket, err := s.issueTicket(ctx, tx, graduate, domain.TicketExtra, batch)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	if err := tx.IncrementExtraTicketsApproved(ctx, graduate.ID, quantity); err != nil {
		return nil, fmt.Errorf("tx.IncrementExtraTicketsApproved -> %w", err)
	}

	return tickets, nil
}

func (s *TicketService) IssueBaseTickets(ctx context.Context, graduateID uint) ([]uint, error) {
	var tickets []domain.Ticket
	err := s.inIssuanceTx(ctx, func(tx *repository.TicketingRepository, batch *issuance) error {
		var err error
		tickets, err = s.allocateBaseTickets(ctx, tx, graduateID, batch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("s.allocateBaseTickets -> %w", err)
	}

	return ticketIDs(tickets), nil
}

func (s *TicketService) IssueExtraTickets(ctx context.Context, graduateID uint, quantity int) ([]uint, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var tickets []domain.Ticket
	err := s.inIssuanceTx(ctx, func(tx *repository.TicketingRepository, batch *issuance) error {
		graduate, err := tx.LockGraduate(ctx, graduateID)
		if err != nil {
			return fmt.Errorf("tx.LockGraduate -> %w", err)
		}

		tickets, err = s.allocateExtraTickets(ctx, tx, graduate, quantity, batch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("s.allocateExtraTickets -> %w", err)
	}

	return ticketIDs(tickets), nil
}

func (s *TicketService) GetTicket(ctx context.Context, ticketID uint) (domain.Ticket, error) {
	ticket, err := s.repo.GetTicketWithRelations(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.GetTicketWithRelations -> %w", err)
	}

	return ticket, nil
}

func (s *TicketService) ListGraduateTickets(ctx context.Context, graduateID uint) ([]domain.Ticket, error) {
	if _, err := s.repo.GetGraduate(ctx, graduateID); err != nil {
		return nil, fmt.Errorf("s.repo.GetGraduate -> %w", err)
	}

	tickets, err := s.repo.ListGraduateTickets(ctx, graduateID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListGraduateTickets -> %w", err)
	}

	return tickets, nil
}

func (s *TicketService) ListTicketTransfers(ctx context.Context, ticketID uint) ([]domain.TicketTransfer, error) {
	transfers, err := s.repo.ListTicketTransfers(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListTicketTransfers -> %w", err)
	}

	return transfers, nil
}

// UpdateGuest names the guest a ticket is for. Only Active tickets can change hands.
func (s *TicketService) UpdateGuest(ctx context.Context, ticketID uint, name, email string) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := s.repo.InTx(ctx, func(tx *repository.TicketingRepository) error {
		var err error
		ticket, err = tx.LockTicket(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("tx.LockTicket -> %w", err)
		}
		if ticket.Status != domain.TicketActive {
			return ErrTicketNotActive
		}

		if err := tx.SetTicketGuest(ctx, ticket.ID, name, email); err != nil {
			return fmt.Errorf("tx.SetTicketGuest -> %w", err)
		}
		ticket.GuestName = name
		ticket.GuestEmail = email

		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	return ticket, nil
}

func (s *TicketService) CancelTicket(ctx context.Context, ticketID uint) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := s.repo.InTx(ctx, func(tx *repository.TicketingRepository) error {
		var err error
		ticket, err = tx.LockTicket(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("tx.LockTicket -> %w", err)
		}
		if ticket.Status != domain.TicketActive {
			return ErrTicketNotActive
		}

		if err := tx.SetTicketStatus(ctx, ticket.ID, domain.TicketCancelled); err != nil {
			return fmt.Errorf("tx.SetTicketStatus -> %w", err)
		}
		ticket.Status = domain.TicketCancelled

		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	zap.L().Info("ticket cancelled", zap.Uint("ticket_id", ticket.ID), zap.Uint("graduate_id", ticket.GraduateID))

	return ticket, nil
}

// RegenerateQRCode replaces a ticket's stored artifact with one rendered from
// its current binding fields.
func (s *TicketService) RegenerateQRCode(ctx context.Context, ticketID uint) (domain.Ticket, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.GetTicket -> %w", err)
	}

	if ticket.QRCodePath != "" {
		exists, err := s.store.Exists(ctx, ticket.QRCodePath)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("s.store.Exists -> %w", err)
		}
		if exists {
			if err := s.store.Delete(ctx, ticket.QRCodePath); err != nil {
				return domain.Ticket{}, fmt.Errorf("s.store.Delete -> %w", err)
			}
		}
	}

	key, err := s.writeArtifact(ctx, ticket)
	if err != nil {
		return domain.Ticket{}, err
	}

	if err := s.repo.SetTicketQRPath(ctx, ticket.ID, key); err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.SetTicketQRPath -> %w", err)
	}
	ticket.QRCodePath = key

	return ticket, nil
}

// QRCodePayload returns the payload encoded in the ticket's QR image.
func (s *TicketService) QRCodePayload(ticket domain.Ticket) (string, error) {
	return s.codec.Encode(ticket)
}

func (s *TicketService) ArtifactURL(ticket domain.Ticket) string {
	if ticket.QRCodePath == "" {
		return ""
	}
	return s.store.URL(ticket.QRCodePath)
}

func ticketIDs(tickets []domain.Ticket) []uint {
	ids := make([]uint, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	return ids
}
