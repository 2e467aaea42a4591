package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/metrics"
	"github.com/gradpass/ceremony-tickets/internal/repository"
)

// RequestService runs the extra ticket request lifecycle and the
// redistribution of unused tickets.
type RequestService struct {
	repo    *repository.TicketingRepository
	tickets *TicketService
	now     func() time.Time
}

func NewRequestService(repo *repository.TicketingRepository, tickets *TicketService) *RequestService {
	return &RequestService{
		repo:    repo,
		tickets: tickets,
		now:     time.Now,
	}
}

// CreateRequest files a Pending request. A graduate may hold only one
// Pending or Waitlisted request, and only until the ceremony's request deadline.
func (s *RequestService) CreateRequest(ctx context.Context, graduateID uint, quantity int, reason string) (domain.TicketRequest, error) {
	if quantity < 1 {
		return domain.TicketRequest{}, ErrInvalidQuantity
	}

	var request domain.TicketRequest
	err := s.repo.InTx(ctx, func(tx *repository.TicketingRepository) error {
		graduate, err := tx.LockGraduate(ctx, graduateID)
		if err != nil {
			return fmt.Errorf("tx.LockGraduate -> %w", err)
		}

		_, err = tx.FindActiveRequest(ctx, graduate.ID)
		switch {
		case err == nil:
			return ErrActiveRequestExists
		case !errors.Is(err, repository.ErrTicketRequestNotFound):
			return fmt.Errorf("tx.FindActiveRequest -> %w", err)
		}

		ceremony, err := tx.GetCeremony(ctx, graduate.CeremonyID)
		if err != nil {
			return fmt.Errorf("tx.GetCeremony -> %w", err)
		}
		if ceremony.RequestDeadlinePassed(s.now()) {
			return ErrRequestDeadlinePassed
		}

		request, err = tx.CreateTicketRequest(ctx, domain.TicketRequest{
			GraduateID:        graduate.ID,
			CeremonyID:        graduate.CeremonyID,
			RequestedQuantity: quantity,
			Reason:            reason,
			Status:            domain.RequestPending,
		})
		if err != nil {
			return fmt.Errorf("tx.CreateTicketRequest -> %w", err)
		}

		if err := tx.IncrementExtraTicketsRequested(ctx, graduate.ID, quantity); err != nil {
			return fmt.Errorf("tx.IncrementExtraTicketsRequested -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.TicketRequest{}, err
	}

	return request, nil
}

func (s *RequestService) GetRequest(ctx context.Context, requestID uint) (domain.TicketRequest, error) {
	request, err := s.repo.GetTicketRequest(ctx, requestID)
	if err != nil {
		return domain.TicketRequest{}, fmt.Errorf("s.repo.GetTicketRequest -> %w", err)
	}

	return request, nil
}

// ApproveRequest records the decision and issues the approved Extra tickets
// in one transaction.
func (s *RequestService) ApproveRequest(ctx context.Context, requestID uint, approvedQuantity int, reviewerID uint, notes string) (domain.TicketRequest, error) {
	if approvedQuantity < 0 {
		return domain.TicketRequest{}, ErrInvalidQuantity
	}

	var request domain.TicketRequest
	err := s.tickets.inIssuanceTx(ctx, func(tx *repository.TicketingRepository, batch *issuance) error {
		var err error
		request, err = tx.LockTicketRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("tx.LockTicketRequest -> %w", err)
		}
		if !request.Status.IsActive() {
			return ErrRequestNotReviewable
		}

		graduate, err := tx.LockGraduate(ctx, request.GraduateID)
		if err != nil {
			return fmt.Errorf("tx.LockGraduate -> %w", err)
		}

		request.ApprovedQuantity = approvedQuantity
		request.Review(request.StatusForApproved(approvedQuantity), reviewerID, notes, s.now())
		request, err = tx.UpdateTicketRequest(ctx, request)
		if err != nil {
			return fmt.Errorf("tx.UpdateTicketRequest -> %w", err)
		}

		if approvedQuantity > 0 {
			if _, err := s.tickets.allocateExtraTickets(ctx, tx, graduate, approvedQuantity, batch); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return domain.TicketRequest{}, err
	}

	metrics.RequestDecision(string(request.Status))

	return request, nil
}

func (s *RequestService) DenyRequest(ctx context.Context, requestID uint, reviewerID uint, notes string) (domain.TicketRequest, error) {
	return s.transition(ctx, requestID, domain.RequestDenied, reviewerID, notes, domain.RequestPending, domain.RequestWaitlisted)
}

func (s *RequestService) WaitlistRequest(ctx context.Context, requestID uint, reviewerID uint, notes string) (domain.TicketRequest, error) {
	return s.transition(ctx, requestID, domain.RequestWaitlisted, reviewerID, notes, domain.RequestPending)
}

// transition moves a request to status when its current status is one of from.
func (s *RequestService) transition(ctx context.Context, requestID uint, status domain.RequestStatus, reviewerID uint, notes string, from ...domain.RequestStatus) (domain.TicketRequest, error) {
	var request domain.TicketRequest
	err := s.repo.InTx(ctx, func(tx *repository.TicketingRepository) error {
		var err error
		request, err = tx.LockTicketRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("tx.LockTicketRequest -> %w", err)
		}
		if !statusIn(request.Status, from) {
			return ErrRequestNotReviewable
		}

		request.Review(status, reviewerID, notes, s.now())
		request, err = tx.UpdateTicketRequest(ctx, request)
		if err != nil {
			return fmt.Errorf("tx.UpdateTicketRequest -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.TicketRequest{}, err
	}

	metrics.RequestDecision(string(status))

	return request, nil
}

func statusIn(status domain.RequestStatus, set []domain.RequestStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// BatchProcess applies each decision in its own transaction. A failing
// decision is reported in Errors and does not stop the rest.
func (s *RequestService) BatchProcess(ctx context.Context, decisions []domain.Decision, reviewerID uint) domain.BatchResult {
	result := domain.BatchResult{
		Approved:   []domain.TicketRequest{},
		Denied:     []domain.TicketRequest{},
		Waitlisted: []domain.TicketRequest{},
		Errors:     []domain.BatchError{},
	}

	for _, d := range decisions {
		request, err := s.apply(ctx, d, reviewerID)
		if err != nil {
			result.Errors = append(result.Errors, domain.BatchError{RequestID: d.RequestID, Error: err.Error()})
			continue
		}

		switch d.Action {
		case domain.ActionApprove:
			result.Approved = append(result.Approved, request)
		case domain.ActionDeny:
			result.Denied = append(result.Denied, request)
		case domain.ActionWaitlist:
			result.Waitlisted = append(result.Waitlisted, request)
		}
	}

	zap.L().Info("batch decisions processed",
		zap.Uint("reviewer_id", reviewerID),
		zap.Int("approved", len(result.Approved)),
		zap.Int("denied", len(result.Denied)),
		zap.Int("waitlisted", len(result.Waitlisted)),
		zap.Int("errors", len(result.Errors)),
	)

	return result
}

func (s *RequestService) apply(ctx context.Context, d domain.Decision, reviewerID uint) (domain.TicketRequest, error) {
	switch d.Action {
	case domain.ActionApprove:
		quantity := 0
		if d.ApprovedQuantity != nil {
			quantity = *d.ApprovedQuantity
		} else {
			request, err := s.repo.GetTicketRequest(ctx, d.RequestID)
			if err != nil {
				return domain.TicketRequest{}, fmt.Errorf("s.repo.GetTicketRequest -> %w", err)
			}
			quantity = request.RequestedQuantity
		}
		return s.ApproveRequest(ctx, d.RequestID, quantity, reviewerID, d.AdminNotes)
	case domain.ActionDeny:
		return s.DenyRequest(ctx, d.RequestID, reviewerID, d.AdminNotes)
	case domain.ActionWaitlist:
		return s.WaitlistRequest(ctx, d.RequestID, reviewerID, d.AdminNotes)
	default:
		return domain.TicketRequest{}, ErrInvalidDecision
	}
}
