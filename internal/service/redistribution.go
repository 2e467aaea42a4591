package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/metrics"
	"github.com/gradpass/ceremony-tickets/internal/repository"
)

// RedistributeUnusedTickets hands Active, unscanned tickets of graduates who
// have not used any ticket to waitlisted requests, oldest request first.
// Moved tickets keep their code and artifact and become Redistributed.
func (s *RequestService) RedistributeUnusedTickets(ctx context.Context, ceremonyID uint) (domain.RedistributionSummary, error) {
	summary := domain.RedistributionSummary{
		CeremonyID:  ceremonyID,
		Allocations: []domain.GraduateAllocation{},
	}

	err := s.repo.InTx(ctx, func(tx *repository.TicketingRepository) error {
		ceremony, err := tx.GetCeremony(ctx, ceremonyID)
		if err != nil {
			return fmt.Errorf("tx.GetCeremony -> %w", err)
		}
		if ceremony.RedistributionDeadline != nil && s.now().Before(*ceremony.RedistributionDeadline) {
			return ErrRedistributionTooEarly
		}

		requests, err := tx.LockWaitlistedRequests(ctx, ceremony.ID)
		if err != nil {
			return fmt.Errorf("tx.LockWaitlistedRequests -> %w", err)
		}

		pool, err := tx.LockUnusedTickets(ctx, ceremony.ID)
		if err != nil {
			return fmt.Errorf("tx.LockUnusedTickets -> %w", err)
		}
		summary.PoolSize = len(pool)

		for _, request := range requests {
			if len(pool) == 0 {
				break
			}

			needed := request.Outstanding()
			if needed <= 0 {
				continue
			}

			var taken []domain.Ticket
			taken, pool = takeFromPool(pool, request.GraduateID, needed)
			if len(taken) == 0 {
				continue
			}

			allocation, err := s.reassign(ctx, tx, request, taken)
			if err != nil {
				return err
			}
			summary.Allocations = append(summary.Allocations, allocation)
			summary.TicketsMoved += allocation.TicketsReceived
		}
		summary.TicketsLeft = len(pool)

		return nil
	})
	if err != nil {
		return domain.RedistributionSummary{}, err
	}

	metrics.TicketsRedistributed(summary.TicketsMoved)
	zap.L().Info("redistribution finished",
		zap.Uint("ceremony_id", ceremonyID),
		zap.Int("pool_size", summary.PoolSize),
		zap.Int("tickets_moved", summary.TicketsMoved),
		zap.Int("recipients", len(summary.Allocations)),
	)

	return summary, nil
}

// takeFromPool removes up to n tickets not already owned by graduateID.
func takeFromPool(pool []domain.Ticket, graduateID uint, n int) (taken, rest []domain.Ticket) {
	rest = make([]domain.Ticket, 0, len(pool))
	for _, t := range pool {
		if len(taken) < n && t.GraduateID != graduateID {
			taken = append(taken, t)
			continue
		}
		rest = append(rest, t)
	}

	return taken, rest
}

func (s *RequestService) reassign(ctx context.Context, tx *repository.TicketingRepository, request domain.TicketRequest, tickets []domain.Ticket) (domain.GraduateAllocation, error) {
	graduate, err := tx.LockGraduate(ctx, request.GraduateID)
	if err != nil {
		return domain.GraduateAllocation{}, fmt.Errorf("tx.LockGraduate -> %w", err)
	}

	requestID := request.ID
	allocation := domain.GraduateAllocation{
		GraduateID:   graduate.ID,
		GraduateName: graduate.StudentName,
		RequestID:    request.ID,
		TicketIDs:    make([]uint, 0, len(tickets)),
	}

	for _, ticket := range tickets {
		_, err := tx.TransferTicket(ctx, domain.TicketTransfer{
			TicketID:        ticket.ID,
			FromGraduateID:  ticket.GraduateID,
			ToGraduateID:    graduate.ID,
			TicketRequestID: &requestID,
			Reason:          domain.TransferReasonRedistribution,
		}, domain.TicketRedistributed)
		if err != nil {
			return domain.GraduateAllocation{}, fmt.Errorf("tx.TransferTicket -> %w", err)
		}

		zap.L().Info("ticket redistributed",
			zap.Uint("ticket_id", ticket.ID),
			zap.Uint("from_graduate_id", ticket.GraduateID),
			zap.Uint("to_graduate_id", graduate.ID),
			zap.Uint("request_id", request.ID),
		)
		allocation.TicketIDs = append(allocation.TicketIDs, ticket.ID)
	}
	allocation.TicketsReceived = len(allocation.TicketIDs)

	if err := tx.IncrementExtraTicketsApproved(ctx, graduate.ID, allocation.TicketsReceived); err != nil {
		return domain.GraduateAllocation{}, fmt.Errorf("tx.IncrementExtraTicketsApproved -> %w", err)
	}

	request.ApprovedQuantity += allocation.TicketsReceived
	request.Status = request.StatusForApproved(request.ApprovedQuantity)
	if _, err := tx.UpdateTicketRequest(ctx, request); err != nil {
		return domain.GraduateAllocation{}, fmt.Errorf("tx.UpdateTicketRequest -> %w", err)
	}

	return allocation, nil
}
