package repository

import (
	"context"
	"fmt"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
)

func (r *TicketingRepository) entryLogDaoToDomain(l dao.EntryLog) domain.EntryLog {
	log := domain.EntryLog{
		ID:         l.ID,
		TicketID:   l.TicketID,
		CeremonyID: l.CeremonyID,
		ScannedBy:  l.ScannedBy,
		ScannedAt:  l.ScannedAt,
		EntryPoint: l.EntryPoint,
		Outcome:    domain.VerificationOutcome(l.Outcome),
		Notes:      l.Notes,
		DeviceInfo: l.DeviceInfo,
		CreatedAt:  l.CreatedAt,
	}

	if l.Ticket != nil && l.Ticket.ID != 0 {
		ticket := r.ticketDaoToDomain(*l.Ticket)
		log.Ticket = &ticket
	}

	return log
}

func (r *TicketingRepository) CreateEntryLog(ctx context.Context, log domain.EntryLog) (domain.EntryLog, error) {
	created, err := r.dao.InsertEntryLog(ctx, dao.EntryLog{
		TicketID:   log.TicketID,
		CeremonyID: log.CeremonyID,
		ScannedBy:  log.ScannedBy,
		ScannedAt:  log.ScannedAt,
		EntryPoint: log.EntryPoint,
		Outcome:    string(log.Outcome),
		Notes:      log.Notes,
		DeviceInfo: log.DeviceInfo,
	})
	if err != nil {
		return domain.EntryLog{}, fmt.Errorf("r.dao.InsertEntryLog -> %w", err)
	}

	return r.entryLogDaoToDomain(created), nil
}

func (r *TicketingRepository) ListEntryLogs(ctx context.Context, filter domain.EntryLogFilter) ([]domain.EntryLog, error) {
	logs, err := r.dao.FindEntryLogs(ctx, filter.CeremonyID, string(filter.Outcome), filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindEntryLogs -> %w", err)
	}

	out := make([]domain.EntryLog, len(logs))
	for i, l := range logs {
		out[i] = r.entryLogDaoToDomain(l)
	}

	return out, nil
}

func (r *TicketingRepository) CountTicketEntryLogs(ctx context.Context, ticketID uint) (int64, error) {
	count, err := r.dao.CountEntryLogsByTicket(ctx, ticketID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountEntryLogsByTicket -> %w", err)
	}

	return count, nil
}
