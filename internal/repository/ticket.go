package repository

import (
	"context"
	"fmt"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
)

func (r *TicketingRepository) ticketDomainToDao(t domain.Ticket) dao.Ticket {
	return dao.Ticket{
		ID:         t.ID,
		GraduateID: t.GraduateID,
		CeremonyID: t.CeremonyID,
		Code:       t.Code,
		QRCodePath: t.QRCodePath,
		GuestName:  t.GuestName,
		GuestEmail: t.GuestEmail,
		Type:       string(t.Type),
		Status:     string(t.Status),
		IsScanned:  t.IsScanned,
		ScannedAt:  t.ScannedAt,
		ScannedBy:  t.ScannedBy,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func (r *TicketingRepository) ticketDaoToDomain(t dao.Ticket) domain.Ticket {
	ticket := domain.Ticket{
		ID:         t.ID,
		GraduateID: t.GraduateID,
		CeremonyID: t.CeremonyID,
		Code:       t.Code,
		QRCodePath: t.QRCodePath,
		GuestName:  t.GuestName,
		GuestEmail: t.GuestEmail,
		Type:       domain.TicketType(t.Type),
		Status:     domain.TicketStatus(t.Status),
		IsScanned:  t.IsScanned,
		ScannedAt:  t.ScannedAt,
		ScannedBy:  t.ScannedBy,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}

	if t.Graduate.ID != 0 {
		graduate := r.graduateDaoToDomain(t.Graduate)
		ticket.Graduate = &graduate
	}
	if t.Ceremony.ID != 0 {
		ceremony := r.ceremonyDaoToDomain(t.Ceremony)
		ticket.Ceremony = &ceremony
	}

	return ticket
}

func (r *TicketingRepository) ticketsDaoToDomain(tickets []dao.Ticket) []domain.Ticket {
	domainTickets := make([]domain.Ticket, len(tickets))
	for i, ticket := range tickets {
		domainTickets[i] = r.ticketDaoToDomain(ticket)
	}
	return domainTickets
}

func (r *TicketingRepository) CreateTicket(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	created, err := r.dao.InsertTicket(ctx, r.ticketDomainToDao(ticket))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.InsertTicket -> %w", err)
	}

	return r.ticketDaoToDomain(created), nil
}

func (r *TicketingRepository) TicketCodeExists(ctx context.Context, code string) (bool, error) {
	exists, err := r.dao.TicketCodeExists(ctx, code)
	if err != nil {
		return false, fmt.Errorf("r.dao.TicketCodeExists -> %w", err)
	}

	return exists, nil
}

func (r *TicketingRepository) GetTicket(ctx context.Context, id uint) (domain.Ticket, error) {
	ticket, err := r.dao.FindTicketByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindTicketByID -> %w", err)
	}

	return r.ticketDaoToDomain(ticket), nil
}

// GetTicketWithRelations loads the ticket together with its graduate and ceremony.
func (r *TicketingRepository) GetTicketWithRelations(ctx context.Context, id uint) (domain.Ticket, error) {
	ticket, err := r.dao.FindTicketWithRelations(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindTicketWithRelations -> %w", err)
	}

	return r.ticketDaoToDomain(ticket), nil
}

func (r *TicketingRepository) LockTicket(ctx context.Context, id uint) (domain.Ticket, error) {
	ticket, err := r.dao.FindTicketForUpdate(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindTicketForUpdate -> %w", err)
	}

	return r.ticketDaoToDomain(ticket), nil
}

func (r *TicketingRepository) LockTicketByCode(ctx context.Context, code string) (domain.Ticket, error) {
	ticket, err := r.dao.FindTicketByCodeForUpdate(ctx, code)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindTicketByCodeForUpdate -> %w", err)
	}

	return r.ticketDaoToDomain(ticket), nil
}

func (r *TicketingRepository) ListGraduateTickets(ctx context.Context, graduateID uint) ([]domain.Ticket, error) {
	tickets, err := r.dao.FindTicketsByGraduate(ctx, graduateID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindTicketsByGraduate -> %w", err)
	}

	return r.ticketsDaoToDomain(tickets), nil
}

func (r *TicketingRepository) CountGraduateTickets(ctx context.Context, graduateID uint, ticketType domain.TicketType) (int64, error) {
	count, err := r.dao.CountTicketsByGraduateAndType(ctx, graduateID, string(ticketType))
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountTicketsByGraduateAndType -> %w", err)
	}

	return count, nil
}

func (r *TicketingRepository) LockUnusedTickets(ctx context.Context, ceremonyID uint) ([]domain.Ticket, error) {
	tickets, err := r.dao.FindUnusedTicketsForUpdate(ctx, ceremonyID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindUnusedTicketsForUpdate -> %w", err)
	}

	return r.ticketsDaoToDomain(tickets), nil
}

func (r *TicketingRepository) SetTicketQRPath(ctx context.Context, ticketID uint, path string) error {
	if err := r.dao.UpdateTicketQRPath(ctx, ticketID, path); err != nil {
		return fmt.Errorf("r.dao.UpdateTicketQRPath -> %w", err)
	}

	return nil
}

func (r *TicketingRepository) SetTicketStatus(ctx context.Context, ticketID uint, status domain.TicketStatus) error {
	if err := r.dao.UpdateTicketStatus(ctx, ticketID, string(status)); err != nil {
		return fmt.Errorf("r.dao.UpdateTicketStatus -> %w", err)
	}

	return nil
}

func (r *TicketingRepository) SetTicketGuest(ctx context.Context, ticketID uint, name, email string) error {
	if err := r.dao.UpdateTicketGuest(ctx, ticketID, name, email); err != nil {
		return fmt.Errorf("r.dao.UpdateTicketGuest -> %w", err)
	}

	return nil
}

func (r *TicketingRepository) SaveScannedTicket(ctx context.Context, ticket domain.Ticket) error {
	if err := r.dao.MarkTicketScanned(ctx, r.ticketDomainToDao(ticket)); err != nil {
		return fmt.Errorf("r.dao.MarkTicketScanned -> %w", err)
	}

	return nil
}

// TransferTicket moves a ticket to another graduate and records the transfer.
func (r *TicketingRepository) TransferTicket(ctx context.Context, transfer domain.TicketTransfer, status domain.TicketStatus) (domain.TicketTransfer, error) {
	if err := r.dao.ReassignTicket(ctx, transfer.TicketID, transfer.ToGraduateID, string(status)); err != nil {
		return domain.TicketTransfer{}, fmt.Errorf("r.dao.ReassignTicket -> %w", err)
	}

	created, err := r.dao.InsertTicketTransfer(ctx, dao.TicketTransfer{
		TicketID:        transfer.TicketID,
		FromGraduateID:  transfer.FromGraduateID,
		ToGraduateID:    transfer.ToGraduateID,
		TicketRequestID: transfer.TicketRequestID,
		Reason:          transfer.Reason,
	})
	if err != nil {
		return domain.TicketTransfer{}, fmt.Errorf("r.dao.InsertTicketTransfer -> %w", err)
	}

	transfer.ID = created.ID
	transfer.CreatedAt = created.CreatedAt

	return transfer, nil
}

func (r *TicketingRepository) ListTicketTransfers(ctx context.Context, ticketID uint) ([]domain.TicketTransfer, error) {
	transfers, err := r.dao.FindTransfersByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindTransfersByTicket -> %w", err)
	}

	out := make([]domain.TicketTransfer, len(transfers))
	for i, t := range transfers {
		out[i] = domain.TicketTransfer{
			ID:              t.ID,
			TicketID:        t.TicketID,
			FromGraduateID:  t.FromGraduateID,
			ToGraduateID:    t.ToGraduateID,
			TicketRequestID: t.TicketRequestID,
			Reason:          t.Reason,
			CreatedAt:       t.CreatedAt,
		}
	}

	return out, nil
}
