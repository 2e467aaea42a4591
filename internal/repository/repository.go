package repository

import (
	"context"

	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
)

var (
	ErrCeremonyNotFound      = dao.ErrCeremonyNotFound
	ErrGraduateNotFound      = dao.ErrGraduateNotFound
	ErrStudentNumberExists   = dao.ErrStudentNumberExists
	ErrTicketNotFound        = dao.ErrTicketNotFound
	ErrTicketCodeExists      = dao.ErrTicketCodeExists
	ErrTicketRequestNotFound = dao.ErrTicketRequestNotFound
)

type TicketingDAO interface {
	InTx(ctx context.Context, fn func(tx *dao.TicketingDAO) error) error

	InsertCeremony(ctx context.Context, ceremony dao.Ceremony) (dao.Ceremony, error)
	FindCeremonyByID(ctx context.Context, id uint) (dao.Ceremony, error)

	InsertGraduate(ctx context.Context, graduate dao.Graduate) (dao.Graduate, error)
	FindGraduateByID(ctx context.Context, id uint) (dao.Graduate, error)
	FindGraduateForUpdate(ctx context.Context, id uint) (dao.Graduate, error)
	SetTicketsAllocated(ctx context.Context, graduateID uint, count int) error
	IncrementTicketsUsed(ctx context.Context, graduateID uint) error
	IncrementExtraTicketsRequested(ctx context.Context, graduateID uint, quantity int) error
	IncrementExtraTicketsApproved(ctx context.Context, graduateID uint, quantity int) error

	InsertTicket(ctx context.Context, ticket dao.Ticket) (dao.Ticket, error)
	TicketCodeExists(ctx context.Context, code string) (bool, error)
	FindTicketByID(ctx context.Context, id uint) (dao.Ticket, error)
	FindTicketWithRelations(ctx context.Context, id uint) (dao.Ticket, error)
	FindTicketForUpdate(ctx context.Context, id uint) (dao.Ticket, error)
	FindTicketByCodeForUpdate(ctx context.Context, code string) (dao.Ticket, error)
	FindTicketsByGraduate(ctx context.Context, graduateID uint) ([]dao.Ticket, error)
	CountTicketsByGraduateAndType(ctx context.Context, graduateID uint, ticketType string) (int64, error)
	FindUnusedTicketsForUpdate(ctx context.Context, ceremonyID uint) ([]dao.Ticket, error)
	UpdateTicketQRPath(ctx context.Context, ticketID uint, path string) error
	UpdateTicketStatus(ctx context.Context, ticketID uint, status string) error
	UpdateTicketGuest(ctx context.Context, ticketID uint, name, email string) error
	MarkTicketScanned(ctx context.Context, ticket dao.Ticket) error
	ReassignTicket(ctx context.Context, ticketID, graduateID uint, status string) error
	InsertTicketTransfer(ctx context.Context, transfer dao.TicketTransfer) (dao.TicketTransfer, error)
	FindTransfersByTicket(ctx context.Context, ticketID uint) ([]dao.TicketTransfer, error)

	InsertTicketRequest(ctx context.Context, request dao.TicketRequest) (dao.TicketRequest, error)
	FindTicketRequestByID(ctx context.Context, id uint) (dao.TicketRequest, error)
	FindTicketRequestForUpdate(ctx context.Context, id uint) (dao.TicketRequest, error)
	FindActiveRequest(ctx context.Context, graduateID uint, statuses []string) (dao.TicketRequest, error)
	FindWaitlistedRequestsForUpdate(ctx context.Context, ceremonyID uint) ([]dao.TicketRequest, error)
	UpdateTicketRequest(ctx context.Context, request dao.TicketRequest) (dao.TicketRequest, error)

	InsertEntryLog(ctx context.Context, log dao.EntryLog) (dao.EntryLog, error)
	FindEntryLogs(ctx context.Context, ceremonyID uint, outcome string, limit, offset int) ([]dao.EntryLog, error)
	CountEntryLogsByTicket(ctx context.Context, ticketID uint) (int64, error)
}

type TicketingRepository struct {
	dao TicketingDAO
}

func NewTicketingRepository(dao TicketingDAO) *TicketingRepository {
	return &TicketingRepository{
		dao: dao,
	}
}

// InTx runs fn against a repository bound to a single database transaction.
// fn's error rolls the transaction back and is returned unchanged.
func (r *TicketingRepository) InTx(ctx context.Context, fn func(tx *TicketingRepository) error) error {
	return r.dao.InTx(ctx, func(tx *dao.TicketingDAO) error {
		return fn(NewTicketingRepository(tx))
	})
}
