package repository

import (
	"context"
	"fmt"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
)

func (r *TicketingRepository) requestDomainToDao(tr domain.TicketRequest) dao.TicketRequest {
	return dao.TicketRequest{
		ID:                tr.ID,
		GraduateID:        tr.GraduateID,
		CeremonyID:        tr.CeremonyID,
		RequestedQuantity: tr.RequestedQuantity,
		ApprovedQuantity:  tr.ApprovedQuantity,
		Reason:            tr.Reason,
		Status:            string(tr.Status),
		AdminNotes:        tr.AdminNotes,
		ReviewedBy:        tr.ReviewedBy,
		ReviewedAt:        tr.ReviewedAt,
		CreatedAt:         tr.CreatedAt,
		UpdatedAt:         tr.UpdatedAt,
	}
}

func (r *TicketingRepository) requestDaoToDomain(tr dao.TicketRequest) domain.TicketRequest {
	return domain.TicketRequest{
		ID:                tr.ID,
		GraduateID:        tr.GraduateID,
		CeremonyID:        tr.CeremonyID,
		RequestedQuantity: tr.RequestedQuantity,
		ApprovedQuantity:  tr.ApprovedQuantity,
		Reason:            tr.Reason,
		Status:            domain.RequestStatus(tr.Status),
		AdminNotes:        tr.AdminNotes,
		ReviewedBy:        tr.ReviewedBy,
		ReviewedAt:        tr.ReviewedAt,
		CreatedAt:         tr.CreatedAt,
		UpdatedAt:         tr.UpdatedAt,
	}
}

func (r *TicketingRepository) CreateTicketRequest(ctx context.Context, request domain.TicketRequest) (domain.TicketRequest, error) {
	created, err := r.dao.InsertTicketRequest(ctx, r.requestDomainToDao(request))
	if err != nil {
		return domain.TicketRequest{}, fmt.Errorf("r.dao.InsertTicketRequest -> %w", err)
	}

	return r.requestDaoToDomain(created), nil
}

func (r *TicketingRepository) GetTicketRequest(ctx context.Context, id uint) (domain.TicketRequest, error) {
	request, err := r.dao.FindTicketRequestByID(ctx, id)
	if err != nil {
		return domain.TicketRequest{}, fmt.Errorf("r.dao.FindTicketRequestByID -> %w", err)
	}

	return r.requestDaoToDomain(request), nil
}

func (r *TicketingRepository) LockTicketRequest(ctx context.Context, id uint) (domain.TicketRequest, error) {
	request, err := r.dao.FindTicketRequestForUpdate(ctx, id)
	if err != nil {
		return domain.TicketRequest{}, fmt.Errorf("r.dao.FindTicketRequestForUpdate -> %w", err)
	}

	return r.requestDaoToDomain(request), nil
}

// FindActiveRequest returns the graduate's Pending or Waitlisted request.
func (r *TicketingRepository) FindActiveRequest(ctx context.Context, graduateID uint) (domain.TicketRequest, error) {
	statuses := make([]string, len(domain.ActiveRequestStatuses))
	for i, s := range domain.ActiveRequestStatuses {
		statuses[i] = string(s)
	}

	request, err := r.dao.FindActiveRequest(ctx, graduateID, statuses)
	if err != nil {
		return domain.TicketRequest{}, fmt.Errorf("r.dao.FindActiveRequest -> %w", err)
	}

	return r.requestDaoToDomain(request), nil
}

func (r *TicketingRepository) LockWaitlistedRequests(ctx context.Context, ceremonyID uint) ([]domain.TicketRequest, error) {
	requests, err := r.dao.FindWaitlistedRequestsForUpdate(ctx, ceremonyID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindWaitlistedRequestsForUpdate -> %w", err)
	}

	out := make([]domain.TicketRequest, len(requests))
	for i, request := range requests {
		out[i] = r.requestDaoToDomain(request)
	}

	return out, nil
}

func (r *TicketingRepository) UpdateTicketRequest(ctx context.Context, request domain.TicketRequest) (domain.TicketRequest, error) {
	updated, err := r.dao.UpdateTicketRequest(ctx, r.requestDomainToDao(request))
	if err != nil {
		return domain.TicketRequest{}, fmt.Errorf("r.dao.UpdateTicketRequest -> %w", err)
	}

	return r.requestDaoToDomain(updated), nil
}
