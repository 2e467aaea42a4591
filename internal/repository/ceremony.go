package repository

import (
	"context"
	"fmt"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
)

func (r *TicketingRepository) ceremonyDomainToDao(c domain.Ceremony) dao.Ceremony {
	return dao.Ceremony{
		ID:                     c.ID,
		Name:                   c.Name,
		Description:            c.Description,
		Date:                   c.Date,
		Venue:                  c.Venue,
		VenueAddress:           c.VenueAddress,
		Capacity:               c.Capacity,
		BaseTicketsPerGraduate: c.BaseTicketsPerGraduate,
		RequestDeadline:        c.RequestDeadline,
		RedistributionDeadline: c.RedistributionDeadline,
		IsActive:               c.IsActive,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

func (r *TicketingRepository) ceremonyDaoToDomain(c dao.Ceremony) domain.Ceremony {
	return domain.Ceremony{
		ID:                     c.ID,
		Name:                   c.Name,
		Description:            c.Description,
		Date:                   c.Date,
		Venue:                  c.Venue,
		VenueAddress:           c.VenueAddress,
		Capacity:               c.Capacity,
		BaseTicketsPerGraduate: c.BaseTicketsPerGraduate,
		RequestDeadline:        c.RequestDeadline,
		RedistributionDeadline: c.RedistributionDeadline,
		IsActive:               c.IsActive,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

func (r *TicketingRepository) graduateDomainToDao(g domain.Graduate) dao.Graduate {
	return dao.Graduate{
		ID:                    g.ID,
		CeremonyID:            g.CeremonyID,
		UserID:                g.UserID,
		StudentNumber:         g.StudentNumber,
		StudentName:           g.StudentName,
		DegreeLevel:           string(g.DegreeLevel),
		Faculty:               g.Faculty,
		Department:            g.Department,
		TicketsAllocated:      g.TicketsAllocated,
		ExtraTicketsRequested: g.ExtraTicketsRequested,
		ExtraTicketsApproved:  g.ExtraTicketsApproved,
		TicketsUsed:           g.TicketsUsed,
		CreatedAt:             g.CreatedAt,
		UpdatedAt:             g.UpdatedAt,
	}
}

func (r *TicketingRepository) graduateDaoToDomain(g dao.Graduate) domain.Graduate {
	return domain.Graduate{
		ID:                    g.ID,
		CeremonyID:            g.CeremonyID,
		UserID:                g.UserID,
		StudentNumber:         g.StudentNumber,
		StudentName:           g.StudentName,
		DegreeLevel:           domain.DegreeLevel(g.DegreeLevel),
		Faculty:               g.Faculty,
		Department:            g.Department,
		TicketsAllocated:      g.TicketsAllocated,
		ExtraTicketsRequested: g.ExtraTicketsRequested,
		ExtraTicketsApproved:  g.ExtraTicketsApproved,
		TicketsUsed:           g.TicketsUsed,
		CreatedAt:             g.CreatedAt,
		UpdatedAt:             g.UpdatedAt,
	}
}

func (r *TicketingRepository) CreateCeremony(ctx context.Context, ceremony domain.Ceremony) (domain.Ceremony, error) {
	created, err := r.dao.InsertCeremony(ctx, r.ceremonyDomainToDao(ceremony))
	if err != nil {
		return domain.Ceremony{}, fmt.Errorf("r.dao.InsertCeremony -> %w", err)
	}

	return r.ceremonyDaoToDomain(created), nil
}

func (r *TicketingRepository) GetCeremony(ctx context.Context, id uint) (domain.Ceremony, error) {
	ceremony, err := r.dao.FindCeremonyByID(ctx, id)
	if err != nil {
		return domain.Ceremony{}, fmt.Errorf("r.dao.FindCeremonyByID -> %w", err)
	}

	return r.ceremonyDaoToDomain(ceremony), nil
}

func (r *TicketingRepository) CreateGraduate(ctx context.Context, graduate domain.Graduate) (domain.Graduate, error) {
	created, err := r.dao.InsertGraduate(ctx, r.graduateDomainToDao(graduate))
	if err != nil {
		return domain.Graduate{}, fmt.Errorf("r.dao.InsertGraduate -> %w", err)
	}

	return r.graduateDaoToDomain(created), nil
}

func (r *TicketingRepository) GetGraduate(ctx context.Context, id uint) (domain.Graduate, error) {
	graduate, err := r.dao.FindGraduateByID(ctx, id)
	if err != nil {
		return domain.Graduate{}, fmt.Errorf("r.dao.FindGraduateByID -> %w", err)
	}

	return r.graduateDaoToDomain(graduate), nil
}

func (r *TicketingRepository) LockGraduate(ctx context.Context, id uint) (domain.Graduate, error) {
	graduate, err := r.dao.FindGraduateForUpdate(ctx, id)
	if err != nil {
		return domain.Graduate{}, fmt.Errorf("r.dao.FindGraduateForUpdate -> %w", err)
	}

	return r.graduateDaoToDomain(graduate), nil
}

func (r *TicketingRepository) SetTicketsAllocated(ctx context.Context, graduateID uint, count int) error {
	if err := r.dao.SetTicketsAllocated(ctx, graduateID, count); err != nil {
		return fmt.Errorf("r.dao.SetTicketsAllocated -> %w", err)
	}

	return nil
}

func (r *TicketingRepository) IncrementTicketsUsed(ctx context.Context, graduateID uint) error {
	if err := r.dao.IncrementTicketsUsed(ctx, graduateID); err != nil {
		return fmt.Errorf("r.dao.IncrementTicketsUsed -> %w", err)
	}

	return nil
}

func (r *TicketingRepository) IncrementExtraTicketsRequested(ctx context.Context, graduateID uint, quantity int) error {
	if err := r.dao.IncrementExtraTicketsRequested(ctx, graduateID, quantity); err != nil {
		return fmt.Errorf("r.dao.IncrementExtraTicketsRequested -> %w", err)
	}

	return nil
}

func (r *TicketingRepository) IncrementExtraTicketsApproved(ctx context.Context, graduateID uint, quantity int) error {
	if err := r.dao.IncrementExtraTicketsApproved(ctx, graduateID, quantity); err != nil {
		return fmt.Errorf("r.dao.IncrementExtraTicketsApproved -> %w", err)
	}

	return nil
}
