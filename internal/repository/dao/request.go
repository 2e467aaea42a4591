package dao

import (
	"context"
	"time"
)

type TicketRequest struct {
	ID                uint     `gorm:"primaryKey"`
	GraduateID        uint     `gorm:"not null;index:idx_ticket_requests_graduate_status,priority:1"`
	Graduate          Graduate `gorm:"foreignKey:GraduateID"`
	CeremonyID        uint     `gorm:"not null;index:idx_ticket_requests_ceremony_status,priority:1"`
	RequestedQuantity int      `gorm:"not null"`
	ApprovedQuantity  int      `gorm:"not null;default:0"`
	Reason            string
	Status            string `gorm:"not null;index:idx_ticket_requests_graduate_status,priority:2;index:idx_ticket_requests_ceremony_status,priority:2"`
	AdminNotes        string
	ReviewedBy        *uint
	ReviewedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (d *TicketingDAO) InsertTicketRequest(ctx context.Context, request TicketRequest) (TicketRequest, error) {
	if err := d.db.WithContext(ctx).Omit("Graduate").Create(&request).Error; err != nil {
		return TicketRequest{}, err
	}

	return request, nil
}

func (d *TicketingDAO) FindTicketRequestByID(ctx context.Context, id uint) (TicketRequest, error) {
	var request TicketRequest
	if err := d.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return TicketRequest{}, notFound(err, ErrTicketRequestNotFound)
	}

	return request, nil
}

// FindTicketRequestForUpdate locks the request row until the transaction ends.
func (d *TicketingDAO) FindTicketRequestForUpdate(ctx context.Context, id uint) (TicketRequest, error) {
	var request TicketRequest
	if err := d.forUpdate(ctx).First(&request, id).Error; err != nil {
		return TicketRequest{}, notFound(err, ErrTicketRequestNotFound)
	}

	return request, nil
}

// FindActiveRequest returns the graduate's request in one of statuses, if any.
func (d *TicketingDAO) FindActiveRequest(ctx context.Context, graduateID uint, statuses []string) (TicketRequest, error) {
	var request TicketRequest
	err := d.db.WithContext(ctx).
		Where("graduate_id = ? AND status IN ?", graduateID, statuses).
		Order("id").
		First(&request).Error
	if err != nil {
		return TicketRequest{}, notFound(err, ErrTicketRequestNotFound)
	}

	return request, nil
}

// FindWaitlistedRequestsForUpdate locks the waitlisted requests of a ceremony, oldest first.
func (d *TicketingDAO) FindWaitlistedRequestsForUpdate(ctx context.Context, ceremonyID uint) ([]TicketRequest, error) {
	var requests []TicketRequest
	err := d.forUpdate(ctx).
		Where("ceremony_id = ? AND status = ?", ceremonyID, "Waitlisted").
		Order("created_at").
		Order("id").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (d *TicketingDAO) UpdateTicketRequest(ctx context.Context, request TicketRequest) (TicketRequest, error) {
	result := d.db.WithContext(ctx).Model(&request).
		Select("ApprovedQuantity", "Status", "AdminNotes", "ReviewedBy", "ReviewedAt", "UpdatedAt").
		Updates(&request)
	if result.Error != nil {
		return TicketRequest{}, result.Error
	}
	if result.RowsAffected == 0 {
		return TicketRequest{}, ErrTicketRequestNotFound
	}

	return request, nil
}
