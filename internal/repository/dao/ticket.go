package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Ticket struct {
	ID         uint     `gorm:"primaryKey"`
	GraduateID uint     `gorm:"not null;index:idx_tickets_graduate_status,priority:1"`
	Graduate   Graduate `gorm:"foreignKey:GraduateID"`
	CeremonyID uint     `gorm:"not null;index:idx_tickets_ceremony_status,priority:1"`
	Ceremony   Ceremony `gorm:"foreignKey:CeremonyID"`
	Code       string   `gorm:"column:ticket_code;size:32;uniqueIndex;not null"`
	QRCodePath string
	GuestName  string
	GuestEmail string
	Type       string `gorm:"column:ticket_type;not null"`
	Status     string `gorm:"not null;index:idx_tickets_graduate_status,priority:2;index:idx_tickets_ceremony_status,priority:2"`
	IsScanned  bool   `gorm:"not null;default:false"`
	ScannedAt  *time.Time
	ScannedBy  *uint
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type TicketTransfer struct {
	ID              uint `gorm:"primaryKey"`
	TicketID        uint `gorm:"not null;index"`
	FromGraduateID  uint `gorm:"not null"`
	ToGraduateID    uint `gorm:"not null"`
	TicketRequestID *uint
	Reason          string `gorm:"not null"`
	CreatedAt       time.Time
}

const ticketCodeIndex = "idx_tickets_ticket_code"

// InsertTicket runs inside a savepoint so a code collision leaves the
// surrounding transaction usable for a retry.
func (d *TicketingDAO) InsertTicket(ctx context.Context, ticket Ticket) (Ticket, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Graduate", "Ceremony").Create(&ticket).Error
	})
	if err != nil {
		if isUniqueViolation(err, ticketCodeIndex) {
			return Ticket{}, ErrTicketCodeExists
		}
		return Ticket{}, err
	}

	return ticket, nil
}

func (d *TicketingDAO) TicketCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&Ticket{}).Where("ticket_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (d *TicketingDAO) FindTicketByID(ctx context.Context, id uint) (Ticket, error) {
	var ticket Ticket
	if err := d.db.WithContext(ctx).First(&ticket, id).Error; err != nil {
		return Ticket{}, notFound(err, ErrTicketNotFound)
	}

	return ticket, nil
}

func (d *TicketingDAO) FindTicketWithRelations(ctx context.Context, id uint) (Ticket, error) {
	var ticket Ticket
	if err := d.db.WithContext(ctx).Preload("Graduate").Preload("Ceremony").First(&ticket, id).Error; err != nil {
		return Ticket{}, notFound(err, ErrTicketNotFound)
	}

	return ticket, nil
}

// FindTicketForUpdate locks the ticket row until the transaction ends.
func (d *TicketingDAO) FindTicketForUpdate(ctx context.Context, id uint) (Ticket, error) {
	var ticket Ticket
	if err := d.forUpdate(ctx).First(&ticket, id).Error; err != nil {
		return Ticket{}, notFound(err, ErrTicketNotFound)
	}

	return ticket, nil
}

func (d *TicketingDAO) FindTicketByCodeForUpdate(ctx context.Context, code string) (Ticket, error) {
	var ticket Ticket
	if err := d.forUpdate(ctx).Where("ticket_code = ?", code).First(&ticket).Error; err != nil {
		return Ticket{}, notFound(err, ErrTicketNotFound)
	}

	return ticket, nil
}

func (d *TicketingDAO) FindTicketsByGraduate(ctx context.Context, graduateID uint) ([]Ticket, error) {
	var tickets []Ticket
	if err := d.db.WithContext(ctx).Where("graduate_id = ?", graduateID).Order("id").Find(&tickets).Error; err != nil {
		return nil, err
	}

	return tickets, nil
}

func (d *TicketingDAO) CountTicketsByGraduateAndType(ctx context.Context, graduateID uint, ticketType string) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("graduate_id = ? AND ticket_type = ?", graduateID, ticketType).
		Count(&count).Error

	return count, err
}

// FindUnusedTicketsForUpdate locks the Active, unscanned tickets of a ceremony
// whose owners have not admitted anyone yet.
func (d *TicketingDAO) FindUnusedTicketsForUpdate(ctx context.Context, ceremonyID uint) ([]Ticket, error) {
	var tickets []Ticket
	err := d.forUpdate(ctx).
		Where("ceremony_id = ? AND status = ? AND is_scanned = ?", ceremonyID, "Active", false).
		Where("graduate_id IN (SELECT id FROM graduates WHERE ceremony_id = ? AND tickets_used = 0)", ceremonyID).
		Order("id").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

func (d *TicketingDAO) UpdateTicketQRPath(ctx context.Context, ticketID uint, path string) error {
	return d.updateTicket(ctx, ticketID, map[string]interface{}{"qr_code_path": path})
}

func (d *TicketingDAO) UpdateTicketStatus(ctx context.Context, ticketID uint, status string) error {
	return d.updateTicket(ctx, ticketID, map[string]interface{}{"status": status})
}

func (d *TicketingDAO) UpdateTicketGuest(ctx context.Context, ticketID uint, name, email string) error {
	return d.updateTicket(ctx, ticketID, map[string]interface{}{"guest_name": name, "guest_email": email})
}

func (d *TicketingDAO) MarkTicketScanned(ctx context.Context, ticket Ticket) error {
	return d.updateTicket(ctx, ticket.ID, map[string]interface{}{
		"status":     ticket.Status,
		"is_scanned": ticket.IsScanned,
		"scanned_at": ticket.ScannedAt,
		"scanned_by": ticket.ScannedBy,
	})
}

func (d *TicketingDAO) ReassignTicket(ctx context.Context, ticketID, graduateID uint, status string) error {
	return d.updateTicket(ctx, ticketID, map[string]interface{}{"graduate_id": graduateID, "status": status})
}

func (d *TicketingDAO) updateTicket(ctx context.Context, ticketID uint, fields map[string]interface{}) error {
	result := d.db.WithContext(ctx).Model(&Ticket{}).Where("id = ?", ticketID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTicketNotFound
	}

	return nil
}

func (d *TicketingDAO) InsertTicketTransfer(ctx context.Context, transfer TicketTransfer) (TicketTransfer, error) {
	if err := d.db.WithContext(ctx).Create(&transfer).Error; err != nil {
		return TicketTransfer{}, err
	}

	return transfer, nil
}

func (d *TicketingDAO) FindTransfersByTicket(ctx context.Context, ticketID uint) ([]TicketTransfer, error) {
	var transfers []TicketTransfer
	if err := d.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Order("id").Find(&transfers).Error; err != nil {
		return nil, err
	}

	return transfers, nil
}
