package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Ceremony struct {
	ID                     uint   `gorm:"primaryKey"`
	Name                   string `gorm:"not null"`
	Description            string
	Date                   time.Time `gorm:"column:ceremony_date;not null"`
	Venue                  string    `gorm:"not null"`
	VenueAddress           string
	Capacity               int        `gorm:"column:total_capacity;not null"`
	BaseTicketsPerGraduate int        `gorm:"not null"`
	RequestDeadline        *time.Time `gorm:"column:ticket_request_deadline"`
	RedistributionDeadline *time.Time
	IsActive               bool `gorm:"not null"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type Graduate struct {
	ID                    uint     `gorm:"primaryKey"`
	CeremonyID            uint     `gorm:"not null;index"`
	Ceremony              Ceremony `gorm:"foreignKey:CeremonyID"`
	UserID                *uint
	StudentNumber         string `gorm:"column:student_id;uniqueIndex;not null"`
	StudentName           string `gorm:"not null"`
	DegreeLevel           string `gorm:"not null"`
	Faculty               string `gorm:"not null"`
	Department            string `gorm:"not null"`
	TicketsAllocated      int    `gorm:"not null;default:0"`
	ExtraTicketsRequested int    `gorm:"not null;default:0"`
	ExtraTicketsApproved  int    `gorm:"not null;default:0"`
	TicketsUsed           int    `gorm:"not null;default:0"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

const graduateStudentNumberIndex = "idx_graduates_student_id"

func (d *TicketingDAO) InsertCeremony(ctx context.Context, ceremony Ceremony) (Ceremony, error) {
	if err := d.db.WithContext(ctx).Create(&ceremony).Error; err != nil {
		return Ceremony{}, err
	}

	return ceremony, nil
}

func (d *TicketingDAO) FindCeremonyByID(ctx context.Context, id uint) (Ceremony, error) {
	var ceremony Ceremony
	if err := d.db.WithContext(ctx).First(&ceremony, id).Error; err != nil {
		return Ceremony{}, notFound(err, ErrCeremonyNotFound)
	}

	return ceremony, nil
}

func (d *TicketingDAO) InsertGraduate(ctx context.Context, graduate Graduate) (Graduate, error) {
	if err := d.db.WithContext(ctx).Omit("Ceremony").Create(&graduate).Error; err != nil {
		if isUniqueViolation(err, graduateStudentNumberIndex) {
			return Graduate{}, ErrStudentNumberExists
		}
		return Graduate{}, err
	}

	return graduate, nil
}

func (d *TicketingDAO) FindGraduateByID(ctx context.Context, id uint) (Graduate, error) {
	var graduate Graduate
	if err := d.db.WithContext(ctx).First(&graduate, id).Error; err != nil {
		return Graduate{}, notFound(err, ErrGraduateNotFound)
	}

	return graduate, nil
}

// FindGraduateForUpdate locks the graduate row until the transaction ends.
func (d *TicketingDAO) FindGraduateForUpdate(ctx context.Context, id uint) (Graduate, error) {
	var graduate Graduate
	if err := d.forUpdate(ctx).First(&graduate, id).Error; err != nil {
		return Graduate{}, notFound(err, ErrGraduateNotFound)
	}

	return graduate, nil
}

func (d *TicketingDAO) SetTicketsAllocated(ctx context.Context, graduateID uint, count int) error {
	return d.updateGraduate(ctx, graduateID, "tickets_allocated", count)
}

func (d *TicketingDAO) IncrementTicketsUsed(ctx context.Context, graduateID uint) error {
	return d.updateGraduate(ctx, graduateID, "tickets_used", gorm.Expr("tickets_used + ?", 1))
}

func (d *TicketingDAO) IncrementExtraTicketsRequested(ctx context.Context, graduateID uint, quantity int) error {
	return d.updateGraduate(ctx, graduateID, "extra_tickets_requested", gorm.Expr("extra_tickets_requested + ?", quantity))
}

func (d *TicketingDAO) IncrementExtraTicketsApproved(ctx context.Context, graduateID uint, quantity int) error {
	return d.updateGraduate(ctx, graduateID, "extra_tickets_approved", gorm.Expr("extra_tickets_approved + ?", quantity))
}

func (d *TicketingDAO) updateGraduate(ctx context.Context, graduateID uint, column string, value interface{}) error {
	result := d.db.WithContext(ctx).Model(&Graduate{}).Where("id = ?", graduateID).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGraduateNotFound
	}

	return nil
}
