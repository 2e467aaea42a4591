package dao

import (
	"context"
	"time"
)

type EntryLog struct {
	ID         uint      `gorm:"primaryKey"`
	TicketID   *uint     `gorm:"index:idx_entry_logs_ticket_status,priority:1"`
	Ticket     *Ticket   `gorm:"foreignKey:TicketID"`
	CeremonyID *uint     `gorm:"index:idx_entry_logs_ceremony_scanned,priority:1"`
	ScannedBy  uint      `gorm:"not null"`
	ScannedAt  time.Time `gorm:"not null;index:idx_entry_logs_ceremony_scanned,priority:2"`
	EntryPoint string
	Outcome    string `gorm:"column:verification_status;not null;index:idx_entry_logs_ticket_status,priority:2"`
	Notes      string
	DeviceInfo string
	CreatedAt  time.Time
}

func (d *TicketingDAO) InsertEntryLog(ctx context.Context, log EntryLog) (EntryLog, error) {
	if err := d.db.WithContext(ctx).Omit("Ticket").Create(&log).Error; err != nil {
		return EntryLog{}, err
	}

	return log, nil
}

func (d *TicketingDAO) FindEntryLogs(ctx context.Context, ceremonyID uint, outcome string, limit, offset int) ([]EntryLog, error) {
	query := d.db.WithContext(ctx).
		Preload("Ticket").
		Preload("Ticket.Graduate").
		Where("ceremony_id = ?", ceremonyID)
	if outcome != "" {
		query = query.Where("verification_status = ?", outcome)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var logs []EntryLog
	if err := query.Order("scanned_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}

func (d *TicketingDAO) CountEntryLogsByTicket(ctx context.Context, ticketID uint) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&EntryLog{}).Where("ticket_id = ?", ticketID).Count(&count).Error

	return count, err
}
