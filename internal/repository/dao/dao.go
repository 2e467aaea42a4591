package dao

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCeremonyNotFound      = errors.New("ceremony not found")
	ErrGraduateNotFound      = errors.New("graduate not found")
	ErrStudentNumberExists   = errors.New("student number already registered")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrTicketCodeExists      = errors.New("ticket code already exists")
	ErrTicketRequestNotFound = errors.New("ticket request not found")
)

// TicketingDAO reads and writes the ceremony ticketing schema. A DAO obtained
// inside InTx is bound to that transaction.
type TicketingDAO struct {
	db *gorm.DB
}

func NewTicketingDAO(db *gorm.DB) *TicketingDAO {
	return &TicketingDAO{
		db: db,
	}
}

func (d *TicketingDAO) InTx(ctx context.Context, fn func(tx *TicketingDAO) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TicketingDAO{db: tx})
	})
}

func (d *TicketingDAO) forUpdate(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// isUniqueViolation reports whether err is a unique violation on the named
// index. Postgres errors carry the constraint name; the translated
// gorm.ErrDuplicatedKey from SQLite does not and matches any index.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation &&
			(constraint == "" || pgErr.ConstraintName == constraint)
	}

	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
