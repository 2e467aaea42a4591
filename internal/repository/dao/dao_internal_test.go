package dao

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name:       "postgres code index",
			err:        &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: ticketCodeIndex},
			constraint: ticketCodeIndex,
			want:       true,
		},
		{
			name:       "postgres wrapped",
			err:        fmt.Errorf("insert -> %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: graduateStudentNumberIndex}),
			constraint: graduateStudentNumberIndex,
			want:       true,
		},
		{
			name:       "postgres other index",
			err:        &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "tickets_pkey"},
			constraint: ticketCodeIndex,
			want:       false,
		},
		{
			name:       "postgres any index",
			err:        &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "tickets_pkey"},
			constraint: "",
			want:       true,
		},
		{
			name:       "postgres foreign key",
			err:        &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: ticketCodeIndex},
			constraint: ticketCodeIndex,
			want:       false,
		},
		{
			name:       "translated duplicate",
			err:        fmt.Errorf("create -> %w", gorm.ErrDuplicatedKey),
			constraint: ticketCodeIndex,
			want:       true,
		},
		{
			name:       "unrelated",
			err:        errors.New("connection reset"),
			constraint: ticketCodeIndex,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err, tt.constraint))
		})
	}
}
