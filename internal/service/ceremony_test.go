package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradpass/ceremony-tickets/internal/domain"
)

func TestCreateCeremony_Validation(t *testing.T) {
	env := newTestEnv(t)
	date := time.Now().Add(60 * 24 * time.Hour)
	before := func(d time.Duration) *time.Time { v := date.Add(-d); return &v }

	valid := domain.Ceremony{
		Name:                   "Winter Graduation",
		Date:                   date,
		Venue:                  "Arena",
		Capacity:               100,
		BaseTicketsPerGraduate: 2,
		RequestDeadline:        before(10 * 24 * time.Hour),
		RedistributionDeadline: before(5 * 24 * time.Hour),
		IsActive:               true,
	}

	tests := []struct {
		name   string
		mutate func(c *domain.Ceremony)
		err    error
	}{
		{"valid", func(c *domain.Ceremony) {}, nil},
		{"no deadlines", func(c *domain.Ceremony) { c.RequestDeadline, c.RedistributionDeadline = nil, nil }, nil},
		{"missing date", func(c *domain.Ceremony) { c.Date = time.Time{} }, ErrCeremonyDateRequired},
		{"zero capacity", func(c *domain.Ceremony) { c.Capacity = 0 }, ErrInvalidCapacity},
		{"no base tickets", func(c *domain.Ceremony) { c.BaseTicketsPerGraduate = 0 }, ErrInvalidBaseTickets},
		{"too many base tickets", func(c *domain.Ceremony) { c.BaseTicketsPerGraduate = 11 }, ErrInvalidBaseTickets},
		{"request deadline after date", func(c *domain.Ceremony) { c.RequestDeadline = before(-time.Hour) }, ErrRequestDeadlineAfterCeremony},
		{"redistribution after date", func(c *domain.Ceremony) { c.RedistributionDeadline = before(0) }, ErrRedistributionDeadlineAfterCeremony},
		{"redistribution before requests close", func(c *domain.Ceremony) { c.RedistributionDeadline = before(20 * 24 * time.Hour) }, ErrRedistributionBeforeRequestDeadline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)

			created, err := env.ceremonies.CreateCeremony(context.Background(), c)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, created.ID)

			fetched, err := env.ceremonies.GetCeremony(context.Background(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, c.Name, fetched.Name)
			assert.True(t, fetched.IsActive)
		})
	}
}

func TestRegisterGraduate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ceremony := env.createCeremony(t, 3)
	graduate, tickets := env.registerGraduate(t, ceremony.ID)

	assert.NotZero(t, graduate.ID)
	assert.Len(t, tickets, 3)

	_, _, err := env.ceremonies.RegisterGraduate(ctx, domain.Graduate{
		CeremonyID:    ceremony.ID,
		StudentNumber: graduate.StudentNumber,
		StudentName:   "Impostor",
		DegreeLevel:   domain.DegreePhD,
		Faculty:       "Science",
		Department:    "Chemistry",
	})
	assert.ErrorIs(t, err, ErrStudentNumberExists)

	_, _, err = env.ceremonies.RegisterGraduate(ctx, domain.Graduate{CeremonyID: 777, StudentNumber: "X1"})
	assert.ErrorIs(t, err, ErrCeremonyNotFound)

	inactive := env.createCeremony(t, 1, func(c *domain.Ceremony) { c.IsActive = false })
	_, _, err = env.ceremonies.RegisterGraduate(ctx, domain.Graduate{CeremonyID: inactive.ID, StudentNumber: "X2"})
	assert.ErrorIs(t, err, ErrCeremonyInactive)
}
