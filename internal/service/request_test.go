package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/pkg/artifact"
)

func intPtr(v int) *int { return &v }

func TestCreateRequest_OneActiveRequestPerGraduate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ceremony := env.createCeremony(t, 2)
	graduate, _ := env.registerGraduate(t, ceremony.ID)

	first, err := env.requests.CreateRequest(ctx, graduate.ID, 3, "grandparents")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, first.Status)
	assert.Equal(t, ceremony.ID, first.CeremonyID)

	_, err = env.requests.CreateRequest(ctx, graduate.ID, 1, "one more")
	assert.ErrorIs(t, err, ErrActiveRequestExists)

	active, err := env.repo.FindActiveRequest(ctx, graduate.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
	_, err = env.repo.GetTicketRequest(ctx, first.ID+1)
	assert.ErrorIs(t, err, ErrTicketRequestNotFound)

	assert.Equal(t, 3, env.graduate(t, graduate.ID).ExtraTicketsRequested)

	// a waitlisted request still blocks a new one
	_, err = env.requests.WaitlistRequest(ctx, first.ID, 99, "")
	require.NoError(t, err)
	_, err = env.requests.CreateRequest(ctx, graduate.ID, 1, "")
	assert.ErrorIs(t, err, ErrActiveRequestExists)

	// once decided the graduate may ask again
	_, err = env.requests.DenyRequest(ctx, first.ID, 99, "venue is full")
	require.NoError(t, err)
	_, err = env.requests.CreateRequest(ctx, graduate.ID, 1, "")
	assert.NoError(t, err)
}

func TestCreateRequest_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	deadline := time.Now().Add(24 * time.Hour)
	ceremony := env.createCeremony(t, 2, func(c *domain.Ceremony) { c.RequestDeadline = &deadline })
	graduate, _ := env.registerGraduate(t, ceremony.ID)

	_, err := env.requests.CreateRequest(ctx, graduate.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = env.requests.CreateRequest(ctx, 4040, 1, "")
	assert.ErrorIs(t, err, ErrGraduateNotFound)

	env.requests.now = func() time.Time { return deadline.Add(time.Minute) }
	_, err = env.requests.CreateRequest(ctx, graduate.ID, 1, "")
	assert.ErrorIs(t, err, ErrRequestDeadlinePassed)
	assert.Equal(t, 0, env.graduate(t, graduate.ID).ExtraTicketsRequested)
}

func TestApproveRequest(t *testing.T) {
	ctx := context.Background()
	reviewedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		requested int
		approved  int
		status    domain.RequestStatus
	}{
		{"full", 3, 3, domain.RequestApproved},
		{"more than asked", 2, 3, domain.RequestApproved},
		{"partial", 4, 1, domain.RequestPartiallyApproved},
		{"none", 2, 0, domain.RequestPartiallyApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.requests.now = func() time.Time { return reviewedAt }
			ceremony := env.createCeremony(t, 1)
			graduate, _ := env.registerGraduate(t, ceremony.ID)

			request, err := env.requests.CreateRequest(ctx, graduate.ID, tt.requested, "")
			require.NoError(t, err)

			approved, err := env.requests.ApproveRequest(ctx, request.ID, tt.approved, 42, "ok")
			require.NoError(t, err)
			assert.Equal(t, tt.status, approved.Status)
			assert.Equal(t, tt.approved, approved.ApprovedQuantity)
			require.NotNil(t, approved.ReviewedBy)
			assert.Equal(t, uint(42), *approved.ReviewedBy)
			require.NotNil(t, approved.ReviewedAt)
			assert.True(t, reviewedAt.Equal(*approved.ReviewedAt))
			assert.Equal(t, "ok", approved.AdminNotes)

			g := env.graduate(t, graduate.ID)
			assert.Equal(t, tt.approved, g.ExtraTicketsApproved)

			extra, err := env.repo.CountGraduateTickets(ctx, graduate.ID, domain.TicketExtra)
			require.NoError(t, err)
			assert.Equal(t, int64(tt.approved), extra)
		})
	}
}

func TestApproveRequest_AllocationFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	local, err := artifact.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)
	// the base ticket and one extra ticket are stored, the second extra fails
	store := &flakyStore{Store: local, failAfter: 2}

	env := newTestEnvWithStore(t, store, IssuanceConfig{})
	ceremony := env.createCeremony(t, 1)
	graduate, base := env.registerGraduate(t, ceremony.ID)
	require.Len(t, listFiles(t, local), 1)

	request, err := env.requests.CreateRequest(ctx, graduate.ID, 2, "")
	require.NoError(t, err)

	_, err = env.requests.ApproveRequest(ctx, request.ID, 2, 42, "ok")
	require.ErrorIs(t, err, errStoreDown)

	stored, err := env.requests.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, stored.Status)
	assert.Equal(t, 0, stored.ApprovedQuantity)
	assert.Nil(t, stored.ReviewedBy)

	assert.Equal(t, 0, env.graduate(t, graduate.ID).ExtraTicketsApproved)
	extra, err := env.repo.CountGraduateTickets(ctx, graduate.ID, domain.TicketExtra)
	require.NoError(t, err)
	assert.Zero(t, extra)

	assert.Equal(t, int32(3), store.puts)
	files := listFiles(t, local)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], base[0].Code)

	// the request can still be reviewed once the store recovers
	store.failAfter = 10
	approved, err := env.requests.ApproveRequest(ctx, request.ID, 2, 42, "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, approved.Status)
}

func TestApproveRequest_StateGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ceremony := env.createCeremony(t, 1)
	graduate, _ := env.registerGraduate(t, ceremony.ID)

	request, err := env.requests.CreateRequest(ctx, graduate.ID, 2, "")
	require.NoError(t, err)

	_, err = env.requests.ApproveRequest(ctx, request.ID, -1, 1, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	waitlisted, err := env.requests.WaitlistRequest(ctx, request.ID, 1, "later")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestWaitlisted, waitlisted.Status)

	_, err = env.requests.WaitlistRequest(ctx, request.ID, 1, "")
	assert.ErrorIs(t, err, ErrRequestNotReviewable)

	approved, err := env.requests.ApproveRequest(ctx, request.ID, 2, 1, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, approved.Status)

	_, err = env.requests.ApproveRequest(ctx, request.ID, 2, 1, "")
	assert.ErrorIs(t, err, ErrRequestNotReviewable)
	_, err = env.requests.DenyRequest(ctx, request.ID, 1, "")
	assert.ErrorIs(t, err, ErrRequestNotReviewable)

	assert.Equal(t, 2, env.graduate(t, graduate.ID).ExtraTicketsApproved)

	_, err = env.requests.ApproveRequest(ctx, 5050, 1, 1, "")
	assert.ErrorIs(t, err, ErrTicketRequestNotFound)
}

func TestBatchProcess(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ceremony := env.createCeremony(t, 1)

	var requests []domain.TicketRequest
	for i := 0; i < 4; i++ {
		graduate, _ := env.registerGraduate(t, ceremony.ID)
		r, err := env.requests.CreateRequest(ctx, graduate.ID, 2, "")
		require.NoError(t, err)
		requests = append(requests, r)
	}

	result := env.requests.BatchProcess(ctx, []domain.Decision{
		{RequestID: requests[0].ID, Action: domain.ActionApprove},
		{RequestID: requests[1].ID, Action: domain.ActionApprove, ApprovedQuantity: intPtr(1)},
		{RequestID: 9999, Action: domain.ActionApprove},
		{RequestID: requests[2].ID, Action: domain.ActionDeny, AdminNotes: "no seats"},
		{RequestID: requests[3].ID, Action: "escalate"},
		{RequestID: requests[3].ID, Action: domain.ActionWaitlist},
		{RequestID: requests[2].ID, Action: domain.ActionApprove},
	}, 11)

	require.Len(t, result.Approved, 2)
	assert.Equal(t, domain.RequestApproved, result.Approved[0].Status)
	assert.Equal(t, 2, result.Approved[0].ApprovedQuantity)
	assert.Equal(t, domain.RequestPartiallyApproved, result.Approved[1].Status)

	require.Len(t, result.Denied, 1)
	assert.Equal(t, "no seats", result.Denied[0].AdminNotes)

	require.Len(t, result.Waitlisted, 1)
	assert.Equal(t, requests[3].ID, result.Waitlisted[0].ID)

	require.Len(t, result.Errors, 3)
	assert.Equal(t, uint(9999), result.Errors[0].RequestID)
	assert.Equal(t, requests[3].ID, result.Errors[1].RequestID)
	assert.Equal(t, ErrInvalidDecision.Error(), result.Errors[1].Error)
	assert.Equal(t, requests[2].ID, result.Errors[2].RequestID)
}
