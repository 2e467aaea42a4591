package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradpass/ceremony-tickets/internal/domain"
)

// waitlist files and waitlists a request after using one of the graduate's
// tickets, so the graduate's own tickets stay out of the unused pool.
func (e *testEnv) waitlist(t *testing.T, graduate domain.Graduate, tickets []domain.Ticket, quantity int) domain.TicketRequest {
	t.Helper()
	ctx := context.Background()

	e.scanCode(t, tickets[0])
	r, err := e.requests.CreateRequest(ctx, graduate.ID, quantity, "")
	require.NoError(t, err)
	r, err = e.requests.WaitlistRequest(ctx, r.ID, 1, "")
	require.NoError(t, err)
	return r
}

func TestRedistribute_FillsWaitlistOldestFirst(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ceremony := env.createCeremony(t, 1)

	var donated []domain.Ticket
	for i := 0; i < 3; i++ {
		_, tickets := env.registerGraduate(t, ceremony.ID)
		donated = append(donated, tickets...)
	}

	first, firstTickets := env.registerGraduate(t, ceremony.ID)
	second, secondTickets := env.registerGraduate(t, ceremony.ID)
	firstReq := env.waitlist(t, first, firstTickets, 2)
	secondReq := env.waitlist(t, second, secondTickets, 1)

	summary, err := env.requests.RedistributeUnusedTickets(ctx, ceremony.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.PoolSize)
	assert.Equal(t, 3, summary.TicketsMoved)
	assert.Equal(t, 0, summary.TicketsLeft)

	require.Len(t, summary.Allocations, 2)
	assert.Equal(t, first.ID, summary.Allocations[0].GraduateID)
	assert.Equal(t, 2, summary.Allocations[0].TicketsReceived)
	assert.Equal(t, first.StudentName, summary.Allocations[0].GraduateName)
	assert.Equal(t, second.ID, summary.Allocations[1].GraduateID)
	assert.Equal(t, 1, summary.Allocations[1].TicketsReceived)

	for _, id := range []uint{firstReq.ID, secondReq.ID} {
		r, err := env.repo.GetTicketRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.RequestApproved, r.Status)
		assert.Equal(t, r.RequestedQuantity, r.ApprovedQuantity)
	}

	assert.Equal(t, 2, env.graduate(t, first.ID).ExtraTicketsApproved)
	assert.Equal(t, 1, env.graduate(t, second.ID).ExtraTicketsApproved)

	for _, original := range donated {
		moved := env.ticket(t, original.ID)
		assert.Equal(t, domain.TicketRedistributed, moved.Status)
		assert.Equal(t, original.Code, moved.Code)
		assert.Equal(t, original.QRCodePath, moved.QRCodePath)
		assert.Contains(t, []uint{first.ID, second.ID}, moved.GraduateID)

		transfers, err := env.tickets.ListTicketTransfers(ctx, original.ID)
		require.NoError(t, err)
		require.Len(t, transfers, 1)
		assert.Equal(t, original.GraduateID, transfers[0].FromGraduateID)
		assert.Equal(t, moved.GraduateID, transfers[0].ToGraduateID)
		assert.Equal(t, domain.TransferReasonRedistribution, transfers[0].Reason)
	}

	again, err := env.requests.RedistributeUnusedTickets(ctx, ceremony.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.PoolSize)
	assert.Empty(t, again.Allocations)
}

func TestRedistribute_PartialWhenPoolRunsOut(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ceremony := env.createCeremony(t, 1)

	env.registerGraduate(t, ceremony.ID)
	needy, tickets := env.registerGraduate(t, ceremony.ID)
	late, lateTickets := env.registerGraduate(t, ceremony.ID)
	req := env.waitlist(t, needy, tickets, 3)
	lateReq := env.waitlist(t, late, lateTickets, 1)

	summary, err := env.requests.RedistributeUnusedTickets(ctx, ceremony.ID)
	require.NoError(t, err)
	require.Len(t, summary.Allocations, 1)
	assert.Equal(t, 1, summary.Allocations[0].TicketsReceived)

	r, err := env.repo.GetTicketRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPartiallyApproved, r.Status)
	assert.Equal(t, 1, r.ApprovedQuantity)

	untouched, err := env.repo.GetTicketRequest(ctx, lateReq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestWaitlisted, untouched.Status)
	assert.Equal(t, 0, untouched.ApprovedQuantity)
}

func TestRedistribute_SkipsRecipientsOwnTickets(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ceremony := env.createCeremony(t, 2)

	donor, _ := env.registerGraduate(t, ceremony.ID)
	recipient, own := env.registerGraduate(t, ceremony.ID)

	// the recipient has used nothing, so its own tickets are in the pool too
	r, err := env.requests.CreateRequest(ctx, recipient.ID, 2, "")
	require.NoError(t, err)
	_, err = env.requests.WaitlistRequest(ctx, r.ID, 1, "")
	require.NoError(t, err)

	summary, err := env.requests.RedistributeUnusedTickets(ctx, ceremony.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.PoolSize)
	assert.Equal(t, 2, summary.TicketsMoved)
	assert.Equal(t, 2, summary.TicketsLeft)

	for _, tk := range own {
		stored := env.ticket(t, tk.ID)
		assert.Equal(t, domain.TicketActive, stored.Status)
		assert.Equal(t, recipient.ID, stored.GraduateID)
	}

	donorTickets, err := env.tickets.ListGraduateTickets(ctx, donor.ID)
	require.NoError(t, err)
	assert.Empty(t, donorTickets)
}

func TestRedistribute_RespectsDeadline(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	requestDeadline := time.Now().Add(24 * time.Hour)
	redistributionDeadline := time.Now().Add(48 * time.Hour)
	ceremony := env.createCeremony(t, 1, func(c *domain.Ceremony) {
		c.RequestDeadline = &requestDeadline
		c.RedistributionDeadline = &redistributionDeadline
	})

	_, err := env.requests.RedistributeUnusedTickets(ctx, ceremony.ID)
	assert.ErrorIs(t, err, ErrRedistributionTooEarly)

	env.requests.now = func() time.Time { return redistributionDeadline.Add(time.Second) }
	_, err = env.requests.RedistributeUnusedTickets(ctx, ceremony.ID)
	assert.NoError(t, err)

	_, err = env.requests.RedistributeUnusedTickets(ctx, 31337)
	assert.ErrorIs(t, err, ErrCeremonyNotFound)
}

func TestRedistributedTicketsFailVerification(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ceremony := env.createCeremony(t, 1)

	_, donorTickets := env.registerGraduate(t, ceremony.ID)
	recipient, tickets := env.registerGraduate(t, ceremony.ID)
	env.waitlist(t, recipient, tickets, 1)

	originalPayload := env.payload(t, donorTickets[0])

	_, err := env.requests.RedistributeUnusedTickets(ctx, ceremony.ID)
	require.NoError(t, err)

	// the printed payload still names the donor, so its signature no longer matches
	res, err := env.verifier.VerifyByPayload(ctx, originalPayload, domain.ScanRequest{ScannerID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFraudAttempt, res.Outcome)

	res, err = env.verifier.VerifyByCode(ctx, donorTickets[0].Code, domain.ScanRequest{ScannerID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInvalid, res.Outcome)
	assert.Equal(t, "Ticket is Redistributed", res.Message)
}
