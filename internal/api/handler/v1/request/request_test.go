package request

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gradpass/ceremony-tickets/internal/domain"
)

func TestValidateTicketCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"AB12CD34EF", true},
		{"ab12cd34ef", true},
		{"  AB12CD34EF ", true},
		{"1234567890", true},
		{"ABCDEF", true},
		{"123456", false},
		{"AB1", false},
		{"AB12-CD34", false},
		{strings.Repeat("A", 33), false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := ValidateTicketCode(tt.code)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errInvalidTicketCode)
			}
		})
	}
}

func TestCreateCeremonyRequest_Validate(t *testing.T) {
	valid := func() CreateCeremonyRequest {
		return CreateCeremonyRequest{
			Name:                   "Winter Commencement",
			Date:                   time.Now().Add(48 * time.Hour),
			Venue:                  "Arena",
			Capacity:               1000,
			BaseTicketsPerGraduate: 4,
		}
	}

	req := valid()
	assert.NoError(t, req.Validate())
	assert.True(t, req.ToDomain().IsActive)

	req = valid()
	req.BaseTicketsPerGraduate = 11
	assert.Error(t, req.Validate())

	req = valid()
	req.Capacity = 0
	assert.Error(t, req.Validate())

	req = valid()
	req.Date = time.Time{}
	assert.Error(t, req.Validate())
}

func TestCreateTicketRequest_Validate(t *testing.T) {
	assert.NoError(t, (&CreateTicketRequest{Quantity: 3, Reason: "grandparents"}).Validate())
	assert.Error(t, (&CreateTicketRequest{Quantity: 0}).Validate())
	assert.Error(t, (&CreateTicketRequest{Quantity: 11}).Validate())
	assert.Error(t, (&CreateTicketRequest{Quantity: 1, Reason: strings.Repeat("x", 1001)}).Validate())
}

func TestBatchProcessRequest_Validate(t *testing.T) {
	two := 2
	negative := -1

	assert.ErrorIs(t, (&BatchProcessRequest{}).Validate(), errEmptyBatch)
	assert.NoError(t, (&BatchProcessRequest{Decisions: []domain.Decision{
		{RequestID: 1, Action: domain.ActionApprove, ApprovedQuantity: &two},
		{RequestID: 2, Action: domain.ActionDeny},
	}}).Validate())
	assert.Error(t, (&BatchProcessRequest{Decisions: []domain.Decision{
		{RequestID: 1, Action: "escalate"},
	}}).Validate())
	assert.Error(t, (&BatchProcessRequest{Decisions: []domain.Decision{
		{RequestID: 1, Action: domain.ActionApprove, ApprovedQuantity: &negative},
	}}).Validate())
	assert.Error(t, (&BatchProcessRequest{Decisions: []domain.Decision{
		{Action: domain.ActionWaitlist},
	}}).Validate())
}

func TestUpdateGuestRequest_Validate(t *testing.T) {
	assert.NoError(t, (&UpdateGuestRequest{GuestName: "Ada"}).Validate())
	assert.NoError(t, (&UpdateGuestRequest{GuestName: "Ada", GuestEmail: "ada@example.org"}).Validate())
	assert.Error(t, (&UpdateGuestRequest{GuestName: "Ada", GuestEmail: "not-an-email"}).Validate())
	assert.Error(t, (&UpdateGuestRequest{}).Validate())
}
