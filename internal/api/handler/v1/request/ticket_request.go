package request

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/gradpass/ceremony-tickets/internal/domain"
)

const (
	maxNotesLength = 1000
	maxBatchSize   = 500
)

var errEmptyBatch = errors.New("at least one decision is required")

type CreateTicketRequest struct {
	Quantity int    `json:"requested_quantity"`
	Reason   string `json:"reason"`
}

func (req *CreateTicketRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Quantity, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&req.Reason, validation.Length(0, maxNotesLength)),
	)
}

type ReviewRequest struct {
	// ApprovedQuantity is only read by approve; it defaults to the requested quantity.
	ApprovedQuantity *int   `json:"approved_quantity"`
	AdminNotes       string `json:"admin_notes"`
}

func (req *ReviewRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ApprovedQuantity, validation.Min(0)),
		validation.Field(&req.AdminNotes, validation.Length(0, maxNotesLength)),
	)
}

type BatchProcessRequest struct {
	Decisions []domain.Decision `json:"decisions"`
}

func (req *BatchProcessRequest) Validate() error {
	if len(req.Decisions) == 0 {
		return errEmptyBatch
	}
	if len(req.Decisions) > maxBatchSize {
		return fmt.Errorf("at most %d decisions can be processed at once", maxBatchSize)
	}

	for i := range req.Decisions {
		if err := validateDecision(&req.Decisions[i]); err != nil {
			return fmt.Errorf("decisions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateDecision(d *domain.Decision) error {
	return validation.ValidateStruct(
		d,
		validation.Field(&d.RequestID, validation.Required),
		validation.Field(&d.Action, validation.Required, validation.In(
			domain.ActionApprove, domain.ActionDeny, domain.ActionWaitlist,
		)),
		validation.Field(&d.ApprovedQuantity, validation.Min(0)),
		validation.Field(&d.AdminNotes, validation.Length(0, maxNotesLength)),
	)
}
