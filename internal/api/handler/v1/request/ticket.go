package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type IssueExtraTicketsRequest struct {
	Quantity int `json:"quantity"`
}

func (req *IssueExtraTicketsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Quantity, validation.Required, validation.Min(1), validation.Max(10)),
	)
}

type UpdateGuestRequest struct {
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
}

func (req *UpdateGuestRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.GuestName, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.GuestEmail, is.Email, validation.Length(0, 255)),
	)
}
