package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/gradpass/ceremony-tickets/internal/domain"
)

type CreateCeremonyRequest struct {
	Name                   string     `json:"name"`
	Description            string     `json:"description"`
	Date                   time.Time  `json:"ceremony_date"`
	Venue                  string     `json:"venue"`
	VenueAddress           string     `json:"venue_address"`
	Capacity               int        `json:"total_capacity"`
	BaseTicketsPerGraduate int        `json:"base_tickets_per_graduate"`
	RequestDeadline        *time.Time `json:"ticket_request_deadline"`
	RedistributionDeadline *time.Time `json:"redistribution_deadline"`
	IsActive               *bool      `json:"is_active"`
}

func (req *CreateCeremonyRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 255)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Date, validation.Required),
		validation.Field(&req.Venue, validation.Required, validation.Length(2, 255)),
		validation.Field(&req.VenueAddress, validation.Length(0, 500)),
		validation.Field(&req.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&req.BaseTicketsPerGraduate, validation.Required, validation.Min(1), validation.Max(10)),
	)
}

func (req *CreateCeremonyRequest) ToDomain() domain.Ceremony {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return domain.Ceremony{
		Name:                   req.Name,
		Description:            req.Description,
		Date:                   req.Date,
		Venue:                  req.Venue,
		VenueAddress:           req.VenueAddress,
		Capacity:               req.Capacity,
		BaseTicketsPerGraduate: req.BaseTicketsPerGraduate,
		RequestDeadline:        req.RequestDeadline,
		RedistributionDeadline: req.RedistributionDeadline,
		IsActive:               active,
	}
}

type RegisterGraduateRequest struct {
	UserID        *uint  `json:"user_id"`
	StudentNumber string `json:"student_id"`
	StudentName   string `json:"student_name"`
	DegreeLevel   string `json:"degree_level"`
	Faculty       string `json:"faculty"`
	Department    string `json:"department"`
}

func (req *RegisterGraduateRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.StudentNumber, validation.Required, validation.Length(1, 50)),
		validation.Field(&req.StudentName, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.DegreeLevel, validation.Required, validation.In(
			string(domain.DegreeUndergraduate), string(domain.DegreeMasters), string(domain.DegreePhD),
		)),
		validation.Field(&req.Faculty, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Department, validation.Required, validation.Length(1, 255)),
	)
}

func (req *RegisterGraduateRequest) ToDomain(ceremonyID uint) domain.Graduate {
	return domain.Graduate{
		CeremonyID:    ceremonyID,
		UserID:        req.UserID,
		StudentNumber: req.StudentNumber,
		StudentName:   req.StudentName,
		DegreeLevel:   domain.DegreeLevel(req.DegreeLevel),
		Faculty:       req.Faculty,
		Department:    req.Department,
	}
}
