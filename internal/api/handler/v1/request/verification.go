package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/gradpass/ceremony-tickets/internal/domain"
)

// Short all-digit input is rejected as a mistyped student or ticket id.
const ticketCodePattern = `^\s*(?=[A-Za-z0-9]*[A-Za-z]|[A-Za-z0-9]{10,})[A-Za-z0-9]{6,32}\s*$`

var (
	ticketCodeExp = regexp2.MustCompile(ticketCodePattern, regexp2.None)

	errInvalidTicketCode = errors.New("ticket code must be 6 to 32 letters or digits")
)

// ValidateTicketCode checks the shape of a manually entered ticket code.
func ValidateTicketCode(value interface{}) error {
	code, _ := value.(string)
	ok, err := ticketCodeExp.MatchString(code)
	if err != nil || !ok {
		return errInvalidTicketCode
	}

	return nil
}

type VerifyQRRequest struct {
	Payload    string `json:"qr_data"`
	CeremonyID uint   `json:"ceremony_id"`
	EntryPoint string `json:"entry_point"`
	DeviceInfo string `json:"device_info"`
}

func (req *VerifyQRRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Payload, validation.Required, validation.Length(1, 4096)),
		validation.Field(&req.EntryPoint, validation.Length(0, 100)),
		validation.Field(&req.DeviceInfo, validation.Length(0, 500)),
	)
}

func (req *VerifyQRRequest) ScanRequest(scannerID uint) domain.ScanRequest {
	return domain.ScanRequest{
		ScannerID:  scannerID,
		CeremonyID: req.CeremonyID,
		EntryPoint: req.EntryPoint,
		DeviceInfo: req.DeviceInfo,
	}
}

type VerifyCodeRequest struct {
	Code       string `json:"ticket_code"`
	CeremonyID uint   `json:"ceremony_id"`
	EntryPoint string `json:"entry_point"`
	DeviceInfo string `json:"device_info"`
}

func (req *VerifyCodeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Code, validation.Required, validation.By(ValidateTicketCode)),
		validation.Field(&req.EntryPoint, validation.Length(0, 100)),
		validation.Field(&req.DeviceInfo, validation.Length(0, 500)),
	)
}

func (req *VerifyCodeRequest) ScanRequest(scannerID uint) domain.ScanRequest {
	return domain.ScanRequest{
		ScannerID:  scannerID,
		CeremonyID: req.CeremonyID,
		EntryPoint: req.EntryPoint,
		DeviceInfo: req.DeviceInfo,
	}
}

type ValidatePayloadRequest struct {
	Payload string `json:"qr_data"`
}

func (req *ValidatePayloadRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Payload, validation.Required, validation.Length(1, 4096)),
	)
}
