// Package qrcodec builds and checks the signed payload printed in ticket QR codes.
//
// The checksum is SHA-256 over "id|code|ceremony|graduate|secret". It is never
// stored: validation recomputes it from the ticket's current fields, so a
// payload stays valid exactly as long as the ticket's binding fields are
// unchanged.
package qrcodec

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/gradpass/ceremony-tickets/internal/domain"
)

const (
	delimiter        = "|"
	DefaultImageSize = 300
)

var ErrEmptySecret = errors.New("qrcodec: checksum secret must not be empty")

// Payload is the JSON document encoded into a ticket's QR code.
type Payload struct {
	TicketID   uint   `json:"ticket_id"`
	TicketCode string `json:"ticket_code"`
	CeremonyID uint   `json:"ceremony_id"`
	GraduateID uint   `json:"graduate_id"`
	Type       string `json:"type"`
	Checksum   string `json:"checksum"`
}

// TicketFinder resolves the ticket a payload refers to. A nil ticket with a
// nil error means the ticket does not exist.
type TicketFinder interface {
	FindTicket(ctx context.Context, id uint) (*domain.Ticket, error)
}

type Codec struct {
	secret    []byte
	imageSize int
}

func New(secret string, imageSize int) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if imageSize <= 0 {
		imageSize = DefaultImageSize
	}

	return &Codec{
		secret:    []byte(secret),
		imageSize: imageSize,
	}, nil
}

// Checksum signs the ticket's binding fields with the server secret.
func (c *Codec) Checksum(ticket domain.Ticket) string {
	parts := []string{
		strconv.FormatUint(uint64(ticket.ID), 10),
		ticket.Code,
		strconv.FormatUint(uint64(ticket.CeremonyID), 10),
		strconv.FormatUint(uint64(ticket.GraduateID), 10),
		string(c.secret),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, delimiter)))

	return hex.EncodeToString(sum[:])
}

func (c *Codec) Encode(ticket domain.Ticket) (string, error) {
	data, err := json.Marshal(Payload{
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		CeremonyID: ticket.CeremonyID,
		GraduateID: ticket.GraduateID,
		Type:       string(ticket.Type),
		Checksum:   c.Checksum(ticket),
	})
	if err != nil {
		return "", fmt.Errorf("json.Marshal -> %w", err)
	}

	return string(data), nil
}

// Decode parses a scanned payload. Malformed input or a payload without a
// ticket code or checksum yields nil.
func (c *Codec) Decode(raw string) *Payload {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil
	}
	if p.TicketCode == "" || p.Checksum == "" {
		return nil
	}

	return &p
}

// Matches reports whether the payload carries the signature the ticket would
// produce right now and names the same ticket.
func (c *Codec) Matches(p *Payload, ticket domain.Ticket) bool {
	if p == nil {
		return false
	}
	if p.TicketID != ticket.ID ||
		p.TicketCode != ticket.Code ||
		p.CeremonyID != ticket.CeremonyID ||
		p.GraduateID != ticket.GraduateID {
		return false
	}

	expected := c.Checksum(ticket)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(p.Checksum)) == 1
}

// Validate decodes raw, loads the referenced ticket and recomputes its checksum.
// The error is only set when the lookup itself failed.
func (c *Codec) Validate(ctx context.Context, raw string, finder TicketFinder) (bool, error) {
	p := c.Decode(raw)
	if p == nil {
		return false, nil
	}

	ticket, err := finder.FindTicket(ctx, p.TicketID)
	if err != nil {
		return false, fmt.Errorf("finder.FindTicket -> %w", err)
	}
	if ticket == nil {
		return false, nil
	}

	return c.Matches(p, *ticket), nil
}

// RenderPNG encodes payload into a PNG QR image with high error correction.
func (c *Codec) RenderPNG(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.High, c.imageSize)
	if err != nil {
		return nil, fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return png, nil
}

// ArtifactKey is where a ticket's QR image is stored.
func ArtifactKey(ticket domain.Ticket) string {
	return fmt.Sprintf("qr-codes/%d/%s.png", ticket.CeremonyID, ticket.Code)
}
