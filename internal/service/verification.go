package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/metrics"
	"github.com/gradpass/ceremony-tickets/internal/pkg/gatefeed"
	"github.com/gradpass/ceremony-tickets/internal/pkg/qrcodec"
	"github.com/gradpass/ceremony-tickets/internal/repository"
)

const (
	MethodQR   = "qr"
	MethodCode = "code"

	DefaultEntryLogLimit = 50
	MaxEntryLogLimit     = 200
)

// scanContext is what the verification rules see for one attempt.
type scanContext struct {
	method  string
	payload *qrcodec.Payload
	ticket  *domain.Ticket
	codec   *qrcodec.Codec
}

func (sc *scanContext) viaQR() bool {
	return sc.method == MethodQR
}

type verificationRule struct {
	outcome domain.VerificationOutcome
	matches func(sc *scanContext) bool
	message func(sc *scanContext) string
}

func fixedMessage(msg string) func(*scanContext) string {
	return func(*scanContext) string { return msg }
}

// verificationRules is evaluated top to bottom; the first match decides the
// outcome. A scan that matches none of them succeeds.
var verificationRules = []verificationRule{
	{
		outcome: domain.OutcomeInvalid,
		matches: func(sc *scanContext) bool { return sc.viaQR() && sc.payload == nil },
		message: fixedMessage("Invalid QR code format"),
	},
	{
		outcome: domain.OutcomeInvalid,
		matches: func(sc *scanContext) bool { return sc.ticket == nil },
		message: fixedMessage("Ticket not found"),
	},
	{
		outcome: domain.OutcomeFraudAttempt,
		matches: func(sc *scanContext) bool { return sc.viaQR() && !sc.codec.Matches(sc.payload, *sc.ticket) },
		message: fixedMessage("Invalid ticket signature - possible fraud"),
	},
	{
		outcome: domain.OutcomeDuplicate,
		matches: func(sc *scanContext) bool { return sc.ticket.IsScanned },
		message: func(sc *scanContext) string {
			if sc.ticket.ScannedAt != nil {
				return fmt.Sprintf("Ticket already used at %s", sc.ticket.ScannedAt.Format(time.RFC3339))
			}
			return "Ticket already used"
		},
	},
	{
		outcome: domain.OutcomeInvalid,
		matches: func(sc *scanContext) bool { return sc.ticket.Status != domain.TicketActive },
		message: func(sc *scanContext) string { return fmt.Sprintf("Ticket is %s", sc.ticket.Status) },
	},
}

// classify returns the first matching rule, or nil when the scan is admissible.
func classify(sc *scanContext) *verificationRule {
	for i := range verificationRules {
		if verificationRules[i].matches(sc) {
			return &verificationRules[i]
		}
	}
	return nil
}

// VerificationService is the only code path that moves a ticket from Active to Used.
type VerificationService struct {
	repo  *repository.TicketingRepository
	codec *qrcodec.Codec
	feed  gatefeed.Publisher
	now   func() time.Time
}

func NewVerificationService(repo *repository.TicketingRepository, codec *qrcodec.Codec, feed gatefeed.Publisher) *VerificationService {
	if feed == nil {
		feed = gatefeed.Discard{}
	}

	return &VerificationService{
		repo:  repo,
		codec: codec,
		feed:  feed,
		now:   time.Now,
	}
}

// VerifyByPayload verifies a scanned QR payload. Business outcomes are
// reported in the result; a non-nil error means nothing was recorded.
func (s *VerificationService) VerifyByPayload(ctx context.Context, payload string, scan domain.ScanRequest) (domain.VerificationResult, error) {
	p := s.codec.Decode(payload)

	return s.verify(ctx, MethodQR, scan, p, func(tx *repository.TicketingRepository) (domain.Ticket, error) {
		if p == nil {
			return domain.Ticket{}, repository.ErrTicketNotFound
		}
		return tx.LockTicket(ctx, p.TicketID)
	})
}

// VerifyByCode verifies a manually entered ticket code.
func (s *VerificationService) VerifyByCode(ctx context.Context, code string, scan domain.ScanRequest) (domain.VerificationResult, error) {
	code = NormalizeCode(code)

	return s.verify(ctx, MethodCode, scan, nil, func(tx *repository.TicketingRepository) (domain.Ticket, error) {
		if code == "" {
			return domain.Ticket{}, repository.ErrTicketNotFound
		}
		return tx.LockTicketByCode(ctx, code)
	})
}

func (s *VerificationService) verify(
	ctx context.Context,
	method string,
	scan domain.ScanRequest,
	payload *qrcodec.Payload,
	lookup func(tx *repository.TicketingRepository) (domain.Ticket, error),
) (domain.VerificationResult, error) {
	start := time.Now()

	var (
		result domain.VerificationResult
		entry  domain.EntryLog
	)
	err := s.repo.InTx(ctx, func(tx *repository.TicketingRepository) error {
		sc := &scanContext{method: method, payload: payload, codec: s.codec}

		ticket, err := lookup(tx)
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
		case err != nil:
			return fmt.Errorf("lookup ticket -> %w", err)
		default:
			sc.ticket = &ticket
		}

		now := s.now()
		if rule := classify(sc); rule != nil {
			result = domain.VerificationResult{
				Success: false,
				Outcome: rule.outcome,
				Message: rule.message(sc),
				Ticket:  sc.ticket,
			}
			entry, err = s.writeEntryLog(ctx, tx, sc.ticket, scan, now, rule.outcome, result.Message)
			return err
		}

		sc.ticket.MarkUsed(scan.ScannerID, now)
		if err := tx.SaveScannedTicket(ctx, *sc.ticket); err != nil {
			return fmt.Errorf("tx.SaveScannedTicket -> %w", err)
		}
		if err := tx.IncrementTicketsUsed(ctx, sc.ticket.GraduateID); err != nil {
			return fmt.Errorf("tx.IncrementTicketsUsed -> %w", err)
		}

		entry, err = s.writeEntryLog(ctx, tx, sc.ticket, scan, now, domain.OutcomeSuccess, "")
		if err != nil {
			return err
		}

		loaded, err := tx.GetTicketWithRelations(ctx, sc.ticket.ID)
		if err != nil {
			return fmt.Errorf("tx.GetTicketWithRelations -> %w", err)
		}

		result = domain.VerificationResult{
			Success:    true,
			Outcome:    domain.OutcomeSuccess,
			Message:    "Ticket verified successfully",
			Ticket:     &loaded,
			GuestName:  loaded.GuestName,
			TicketType: string(loaded.Type),
		}
		if loaded.Graduate != nil {
			result.GraduateName = loaded.Graduate.StudentName
		}

		return nil
	})
	if err != nil {
		zap.L().Error("verification aborted",
			zap.String("method", method),
			zap.Uint("scanner_id", scan.ScannerID),
			zap.Error(err),
		)
		return domain.VerificationResult{}, err
	}

	result.EntryLogID = entry.ID
	metrics.ObserveVerification(method, string(result.Outcome), time.Since(start))
	s.report(ctx, method, scan, entry, result)

	return result, nil
}

func (s *VerificationService) writeEntryLog(
	ctx context.Context,
	tx *repository.TicketingRepository,
	ticket *domain.Ticket,
	scan domain.ScanRequest,
	at time.Time,
	outcome domain.VerificationOutcome,
	notes string,
) (domain.EntryLog, error) {
	log := domain.EntryLog{
		ScannedBy:  scan.ScannerID,
		ScannedAt:  at,
		EntryPoint: scan.EntryPoint,
		Outcome:    outcome,
		Notes:      notes,
		DeviceInfo: scan.DeviceInfo,
	}
	switch {
	case ticket != nil:
		ticketID, ceremonyID := ticket.ID, ticket.CeremonyID
		log.TicketID = &ticketID
		log.CeremonyID = &ceremonyID
	case scan.CeremonyID != 0:
		ceremonyID := scan.CeremonyID
		log.CeremonyID = &ceremonyID
	}

	created, err := tx.CreateEntryLog(ctx, log)
	if err != nil {
		return domain.EntryLog{}, fmt.Errorf("tx.CreateEntryLog -> %w", err)
	}

	return created, nil
}

// report logs the attempt and pushes it to the gate feed once committed.
func (s *VerificationService) report(ctx context.Context, method string, scan domain.ScanRequest, entry domain.EntryLog, result domain.VerificationResult) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("outcome", string(result.Outcome)),
		zap.Uint("scanner_id", scan.ScannerID),
		zap.String("entry_point", scan.EntryPoint),
		zap.Uint("entry_log_id", entry.ID),
	}
	if entry.TicketID != nil {
		fields = append(fields, zap.Uint("ticket_id", *entry.TicketID))
	}
	if result.Outcome == domain.OutcomeFraudAttempt {
		zap.L().Warn("possible forged ticket presented", fields...)
	} else {
		zap.L().Info("ticket scanned", fields...)
	}

	if entry.CeremonyID == nil {
		return
	}

	event := gatefeed.Event{
		CeremonyID: *entry.CeremonyID,
		TicketID:   entry.TicketID,
		EntryLogID: entry.ID,
		Outcome:    string(result.Outcome),
		Message:    result.Message,
		EntryPoint: scan.EntryPoint,
		ScannerID:  scan.ScannerID,
		At:         entry.ScannedAt,
	}
	if err := s.feed.Publish(ctx, event); err != nil {
		metrics.FeedPublishError()
		zap.L().Warn("failed to publish gate feed event", zap.Uint("entry_log_id", entry.ID), zap.Error(err))
	}
}

// ticketFinder resolves codec lookups through the repository.
type ticketFinder struct {
	repo *repository.TicketingRepository
}

func (f ticketFinder) FindTicket(ctx context.Context, id uint) (*domain.Ticket, error) {
	ticket, err := f.repo.GetTicket(ctx, id)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ValidatePayload checks a payload's signature against the current ticket
// without recording a scan.
func (s *VerificationService) ValidatePayload(ctx context.Context, payload string) (bool, error) {
	return s.codec.Validate(ctx, payload, ticketFinder{repo: s.repo})
}

// ListFraudCases returns the ceremony's FraudAttempt logs, newest first.
func (s *VerificationService) ListFraudCases(ctx context.Context, ceremonyID uint) ([]domain.EntryLog, error) {
	if _, err := s.repo.GetCeremony(ctx, ceremonyID); err != nil {
		return nil, fmt.Errorf("s.repo.GetCeremony -> %w", err)
	}

	logs, err := s.repo.ListEntryLogs(ctx, domain.EntryLogFilter{
		CeremonyID: ceremonyID,
		Outcome:    domain.OutcomeFraudAttempt,
	})
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListEntryLogs -> %w", err)
	}

	return logs, nil
}

func (s *VerificationService) ListEntryLogs(ctx context.Context, filter domain.EntryLogFilter) ([]domain.EntryLog, error) {
	if _, err := s.repo.GetCeremony(ctx, filter.CeremonyID); err != nil {
		return nil, fmt.Errorf("s.repo.GetCeremony -> %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultEntryLogLimit
	}
	if filter.Limit > MaxEntryLogLimit {
		filter.Limit = MaxEntryLogLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	logs, err := s.repo.ListEntryLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListEntryLogs -> %w", err)
	}

	return logs, nil
}
