package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gradpass/ceremony-tickets/cmd/app"
	"github.com/gradpass/ceremony-tickets/internal/config"
	"github.com/gradpass/ceremony-tickets/internal/logger"
	"github.com/gradpass/ceremony-tickets/internal/pkg/gatefeed"
	"github.com/gradpass/ceremony-tickets/internal/pkg/jwthelper"
	"github.com/gradpass/ceremony-tickets/internal/repository"
	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
	"github.com/gradpass/ceremony-tickets/internal/service"
)

const defaultTokenTTL = 12 * time.Hour

type ticketctl struct {
	conf  *config.AppConfig
	flush func()
	db    *gorm.DB
	out   io.Writer
}

func (t *ticketctl) stdout() io.Writer {
	if t.out == nil {
		return os.Stdout
	}
	return t.out
}

func (t *ticketctl) load(cctx *cli.Context) error {
	conf, err := config.Load(cctx.String("config"))
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}
	t.conf = conf

	flush, err := logger.Init(conf.API.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	t.flush = flush

	return nil
}

func (t *ticketctl) close(*cli.Context) error {
	if t.db != nil {
		if sqlDB, err := t.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if t.flush != nil {
		t.flush()
	}

	return nil
}

func (t *ticketctl) database() (*gorm.DB, error) {
	if t.db != nil {
		return t.db, nil
	}

	db, err := app.OpenDatabase(t.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database -> %w", err)
	}
	t.db = db

	return db, nil
}

type services struct {
	tickets  *service.TicketService
	requests *service.RequestService
	verifier *service.VerificationService
}

func (t *ticketctl) services() (services, error) {
	db, err := t.database()
	if err != nil {
		return services{}, err
	}
	codec, err := app.NewCodec(t.conf)
	if err != nil {
		return services{}, err
	}
	store, err := app.NewArtifactStore(t.conf)
	if err != nil {
		return services{}, err
	}

	repo := repository.NewTicketingRepository(dao.NewTicketingDAO(db))
	tickets := service.NewTicketService(repo, codec, store, service.IssuanceConfig{
		CodeLength:      t.conf.Tickets.CodeLength,
		MaxCodeAttempts: t.conf.Tickets.MaxCodeAttempts,
	})

	return services{
		tickets:  tickets,
		requests: service.NewRequestService(repo, tickets),
		verifier: service.NewVerificationService(repo, codec, gatefeed.Discard{}),
	}, nil
}

func (t *ticketctl) printJSON(v interface{}) error {
	enc := json.NewEncoder(t.stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (t *ticketctl) migrate(cctx *cli.Context) error {
	db, err := t.database()
	if err != nil {
		return err
	}

	if cctx.Bool("fresh") {
		zap.L().Warn("dropping all tables")
		if err := dao.ResetTables(db); err != nil {
			return fmt.Errorf("dao.ResetTables -> %w", err)
		}
		return nil
	}

	if err := dao.InitTables(db); err != nil {
		return fmt.Errorf("dao.InitTables -> %w", err)
	}
	zap.L().Info("schema is up to date")

	return nil
}

func (t *ticketctl) issueBase(cctx *cli.Context) error {
	svcs, err := t.services()
	if err != nil {
		return err
	}

	ids, err := svcs.tickets.IssueBaseTickets(cctx.Context, cctx.Uint("graduate"))
	if err != nil {
		return fmt.Errorf("IssueBaseTickets -> %w", err)
	}

	return t.printJSON(map[string]interface{}{"graduate_id": cctx.Uint("graduate"), "ticket_ids": ids})
}

func (t *ticketctl) regenerateQR(cctx *cli.Context) error {
	svcs, err := t.services()
	if err != nil {
		return err
	}

	ticket, err := svcs.tickets.RegenerateQRCode(cctx.Context, cctx.Uint("ticket"))
	if err != nil {
		return fmt.Errorf("RegenerateQRCode -> %w", err)
	}

	return t.printJSON(map[string]interface{}{
		"ticket_id":   ticket.ID,
		"qr_code_url": svcs.tickets.ArtifactURL(ticket),
	})
}

func (t *ticketctl) validate(cctx *cli.Context) error {
	payload := cctx.Args().First()
	if payload == "" {
		return errors.New("missing <payload> argument")
	}

	svcs, err := t.services()
	if err != nil {
		return err
	}

	valid, err := svcs.verifier.ValidatePayload(cctx.Context, payload)
	if err != nil {
		return fmt.Errorf("ValidatePayload -> %w", err)
	}
	if valid {
		_, err = fmt.Fprintln(t.stdout(), "valid")
	} else {
		_, err = fmt.Fprintln(t.stdout(), "invalid")
	}

	return err
}

func (t *ticketctl) redistribute(cctx *cli.Context) error {
	svcs, err := t.services()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cctx.Context, 5*time.Minute)
	defer cancel()

	summary, err := svcs.requests.RedistributeUnusedTickets(ctx, cctx.Uint("ceremony"))
	if err != nil {
		return fmt.Errorf("RedistributeUnusedTickets -> %w", err)
	}

	return t.printJSON(summary)
}

func (t *ticketctl) token(cctx *cli.Context) error {
	if t.conf.API.PrincipalSigningKey == "" {
		return errors.New("api.principal_signing_key is not configured")
	}

	token, err := jwthelper.GenerateToken([]byte(t.conf.API.PrincipalSigningKey), jwthelper.Principal{
		ID:   cctx.Uint("user"),
		Role: cctx.String("role"),
	}, cctx.Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(t.stdout(), token)

	return err
}
