package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gradpass/ceremony-tickets/internal/api"
	"github.com/gradpass/ceremony-tickets/internal/config"
	"github.com/gradpass/ceremony-tickets/internal/db"
	"github.com/gradpass/ceremony-tickets/internal/logger"
	"github.com/gradpass/ceremony-tickets/internal/pkg/artifact"
	"github.com/gradpass/ceremony-tickets/internal/pkg/gatefeed"
	"github.com/gradpass/ceremony-tickets/internal/pkg/qrcodec"
	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
)

const configPath = "./cmd/app/config.yml"

func Start() error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	flush, err := logger.Init(conf.API.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer flush()
	if err := logger.SetLevel(conf.API.LogLevel); err != nil {
		zap.L().Warn("ignoring log level", zap.Error(err))
	}

	config.Watch(configPath, func(next *config.AppConfig) {
		if err := logger.SetLevel(next.API.LogLevel); err != nil {
			zap.L().Warn("ignoring log level", zap.Error(err))
			return
		}
		zap.L().Info("config reloaded", zap.String("log_level", next.API.LogLevel))
	}, func(err error) {
		zap.L().Warn("config reload failed", zap.Error(err))
	})

	postgresDB, err := OpenDatabase(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}
	if err := dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to migrate database -> %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := Dependencies(ctx, conf)
	if err != nil {
		return err
	}

	s := api.NewServer(conf, postgresDB, deps)

	addr := ":" + s.Config.API.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
	case <-ctx.Done():
		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down the server -> %w", err)
		}
	}

	return nil
}

// OpenDatabase prefers DATABASE_URL over the postgres section of the config.
func OpenDatabase(conf *config.AppConfig) (*gorm.DB, error) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return db.OpenPostgresWithURL(dbURL)
	}

	return db.OpenPostgres(conf.Postgres)
}

// Dependencies builds the codec, artifact store and gate feed. The hub runs
// until ctx is done; with redis configured, events travel through the redis
// channel so every instance's hub sees them.
func Dependencies(ctx context.Context, conf *config.AppConfig) (api.Dependencies, error) {
	codec, err := NewCodec(conf)
	if err != nil {
		return api.Dependencies{}, err
	}

	store, err := NewArtifactStore(conf)
	if err != nil {
		return api.Dependencies{}, err
	}

	hub := gatefeed.NewHub()
	go hub.Run(ctx)

	deps := api.Dependencies{
		Codec: codec,
		Store: store,
		Hub:   hub,
		Feed:  hub,
	}

	if conf.Redis.URL == "" {
		return deps, nil
	}

	client, err := gatefeed.NewRedisClient(ctx, conf.Redis.URL)
	if err != nil {
		return api.Dependencies{}, fmt.Errorf("failed to connect to redis -> %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()
	go func() {
		if err := gatefeed.Relay(ctx, client, conf.Redis.FeedChannel, hub); err != nil {
			zap.L().Error("gate feed relay stopped", zap.Error(err))
		}
	}()
	deps.Feed = gatefeed.NewRedisPublisher(client, conf.Redis.FeedChannel)

	return deps, nil
}

func NewCodec(conf *config.AppConfig) (*qrcodec.Codec, error) {
	codec, err := qrcodec.New(conf.Tickets.ChecksumSecret, conf.Tickets.QRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qr codec -> %w", err)
	}

	return codec, nil
}

func NewArtifactStore(conf *config.AppConfig) (artifact.Store, error) {
	store, err := artifact.New(artifact.Config{
		Driver:    conf.Artifacts.Driver,
		LocalDir:  conf.Artifacts.LocalDir,
		PublicURL: conf.Artifacts.PublicURL,
		S3: artifact.S3Config{
			Endpoint:       conf.Artifacts.S3.Endpoint,
			PublicEndpoint: conf.Artifacts.S3.PublicEndpoint,
			Region:         conf.Artifacts.S3.Region,
			Bucket:         conf.Artifacts.S3.Bucket,
			AccessKey:      conf.Artifacts.S3.AccessKey,
			SecretKey:      conf.Artifacts.S3.SecretKey,
			SSLDisabled:    conf.Artifacts.S3.SSLDisabled,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store -> %w", err)
	}

	return store, nil
}
