// Package server wires configuration, storage, side-effect sinks and both
// transports (REST and gRPC) into a runnable application with graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/proofofplace/internal/buildinfo"
	"github.com/dmitrijs2005/proofofplace/internal/logging"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	"github.com/dmitrijs2005/proofofplace/internal/server/archive"
	"github.com/dmitrijs2005/proofofplace/internal/server/auth"
	"github.com/dmitrijs2005/proofofplace/internal/server/config"
	"github.com/dmitrijs2005/proofofplace/internal/server/events"
	"github.com/dmitrijs2005/proofofplace/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/proofofplace/internal/server/rest"
	"github.com/dmitrijs2005/proofofplace/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/proofofplace/internal/server/grpc"
)

var (
	newArchiver = func(ctx context.Context, cfg *config.Config) (archive.Archiver, error) {
		return archive.NewS3Archiver(ctx, cfg)
	}
	newPublisher = func(cfg *config.Config) events.Publisher {
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	redis         *redis.Client
	publisher     events.Publisher
	verifications *services.VerificationService
	sessions      *services.SessionService
	authenticator *auth.Authenticator
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	db, rm, err := repomanager.Open(c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	opts := []services.Option{services.WithLogger(logger)}

	if c.S3Bucket != "" {
		a, err := newArchiver(ctx, c)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		opts = append(opts, services.WithArchiver(a))
		logger.Info(ctx, "signed event archive enabled", "bucket", c.S3Bucket)
	}

	publisher := events.Nop()
	if len(c.KafkaBrokers) > 0 {
		publisher = newPublisher(c)
		opts = append(opts, services.WithPublisher(publisher))
		logger.Info(ctx, "verification events enabled", "topic", c.KafkaTopic)
	}

	var rdb *redis.Client
	if c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		logger.Info(ctx, "rate limiting enabled", "redis", c.RedisAddr)
	}

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		redis:         rdb,
		publisher:     publisher,
		verifications: services.NewVerificationService(db, rm, c, opts...),
		sessions:      services.NewSessionService(c),
		authenticator: auth.NewAuthenticator(c.SecretKey, c.AuthMaxClockSkew, nostrx.SchnorrVerifier{}),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.verifications, app.authenticator)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	h := rest.NewHandler(app.verifications, app.sessions, app.authenticator, app.logger)
	router := rest.NewRouter(h, rest.RouterOptions{
		AllowedOrigins: app.config.CORSAllowedOrigins,
		Redis:          app.redis,
		RateLimit:      app.config.RateLimitRequests,
		RateWindow:     app.config.RateLimitWindow,
	})

	s := rest.NewHTTPServer(app.config.HTTPAddr, router, app.config.ShutdownTimeout, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves both transports until ctx is cancelled, a signal arrives or
// either server fails, then releases resources.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	buildinfo.PrintBuildData(os.Stdout)
	app.logger.Info(ctx, "Starting app...", "version", buildinfo.Version())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) Close() {
	ctx := context.Background()
	if err := app.publisher.Close(); err != nil {
		app.logger.Error(ctx, "publisher close", "error", err)
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
}
