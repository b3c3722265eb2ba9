// Package app wires the repositories, services and HTTP server together
// and runs them under one errgroup.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/theater-tickets/internal/catalog"
	"github.com/iliyamo/theater-tickets/internal/config"
	"github.com/iliyamo/theater-tickets/internal/database"
	"github.com/iliyamo/theater-tickets/internal/handler"
	"github.com/iliyamo/theater-tickets/internal/middleware"
	"github.com/iliyamo/theater-tickets/internal/payment"
	"github.com/iliyamo/theater-tickets/internal/queue"
	"github.com/iliyamo/theater-tickets/internal/repository"
	"github.com/iliyamo/theater-tickets/internal/router"
	"github.com/iliyamo/theater-tickets/internal/service"
	"github.com/iliyamo/theater-tickets/internal/ticketpdf"
)

const shutdownTimeout = 10 * time.Second

// App owns every long-running component of the process.
type App struct {
	cfg      config.Config
	db       *sql.DB
	rdb      *redis.Client
	echo     *echo.Echo
	sweeper  *service.Sweeper
	consumer *queue.Consumer
}

// New opens the database, makes sure the schema exists and builds the
// HTTP server.  Redis and RabbitMQ are optional: without them the cache
// and rate limiter pass requests through and ticket events are dropped.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	rdb := config.NewRedisClient(ctx)

	seatRepo := repository.NewSeatRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	screenRepo := repository.NewScreenRepo(db, seatRepo)
	ticketRepo := repository.NewTicketRepo(db, seatRepo)
	commentRepo := repository.NewCommentRepo(db)

	catalogClient, err := catalog.NewClient(catalog.Config{
		BaseURL:      cfg.CatalogBaseURL,
		ImageBaseURL: cfg.CatalogImageBaseURL,
		APIKey:       cfg.CatalogAPIKey,
		Timeout:      cfg.CatalogTimeout,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var events service.EventPublisher = service.NopPublisher{}
	var consumer *queue.Consumer
	if cfg.AMQPURL != "" {
		events = service.NewAMQPPublisher(cfg.AMQPURL)
		consumer = queue.NewConsumer(cfg.AMQPURL, cfg.AuditLogPath)
	} else {
		logrus.Warn("AMQP_URL not set; ticket events are disabled")
	}

	clock := clockwork.NewRealClock()
	checkout := service.NewCheckoutService(
		ticketRepo,
		screenRepo,
		seatRepo,
		payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.Currency, nil),
		events,
		cfg.BaseURL,
		service.WithClock(clock),
		service.WithSessionTTL(cfg.PendingTicketTTL),
	)
	sweeper := service.NewSweeper(ticketRepo, events, cfg.PendingTicketTTL, cfg.SweepInterval, clock)

	auth, err := middleware.Authenticate(middleware.AuthConfig{
		Secret:       cfg.IdentityJWTSecret,
		PublicKeyPEM: cfg.IdentityJWTPublicKey,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	comments := handler.NewCommentHandler(commentRepo)
	router.RegisterRoutes(e, handler.Health(db))
	router.RegisterPublic(e,
		handler.NewPublicHandler(movieRepo, screenRepo, seatRepo),
		handler.NewCatalogHandler(catalogClient),
		comments,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterCustomer(e,
		handler.NewCustomerHandler(checkout, ticketpdf.NewGenerator(catalogClient, cfg.BaseURL)),
		comments,
		auth,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)
	router.RegisterAdmin(e, handler.NewAdminHandler(movieRepo, roomRepo, screenRepo), auth)

	return &App{
		cfg:      cfg,
		db:       db,
		rdb:      rdb,
		echo:     e,
		sweeper:  sweeper,
		consumer: consumer,
	}, nil
}

// Run serves HTTP, runs the sweeper and, when configured, the event
// consumer until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + a.cfg.Port
		logrus.WithField("addr", addr).WithField("env", a.cfg.Env).Info("starting server")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return a.sweeper.Run(ctx)
	})

	if a.consumer != nil {
		g.Go(func() error {
			return a.consumer.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.echo.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("error stopping server")
			return err
		}
		return nil
	})

	return g.Wait()
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = a.db.Close()
}
