package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"

	"github.com/taleweave/taleweave/pkg/ai"
	"github.com/taleweave/taleweave/pkg/binder"
	"github.com/taleweave/taleweave/pkg/books"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/coupons"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/mailer"
	"github.com/taleweave/taleweave/pkg/notifications"
	"github.com/taleweave/taleweave/pkg/orders"
	"github.com/taleweave/taleweave/pkg/payments"
	"github.com/taleweave/taleweave/pkg/policies"
	"github.com/taleweave/taleweave/pkg/questions"
	"github.com/taleweave/taleweave/pkg/reports"
	"github.com/taleweave/taleweave/pkg/sections"
	"github.com/taleweave/taleweave/pkg/stations"
	"github.com/taleweave/taleweave/pkg/subscriptions"
	"github.com/taleweave/taleweave/pkg/tickets"
	"github.com/taleweave/taleweave/pkg/trains"
	"github.com/taleweave/taleweave/pkg/uploads"
	"github.com/taleweave/taleweave/pkg/users"
	"github.com/taleweave/taleweave/pkg/webhook"
)

// Dependencies carries the outbound capabilities the server wires into its
// route groups. Tests swap in fakes here.
type Dependencies struct {
	Payments payments.Provider
	Mailer   mailer.Mailer
	AI       ai.Generator
	Store    uploads.Store
}

// NewDependencies builds the production dependency set from config.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{
		Payments: payments.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
		Mailer:   mailer.NewResendMailer(cfg.Mail.APIKey, cfg.Mail.From),
		AI:       ai.NewClient(cfg.AI.BaseURL, cfg.AI.Timeout),
	}
	if cfg.Uploads.ObjectStorage.Enabled {
		store, err := uploads.NewMinioStore(
			cfg.Uploads.ObjectStorage.Endpoint,
			cfg.Uploads.ObjectStorage.AccessKey,
			cfg.Uploads.ObjectStorage.SecretKey,
			cfg.Uploads.ObjectStorage.Bucket,
			cfg.Uploads.ObjectStorage.UseSSL,
		)
		if err != nil {
			return nil, err
		}
		deps.Store = store
	} else {
		deps.Store = uploads.NewDiskStore(cfg.Uploads.Dir, cfg.BaseURL)
	}
	return deps, nil
}

func New(cfg *config.Config, db *bun.DB, deps *Dependencies) (*http.Server, error) {
	e, err := NewEcho(cfg, db, deps)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return srv, nil
}

// NewEcho builds the fully wired echo instance. Split out from New so tests
// can drive it directly with httptest.
func NewEcho(cfg *config.Config, db *bun.DB, deps *Dependencies) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	uploadService := uploads.NewService(deps.Store)
	userService := users.NewService(db, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, deps.Mailer, cfg.ClientURL)
	mw := users.RegisterRoutes(e, userService, uploadService, cfg.Auth.RefreshTokenTTL)

	bookService := books.NewService(db, deps.AI)
	books.RegisterRoutes(e, bookService, uploadService, mw)

	sections.RegisterRoutes(e, sections.NewService(db), mw)
	questions.RegisterRoutes(e, questions.NewService(db), mw)

	orderService := orders.NewService(db, deps.Payments, cfg.ClientURL)
	orders.RegisterRoutes(e, orderService, uploadService, mw)

	subscriptionService := subscriptions.NewService(db, deps.Payments, deps.Mailer, cfg.ClientURL)
	subscriptions.RegisterRoutes(e, subscriptionService, mw)

	webhook.RegisterRoutes(e, deps.Payments, orderService, subscriptionService)

	coupons.RegisterRoutes(e, coupons.NewService(db), mw)
	notifications.RegisterRoutes(e, notifications.NewService(db), mw)
	policies.RegisterRoutes(e, policies.NewService(db), mw)

	stations.RegisterRoutes(e, stations.NewService(db), mw)
	trains.RegisterRoutes(e, trains.NewService(db), mw)
	tickets.RegisterRoutes(e, tickets.NewService(db), mw)
	reports.RegisterRoutes(e, reports.NewService(db), mw)

	// Local uploads are served straight from disk. With object storage
	// enabled the store URLs point at the bucket instead, and this route
	// simply never matches anything.
	e.Static("/uploads", cfg.Uploads.Dir)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
