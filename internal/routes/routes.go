package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/paycasso/paycasso/internal/account"
	"github.com/paycasso/paycasso/internal/agreement"
	"github.com/paycasso/paycasso/internal/circle"
	"github.com/paycasso/paycasso/internal/config"
	"github.com/paycasso/paycasso/internal/contracts"
	"github.com/paycasso/paycasso/internal/identity"
	"github.com/paycasso/paycasso/internal/integrations/gemini"
	"github.com/paycasso/paycasso/internal/middleware"
	"github.com/paycasso/paycasso/internal/notification"
	"github.com/paycasso/paycasso/internal/profile"
	"github.com/paycasso/paycasso/internal/supabase"
	"github.com/paycasso/paycasso/internal/wallet"
)

// Custody is the vendor surface used by sign-up and the wallet views.
type Custody interface {
	account.WalletProvisioner
	wallet.Custody
}

// Deps aggregates shared dependencies required to wire routes. Identity,
// Custody and Model are built from Cfg when nil.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	Identity identity.Provider
	Custody  Custody
	Model    contracts.Model
}

type stores struct {
	profiles   profile.Repository
	wallets    wallet.Repository
	agreements agreement.Repository
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil && d.Cfg.Supabase.ServiceRoleKey == "" {
			return fmt.Errorf("DATABASE_URL or SUPABASE_SERVICE_ROLE_KEY is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	sb, err := newSupabaseClient(d.Cfg)
	if err != nil {
		return err
	}
	if err := resolveBackends(&d, sb); err != nil {
		return err
	}
	st := newStores(d, sb)

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	notifier := notification.NewLoggerNotifier(d.Logger)
	var custody wallet.Custody
	var provisioner account.WalletProvisioner
	if d.Custody != nil {
		custody, provisioner = d.Custody, d.Custody
	}
	walletSvc := wallet.NewService(st.wallets, custody, d.Cache, d.Cfg.TransactionsCacheTTL, d.Logger)
	accountSvc := account.NewService(d.Cfg, account.Deps{
		Identity: d.Identity,
		Wallets:  provisioner,
		Profiles: st.profiles,
		Records:  walletSvc,
		Notifier: notifier,
		Logger:   d.Logger,
	})
	analyzer := contracts.NewAnalyzer(d.Model, d.Logger)
	agreementSvc := agreement.NewService(st.agreements, st.profiles, st.wallets, analyzer, notifier, d.Logger)

	session := middleware.SessionAuth(d.Cfg.Supabase.JWTSecret, d.Identity, d.Logger)

	api := app.Group("/api")
	api.Get("/v1/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, account.NewHandler(accountSvc, !d.Cfg.IsDev()), AccountMiddleware{
		SignUp:  middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
		SignIn:  middleware.SignInRateLimit(d.Cache, d.Cfg.SignInAttemptsPerMinute, d.Logger),
		Session: session,
	})
	RegisterWalletRoutes(api, wallet.NewHandler(walletSvc, st.profiles, d.Logger), session)
	RegisterContractRoutes(api, contracts.NewHandler(analyzer, d.Cfg.MaxUploadBytes, d.Logger))
	RegisterAgreementRoutes(api, agreement.NewHandler(agreementSvc, d.Cfg.MaxUploadBytes, d.Logger), session)

	return nil
}

func newSupabaseClient(cfg config.Config) (*supabase.Client, error) {
	if cfg.Supabase.URL == "" {
		return nil, nil
	}
	client, err := supabase.New(supabase.Config{
		URL:            cfg.Supabase.URL,
		AnonKey:        cfg.Supabase.AnonKey,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		Timeout:        cfg.Supabase.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("build supabase client: %w", err)
	}
	return client, nil
}

// resolveBackends fills the external collaborators the caller did not inject.
// Missing configuration leaves them nil; the flows report it per request.
func resolveBackends(d *Deps, sb *supabase.Client) error {
	if d.Identity == nil {
		switch {
		case d.Cfg.Supabase.AuthProvider == config.AuthProviderMemory:
			d.Identity = identity.NewMemoryProvider()
		case sb != nil:
			d.Identity = identity.NewSupabaseProvider(sb)
		}
	}
	if d.Custody == nil && d.Cfg.HasCustody() {
		client, err := circle.New(circle.Config{
			BaseURL:      d.Cfg.Circle.APIURL,
			APIKey:       d.Cfg.Circle.APIKey,
			EntitySecret: d.Cfg.Circle.EntitySecret,
			Timeout:      d.Cfg.Circle.Timeout,
		})
		if err != nil {
			return fmt.Errorf("build circle client: %w", err)
		}
		d.Custody = client
	}
	if d.Model == nil {
		model, err := gemini.NewClient(d.Cfg.Gemini, d.Logger)
		if err != nil {
			return err
		}
		d.Model = model
	}
	return nil
}

// newStores picks Postgres when a pool is available, then PostgREST with the
// service role key, then process memory.
func newStores(d Deps, sb *supabase.Client) stores {
	switch {
	case d.DB != nil:
		return stores{
			profiles:   profile.NewPostgresRepository(d.DB),
			wallets:    wallet.NewPostgresRepository(d.DB),
			agreements: agreement.NewPostgresRepository(d.DB),
		}
	case sb.HasServiceRole():
		return stores{
			profiles:   profile.NewSupabaseRepository(sb),
			wallets:    wallet.NewSupabaseRepository(sb),
			agreements: agreement.NewSupabaseRepository(sb),
		}
	default:
		d.Logger.Warn("no privileged store configured; using in-memory repositories")
		return stores{
			profiles:   profile.NewMemoryRepository(),
			wallets:    wallet.NewMemoryRepository(),
			agreements: agreement.NewMemoryRepository(),
		}
	}
}

// pingTimeout bounds health probes.
const pingTimeout = 2 * time.Second

func ping(ctx context.Context, fn func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
