package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/overseas-dashboard/internal/currency"
	"github.com/wonny/overseas-dashboard/internal/dashboard"
	"github.com/wonny/overseas-dashboard/internal/external/fxrate"
	"github.com/wonny/overseas-dashboard/internal/external/kis"
	"github.com/wonny/overseas-dashboard/internal/external/naver"
	"github.com/wonny/overseas-dashboard/internal/portfolio"
	"github.com/wonny/overseas-dashboard/internal/snapshot"
	"github.com/wonny/overseas-dashboard/pkg/config"
	"github.com/wonny/overseas-dashboard/pkg/database"
	"github.com/wonny/overseas-dashboard/pkg/httputil"
	"github.com/wonny/overseas-dashboard/pkg/logger"
	"github.com/wonny/overseas-dashboard/pkg/redis"
)

// app holds the wired dependencies shared by all commands
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	kis       *kis.Client
	rates     *currency.Service
	cache     *redis.Cache
	dashboard *dashboard.Service

	// Optional
	redis     *redis.Client
	db        *database.DB
	snapshots *snapshot.Repository
}

type bootstrapOptions struct {
	storage bool // connect PostgreSQL when DATABASE_URL is set
}

// newApp loads config and wires every component.
// Config errors surface here, before any network call.
func newApp(ctx context.Context, opts bootstrapOptions) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if virtual {
		cfg.KIS.IsVirtual = true
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"env": cfg.Env,
		"kis": cfg.KIS.String(),
	}).Debug("Configuration loaded")

	a := &app{cfg: cfg, log: log}

	// 3. HTTP clients: KIS is throttled, public rate sources are not
	kisHTTP := httputil.New(cfg, log)
	if cfg.KIS.RateLimit > 0 {
		kisHTTP.WithLimiter(rate.NewLimiter(rate.Limit(cfg.KIS.RateLimit), 1))
	}
	publicHTTP := httputil.New(cfg, log).WithRetry(1, 500*time.Millisecond)

	a.kis = kis.NewClient(kisHTTP, log)

	// 4. Exchange rate sources, in order
	providers := []currency.Provider{fxrate.NewClient(cfg.FX.URL, publicHTTP, log)}
	if cfg.FX.NaverFallback {
		providers = append(providers, naver.NewClient(cfg.FX.NaverURL, publicHTTP, log))
	}

	// 5. Optional Redis L2 cache
	rateOpts := []currency.Option{}
	rc, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-process rate cache only")
		rc = redis.Disabled()
	}
	a.redis = rc
	a.cache = redis.NewCache(rc, "dashboard")
	if rc.Enabled() {
		rateOpts = append(rateOpts, currency.WithSharedCache(a.cache))
		log.WithField("addr", rc.Addr()).Debug("Shared rate cache enabled")
	}

	a.rates = currency.NewService(providers, cfg.FX.FallbackRate, cfg.FX.CacheTTL, log, rateOpts...)

	// 6. Pipeline
	normalizer := portfolio.NewNormalizer(portfolio.HeuristicsFromConfig(cfg.Portfolio), log)
	a.dashboard = dashboard.NewService(cfg.KIS, a.kis, a.kis, a.rates, normalizer,
		portfolio.Currency(cfg.Portfolio.DisplayCurrency), log)

	// 7. Optional snapshot storage
	if opts.storage {
		db, err := database.New(cfg)
		switch {
		case errors.Is(err, database.ErrNotConfigured):
			log.Info("DATABASE_URL not set, snapshot history disabled")
		case err != nil:
			a.close()
			return nil, fmt.Errorf("connect to database: %w", err)
		default:
			a.db = db
			a.snapshots = snapshot.NewRepository(db.Pool)
			if err := a.snapshots.EnsureSchema(ctx); err != nil {
				a.close()
				return nil, err
			}
			log.Info("Connected to database")
		}
	}

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
