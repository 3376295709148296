// Package currency provides the process-wide USD/KRW rate.
//
// The rate is cached for a fixed TTL and swapped atomically on refresh, so
// concurrent readers never see a half-updated value. Lookups never fail:
// when every source is down the configured fallback constant is returned.
package currency

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/overseas-dashboard/pkg/logger"
	"github.com/wonny/overseas-dashboard/pkg/redis"
)

// ErrRefreshFailed means every provider failed during Refresh
var ErrRefreshFailed = errors.New("all exchange-rate sources failed")

// SourceFallback marks a rate that came from configuration, not a provider
const SourceFallback = "fallback"

// Provider fetches a live USD/KRW quote
type Provider interface {
	Name() string
	FetchUSDKRW(ctx context.Context) (float64, error)
}

// SharedCache is an optional second-level cache shared across processes.
// *redis.Cache satisfies it.
type SharedCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Clock abstracts time for tests
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Rate is a USD→KRW quote with its provenance
type Rate struct {
	USDToKRW  float64   `json:"usd_to_krw"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	Fallback  bool      `json:"fallback"`
}

type entry struct {
	rate      Rate
	expiresAt time.Time
}

// Service is the read-mostly exchange-rate cache
// ⭐ SSOT: 환율 조회는 이 서비스에서만
type Service struct {
	providers   []Provider
	fallback    float64
	ttl         time.Duration
	fallbackTTL time.Duration
	clock       Clock
	shared      SharedCache
	logger      *logger.Logger

	current atomic.Pointer[entry]
	sf      singleflight.Group
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces the wall clock
func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithSharedCache adds a cross-process cache consulted before providers
func WithSharedCache(cache SharedCache) Option {
	return func(s *Service) { s.shared = cache }
}

// WithFallbackTTL sets how long a fallback value is served before the
// providers are tried again. Defaults to the full TTL.
func WithFallbackTTL(ttl time.Duration) Option {
	return func(s *Service) { s.fallbackTTL = ttl }
}

// NewService creates a Service trying providers in order
func NewService(providers []Provider, fallback float64, ttl time.Duration, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		providers:   providers,
		fallback:    fallback,
		ttl:         ttl,
		fallbackTTL: ttl,
		clock:       systemClock{},
		logger:      log.WithField("service", "currency"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallbackTTL <= 0 || s.fallbackTTL > ttl {
		s.fallbackTTL = ttl
	}
	return s
}

// GetExchangeRate returns the USD→KRW rate. It cannot fail.
func (s *Service) GetExchangeRate(ctx context.Context) float64 {
	return s.Get(ctx).USDToKRW
}

// Get returns the cached rate, refreshing it once the TTL has elapsed
func (s *Service) Get(ctx context.Context) Rate {
	if e := s.current.Load(); e != nil && s.clock.Now().Before(e.expiresAt) {
		return e.rate
	}

	v, _, _ := s.sf.Do("USD:KRW", func() (interface{}, error) {
		// Another caller may have refreshed while we queued
		if e := s.current.Load(); e != nil && s.clock.Now().Before(e.expiresAt) {
			return e.rate, nil
		}

		// The refresh is shared by every waiter; one caller's cancel must not poison it.
		e := s.refresh(context.WithoutCancel(ctx))
		s.current.Store(e)
		return e.rate, nil
	})

	return v.(Rate)
}

// Refresh asks the providers for a new rate ahead of expiry, skipping the
// shared cache. A live cached rate still inside its TTL is kept when every
// provider fails; ErrRefreshFailed is returned with the rate being served.
func (s *Service) Refresh(ctx context.Context) (Rate, error) {
	v, _, _ := s.sf.Do("USD:KRW:refresh", func() (interface{}, error) {
		now := s.clock.Now()
		fresh := s.fetch(context.WithoutCancel(ctx), now)

		if fresh.rate.Fallback {
			if cur := s.current.Load(); cur != nil && !cur.rate.Fallback && now.Before(cur.expiresAt) {
				s.logger.WithField("rate", cur.rate.USDToKRW).Warn("Rate refresh failed, keeping cached rate")
				return refreshResult{rate: cur.rate, failed: true}, nil
			}
		}

		s.current.Store(fresh)
		return refreshResult{rate: fresh.rate, failed: fresh.rate.Fallback}, nil
	})

	res := v.(refreshResult)
	if res.failed {
		return res.rate, ErrRefreshFailed
	}
	return res.rate, nil
}

type refreshResult struct {
	rate   Rate
	failed bool
}

// refresh serves a live shared-cache value when there is one, else fetches
func (s *Service) refresh(ctx context.Context) *entry {
	now := s.clock.Now()

	if s.shared != nil {
		var cached Rate
		found, err := s.shared.Get(ctx, redis.ExchangeRateKey("USD", "KRW"), &cached)
		if err != nil {
			s.logger.WithError(err).Warn("Shared rate cache read failed")
		}
		if found && cached.USDToKRW > 0 && !cached.Fallback {
			if exp := cached.FetchedAt.Add(s.ttl); now.Before(exp) {
				s.logger.WithField("rate", cached.USDToKRW).Debug("Rate served from shared cache")
				return &entry{rate: cached, expiresAt: exp}
			}
		}
	}

	return s.fetch(ctx, now)
}

// fetch tries the providers in order and falls back to the constant
func (s *Service) fetch(ctx context.Context, now time.Time) *entry {
	key := redis.ExchangeRateKey("USD", "KRW")

	for _, p := range s.providers {
		value, err := p.FetchUSDKRW(ctx)
		if err != nil || value <= 0 {
			s.logger.WithFields(map[string]interface{}{
				"source": p.Name(),
				"error":  errString(err),
			}).Warn("Rate source failed")
			continue
		}

		rate := Rate{USDToKRW: value, Source: p.Name(), FetchedAt: now}
		if s.shared != nil {
			if err := s.shared.Set(ctx, key, rate, s.ttl); err != nil {
				s.logger.WithError(err).Warn("Shared rate cache write failed")
			}
		}

		s.logger.WithFields(map[string]interface{}{
			"rate":   value,
			"source": p.Name(),
		}).Info("Exchange rate refreshed")

		return &entry{rate: rate, expiresAt: now.Add(s.ttl)}
	}

	s.logger.WithField("rate", s.fallback).Warn("Using fallback exchange rate")

	return &entry{
		rate:      Rate{USDToKRW: s.fallback, Source: SourceFallback, FetchedAt: now, Fallback: true},
		expiresAt: now.Add(s.fallbackTTL),
	}
}

func errString(err error) string {
	if err == nil {
		return "non-positive rate"
	}
	return err.Error()
}
