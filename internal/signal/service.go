// Package signal resolves tickers to BUY/SELL/HOLD records: live derivation
// with bounded retries, degrading to a stale cache entry and then to a static
// reference table.
package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
	"SignalSentinel/internal/trace"
)

const (
	DefaultAttempts       = 3
	DefaultHistoryDays    = 365
	DefaultAttemptTimeout = 20 * time.Second

	// MinHistoryDays is the shortest calendar window requested from the
	// provider. Sixty days of weekdays and holidays still leaves room for
	// the 30 closes the slow average needs.
	MinHistoryDays = 60
)

// Resolver is what request handlers and the trading loop depend on.
type Resolver interface {
	Resolve(ctx context.Context, rawTicker string) (model.SignalRecord, error)
}

// Service orchestrates cache, provider, indicator engine, classifier and fallback.
type Service struct {
	fetcher        collector.Fetcher
	cache          *Cache
	fallback       map[string]FallbackEntry
	attempts       int
	historyDays    int
	attemptTimeout time.Duration
	now            func() time.Time
	log            zerolog.Logger
}

var _ Resolver = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithAttempts sets how many provider calls are made before degrading.
func WithAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithHistoryDays sets the requested window of daily closes.
func WithHistoryDays(days int) Option {
	return func(s *Service) {
		if days >= MinHistoryDays {
			s.historyDays = days
		}
	}
}

// WithAttemptTimeout bounds each provider call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.attemptTimeout = d
		}
	}
}

// WithFallback replaces the static reference table.
func WithFallback(table map[string]FallbackEntry) Option {
	return func(s *Service) { s.fallback = table }
}

// WithClock sets the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service reading from fetcher and writing to cache.
func NewService(fetcher collector.Fetcher, cache *Cache, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		fetcher:        fetcher,
		cache:          cache,
		fallback:       DefaultFallback,
		attempts:       DefaultAttempts,
		historyDays:    DefaultHistoryDays,
		attemptTimeout: DefaultAttemptTimeout,
		now:            time.Now,
		log:            logger.Component(log, "signal"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the cache the service writes to.
func (s *Service) Cache() *Cache { return s.cache }

// Resolve returns the signal for rawTicker. A fresh cache hit is returned
// without any provider call. Otherwise the provider is tried up to the
// attempt limit; on exhaustion the last cached record (any age) wins over the
// fallback table. Fallback answers are cached like live ones. An error
// matching ErrNoDataAvailable is returned when nothing is known. A caller
// that goes away mid-resolution gets its context error back and nothing is
// degraded or cached on its behalf.
func (s *Service) Resolve(ctx context.Context, rawTicker string) (rec model.SignalRecord, err error) {
	ticker := model.NormalizeTicker(rawTicker)

	ctx, span := trace.StartSpan(ctx, "signal.Resolve", attribute.String("ticker", ticker))
	defer func() {
		span.SetAttributes(attribute.String("origin", string(rec.Origin)))
		trace.End(span, err)
	}()

	if ticker == "" {
		metrics.SignalFailures.Inc()
		return model.SignalRecord{}, &NoDataError{Ticker: rawTicker}
	}

	if cached, ok := s.cache.GetIfFresh(ticker); ok {
		metrics.SignalResolutions.WithLabelValues(string(model.OriginCached)).Inc()
		s.log.Debug().Str("ticker", ticker).Msg("using cache")
		return cached.WithOrigin(model.OriginCached), nil
	}

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		fresh, err := s.derive(ctx, ticker)
		if err == nil {
			s.cache.Put(ticker, fresh)
			metrics.SignalResolutions.WithLabelValues(string(model.OriginFresh)).Inc()
			s.log.Info().Str("ticker", ticker).Str("signal", string(fresh.Signal)).
				Float64("price", fresh.Price).Float64("rsi", fresh.RSI).Int("attempt", attempt).
				Msg("signal computed")
			return fresh, nil
		}
		lastErr = err
		s.log.Warn().Err(err).Str("ticker", ticker).Int("attempt", attempt).Int("max", s.attempts).
			Msg("signal derivation failed")
		if ctx.Err() != nil {
			break
		}
	}

	if cerr := ctx.Err(); cerr != nil {
		s.log.Debug().Err(cerr).Str("ticker", ticker).Msg("caller gone, not degrading")
		return model.SignalRecord{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, cerr)
	}

	if stale, ok := s.cache.GetStale(ticker); ok {
		metrics.SignalResolutions.WithLabelValues(string(model.OriginCached)).Inc()
		s.log.Warn().Str("ticker", ticker).Time("computed_at", stale.ComputedAt).Msg("using stale cache")
		return stale.WithOrigin(model.OriginCached), nil
	}

	if entry, ok := s.fallback[ticker]; ok {
		fb := entry.record(ticker, s.now())
		s.cache.Put(ticker, fb)
		metrics.SignalResolutions.WithLabelValues(string(model.OriginFallback)).Inc()
		s.log.Warn().Str("ticker", ticker).Msg("using static fallback")
		return fb, nil
	}

	metrics.SignalFailures.Inc()
	return model.SignalRecord{}, &NoDataError{Ticker: ticker, Cause: lastErr}
}

// derive runs one provider attempt and the indicator pipeline.
func (s *Service) derive(ctx context.Context, ticker string) (model.SignalRecord, error) {
	actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	start := time.Now()
	bars, err := s.fetcher.FetchDailyBars(actx, ticker, s.historyDays)
	metrics.ProviderLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderAttempts.WithLabelValues("error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return model.SignalRecord{}, fmt.Errorf("%w: %s timed out after %s", ErrProviderUnavailable, s.fetcher.Name(), s.attemptTimeout)
		}
		return model.SignalRecord{}, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, s.fetcher.Name(), err)
	}

	series := model.PriceSeries{Symbol: ticker, Bars: bars, FetchedAt: start}
	if series.Len() < calculator.MinHistory {
		metrics.ProviderAttempts.WithLabelValues("insufficient").Inc()
		return model.SignalRecord{}, fmt.Errorf("%w: %s returned %d closes, need %d",
			ErrInsufficientHistory, s.fetcher.Name(), series.Len(), calculator.MinHistory)
	}
	metrics.ProviderAttempts.WithLabelValues("ok").Inc()

	ind := calculator.Compute(series.Closes())
	sig := strategy.Classify(ind)
	shown := calculator.Round(ind)

	return model.SignalRecord{
		Ticker:     ticker,
		Signal:     sig,
		Price:      shown.Price,
		MA10:       shown.MA10,
		MA30:       shown.MA30,
		RSI:        shown.RSI,
		ComputedAt: s.now(),
		Origin:     model.OriginFresh,
	}, nil
}
