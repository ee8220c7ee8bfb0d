package trader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/broker"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/signal"
)

const (
	DefaultInterval = 300 * time.Second
	DefaultBackoff  = 60 * time.Second
	DefaultNotional = 1000.0
)

// Status is a snapshot of the loop state.
type Status struct {
	Active    bool      `json:"active"`
	Symbols   []string  `json:"symbols"`
	LastCheck time.Time `json:"last_check"`
	Broker    string    `json:"broker"`
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithInterval sets the pause between successful cycles.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithBackoff sets the pause after a failed cycle.
func WithBackoff(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.backoff = d
		}
	}
}

// WithNotional sets the quote-currency amount spent per BUY.
func WithNotional(amount float64) LoopOption {
	return func(l *Loop) {
		if amount > 0 {
			l.notional = amount
		}
	}
}

// WithDefaultSymbols sets the watchlist used when Start gets none.
func WithDefaultSymbols(symbols ...string) LoopOption {
	return func(l *Loop) { l.defaults = normalizeAll(symbols) }
}

// Loop periodically resolves a watchlist and trades on BUY/SELL signals.
// At most one cycle goroutine runs at a time.
type Loop struct {
	signals  signal.Resolver
	orders   *Orders
	interval time.Duration
	backoff  time.Duration
	notional float64
	defaults []string
	log      zerolog.Logger

	// ctl serializes Start and Stop so a new run never overlaps one that is
	// still winding down.
	ctl sync.Mutex

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	symbols   []string
	lastCheck time.Time
}

// NewLoop creates an inactive loop.
func NewLoop(signals signal.Resolver, orders *Orders, log zerolog.Logger, opts ...LoopOption) *Loop {
	l := &Loop{
		signals:  signals,
		orders:   orders,
		interval: DefaultInterval,
		backoff:  DefaultBackoff,
		notional: DefaultNotional,
		defaults: []string{"BTC-USD"},
		log:      logger.Component(log, "loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start activates the loop for symbols (or the default watchlist). Starting
// an active loop changes nothing and returns its status.
func (l *Loop) Start(symbols ...string) (Status, error) {
	if !l.orders.Configured() {
		return l.Status(), broker.ErrNotConfigured
	}

	l.ctl.Lock()
	defer l.ctl.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return l.statusLocked(), nil
	}

	watch := normalizeAll(symbols)
	if len(watch) == 0 {
		watch = l.defaults
	}
	if len(watch) == 0 {
		return l.statusLocked(), fmt.Errorf("%w: empty watchlist", ErrInvalidTicker)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.symbols = watch
	metrics.LoopActive.Set(1)
	l.log.Info().Strs("symbols", watch).Str("broker", l.orders.BrokerName()).
		Dur("interval", l.interval).Msg("trading loop started")

	go l.run(ctx, watch, l.done)
	return l.statusLocked(), nil
}

// Stop deactivates the loop and waits for the running cycle to exit. The
// loop reports active until that goroutine is gone.
func (l *Loop) Stop() Status {
	l.ctl.Lock()
	defer l.ctl.Unlock()

	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if cancel == nil {
		return l.Status()
	}

	cancel()
	<-done

	l.mu.Lock()
	l.cancel, l.done = nil, nil
	st := l.statusLocked()
	l.mu.Unlock()
	metrics.LoopActive.Set(0)
	l.log.Info().Msg("trading loop stopped")
	return st
}

// Status returns the current loop state.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statusLocked()
}

func (l *Loop) statusLocked() Status {
	return Status{
		Active:    l.cancel != nil,
		Symbols:   append([]string(nil), l.symbols...),
		LastCheck: l.lastCheck,
		Broker:    l.orders.BrokerName(),
	}
}

func (l *Loop) run(ctx context.Context, symbols []string, done chan struct{}) {
	defer close(done)
	for {
		wait := l.interval
		if err := l.cycle(ctx, symbols); err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.LoopCycles.WithLabelValues("error").Inc()
			l.log.Error().Err(err).Dur("retry_in", l.backoff).Msg("trading cycle failed")
			wait = l.backoff
		} else {
			metrics.LoopCycles.WithLabelValues("ok").Inc()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// cycle runs one pass over the watchlist. Every symbol is attempted; the first
// error is returned.
func (l *Loop) cycle(ctx context.Context, symbols []string) error {
	var firstErr error
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := l.act(ctx, sym); err != nil {
			l.log.Warn().Err(err).Str("ticker", sym).Msg("symbol skipped")
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", sym, err)
			}
		}
	}

	l.mu.Lock()
	l.lastCheck = time.Now()
	l.mu.Unlock()
	return firstErr
}

func (l *Loop) act(ctx context.Context, symbol string) error {
	rec, err := l.signals.Resolve(ctx, symbol)
	if err != nil {
		return err
	}
	l.log.Debug().Str("ticker", symbol).Str("signal", string(rec.Signal)).Str("origin", string(rec.Origin)).Msg("checked")

	switch rec.Signal {
	case model.SignalBuy:
		pos, err := l.orders.Position(ctx, symbol)
		if err != nil {
			return err
		}
		if pos != nil {
			return nil
		}
		_, err = l.orders.buy(ctx, symbol, l.notional, SourceLoop, &rec)
		return err
	case model.SignalSell:
		pos, err := l.orders.Position(ctx, symbol)
		if err != nil {
			return err
		}
		if pos == nil {
			return nil
		}
		_, err = l.orders.sell(ctx, symbol, SourceLoop, &rec)
		return err
	}
	return nil
}

func normalizeAll(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		n := model.NormalizeTicker(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
