package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/signal"
	"SignalSentinel/internal/strategy"
	"SignalSentinel/internal/trader"
)

// Sender delivers notifications.
type Sender interface {
	Enabled() bool
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// LoopController is the part of the trading loop reachable from chat commands.
type LoopController interface {
	Start(symbols ...string) (trader.Status, error)
	Stop() trader.Status
	Status() trader.Status
}

// Scheduler manages all cron tasks and chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Signals   signal.Resolver
	Loop      LoopController
	Notifier  Sender
	Watchlist []string
	Ctx       context.Context
	log       zerolog.Logger
}

// NewScheduler creates a new Scheduler. loop may be nil when no broker is configured.
func NewScheduler(ctx context.Context, signals signal.Resolver, loop LoopController, n Sender, watchlist []string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		Signals:   signals,
		Loop:      loop,
		Notifier:  n,
		Watchlist: watchlist,
		Ctx:       ctx,
		log:       logger.Component(log, "scheduler"),
	}
}

// RegisterAll registers the cache warm-up and the digest. An empty spec skips that job.
func (s *Scheduler) RegisterAll(warmCron, digestCron string) error {
	if warmCron != "" {
		if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
			return fmt.Errorf("register warm task: %w", err)
		}
	}
	if digestCron != "" {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunWarmNow resolves the watchlist immediately.
func (s *Scheduler) RunWarmNow() {
	s.warmTask()
}

func (s *Scheduler) warmTask() {
	start := time.Now()
	warmed := 0
	for _, t := range s.Watchlist {
		if s.Ctx.Err() != nil {
			return
		}
		if _, err := s.Signals.Resolve(s.Ctx, t); err != nil {
			s.log.Warn().Err(err).Str("ticker", t).Msg("warm-up failed")
			continue
		}
		warmed++
	}
	s.log.Info().Int("warmed", warmed).Int("watchlist", len(s.Watchlist)).Dur("took", time.Since(start)).Msg("cache warmed")
}

func (s *Scheduler) digestTask() {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		return
	}
	s.trySend(s.digest())
}

func (s *Scheduler) digest() string {
	lines := make([]notifier.DigestLine, 0, len(s.Watchlist))
	for _, t := range s.Watchlist {
		rec, err := s.Signals.Resolve(s.Ctx, t)
		lines = append(lines, notifier.DigestLine{Ticker: t, Record: rec, Err: err})
	}
	msg := notifier.FormatDigest(lines, time.Now())
	if s.Loop != nil {
		st := s.Loop.Status()
		msg += "\n" + notifier.FormatStatus(st.Active, st.Symbols, st.LastCheck, st.Broker)
	}
	return msg
}

const helpText = "Commands:\n• /signal TICKER\n• /digest\n• /status\n• /start [TICKER ...]\n• /stop"

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Telegram appends @botname in groups.
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch name {
	case "/signal":
		if len(args) == 0 {
			return "Usage: /signal TICKER"
		}
		rec, err := s.Signals.Resolve(ctx, args[0])
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatSignal(rec, strategy.Explain(rec.Indicators()))
	case "/digest":
		return s.digest()
	case "/status":
		if s.Loop == nil {
			return notifier.FormatStatus(false, nil, time.Time{}, "")
		}
		st := s.Loop.Status()
		return notifier.FormatStatus(st.Active, st.Symbols, st.LastCheck, st.Broker)
	case "/start":
		if s.Loop == nil {
			return "❌ broker not configured"
		}
		st, err := s.Loop.Start(args...)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatStatus(st.Active, st.Symbols, st.LastCheck, st.Broker)
	case "/stop":
		if s.Loop == nil {
			return "❌ broker not configured"
		}
		st := s.Loop.Stop()
		return notifier.FormatStatus(st.Active, st.Symbols, st.LastCheck, st.Broker)
	default:
		return helpText
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
