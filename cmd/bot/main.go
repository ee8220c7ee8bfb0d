package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/api"
	"SignalSentinel/internal/broker"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
	sig "SignalSentinel/internal/signal"
	"SignalSentinel/internal/trace"
	"SignalSentinel/internal/trader"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("version", version).Str("config", cfgPath).Msg("SignalSentinel starting")

	if err := trace.Init(cfg.Log.Tracing, version); err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := newFetcher(cfg)
	log.Info().Str("provider", fetcher.Name()).Msg("market data source")

	cache := sig.NewCache(cfg.Signal.CacheTTL, nil)
	signals := sig.NewService(fetcher, cache, log,
		sig.WithAttempts(cfg.Signal.Attempts),
		sig.WithHistoryDays(cfg.Signal.HistoryDays),
		sig.WithAttemptTimeout(cfg.Signal.FetchTimeout),
	)

	brk, err := newBroker(cfg, fetcher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init broker")
	}

	ledger := newLedger(cfg, log)
	defer ledger.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)

	orders := trader.NewOrders(brk, ledger, log)
	if tn.Enabled() {
		orders.OnTrade(func(t model.Trade) {
			go func() {
				if err := tn.SendWithRetry(ctx, notifier.FormatTrade(t), 3); err != nil {
					log.Error().Err(err).Str("order_id", t.OrderID).Msg("trade notification")
				}
			}()
		})
	}
	loop := trader.NewLoop(signals, orders, log,
		trader.WithInterval(cfg.Trading.Interval),
		trader.WithBackoff(cfg.Trading.Backoff),
		trader.WithNotional(cfg.Trading.Notional),
		trader.WithDefaultSymbols(cfg.Trading.Symbols...),
	)
	defer loop.Stop()

	var control scheduler.LoopController
	if orders.Configured() {
		control = loop
	}
	sched := scheduler.NewScheduler(ctx, signals, control, tn, cfg.Trading.Symbols, log)
	if err := sched.RegisterAll(cfg.Schedule.WarmCron, cfg.Schedule.DigestCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()
	go sched.RunWarmNow()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if cfg.Trading.Autostart && orders.Configured() {
		if _, err := loop.Start(); err != nil {
			log.Error().Err(err).Msg("autostart trading loop")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Deps{
		Signals:       signals,
		Cache:         cache,
		Trading:       loop,
		Orders:        orders,
		Ledger:        ledger,
		DefaultTicker: cfg.Server.DefaultTicker,
		Version:       version,
	}, log)
	srv := api.NewServer(":"+cfg.Server.Port, router)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("trace shutdown")
	}
	log.Info().Msg("SignalSentinel stopped")
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "rest":
		return collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Price: 100}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

// newBroker returns nil without error when trading is not configured.
func newBroker(cfg *config.Config, fetcher collector.Fetcher, log zerolog.Logger) (broker.Broker, error) {
	switch cfg.Broker.Mode {
	case config.BrokerDryRun:
		log.Info().Msg("broker: paper (dry run)")
		return broker.Observe(broker.NewPaper(fetcher, cfg.Broker.Precision), log), nil
	case config.BrokerLive:
		k, err := broker.NewKite(broker.KiteParams{
			APIKey:      cfg.Broker.APIKey,
			AccessToken: cfg.Broker.AccessToken,
			Exchange:    cfg.Broker.Exchange,
		})
		if err != nil {
			return nil, err
		}
		log.Warn().Str("exchange", cfg.Broker.Exchange).Msg("broker: kite LIVE, real orders will be placed")
		return broker.Observe(k, log), nil
	}
	log.Info().Msg("broker: none, trading endpoints disabled")
	return nil, nil
}

func newLedger(cfg *config.Config, log zerolog.Logger) recorder.Ledger {
	if cfg.Database.RedisURL != "" {
		l, err := recorder.NewRedisLedger(cfg.Database.RedisURL, cfg.Database.RedisStream, log)
		if err == nil {
			return l
		}
		log.Warn().Err(err).Msg("init redis ledger failed")
	}
	if cfg.Database.SQLitePath != "" {
		l, err := recorder.NewSQLiteLedger(cfg.Database.SQLitePath, log)
		if err == nil {
			return l
		}
		log.Warn().Err(err).Msg("init sqlite ledger failed, using noop")
	}
	return recorder.NewNoopLedger()
}
