// Package api exposes signals, trading controls and orders over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/signal"
	"SignalSentinel/internal/trader"
)

// Trading is the loop surface the API drives.
type Trading interface {
	Start(symbols ...string) (trader.Status, error)
	Stop() trader.Status
	Status() trader.Status
}

// OrderPlacer executes one-shot orders.
type OrderPlacer interface {
	Buy(ctx context.Context, ticker string, amount float64) (model.Trade, error)
	Sell(ctx context.Context, ticker string) (model.Trade, error)
	Configured() bool
	BrokerName() string
}

// Deps are the services behind the handlers. Cache and Ledger may be nil.
type Deps struct {
	Signals       signal.Resolver
	Cache         *signal.Cache
	Trading       Trading
	Orders        OrderPlacer
	Ledger        recorder.Ledger
	DefaultTicker string
	Version       string
}

type handler struct {
	Deps
	log zerolog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps, log zerolog.Logger) *gin.Engine {
	if d.Ledger == nil {
		d.Ledger = recorder.NewNoopLedger()
	}
	if d.DefaultTicker == "" {
		d.DefaultTicker = "BTC-USD"
	}
	h := &handler{Deps: d, log: logger.Component(log, "api")}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log), cors())

	r.GET("/", h.index)
	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/api/signal", h.signalByQuery)
	r.GET("/api/signals", h.cachedSignals)
	r.GET("/signal/:ticker", h.signalByPath)

	t := r.Group("/api/trading")
	t.POST("/start", h.startTrading)
	t.POST("/stop", h.stopTrading)
	t.GET("/status", h.tradingStatus)

	o := r.Group("/api/order")
	o.POST("/buy", h.buy)
	o.POST("/sell", h.sell)

	r.GET("/api/trades", h.trades)
	return r
}

// NewServer wraps the router in an http.Server listening on addr.
func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}

// cors allows any origin to read the API; preflight requests end here.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		} else if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/healthz" {
			ev = log.Debug()
		}
		ev.Str("method", c.Request.Method).Str("path", c.Request.URL.Path).
			Int("status", status).Dur("took", time.Since(start)).Str("client", c.ClientIP()).
			Msg("request")
	}
}
