package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"SignalSentinel/internal/broker"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/signal"
	"SignalSentinel/internal/trader"
)

type signalResponse struct {
	Ticker    string       `json:"ticker"`
	Signal    model.Signal `json:"signal"`
	Price     float64      `json:"price"`
	MA10      float64      `json:"ma10"`
	MA30      float64      `json:"ma30"`
	RSI       float64      `json:"rsi"`
	Cached    bool         `json:"cached"`
	Origin    model.Origin `json:"origin"`
	Timestamp time.Time    `json:"timestamp"`
}

func newSignalResponse(r model.SignalRecord) signalResponse {
	return signalResponse{
		Ticker:    r.Ticker,
		Signal:    r.Signal,
		Price:     r.Price,
		MA10:      r.MA10,
		MA30:      r.MA30,
		RSI:       r.RSI,
		Cached:    r.Origin != model.OriginFresh,
		Origin:    r.Origin,
		Timestamp: r.ComputedAt,
	}
}

type orderResponse struct {
	OrderID  string  `json:"order_id"`
	Ticker   string  `json:"ticker"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
}

func (h *handler) index(c *gin.Context) {
	c.String(http.StatusOK, "SignalSentinel %s is running. Try /api/signal?ticker=%s", h.Version, h.DefaultTicker)
}

func (h *handler) health(c *gin.Context) {
	entries := 0
	if h.Cache != nil {
		entries = h.Cache.Len()
	}
	active := false
	if h.Trading != nil {
		active = h.Trading.Status().Active
	}
	brokerName := "none"
	if h.Orders != nil && h.Orders.Configured() {
		brokerName = h.Orders.BrokerName()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"cache_entries":  entries,
		"trading_active": active,
		"broker":         brokerName,
		"ledger":         h.Ledger.Name(),
	})
}

func (h *handler) signalByQuery(c *gin.Context) {
	h.resolve(c, c.DefaultQuery("ticker", h.DefaultTicker))
}

func (h *handler) signalByPath(c *gin.Context) {
	h.resolve(c, c.Param("ticker"))
}

func (h *handler) resolve(c *gin.Context, raw string) {
	if raw == "" {
		raw = h.DefaultTicker
	}
	rec, err := h.Signals.Resolve(c.Request.Context(), raw)
	if err != nil {
		ticker := model.NormalizeTicker(raw)
		if errors.Is(err, signal.ErrNoDataAvailable) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No data - try again", "ticker": ticker})
			return
		}
		h.log.Error().Err(err).Str("ticker", ticker).Msg("resolve failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "ticker": ticker})
		return
	}
	c.JSON(http.StatusOK, newSignalResponse(rec))
}

// cachedSignals lists every cached record without touching the provider.
func (h *handler) cachedSignals(c *gin.Context) {
	out := []signalResponse{}
	if h.Cache != nil {
		for _, rec := range h.Cache.Snapshot() {
			out = append(out, newSignalResponse(rec.WithOrigin(model.OriginCached)))
		}
	}
	c.JSON(http.StatusOK, gin.H{"signals": out, "count": len(out)})
}

func (h *handler) tradingReady(c *gin.Context) bool {
	if h.Trading == nil || h.Orders == nil || !h.Orders.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": broker.ErrNotConfigured.Error()})
		return false
	}
	return true
}

func (h *handler) startTrading(c *gin.Context) {
	if !h.tradingReady(c) {
		return
	}
	var body struct {
		Symbols []string `json:"symbols"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	st, err := h.Trading.Start(body.Symbols...)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handler) stopTrading(c *gin.Context) {
	if !h.tradingReady(c) {
		return
	}
	c.JSON(http.StatusOK, h.Trading.Stop())
}

func (h *handler) tradingStatus(c *gin.Context) {
	if !h.tradingReady(c) {
		return
	}
	c.JSON(http.StatusOK, h.Trading.Status())
}

func (h *handler) buy(c *gin.Context) {
	if !h.tradingReady(c) {
		return
	}
	var body struct {
		Ticker string  `json:"ticker" binding:"required"`
		Amount float64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tr, err := h.Orders.Buy(c.Request.Context(), body.Ticker, body.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(tr))
}

func (h *handler) sell(c *gin.Context) {
	if !h.tradingReady(c) {
		return
	}
	var body struct {
		Ticker string `json:"ticker" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tr, err := h.Orders.Sell(c.Request.Context(), body.Ticker)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(tr))
}

func (h *handler) trades(c *gin.Context) {
	limit := recorder.DefaultRecent
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	trades, err := h.Ledger.RecentTrades(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

func newOrderResponse(t model.Trade) orderResponse {
	return orderResponse{
		OrderID:  t.OrderID,
		Ticker:   t.Ticker,
		Side:     string(t.Side),
		Quantity: t.Quantity,
		Price:    t.Price,
		Total:    t.Total,
	}
}

// writeError maps domain errors onto status codes.
func (h *handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, trader.ErrInvalidAmount), errors.Is(err, trader.ErrInvalidTicker):
		status = http.StatusBadRequest
	case errors.Is(err, trader.ErrNoPosition):
		status = http.StatusNotFound
	case errors.Is(err, broker.ErrOrderFailed):
		status = http.StatusBadGateway
	case errors.Is(err, broker.ErrNotConfigured), errors.Is(err, recorder.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
