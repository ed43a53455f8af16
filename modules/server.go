package modules

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/CapsLock-Studio/sniper-dashboard/strategy"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	STORE_TIMEOUT time.Duration = 5 * time.Second
	XLSX_MIME     string        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Http struct {
	Editor    *Editor
	Dashboard *Dashboard
	Market    MarketDataClient
	Logger    *logrus.Entry
}

func NewHttp(editor *Editor, dashboard *Dashboard, market MarketDataClient) *Http {
	return &Http{
		Editor:    editor,
		Dashboard: dashboard,
		Market:    market,
		Logger:    logrus.WithField("module", "http"),
	}
}

type entryView struct {
	models.ConfigEntry
	Kind      string             `json:"kind"`
	Namespace strategy.Namespace `json:"namespace"`
	InEffect  bool               `json:"inEffect"`
}

// view never carries secret values; GET /config is readable without X-USER.
func view(selection strategy.Selection, entries []models.ConfigEntry) []entryView {
	return lo.Map(entries, func(e models.ConfigEntry, _ int) entryView {
		if IsSecretKey(e.Key) {
			e.Value = SECRET_MASK
		}

		return entryView{
			ConfigEntry: e,
			Kind:        strategy.Classify(e.Key).String(),
			Namespace:   strategy.KeyNamespace(e.Key),
			InEffect:    selection.InEffect(e.Key),
		}
	})
}

func logger(ctx *gin.Context) *logrus.Entry {
	if entry, ok := ctx.Get("logger"); ok {
		return entry.(*logrus.Entry)
	}

	return logrus.NewEntry(logrus.StandardLogger())
}

func storeContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), STORE_TIMEOUT)
}

// fail maps an error onto a response. Rejected values and store failures
// get different statuses so they can't be mistaken for each other.
func fail(ctx *gin.Context, err error) {
	var (
		validation *strategy.ValidationError
		store      *StoreError
	)

	switch {
	case errors.As(err, &validation):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validation.Reason,
			"rule":  validation.Rule,
			"key":   validation.Key,
			"field": validation.Field,
		})
	case errors.As(err, &store):
		logger(ctx).WithError(err).Error("store failure")
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "could not " + store.Op})
	case errors.Is(err, ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnknownTable), errors.Is(err, ErrNotDeletable), errors.Is(err, ErrNotList), errors.Is(err, ErrLevelIndex):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger(ctx).WithError(err).Error("request failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Http) Router() *gin.Engine {
	route := gin.New()
	route.Use(gin.Recovery())

	route.Use(func(ctx *gin.Context) {
		requestID := ctx.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx.Header("X-Request-ID", requestID)
		ctx.Set("logger", h.Logger.
			WithField("request_id", requestID).
			WithField("method", ctx.Request.Method).
			WithField("path", ctx.FullPath()))

		ctx.Next()
	})

	// every edit is attributed to an operator
	route.Use(func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodGet {
			return
		}

		userID := ctx.GetHeader("X-USER")

		if userID == "" {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Set("user_id", userID)
		ctx.Set("logger", logger(ctx).WithField("operator", userID))
	})

	route.GET("/healthz", func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "text/plain", []byte("OK"))
	})

	route.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.configRoutes(route)
	h.dashboardRoutes(route)

	return route
}

func (h *Http) configRoutes(route *gin.Engine) {
	route.GET("/config", func(ctx *gin.Context) {
		c, cancel := storeContext(ctx)
		defer cancel()

		snapshot, err := h.Editor.Load(c)
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"activeStrategy": snapshot.Selection.Active,
			"configured":     snapshot.Selection.Configured,
			"bot":            view(snapshot.Selection, snapshot.Bot),
			"strategy":       view(snapshot.Selection, snapshot.Strategy),
			"wallets":        snapshot.Wallets,
			"whales":         snapshot.Whales,
		})
	})

	route.PUT("/config/:table/:key", func(ctx *gin.Context) {
		var body struct {
			Value *string `json:"value"`
		}

		if err := ctx.ShouldBindJSON(&body); err != nil || body.Value == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
			return
		}

		c, cancel := storeContext(ctx)
		defer cancel()

		table, key := models.Table(ctx.Param("table")), ctx.Param("key")

		value, err := h.Editor.Commit(c, table, key, *body.Value)
		if err != nil {
			fail(ctx, err)
			return
		}

		logger(ctx).WithField("key", key).Info("committed")
		ctx.JSON(http.StatusOK, models.ConfigEntry{Key: key, Value: value})
	})

	route.PATCH("/config/:table/:key", func(ctx *gin.Context) {
		var body struct {
			Description *string `json:"description"`
		}

		if err := ctx.ShouldBindJSON(&body); err != nil || body.Description == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
			return
		}

		c, cancel := storeContext(ctx)
		defer cancel()

		if err := h.Editor.Describe(c, models.Table(ctx.Param("table")), ctx.Param("key"), *body.Description); err != nil {
			fail(ctx, err)
			return
		}

		ctx.Status(http.StatusNoContent)
	})

	route.DELETE("/config/:table/:key", func(ctx *gin.Context) {
		if models.Table(ctx.Param("table")) != models.TableStrategyConfig {
			fail(ctx, ErrNotDeletable)
			return
		}

		c, cancel := storeContext(ctx)
		defer cancel()

		if err := h.Editor.DeleteWallet(c, ctx.Param("key")); err != nil {
			fail(ctx, err)
			return
		}

		ctx.Status(http.StatusNoContent)
	})

	route.POST("/wallets", func(ctx *gin.Context) {
		var body struct {
			Address string `json:"address" binding:"required"`
		}

		if ctx.ShouldBindJSON(&body) != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
			return
		}

		c, cancel := storeContext(ctx)
		defer cancel()

		key, err := h.Editor.AddWallet(c, body.Address)
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusCreated, gin.H{"key": key})
	})

	route.POST("/levels/:key", func(ctx *gin.Context) {
		c, cancel := storeContext(ctx)
		defer cancel()

		levels, err := h.Editor.AddLevel(c, ctx.Param("key"))
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, levels)
	})

	route.PUT("/levels/:key/:index", func(ctx *gin.Context) {
		var body struct {
			Field string `json:"field" binding:"required"`
			Value string `json:"value"`
		}

		index, err := strconv.Atoi(ctx.Param("index"))
		if err != nil || ctx.ShouldBindJSON(&body) != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "field and a numeric index are required"})
			return
		}

		c, cancel := storeContext(ctx)
		defer cancel()

		levels, err := h.Editor.EditLevel(c, ctx.Param("key"), index, body.Field, body.Value)
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, levels)
	})

	route.DELETE("/levels/:key/:index", func(ctx *gin.Context) {
		index, err := strconv.Atoi(ctx.Param("index"))
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "numeric index is required"})
			return
		}

		c, cancel := storeContext(ctx)
		defer cancel()

		levels, err := h.Editor.RemoveLevel(c, ctx.Param("key"), index)
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, levels)
	})

	route.POST("/whales", func(ctx *gin.Context) {
		var body struct {
			Address string `json:"address" binding:"required"`
		}

		if ctx.ShouldBindJSON(&body) != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
			return
		}

		c, cancel := storeContext(ctx)
		defer cancel()

		if err := h.Editor.AddWhale(c, body.Address); err != nil {
			fail(ctx, err)
			return
		}

		ctx.Status(http.StatusCreated)
	})

	route.PUT("/whales/:address", func(ctx *gin.Context) {
		var body struct {
			Active *bool `json:"active"`
		}

		if err := ctx.ShouldBindJSON(&body); err != nil || body.Active == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "active is required"})
			return
		}

		c, cancel := storeContext(ctx)
		defer cancel()

		if err := h.Editor.ToggleWhale(c, ctx.Param("address"), *body.Active); err != nil {
			fail(ctx, err)
			return
		}

		ctx.Status(http.StatusNoContent)
	})

	route.DELETE("/whales/:address", func(ctx *gin.Context) {
		c, cancel := storeContext(ctx)
		defer cancel()

		if err := h.Editor.DeleteWhale(c, ctx.Param("address")); err != nil {
			fail(ctx, err)
			return
		}

		ctx.Status(http.StatusNoContent)
	})
}

func (h *Http) dashboardRoutes(route *gin.Engine) {
	route.GET("/heartbeat", func(ctx *gin.Context) {
		heartbeat, err := h.Dashboard.Heartbeat(ctx.Request.Context())
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, heartbeat)
	})

	route.GET("/tokens", func(ctx *gin.Context) {
		tokens, err := h.Dashboard.TrackedTokens(ctx.Request.Context())
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, tokens)
	})

	route.GET("/trades", func(ctx *gin.Context) {
		trades, err := h.Dashboard.Trades(ctx.Request.Context())
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, trades)
	})

	route.GET("/trades/export", func(ctx *gin.Context) {
		trades, err := h.Dashboard.Trades(ctx.Request.Context())
		if err != nil {
			fail(ctx, err)
			return
		}

		buffer, err := ExportTrades(trades)
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.Header("Content-Disposition", `attachment; filename="trades.xlsx"`)
		ctx.Data(http.StatusOK, XLSX_MIME, buffer.Bytes())
	})

	route.GET("/logs", func(ctx *gin.Context) {
		logs, err := h.Dashboard.Logs(ctx.Request.Context(), ctx.Query("q"))
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, logs)
	})

	route.GET("/ever-bought", func(ctx *gin.Context) {
		tokens, err := h.Dashboard.EverBought(ctx.Request.Context())
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, tokens)
	})

	route.GET("/insights/:mint", func(ctx *gin.Context) {
		insight, err := h.Dashboard.Insights(ctx.Request.Context(), ctx.Param("mint"))
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, insight)
	})

	route.GET("/history/:mint", func(ctx *gin.Context) {
		points, err := h.Dashboard.PriceHistory(ctx.Request.Context(), ctx.Param("mint"))
		if err != nil {
			fail(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, points)
	})

	route.GET("/ohlcv/:pair", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, h.Market.OHLCV(ctx.Param("pair")))
	})

	route.GET("/sol-price", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"usd": h.Market.SolPrice()})
	})
}

func (h *Http) Serve(listen string) error {
	h.Logger.WithField("listen", listen).Info("serving dashboard api")

	return h.Router().Run(listen)
}
