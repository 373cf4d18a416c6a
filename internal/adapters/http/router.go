package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/webhook"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voice-gateway/internal/adapters/feed"
	"github.com/dkeye/voice-gateway/internal/adapters/lk"
	"github.com/dkeye/voice-gateway/internal/app/orch"
	"github.com/dkeye/voice-gateway/internal/config"
	"github.com/dkeye/voice-gateway/internal/domain"
)

// WebhookHandler verifies and decodes LiveKit webhook deliveries before
// handing them to the orchestrator. The core is never invoked with an
// unverified event.
type WebhookHandler struct {
	keys auth.KeyProvider
	orch *orch.Orchestrator
}

func NewWebhookHandler(apiKey, apiSecret string, o *orch.Orchestrator) *WebhookHandler {
	return &WebhookHandler{
		keys: auth.NewSimpleKeyProvider(apiKey, apiSecret),
		orch: o,
	}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	ev, err := webhook.ReceiveWebhookEvent(c.Request, h.keys)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("rejected webhook delivery")
		c.String(http.StatusUnauthorized, "invalid")
		return
	}

	le := lk.DecodeEvent(ev)
	if le.CallID == "" {
		// Accepted, but nothing for us: acknowledge without side effects.
		c.String(http.StatusOK, "ignored")
		return
	}

	h.orch.HandleEvent(c.Request.Context(), le)
	c.String(http.StatusOK, "ok")
}

func SetupRouter(cfg *config.Config, o *orch.Orchestrator, hub *feed.Hub, wh *WebhookHandler) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.POST("/livekit/webhook", wh.Handle)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/calls", func(c *gin.Context) {
		c.JSON(http.StatusOK, o.Snapshot())
	})

	api.POST("/calls/:id/handoff/request", func(c *gin.Context) {
		id := domain.CallID(c.Param("id"))
		if !o.RequestHandoff(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown call"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "requested"})
	})

	api.POST("/calls/:id/handoff/complete", func(c *gin.Context) {
		id := domain.CallID(c.Param("id"))
		if !o.CompleteHandoff(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown call"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "completed"})
	})

	api.GET("/feed", hub.Handle)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
