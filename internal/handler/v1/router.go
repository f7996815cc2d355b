package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/codeblue/config"
	"github.com/dmehra2102/codeblue/pkg/auth"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

// NewRouter wires the HTTP surface: the open start endpoint, the
// token-guarded game routes, health, and metrics.
func NewRouter(cfg *config.Config, games *GameHandler, tokens *auth.Manager, m *metrics.Collector) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Metrics(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")
	{
		api.POST("/games", games.Start)

		guarded := api.Group("", SessionAuth(tokens))
		{
			guarded.GET("/games/state", games.State)
			guarded.POST("/games/orders", games.PlaceOrder)
			guarded.POST("/games/chat", games.Chat)
			guarded.POST("/games/reset", games.Reset)
		}
	}

	return r
}
