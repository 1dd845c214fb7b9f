package http

import (
	"context"
	"net/http"

	"github.com/dkeye/relay/internal/adapters/signal"
	"github.com/dkeye/relay/internal/app/orch"
	"github.com/dkeye/relay/internal/config"
	"github.com/dkeye/relay/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware keeps a stable per-browser token in the cookie
// session. It only correlates log lines across WebSocket reconnects.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get("ct").(string)
		if token == "" {
			token = genClientToken()
			session.Set("ct", token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type channelView struct {
	Name    domain.ChannelName `json:"name"`
	Members int                `json:"members"`
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("RelaySessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")

	// GET /api/channels: channels in creation order
	api.GET("/channels", func(c *gin.Context) {
		infos := o.Registry.ListChannels()
		out := make([]channelView, 0, len(infos))
		for _, info := range infos {
			out = append(out, channelView{Name: info.Name, Members: info.MemberCount})
		}
		c.JSON(http.StatusOK, out)
	})

	// GET /api/channels/:name/members: name without the leading marker
	api.GET("/channels/:name/members", func(c *gin.Context) {
		members, ok := o.Registry.Members(domain.ChannelFromBare(c.Param("name")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel does not exist"})
			return
		}
		c.JSON(http.StatusOK, members)
	})

	api.GET("/sessions/count", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"count": o.Registry.SessionCount()})
	})

	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:    int64(cfg.ReadLimit),
		SendBuffer:   cfg.SendBuffer,
		WriteTimeout: cfg.WriteTimeout,
	})
	api.GET("/ws", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
