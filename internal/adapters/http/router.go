package http

import (
	"context"
	stdhttp "net/http"
	"strconv"

	"github.com/dkeye/hotspot/internal/adapters/signal"
	"github.com/dkeye/hotspot/internal/app/orch"
	"github.com/dkeye/hotspot/internal/config"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "ct"

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware gives every browser a stable anonymous token kept in
// the signed session cookie.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := sess.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			sess.Set(clientTokenKey, token)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// ICEServers converts the configured urls into the browser RTCIceServer shape.
func ICEServers(urls []string) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		out = append(out, webrtc.ICEServer{URLs: []string{u}})
	}
	return out
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

	secret := cfg.Secret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Str("module", "adapters.http").Msg("no secret configured, session cookies will not survive a restart")
	}
	store := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("HotspotSessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
	})

	ctrl := signal.NewSignalWSController(o, signal.SettingsFromConfig(cfg))
	iceServers := ICEServers(cfg.ICEServers)

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	api.GET("/rooms", func(c *gin.Context) {
		rooms, err := o.ListRooms(c.Request.Context())
		if err != nil {
			unavailable(c, err)
			return
		}
		c.JSON(stdhttp.StatusOK, rooms)
	})

	api.GET("/rooms/:name/members", func(c *gin.Context) {
		room, err := domain.ParseRoomName(c.Param("name"))
		if err != nil {
			c.JSON(stdhttp.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		members, err := o.Members(c.Request.Context(), room)
		if err != nil {
			unavailable(c, err)
			return
		}
		c.JSON(stdhttp.StatusOK, members)
	})

	api.GET("/rooms/:name/messages", func(c *gin.Context) {
		room, err := domain.ParseRoomName(c.Param("name"))
		if err != nil {
			c.JSON(stdhttp.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		limit, _ := strconv.Atoi(c.Query("limit"))
		msgs, err := o.RecentMessages(c.Request.Context(), room, limit)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("recent messages")
			c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "history_failed"})
			return
		}
		c.JSON(stdhttp.StatusOK, msgs)
	})

	api.GET("/stats", func(c *gin.Context) {
		stats, err := o.Stats(c.Request.Context())
		if err != nil {
			unavailable(c, err)
			return
		}
		c.JSON(stdhttp.StatusOK, stats)
	})

	api.GET("/ice-servers", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, iceServers)
	})

	return r
}

func unavailable(c *gin.Context, err error) {
	log.Warn().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("coordinator unavailable")
	c.JSON(stdhttp.StatusServiceUnavailable, gin.H{"error": "unavailable"})
}
