package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avern/huddle/internal/adapters/signal"
	"github.com/avern/huddle/internal/app"
	"github.com/avern/huddle/internal/app/orch"
	"github.com/avern/huddle/internal/config"
	"github.com/avern/huddle/internal/domain"
)

// ClientTokenMiddleware assigns every browser a stable opaque token via
// cookie. The token becomes the connection handle when the WS attaches; a
// client without the cookie gets a fresh one, so a cleared cookie means a
// new handle.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, accounts *app.AccountStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSession", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	auth := &AuthHandlers{Accounts: accounts}
	api.POST("/signup", auth.Signup)
	api.POST("/login", auth.Login)
	api.POST("/logout", auth.Logout)
	api.GET("/user", auth.CurrentUser)

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": o.Rooms.Snapshot()})
	})
	api.GET("/rooms/:id/members", func(c *gin.Context) {
		room := domain.RoomID(c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"members": o.Rooms.MembersOf(room)})
	})

	limiter := signal.NewJoinRateLimiter(cfg.JoinRate, cfg.JoinWindow)
	ctl := signal.NewSignalWSController(o, limiter, cfg.ReadLimit, cfg.SendBuffer, cfg.PingPeriod)
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	return r
}
