package routes

import (
	"net/http"
	"time"

	"promptcoach/controllers"
	"promptcoach/internal/history"
	"promptcoach/internal/metrics"
	"promptcoach/middlewares"
	"promptcoach/services"
	"promptcoach/session"
	"promptcoach/utils"
	"promptcoach/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Tenant         string
	AllowedOrigins []string
	Tokens         *utils.TokenManager
	Roles          *services.RoleCatalog
	Scenarios      *services.ScenarioService
	Coach          *services.CoachService
	History        services.HistoryStore
	Broker         history.Broker
	Sessions       *session.Manager
	Metrics        *metrics.Recorder
	Log            zerolog.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestLogger(d.Log))

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	SetupAuthRoutes(router, controllers.NewAuthController(d.Tokens, d.Tenant, d.Log))

	// Anonymous callers may practice; their rounds are simply not saved.
	open := router.Group("/")
	open.Use(middlewares.OptionalAuth(d.Tokens, d.Tenant))
	SetupCoachRoutes(open, controllers.NewCoachController(d.Roles, d.Scenarios, d.Coach))

	auth := router.Group("/")
	auth.Use(middlewares.AuthMiddleware(d.Tokens, d.Tenant))
	{
		auth.GET("/history", controllers.NewHistoryController(d.History).List)
		auth.GET("/ws/history", websocket.NewHistoryHandler(d.History, d.Broker, d.Log).Handle)
		SetupSessionRoutes(auth, controllers.NewSessionController(d.Sessions))
	}

	return router
}
