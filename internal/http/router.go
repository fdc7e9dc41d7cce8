package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/regiondesk/backend/internal/access"
	"github.com/regiondesk/backend/internal/config"
	"github.com/regiondesk/backend/internal/db"
	"github.com/regiondesk/backend/internal/events"
	"github.com/regiondesk/backend/internal/http/handlers"
	"github.com/regiondesk/backend/internal/http/middleware"
	"github.com/regiondesk/backend/internal/service"
	"github.com/regiondesk/backend/internal/ticketing"

	_ "github.com/regiondesk/backend/docs"
)

func Router(cfg config.Config, store *db.Store, client ticketing.Client, evaluator access.Evaluator, assigner *service.Assigner, hub *events.Hub, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	var publisher events.Publisher = events.NopPublisher{}
	if hub != nil {
		publisher = hub
	}
	h := &handlers.Handler{
		Store:     store,
		Ticketing: client,
		Access:    evaluator,
		Assigner:  assigner,
		Events:    publisher,
		Hub:       hub,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(middleware.Principal(cfg.SessionSecret))
	{
		api.GET("/tickets", h.TicketsList)
		api.GET("/tickets/:id", h.TicketDetails)
		api.GET("/conversations", h.ConversationsList)
		api.POST("/conversations", h.ConversationCreate)
		api.GET("/conversations/:id", h.ConversationDetails)
		api.POST("/conversations/:id/transfer", h.ConversationTransfer)
	}

	staff := api.Group("")
	staff.Use(middleware.RequireStaff())
	{
		staff.GET("/agents", h.AgentsList)
		staff.POST("/tickets/:id/auto-assign", h.AutoAssign)
		staff.POST("/conversations/:id/join", h.ConversationJoin)
		staff.POST("/conversations/:id/close", h.ConversationClose)
		staff.GET("/events", h.EventsStream)
	}

	admin := api.Group("")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/tickets/:id/assign", h.Assign)
		admin.POST("/tickets/:id/unassign", h.Unassign)
		admin.GET("/debug/candidates", h.DebugCandidates)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
