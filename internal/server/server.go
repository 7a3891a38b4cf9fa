package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/config"
	"github.com/gravadigital/nominations-api/internal/crm"
	"github.com/gravadigital/nominations-api/internal/handlers"
	"github.com/gravadigital/nominations-api/internal/logger"
	"github.com/gravadigital/nominations-api/internal/middleware"
	"github.com/gravadigital/nominations-api/internal/services"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	db         *gorm.DB
}

// New creates a new server instance
func New(cfg *config.Config, db *gorm.DB) *Server {
	return &Server{
		config: cfg,
		db:     db,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	router := s.setupRouter()

	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: router,

		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Get().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.Get().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestLog())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(s.config.CORS.AllowOrigins, ",")
	if s.config.CORS.AllowOrigins == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	corsConfig.AllowMethods = strings.Split(s.config.CORS.AllowMethods, ",")
	corsConfig.AllowHeaders = strings.Split(s.config.CORS.AllowHeaders, ",")
	router.Use(cors.New(corsConfig))

	// Repositories
	contactRepo := postgres.NewPostgresContactRepository(s.db)
	nomineeRepo := postgres.NewPostgresNomineeRepository(s.db)
	nominationRepo := postgres.NewPostgresNominationRepository(s.db)
	voteRepo := postgres.NewPostgresVoteRepository(s.db)
	hubspotOutbox := postgres.NewHubSpotOutboxRepository(s.db)
	loopsOutbox := postgres.NewLoopsOutboxRepository(s.db)

	// External sync clients; the enabled flags are resolved once here, not
	// re-checked per request.
	hubspotSyncer := crm.NewSyncer(
		crm.NewHubSpotClient(s.config.HubSpot.BaseURL, s.config.HubSpot.APIKey, s.config.Sync.Timeout),
		s.config.HubSpot.Enabled,
	)
	loopsSyncer := crm.NewSyncer(
		crm.NewLoopsClient(s.config.Loops.BaseURL, s.config.Loops.APIKey, s.config.Sync.Timeout),
		s.config.Loops.Enabled,
	)

	targets := []services.SyncTarget{
		{Outbox: hubspotOutbox, Syncer: hubspotSyncer},
		{Outbox: loopsOutbox, Syncer: loopsSyncer},
	}

	// Services
	submissionService := services.NewSubmissionService(s.db, contactRepo, nomineeRepo, nominationRepo, targets)
	approvalService := services.NewApprovalService(s.db, contactRepo, nomineeRepo, nominationRepo, targets, s.config.Site.BaseURL)
	voteService := services.NewVoteService(s.db, contactRepo, nomineeRepo, nominationRepo, voteRepo, targets)
	outboxProcessor := services.NewOutboxProcessor(targets, s.config.Outbox.MaxAttempts, s.config.Outbox.BatchSize)

	// Handlers
	nominationHandler := handlers.NewNominationHandler(submissionService, approvalService, nominationRepo)
	voteHandler := handlers.NewVoteHandler(voteService)
	outboxHandler := handlers.NewOutboxHandler(outboxProcessor, []postgres.OutboxRepository{hubspotOutbox, loopsOutbox})

	// Health check
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Nominations API is running",
			"status":  "healthy",
		})
	})

	s.setupAPIRoutes(router, nominationHandler, voteHandler, outboxHandler)

	return router
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(
	router *gin.Engine,
	nominationHandler *handlers.NominationHandler,
	voteHandler *handlers.VoteHandler,
	outboxHandler *handlers.OutboxHandler,
) {
	api := router.Group("/api")
	{
		nominations := api.Group("/nominations")
		{
			nominations.POST("", nominationHandler.Submit)
			nominations.GET("", nominationHandler.List)
			nominations.GET("/:id", nominationHandler.Get)
			nominations.POST("/:id/decision", nominationHandler.Decide)
			nominations.PATCH("/:id/votes-adjustment", nominationHandler.AdjustVotes)
		}

		votes := api.Group("/votes")
		{
			votes.POST("", voteHandler.Cast)
		}

		outbox := api.Group("/outbox")
		outbox.Use(middleware.SharedSecret(s.config.Outbox.Secret))
		{
			outbox.POST("/process", outboxHandler.Process)
			outbox.GET("/:system/dead", outboxHandler.ListDead)
		}
	}
}
