package handlers

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/logger"
	"github.com/gravadigital/nominations-api/internal/services"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
)

// OutboxHandler serves the secret-guarded processor trigger and the
// dead-letter inspection routes.
type OutboxHandler struct {
	processor *services.OutboxProcessor
	outboxes  map[string]postgres.OutboxRepository
	log       *log.Logger
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(processor *services.OutboxProcessor, outboxes []postgres.OutboxRepository) *OutboxHandler {
	bySystem := make(map[string]postgres.OutboxRepository, len(outboxes))
	for _, o := range outboxes {
		bySystem[o.System()] = o
	}
	return &OutboxHandler{
		processor: processor,
		outboxes:  bySystem,
		log:       logger.Handler("outbox"),
	}
}

// Process handles POST /api/outbox/process
func (h *OutboxHandler) Process(c *gin.Context) {
	batchSize := 0
	if raw := c.Query("batch_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.log.Warn("invalid batch_size parameter", "value", raw)
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "batch_size must be a positive integer",
				"code":    "INVALID_BATCH_SIZE",
			})
			return
		}
		batchSize = parsed
	}

	report := h.processor.Process(c.Request.Context(), batchSize)
	c.JSON(http.StatusOK, report)
}

// ListDead handles GET /api/outbox/:system/dead. Dead rows exceeded the retry
// budget and need operator attention.
func (h *OutboxHandler) ListDead(c *gin.Context) {
	system := c.Param("system")
	repo, ok := h.outboxes[system]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "unknown external system",
			"code":    "UNKNOWN_SYSTEM",
		})
		return
	}

	dead, err := repo.ListByStatus(outbox.StatusDead, 0)
	if err != nil {
		h.log.Error("failed to list dead outbox events", "system", system, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to list dead outbox events",
			"code":    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"system": system,
		"count":  len(dead),
		"events": dead,
	})
}
