package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/nominations-api/internal/domain/nomination"
	"github.com/gravadigital/nominations-api/internal/logger"
	"github.com/gravadigital/nominations-api/internal/services"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
	"github.com/gravadigital/nominations-api/internal/validation"
)

// NominationHandler serves the submission, approval and admin listing routes.
type NominationHandler struct {
	submissions *services.SubmissionService
	approvals   *services.ApprovalService
	nominations postgres.NominationRepository
	log         *log.Logger
}

// NewNominationHandler creates a new nomination handler
func NewNominationHandler(
	submissions *services.SubmissionService,
	approvals *services.ApprovalService,
	nominations postgres.NominationRepository,
) *NominationHandler {
	return &NominationHandler{
		submissions: submissions,
		approvals:   approvals,
		nominations: nominations,
		log:         logger.Handler("nomination"),
	}
}

// Error response helper
func (h *NominationHandler) errorResponse(c *gin.Context, statusCode int, code, message string, err error) {
	response := gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	}

	var verr *validation.Errors
	if errors.As(err, &verr) {
		response["fields"] = verr.Fields
	}

	if err != nil {
		h.log.Warn(message, "error", err, "status", statusCode)
	} else {
		h.log.Warn(message, "status", statusCode)
	}

	c.JSON(statusCode, response)
}

func (h *NominationHandler) handleServiceError(c *gin.Context, err error) {
	var verr *validation.Errors
	switch {
	case errors.As(err, &verr):
		h.errorResponse(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", err)
	case errors.Is(err, postgres.ErrNotFound):
		h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Nomination not found", err)
	case errors.Is(err, services.ErrInvalidTransition):
		h.errorResponse(c, http.StatusConflict, "ALREADY_DECIDED", "Nomination is already decided", err)
	default:
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err)
	}
}

// Submit handles POST /api/nominations
func (h *NominationHandler) Submit(c *gin.Context) {
	var req services.SubmitNominationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request payload", err)
		return
	}

	result, err := h.submissions.Submit(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.log.Info("nomination submitted", "nomination_id", result.NominationID)
	c.JSON(http.StatusCreated, result)
}

// Decide handles POST /api/nominations/:id/decision
func (h *NominationHandler) Decide(c *gin.Context) {
	id := c.Param("id")
	if err := validation.ValidateUUID(id, "nomination_id"); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid nomination ID format", err)
		return
	}

	var req services.DecideNominationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request payload", err)
		return
	}

	result, err := h.approvals.Decide(c.Request.Context(), id, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.log.Info("nomination decided", "nomination_id", result.NominationID, "action", result.Action)
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/nominations/:id
func (h *NominationHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validation.ValidateUUID(id, "nomination_id"); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid nomination ID format", err)
		return
	}

	nom, err := h.nominations.GetByID(id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nomination": nom,
		"totalVotes": nom.TotalVotes(),
	})
}

// List handles GET /api/nominations?state=submitted
func (h *NominationHandler) List(c *gin.Context) {
	state := nomination.State(c.DefaultQuery("state", string(nomination.StateSubmitted)))
	switch state {
	case nomination.StateSubmitted, nomination.StateApproved, nomination.StateRejected:
	default:
		h.errorResponse(c, http.StatusBadRequest, "INVALID_STATE", "Unknown nomination state", nil)
		return
	}

	nominations, err := h.nominations.ListByState(state)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":       state,
		"count":       len(nominations),
		"nominations": nominations,
	})
}

// AdjustVotesRequest carries an operator vote correction.
type AdjustVotesRequest struct {
	Adjustment int `json:"adjustment"`
}

// AdjustVotes handles PATCH /api/nominations/:id/votes-adjustment. The
// adjustment is stored next to the raw counter, never merged into it.
func (h *NominationHandler) AdjustVotes(c *gin.Context) {
	id := c.Param("id")
	if err := validation.ValidateUUID(id, "nomination_id"); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid nomination ID format", err)
		return
	}

	var req AdjustVotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request payload", err)
		return
	}

	nominationID, _ := uuid.Parse(id)
	if err := h.nominations.SetManualAdjustment(nominationID, req.Adjustment); err != nil {
		h.handleServiceError(c, err)
		return
	}

	nom, err := h.nominations.GetByID(id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.log.Info("votes adjusted", "nomination_id", id, "adjustment", req.Adjustment, "total", nom.TotalVotes())
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"adjustment": req.Adjustment,
		"totalVotes": nom.TotalVotes(),
	})
}
