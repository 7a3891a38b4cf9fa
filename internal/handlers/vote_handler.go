package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/nominations-api/internal/logger"
	"github.com/gravadigital/nominations-api/internal/services"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
	"github.com/gravadigital/nominations-api/internal/validation"
)

// VoteHandler serves the public vote route.
type VoteHandler struct {
	votes *services.VoteService
	log   *log.Logger
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{
		votes: votes,
		log:   logger.Handler("vote"),
	}
}

// Error response helper
func (h *VoteHandler) errorResponse(c *gin.Context, statusCode int, code, message string, err error) {
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
	}

	c.JSON(statusCode, response)
}

// Cast handles POST /api/votes
func (h *VoteHandler) Cast(c *gin.Context) {
	var req services.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request payload", err)
		return
	}

	result, err := h.votes.Cast(c.Request.Context(), req)
	if err != nil {
		var verr *validation.Errors
		switch {
		case errors.As(err, &verr):
			h.errorResponse(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", err)
		case errors.Is(err, services.ErrAlreadyVoted):
			// distinguishable outcome, not a generic error
			h.errorResponse(c, http.StatusConflict, "ALREADY_VOTED", "Voter has already voted in this subcategory", err)
		case errors.Is(err, services.ErrNotVotable):
			h.errorResponse(c, http.StatusConflict, "NOT_VOTABLE", "Nomination is not open for voting", err)
		case errors.Is(err, postgres.ErrNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Nomination not found", err)
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err)
		}
		return
	}

	h.log.Info("vote cast", "vote_id", result.VoteID, "nomination_id", result.NominationID)
	c.JSON(http.StatusCreated, result)
}
