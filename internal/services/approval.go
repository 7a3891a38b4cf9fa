package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/domain/nomination"
	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/logger"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
	"github.com/gravadigital/nominations-api/internal/validation"
)

// Decision actions accepted by the approval endpoint.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ErrInvalidTransition is returned when a decision conflicts with the
// nomination's terminal state.
var ErrInvalidTransition = errors.New("nomination is already decided")

// ApprovalService transitions nominations out of the submitted state and, on
// approval, mirrors the result to the external systems.
type ApprovalService struct {
	db          *gorm.DB
	contacts    postgres.ContactRepository
	nominees    postgres.NomineeRepository
	nominations postgres.NominationRepository
	targets     []SyncTarget
	siteBaseURL string
	log         *log.Logger
}

// NewApprovalService creates the approval service
func NewApprovalService(
	db *gorm.DB,
	contacts postgres.ContactRepository,
	nominees postgres.NomineeRepository,
	nominations postgres.NominationRepository,
	targets []SyncTarget,
	siteBaseURL string,
) *ApprovalService {
	return &ApprovalService{
		db:          db,
		contacts:    contacts,
		nominees:    nominees,
		nominations: nominations,
		targets:     targets,
		siteBaseURL: strings.TrimRight(siteBaseURL, "/"),
		log:         logger.Service("approval"),
	}
}

// DecideNominationRequest is the approval endpoint payload. An empty action
// defaults to approve.
type DecideNominationRequest struct {
	Action          string `json:"action"`
	LiveURL         string `json:"liveUrl"`
	AdminNotes      string `json:"adminNotes"`
	RejectionReason string `json:"rejectionReason"`
}

// Validate checks the request and reports every violated field.
func (r *DecideNominationRequest) Validate() error {
	v := &validation.Errors{}
	if r.Action != "" {
		v.OneOf("action", r.Action, ActionApprove, ActionReject)
	}
	v.URL("liveUrl", r.LiveURL)
	return v.Err()
}

func (r *DecideNominationRequest) action() string {
	if r.Action == "" {
		return ActionApprove
	}
	return r.Action
}

// DecisionResult reports the outcome of an approval or rejection.
type DecisionResult struct {
	Success      bool             `json:"success"`
	NominationID uuid.UUID        `json:"nominationId"`
	Action       string           `json:"action"`
	State        nomination.State `json:"state"`
	LiveURL      string           `json:"liveUrl,omitempty"`
	Message      string           `json:"message"`
	SyncFlags    map[string]bool  `json:"syncFlags,omitempty"`
}

// Decide applies an approve or reject decision to a nomination.
func (s *ApprovalService) Decide(ctx context.Context, nominationID string, req DecideNominationRequest) (*DecisionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	nom, err := s.nominations.GetByID(nominationID)
	if err != nil {
		return nil, err
	}

	if req.action() == ActionReject {
		return s.reject(nom, req)
	}
	return s.approve(ctx, nom, req)
}

func (s *ApprovalService) approve(ctx context.Context, nom *nomination.Nomination, req DecideNominationRequest) (*DecisionResult, error) {
	nomineeRow, err := s.nominees.GetByID(nom.NomineeID.String())
	if err != nil {
		return nil, err
	}

	liveURL := req.LiveURL
	if liveURL == "" {
		liveURL = s.siteBaseURL + "/" + nomineeRow.EnsureSlug()
	}

	nominator, err := s.contacts.GetByID(nom.NominatorID.String())
	if err != nil {
		return nil, err
	}

	var payload outbox.Payload

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := nom.Approve(liveURL, req.AdminNotes); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidTransition, err)
		}
		if err := s.nominations.WithTx(tx).Save(nom); err != nil {
			return err
		}
		if err := s.nominees.WithTx(tx).SaveLiveURL(nomineeRow.ID, liveURL, nomineeRow.Slug); err != nil {
			return err
		}

		payload = outbox.Payload{
			NominationID:    nom.ID,
			CategoryGroupID: nom.CategoryGroupID,
			SubcategoryID:   nom.SubcategoryID,
			LiveURL:         liveURL,
			Nominator:       snapshotContact(nominator),
			Nominee:         snapshotNominee(nomineeRow),
		}

		for _, t := range s.targets {
			ev, err := outbox.NewEvent(outbox.EventNominationApproved, payload)
			if err != nil {
				return err
			}
			if err := t.Outbox.WithTx(tx).Append(ev); err != nil {
				return fmt.Errorf("failed to enqueue %s outbox event: %w", t.Outbox.System(), err)
			}
		}

		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidTransition) {
			s.log.Error("nomination approval failed", "nomination_id", nom.ID, "error", err)
		}
		return nil, err
	}

	s.log.Info("nomination approved", "nomination_id", nom.ID, "live_url", liveURL)

	// Best-effort direct push; the outbox rows already guarantee delivery.
	syncFlags := make(map[string]bool, len(s.targets))
	for _, t := range s.targets {
		err := deliver(ctx, t.Syncer, outbox.EventNominationApproved, &payload)
		syncFlags[t.Syncer.System()] = err == nil
		if err != nil {
			s.log.Warn("best-effort direct sync failed, outbox will retry",
				"system", t.Syncer.System(), "nomination_id", nom.ID, "error", err)
		}
	}

	return &DecisionResult{
		Success:      true,
		NominationID: nom.ID,
		Action:       ActionApprove,
		State:        nom.State,
		LiveURL:      liveURL,
		Message:      "nomination approved",
		SyncFlags:    syncFlags,
	}, nil
}

func (s *ApprovalService) reject(nom *nomination.Nomination, req DecideNominationRequest) (*DecisionResult, error) {
	if err := nom.Reject(req.RejectionReason, req.AdminNotes); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, err)
	}
	if err := s.nominations.Save(nom); err != nil {
		s.log.Error("nomination rejection failed", "nomination_id", nom.ID, "error", err)
		return nil, err
	}

	s.log.Info("nomination rejected", "nomination_id", nom.ID, "reason", req.RejectionReason)

	// No external sync on rejection.
	return &DecisionResult{
		Success:      true,
		NominationID: nom.ID,
		Action:       ActionReject,
		State:        nom.State,
		Message:      "nomination rejected",
	}, nil
}
