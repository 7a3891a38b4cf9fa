package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/domain/contact"
	"github.com/gravadigital/nominations-api/internal/domain/nomination"
	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/domain/vote"
	"github.com/gravadigital/nominations-api/internal/logger"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
	"github.com/gravadigital/nominations-api/internal/validation"
)

// ErrAlreadyVoted marks the distinguishable "already voted" outcome.
var ErrAlreadyVoted = errors.New("voter has already voted in this subcategory")

// ErrNotVotable is returned when the nomination is not approved.
var ErrNotVotable = errors.New("nomination is not open for voting")

// VoteService records votes for approved nominations.
type VoteService struct {
	db          *gorm.DB
	contacts    postgres.ContactRepository
	nominees    postgres.NomineeRepository
	nominations postgres.NominationRepository
	votes       postgres.VoteRepository
	targets     []SyncTarget
	log         *log.Logger
}

// NewVoteService creates the vote service
func NewVoteService(
	db *gorm.DB,
	contacts postgres.ContactRepository,
	nominees postgres.NomineeRepository,
	nominations postgres.NominationRepository,
	votes postgres.VoteRepository,
	targets []SyncTarget,
) *VoteService {
	return &VoteService{
		db:          db,
		contacts:    contacts,
		nominees:    nominees,
		nominations: nominations,
		votes:       votes,
		targets:     targets,
		log:         logger.Service("vote"),
	}
}

// CastVoteRequest is the vote endpoint payload.
type CastVoteRequest struct {
	NominationID  string       `json:"nominationId"`
	SubcategoryID string       `json:"subcategoryId"`
	Voter         ContactInput `json:"voter"`
}

// Validate checks the request and reports every violated field.
func (r *CastVoteRequest) Validate() error {
	v := &validation.Errors{}
	v.Required("nominationId", r.NominationID)
	if r.NominationID != "" {
		if err := validation.ValidateUUID(r.NominationID, "nominationId"); err != nil {
			v.Add("nominationId", "must be a valid UUID")
		}
	}
	v.Required("subcategoryId", r.SubcategoryID)
	v.Required("voter.email", r.Voter.Email)
	v.Email("voter.email", r.Voter.Email)
	if r.Voter.FirstName == "" && r.Voter.LastName == "" {
		v.Add("voter.firstName", "voter name is required")
	}
	return v.Err()
}

// CastVoteResult reports the recorded vote and the displayed total.
type CastVoteResult struct {
	VoteID       uuid.UUID       `json:"voteId"`
	NominationID uuid.UUID       `json:"nominationId"`
	TotalVotes   int             `json:"totalVotes"`
	SyncFlags    map[string]bool `json:"syncFlags"`
}

// Cast upserts the voter, enforces the one-vote-per-subcategory rule, records
// the vote with its outbox rows in one transaction, then pushes the voter to
// the external systems best-effort.
func (s *VoteService) Cast(ctx context.Context, req CastVoteRequest) (*CastVoteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	nom, err := s.nominations.GetByID(req.NominationID)
	if err != nil {
		return nil, err
	}
	if nom.State != nomination.StateApproved {
		return nil, fmt.Errorf("%w: state is %s", ErrNotVotable, nom.State)
	}

	nomineeRow, err := s.nominees.GetByID(nom.NomineeID.String())
	if err != nil {
		return nil, err
	}

	var (
		voter   *contact.Contact
		newVote *vote.Vote
		payload outbox.Payload
	)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		voter, err = s.contacts.WithTx(tx).UpsertByEmail(req.Voter.toContact())
		if err != nil {
			return err
		}

		votes := s.votes.WithTx(tx)
		hasVoted, err := votes.HasVoted(voter.ID, req.SubcategoryID)
		if err != nil {
			return err
		}
		if hasVoted {
			return ErrAlreadyVoted
		}

		newVote = vote.New(nom.ID, voter.ID, req.SubcategoryID)
		if err := votes.Create(newVote); err != nil {
			if errors.Is(err, postgres.ErrDuplicateVote) {
				// lost a race with a concurrent vote from the same voter
				return ErrAlreadyVoted
			}
			return err
		}

		if err := s.nominations.WithTx(tx).IncrementVotes(nom.ID); err != nil {
			return err
		}

		payload = outbox.Payload{
			NominationID:    nom.ID,
			CategoryGroupID: nom.CategoryGroupID,
			SubcategoryID:   req.SubcategoryID,
			LiveURL:         nom.LiveURL,
			Voter:           snapshotContact(voter),
			Nominee:         snapshotNominee(nomineeRow),
		}

		for _, t := range s.targets {
			ev, err := outbox.NewEvent(outbox.EventVoteCast, payload)
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
		if errors.Is(err, ErrAlreadyVoted) {
			s.log.Info("duplicate vote rejected", "nomination_id", nom.ID, "subcategory_id", req.SubcategoryID)
		} else {
			s.log.Error("vote failed", "nomination_id", nom.ID, "error", err)
		}
		return nil, err
	}

	s.log.Info("vote recorded", "vote_id", newVote.ID, "nomination_id", nom.ID, "voter_id", voter.ID)

	// Best-effort voter push with the voted tag; the outbox rows already
	// guarantee delivery.
	syncFlags := make(map[string]bool, len(s.targets))
	for _, t := range s.targets {
		err := deliver(ctx, t.Syncer, outbox.EventVoteCast, &payload)
		syncFlags[t.Syncer.System()] = err == nil
		if err != nil {
			s.log.Warn("best-effort direct sync failed, outbox will retry",
				"system", t.Syncer.System(), "vote_id", newVote.ID, "error", err)
		}
	}

	return &CastVoteResult{
		VoteID:       newVote.ID,
		NominationID: nom.ID,
		TotalVotes:   nom.TotalVotes() + 1,
		SyncFlags:    syncFlags,
	}, nil
}
