package services

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/domain/contact"
	"github.com/gravadigital/nominations-api/internal/domain/nominee"
	"github.com/gravadigital/nominations-api/internal/domain/nomination"
	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/logger"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
	"github.com/gravadigital/nominations-api/internal/validation"
)

// SubmissionService orchestrates new nomination submissions: entity writes
// and outbox rows in one transaction, then a best-effort direct push to each
// external system.
type SubmissionService struct {
	db          *gorm.DB
	contacts    postgres.ContactRepository
	nominees    postgres.NomineeRepository
	nominations postgres.NominationRepository
	targets     []SyncTarget
	log         *log.Logger
}

// NewSubmissionService creates the submission service
func NewSubmissionService(
	db *gorm.DB,
	contacts postgres.ContactRepository,
	nominees postgres.NomineeRepository,
	nominations postgres.NominationRepository,
	targets []SyncTarget,
) *SubmissionService {
	return &SubmissionService{
		db:          db,
		contacts:    contacts,
		nominees:    nominees,
		nominations: nominations,
		targets:     targets,
		log:         logger.Service("submission"),
	}
}

// ContactInput carries nominator or voter contact fields from a request.
type ContactInput struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Company    string `json:"company"`
	Title      string `json:"title"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	SocialLink string `json:"socialLink"`
}

func (c ContactInput) toContact() *contact.Contact {
	nc := contact.New(c.Email, c.FirstName, c.LastName)
	nc.Company = c.Company
	nc.Title = c.Title
	nc.Phone = c.Phone
	nc.Country = c.Country
	nc.SocialLink = c.SocialLink
	return nc
}

// NomineeInput carries the nominee fields; which ones apply depends on type.
type NomineeInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Title     string `json:"title"`
	Headshot  string `json:"headshot"`

	CompanyName string `json:"companyName"`
	Domain      string `json:"domain"`
	Logo        string `json:"logo"`

	Email        string   `json:"email"`
	Bio          string   `json:"bio"`
	Achievements []string `json:"achievements"`
	WhyVote      string   `json:"whyVote"`
}

// SubmitNominationRequest is the submission endpoint payload.
type SubmitNominationRequest struct {
	Type            string       `json:"type"`
	CategoryGroupID string       `json:"categoryGroupId"`
	SubcategoryID   string       `json:"subcategoryId"`
	Nominator       ContactInput `json:"nominator"`
	Nominee         NomineeInput `json:"nominee"`
}

// Validate checks the request and reports every violated field.
func (r *SubmitNominationRequest) Validate() error {
	v := &validation.Errors{}

	v.OneOf("type", r.Type, string(nominee.TypePerson), string(nominee.TypeCompany))
	v.Required("categoryGroupId", r.CategoryGroupID)
	v.Required("subcategoryId", r.SubcategoryID)

	v.Required("nominator.email", r.Nominator.Email)
	v.Email("nominator.email", r.Nominator.Email)
	if r.Nominator.FirstName == "" && r.Nominator.LastName == "" {
		v.Add("nominator.firstName", "nominator name is required")
	}
	v.URL("nominator.socialLink", r.Nominator.SocialLink)

	switch nominee.Type(r.Type) {
	case nominee.TypePerson:
		if r.Nominee.FirstName == "" && r.Nominee.LastName == "" {
			v.Add("nominee.firstName", "nominee name is required")
		}
		v.URL("nominee.headshot", r.Nominee.Headshot)
	case nominee.TypeCompany:
		v.Required("nominee.companyName", r.Nominee.CompanyName)
		v.URL("nominee.logo", r.Nominee.Logo)
	}
	v.Email("nominee.email", r.Nominee.Email)

	return v.Err()
}

func (r *SubmitNominationRequest) toNominee() *nominee.Nominee {
	var n *nominee.Nominee
	if nominee.Type(r.Type) == nominee.TypeCompany {
		n = nominee.NewCompany(r.Nominee.CompanyName, r.Nominee.Domain)
		n.Logo = r.Nominee.Logo
	} else {
		n = nominee.NewPerson(r.Nominee.FirstName, r.Nominee.LastName, r.Nominee.Title)
		n.Headshot = r.Nominee.Headshot
	}
	n.Email = validation.NormalizeEmail(r.Nominee.Email)
	n.Bio = r.Nominee.Bio
	n.Achievements = pq.StringArray(r.Nominee.Achievements)
	n.WhyVote = r.Nominee.WhyVote
	return n
}

// SubmissionResult reports the persisted ids and the informational
// best-effort sync flags.
type SubmissionResult struct {
	NominationID uuid.UUID        `json:"nominationId"`
	NominatorID  uuid.UUID        `json:"nominatorId"`
	NomineeID    uuid.UUID        `json:"nomineeId"`
	State        nomination.State `json:"state"`
	SyncFlags    map[string]bool  `json:"syncFlags"`
}

// Submit validates and persists a nominator/nominee/nomination triple plus
// one outbox row per external system, in one transaction. The direct sync
// afterwards is purely a latency optimization; its failures only set flags.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitNominationRequest) (*SubmissionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	nomineeRow := req.toNominee()

	var (
		nominator *contact.Contact
		newNom    *nomination.Nomination
		payload   outbox.Payload
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		nominator, err = s.contacts.WithTx(tx).UpsertByEmail(req.Nominator.toContact())
		if err != nil {
			return err
		}

		if err := s.nominees.WithTx(tx).Create(nomineeRow); err != nil {
			return err
		}

		newNom = nomination.New(nominator.ID, nomineeRow.ID, req.CategoryGroupID, req.SubcategoryID)
		if err := s.nominations.WithTx(tx).Create(newNom); err != nil {
			return err
		}

		payload = outbox.Payload{
			NominationID:    newNom.ID,
			CategoryGroupID: req.CategoryGroupID,
			SubcategoryID:   req.SubcategoryID,
			Nominator:       snapshotContact(nominator),
			Nominee:         snapshotNominee(nomineeRow),
		}

		for _, t := range s.targets {
			ev, err := outbox.NewEvent(outbox.EventNominationSubmitted, payload)
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
		s.log.Error("nomination submission failed", "error", err)
		return nil, err
	}

	s.log.Info("nomination submitted",
		"nomination_id", newNom.ID,
		"nominator_id", nominator.ID,
		"nominee_id", nomineeRow.ID,
		"subcategory_id", req.SubcategoryID)

	// Best-effort direct push. The outbox rows above already guarantee
	// eventual delivery, so failures here are informational only.
	syncFlags := make(map[string]bool, len(s.targets))
	for _, t := range s.targets {
		err := deliver(ctx, t.Syncer, outbox.EventNominationSubmitted, &payload)
		syncFlags[t.Syncer.System()] = err == nil
		if err != nil {
			s.log.Warn("best-effort direct sync failed, outbox will retry",
				"system", t.Syncer.System(), "nomination_id", newNom.ID, "error", err)
		}
	}

	return &SubmissionResult{
		NominationID: newNom.ID,
		NominatorID:  nominator.ID,
		NomineeID:    nomineeRow.ID,
		State:        newNom.State,
		SyncFlags:    syncFlags,
	}, nil
}
