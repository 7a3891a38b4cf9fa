package postgres

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/domain/contact"
	"github.com/gravadigital/nominations-api/internal/domain/nominee"
	"github.com/gravadigital/nominations-api/internal/domain/nomination"
	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/domain/vote"
)

// ContactRepository defines the methods for nominator/voter rows.
// WithTx returns a repository bound to the given transaction so services can
// group entity and outbox writes into one atomic unit.
type ContactRepository interface {
	UpsertByEmail(c *contact.Contact) (*contact.Contact, error)
	GetByID(id string) (*contact.Contact, error)
	GetByEmail(email string) (*contact.Contact, error)
	CountByEmail(email string) (int64, error)
	WithTx(tx *gorm.DB) ContactRepository
}

// NomineeRepository defines the methods for nominee rows.
type NomineeRepository interface {
	Create(n *nominee.Nominee) error
	GetByID(id string) (*nominee.Nominee, error)
	SaveLiveURL(id uuid.UUID, liveURL, slug string) error
	WithTx(tx *gorm.DB) NomineeRepository
}

// NominationRepository defines the methods for nomination rows.
type NominationRepository interface {
	Create(n *nomination.Nomination) error
	GetByID(id string) (*nomination.Nomination, error)
	ListByState(state nomination.State) ([]*nomination.Nomination, error)
	Save(n *nomination.Nomination) error
	IncrementVotes(id uuid.UUID) error
	SetManualAdjustment(id uuid.UUID, adjustment int) error
	WithTx(tx *gorm.DB) NominationRepository
}

// VoteRepository defines the methods for vote rows.
type VoteRepository interface {
	Create(v *vote.Vote) error
	HasVoted(voterID uuid.UUID, subcategoryID string) (bool, error)
	CountBySubcategory(subcategoryID string) (int64, error)
	WithTx(tx *gorm.DB) VoteRepository
}

// OutboxRepository defines the methods for one external system's outbox
// table. Claiming is atomic: a row claimed by one processor run can never be
// claimed again by an overlapping run.
type OutboxRepository interface {
	System() string
	Append(ev *outbox.Event) error
	ClaimPending(limit int) ([]outbox.Event, error)
	MarkDone(id uuid.UUID) error
	MarkFailed(id uuid.UUID, attemptCount, maxAttempts int, cause error) (outbox.Status, error)
	ListByStatus(status outbox.Status, limit int) ([]outbox.Event, error)
	CountByStatus(status outbox.Status) (int64, error)
	WithTx(tx *gorm.DB) OutboxRepository
}
