package nomination

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// State represents the lifecycle state of a nomination
type State string

const (
	StateSubmitted State = "submitted"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
)

// Nomination links one nominator to one nominee within one category and
// tracks the approval lifecycle. Mutated only by the approval flow.
type Nomination struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	NominatorID uuid.UUID `json:"nominator_id" gorm:"type:uuid;not null;index"`
	NomineeID   uuid.UUID `json:"nominee_id" gorm:"type:uuid;not null;index"`

	CategoryGroupID string `json:"category_group_id" gorm:"not null"`
	SubcategoryID   string `json:"subcategory_id" gorm:"not null;index"`

	State State `json:"state" gorm:"not null;default:'submitted'"`

	// Votes counts genuine cast votes; ManualAdjustment holds operator
	// corrections. The two are only summed at presentation time so
	// adjustments stay auditable and reversible.
	Votes            int `json:"votes" gorm:"not null;default:0"`
	ManualAdjustment int `json:"manual_adjustment" gorm:"not null;default:0"`

	LiveURL         string     `json:"live_url"`
	AdminNotes      string     `json:"admin_notes"`
	RejectionReason string     `json:"rejection_reason"`
	ApprovedAt      *time.Time `json:"approved_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Nomination) TableName() string {
	return "nominations"
}

// BeforeCreate sets a UUID before creating the record
func (n *Nomination) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// New creates a nomination in the submitted state.
func New(nominatorID, nomineeID uuid.UUID, categoryGroupID, subcategoryID string) *Nomination {
	return &Nomination{
		ID:              uuid.New(),
		NominatorID:     nominatorID,
		NomineeID:       nomineeID,
		CategoryGroupID: categoryGroupID,
		SubcategoryID:   subcategoryID,
		State:           StateSubmitted,
		CreatedAt:       time.Now(),
	}
}

// CanTransitionTo checks if the nomination can move to a new state.
// Approved and rejected are terminal; both are reachable only from submitted.
func (n *Nomination) CanTransitionTo(newState State) bool {
	transitions := map[State][]State{
		StateSubmitted: {StateApproved, StateRejected},
		StateApproved:  {},
		StateRejected:  {},
	}

	allowed, exists := transitions[n.State]
	if !exists {
		return false
	}

	return slices.Contains(allowed, newState)
}

// Approve transitions the nomination to approved with the given live URL.
// Re-approving an already-approved nomination is a harmless refresh; any
// other terminal state rejects the transition.
func (n *Nomination) Approve(liveURL, adminNotes string) error {
	if n.State != StateApproved && !n.CanTransitionTo(StateApproved) {
		return fmt.Errorf("cannot transition from %s to %s", n.State, StateApproved)
	}
	n.State = StateApproved
	n.LiveURL = liveURL
	if adminNotes != "" {
		n.AdminNotes = adminNotes
	}
	now := time.Now()
	n.ApprovedAt = &now
	return nil
}

// Reject transitions the nomination to rejected with the given reason.
func (n *Nomination) Reject(reason, adminNotes string) error {
	if n.State != StateRejected && !n.CanTransitionTo(StateRejected) {
		return fmt.Errorf("cannot transition from %s to %s", n.State, StateRejected)
	}
	n.State = StateRejected
	if reason != "" {
		n.RejectionReason = reason
	}
	if adminNotes != "" {
		n.AdminNotes = adminNotes
	}
	return nil
}

// TotalVotes returns the displayed vote count: genuine votes plus the
// operator adjustment.
func (n *Nomination) TotalVotes() int {
	return n.Votes + n.ManualAdjustment
}

// Validate checks if the nomination data is valid
func (n *Nomination) Validate() error {
	if n.NominatorID == uuid.Nil {
		return fmt.Errorf("nominator_id is required")
	}
	if n.NomineeID == uuid.Nil {
		return fmt.Errorf("nominee_id is required")
	}
	if n.CategoryGroupID == "" {
		return fmt.Errorf("category_group_id is required")
	}
	if n.SubcategoryID == "" {
		return fmt.Errorf("subcategory_id is required")
	}
	return nil
}
