package vote

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote is an immutable record of one voter casting one vote for one
// nomination within one subcategory. The (voter, subcategory) pair is unique;
// a duplicate insert fails on the index instead of double-counting.
type Vote struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	NominationID  uuid.UUID `json:"nomination_id" gorm:"type:uuid;not null;index"`
	VoterID       uuid.UUID `json:"voter_id" gorm:"type:uuid;not null;uniqueIndex:idx_voter_subcategory"`
	SubcategoryID string    `json:"subcategory_id" gorm:"not null;uniqueIndex:idx_voter_subcategory"`
	VotedAt       time.Time `json:"voted_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (Vote) TableName() string {
	return "votes"
}

// BeforeCreate sets a UUID before creating the record
func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// New creates a vote record.
func New(nominationID, voterID uuid.UUID, subcategoryID string) *Vote {
	return &Vote{
		ID:            uuid.New(),
		NominationID:  nominationID,
		VoterID:       voterID,
		SubcategoryID: subcategoryID,
		VotedAt:       time.Now(),
	}
}

// Validate checks if the vote data is valid
func (v *Vote) Validate() error {
	if v.NominationID == uuid.Nil {
		return fmt.Errorf("nomination_id is required")
	}
	if v.VoterID == uuid.Nil {
		return fmt.Errorf("voter_id is required")
	}
	if v.SubcategoryID == "" {
		return fmt.Errorf("subcategory_id is required")
	}
	return nil
}
