package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventType identifies the domain event an outbox row replays.
type EventType string

const (
	EventNominationSubmitted EventType = "nomination_submitted"
	EventNominationApproved  EventType = "nomination_approved"
	EventVoteCast            EventType = "vote_cast"
)

// Status is the delivery state of an outbox row.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusDead       Status = "dead"
)

// Event is one row of an external system's outbox. The payload is a
// point-in-time JSON snapshot taken when the domain event happened; replays
// work from it, never from a fresh read, so they stay deterministic even if
// the source rows are mutated later. Rows move
// pending -> processing -> done | pending (retry) | dead.
type Event struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventType    EventType `json:"event_type" gorm:"not null;index"`
	Payload      []byte    `json:"payload" gorm:"not null"`
	Status       Status    `json:"status" gorm:"not null;default:'pending';index"`
	AttemptCount int       `json:"attempt_count" gorm:"not null;default:0"`
	LastError    *string   `json:"last_error"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate sets a UUID before creating the record
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ContactSnapshot is the canonical description of a nominator or voter at
// event time.
type ContactSnapshot struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Company    string `json:"company,omitempty"`
	Title      string `json:"title,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Country    string `json:"country,omitempty"`
	SocialLink string `json:"social_link,omitempty"`
}

// NomineeSnapshot captures the nominee as it looked at event time.
type NomineeSnapshot struct {
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Title       string `json:"title,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Bio         string `json:"bio,omitempty"`
	WhyVote     string `json:"why_vote,omitempty"`
}

// Payload is the snapshot stored with every outbox row.
type Payload struct {
	NominationID    uuid.UUID        `json:"nomination_id"`
	CategoryGroupID string           `json:"category_group_id"`
	SubcategoryID   string           `json:"subcategory_id"`
	LiveURL         string           `json:"live_url,omitempty"`
	Nominator       *ContactSnapshot `json:"nominator,omitempty"`
	Nominee         *NomineeSnapshot `json:"nominee,omitempty"`
	Voter           *ContactSnapshot `json:"voter,omitempty"`
}

// NewEvent builds a pending outbox row carrying the marshaled payload.
func NewEvent(eventType EventType, payload Payload) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	return &Event{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   raw,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// DecodePayload unmarshals the stored snapshot.
func (e *Event) DecodePayload() (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload for outbox event %s: %w", e.ID, err)
	}
	return &p, nil
}
