package contact

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact represents a person known to the platform: a nominator or a voter.
// Rows are deduplicated by lower-cased email and updated in place on repeat
// submissions; they are never deleted by the normal flow.
type Contact struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email      string    `json:"email" gorm:"uniqueIndex;not null"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Company    string    `json:"company"`
	Title      string    `json:"title"`
	Phone      string    `json:"phone"`
	Country    string    `json:"country"`
	SocialLink string    `json:"social_link"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Contact) TableName() string {
	return "contacts"
}

// BeforeCreate sets a UUID before creating the record
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// New creates a contact keyed by the normalized email.
func New(email, firstName, lastName string) *Contact {
	return &Contact{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		FirstName: firstName,
		LastName:  lastName,
	}
}

// FullName returns the display name of the contact.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Validate checks if the contact data is valid
func (c *Contact) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("email is required")
	}
	if c.FirstName == "" && c.LastName == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Merge copies non-empty attributes from other onto c, leaving attributes
// absent from other untouched. Used by the upsert path so a later submission
// only overwrites what it actually provides.
func (c *Contact) Merge(other *Contact) {
	if other.FirstName != "" {
		c.FirstName = other.FirstName
	}
	if other.LastName != "" {
		c.LastName = other.LastName
	}
	if other.Company != "" {
		c.Company = other.Company
	}
	if other.Title != "" {
		c.Title = other.Title
	}
	if other.Phone != "" {
		c.Phone = other.Phone
	}
	if other.Country != "" {
		c.Country = other.Country
	}
	if other.SocialLink != "" {
		c.SocialLink = other.SocialLink
	}
}
