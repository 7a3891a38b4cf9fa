package nominee

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Type discriminates the two nominee variants.
type Type string

const (
	TypePerson  Type = "person"
	TypeCompany Type = "company"
)

// Nominee is the person or company being nominated. Each submission creates a
// fresh row; nominees are never deduplicated across nominations. The person
// and company variants carry disjoint attribute sets; construct them through
// NewPerson / NewCompany so a mixed row cannot be built.
type Nominee struct {
	ID   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Type Type      `json:"type" gorm:"not null"`

	// Person variant
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Title     string `json:"title,omitempty"`
	Headshot  string `json:"headshot,omitempty"`

	// Company variant
	CompanyName string `json:"company_name,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Logo        string `json:"logo,omitempty"`

	// Shared attributes
	Email        string         `json:"email,omitempty"`
	Bio          string         `json:"bio"`
	Achievements pq.StringArray `json:"achievements" gorm:"type:text"`
	WhyVote      string         `json:"why_vote"`
	LiveURL      string         `json:"live_url"`

	// Slug is frozen the first time it is computed so a later name edit can
	// never silently change an already-published live URL.
	Slug string `json:"slug"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Nominee) TableName() string {
	return "nominees"
}

// BeforeCreate sets a UUID before creating the record
func (n *Nominee) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NewPerson creates a person nominee.
func NewPerson(firstName, lastName, title string) *Nominee {
	return &Nominee{
		ID:        uuid.New(),
		Type:      TypePerson,
		FirstName: firstName,
		LastName:  lastName,
		Title:     title,
	}
}

// NewCompany creates a company nominee.
func NewCompany(companyName, domain string) *Nominee {
	return &Nominee{
		ID:          uuid.New(),
		Type:        TypeCompany,
		CompanyName: companyName,
		Domain:      domain,
	}
}

// DisplayName returns the public name for the nominee variant.
func (n *Nominee) DisplayName() string {
	if n.Type == TypeCompany {
		return n.CompanyName
	}
	return strings.TrimSpace(n.FirstName + " " + n.LastName)
}

// EnsureSlug returns the frozen slug, computing and storing it on first use.
func (n *Nominee) EnsureSlug() string {
	if n.Slug == "" {
		n.Slug = Slugify(n.DisplayName())
	}
	return n.Slug
}

// Validate checks if the nominee data is valid for its variant
func (n *Nominee) Validate() error {
	switch n.Type {
	case TypePerson:
		if n.FirstName == "" && n.LastName == "" {
			return fmt.Errorf("person nominee requires a name")
		}
		if n.CompanyName != "" || n.Domain != "" || n.Logo != "" {
			return fmt.Errorf("person nominee cannot carry company fields")
		}
	case TypeCompany:
		if n.CompanyName == "" {
			return fmt.Errorf("company nominee requires a company name")
		}
		if n.FirstName != "" || n.LastName != "" || n.Headshot != "" {
			return fmt.Errorf("company nominee cannot carry person fields")
		}
	default:
		return fmt.Errorf("unknown nominee type: %s", n.Type)
	}
	return nil
}

// Slugify lower-cases the name, strips everything that is not alphanumeric or
// a space, and hyphenates the remaining words.
func Slugify(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), "-")
}
