package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/domain/contact"
	"github.com/gravadigital/nominations-api/internal/logger"
	"github.com/gravadigital/nominations-api/internal/validation"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// PostgresContactRepository implements ContactRepository using GORM
type PostgresContactRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresContactRepository creates a new contact repository
func NewPostgresContactRepository(db *gorm.DB) *PostgresContactRepository {
	return &PostgresContactRepository{
		db:  db,
		log: logger.Repository("contact"),
	}
}

func (r *PostgresContactRepository) WithTx(tx *gorm.DB) ContactRepository {
	return &PostgresContactRepository{db: tx, log: r.log}
}

// UpsertByEmail inserts the contact, or merges its non-empty attributes onto
// the existing row with the same normalized email.
func (r *PostgresContactRepository) UpsertByEmail(c *contact.Contact) (*contact.Contact, error) {
	c.Email = validation.NormalizeEmail(c.Email)

	if err := c.Validate(); err != nil {
		r.log.Error("contact validation failed", "error", err, "email", c.Email)
		return nil, fmt.Errorf("contact validation failed: %w", err)
	}

	var existing contact.Contact
	err := r.db.Where("email = ?", c.Email).First(&existing).Error
	switch {
	case err == nil:
		existing.Merge(c)
		if err := r.db.Save(&existing).Error; err != nil {
			r.log.Error("failed to update contact", "error", err, "email", c.Email)
			return nil, fmt.Errorf("failed to update contact: %w", err)
		}
		r.log.Debug("contact updated in place", "contact_id", existing.ID, "email", existing.Email)
		return &existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.Create(c).Error; err != nil {
			r.log.Error("failed to create contact", "error", err, "email", c.Email)
			return nil, fmt.Errorf("failed to create contact: %w", err)
		}
		r.log.Info("contact created", "contact_id", c.ID, "email", c.Email)
		return c, nil

	default:
		r.log.Error("failed to look up contact", "error", err, "email", c.Email)
		return nil, fmt.Errorf("failed to look up contact: %w", err)
	}
}

func (r *PostgresContactRepository) GetByID(id string) (*contact.Contact, error) {
	contactID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid contact ID format: %w", err)
	}

	var c contact.Contact
	if err := r.db.First(&c, "id = ?", contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.log.Error("failed to retrieve contact", "contact_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve contact: %w", err)
	}

	return &c, nil
}

func (r *PostgresContactRepository) GetByEmail(email string) (*contact.Contact, error) {
	var c contact.Contact
	if err := r.db.Where("email = ?", validation.NormalizeEmail(email)).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.log.Error("failed to retrieve contact by email", "email", email, "error", err)
		return nil, fmt.Errorf("failed to retrieve contact by email: %w", err)
	}

	return &c, nil
}

func (r *PostgresContactRepository) CountByEmail(email string) (int64, error) {
	var count int64
	if err := r.db.Model(&contact.Contact{}).
		Where("email = ?", validation.NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count contacts by email: %w", err)
	}
	return count, nil
}
