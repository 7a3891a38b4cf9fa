package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/domain/nominee"
	"github.com/gravadigital/nominations-api/internal/logger"
)

// PostgresNomineeRepository implements NomineeRepository using GORM
type PostgresNomineeRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresNomineeRepository creates a new nominee repository
func NewPostgresNomineeRepository(db *gorm.DB) *PostgresNomineeRepository {
	return &PostgresNomineeRepository{
		db:  db,
		log: logger.Repository("nominee"),
	}
}

func (r *PostgresNomineeRepository) WithTx(tx *gorm.DB) NomineeRepository {
	return &PostgresNomineeRepository{db: tx, log: r.log}
}

func (r *PostgresNomineeRepository) Create(n *nominee.Nominee) error {
	if err := n.Validate(); err != nil {
		r.log.Error("nominee validation failed", "error", err, "nominee_id", n.ID)
		return fmt.Errorf("nominee validation failed: %w", err)
	}

	if err := r.db.Create(n).Error; err != nil {
		r.log.Error("failed to create nominee", "error", err, "nominee_id", n.ID)
		return fmt.Errorf("failed to create nominee: %w", err)
	}

	r.log.Info("nominee created", "nominee_id", n.ID, "type", n.Type, "name", n.DisplayName())
	return nil
}

func (r *PostgresNomineeRepository) GetByID(id string) (*nominee.Nominee, error) {
	nomineeID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid nominee ID format: %w", err)
	}

	var n nominee.Nominee
	if err := r.db.First(&n, "id = ?", nomineeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.log.Error("failed to retrieve nominee", "nominee_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve nominee: %w", err)
	}

	return &n, nil
}

// SaveLiveURL persists the computed live URL and the frozen slug.
func (r *PostgresNomineeRepository) SaveLiveURL(id uuid.UUID, liveURL, slug string) error {
	res := r.db.Model(&nominee.Nominee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"live_url": liveURL, "slug": slug})
	if res.Error != nil {
		r.log.Error("failed to save nominee live URL", "nominee_id", id, "error", res.Error)
		return fmt.Errorf("failed to save nominee live URL: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	r.log.Debug("nominee live URL saved", "nominee_id", id, "live_url", liveURL)
	return nil
}
