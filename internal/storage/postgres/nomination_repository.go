package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/domain/nomination"
	"github.com/gravadigital/nominations-api/internal/logger"
)

// PostgresNominationRepository implements NominationRepository using GORM
type PostgresNominationRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresNominationRepository creates a new nomination repository
func NewPostgresNominationRepository(db *gorm.DB) *PostgresNominationRepository {
	return &PostgresNominationRepository{
		db:  db,
		log: logger.Repository("nomination"),
	}
}

func (r *PostgresNominationRepository) WithTx(tx *gorm.DB) NominationRepository {
	return &PostgresNominationRepository{db: tx, log: r.log}
}

func (r *PostgresNominationRepository) Create(n *nomination.Nomination) error {
	if err := n.Validate(); err != nil {
		r.log.Error("nomination validation failed", "error", err, "nomination_id", n.ID)
		return fmt.Errorf("nomination validation failed: %w", err)
	}

	if err := r.db.Create(n).Error; err != nil {
		r.log.Error("failed to create nomination", "error", err, "nomination_id", n.ID)
		return fmt.Errorf("failed to create nomination: %w", err)
	}

	r.log.Info("nomination created", "nomination_id", n.ID, "state", n.State, "subcategory_id", n.SubcategoryID)
	return nil
}

func (r *PostgresNominationRepository) GetByID(id string) (*nomination.Nomination, error) {
	nominationID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid nomination ID format: %w", err)
	}

	var n nomination.Nomination
	if err := r.db.First(&n, "id = ?", nominationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.log.Error("failed to retrieve nomination", "nomination_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve nomination: %w", err)
	}

	return &n, nil
}

func (r *PostgresNominationRepository) ListByState(state nomination.State) ([]*nomination.Nomination, error) {
	var nominations []*nomination.Nomination
	if err := r.db.Where("state = ?", state).
		Order("created_at DESC").
		Find(&nominations).Error; err != nil {
		r.log.Error("failed to list nominations by state", "state", state, "error", err)
		return nil, fmt.Errorf("failed to list nominations by state: %w", err)
	}

	r.log.Debug("nominations listed", "state", state, "count", len(nominations))
	return nominations, nil
}

func (r *PostgresNominationRepository) Save(n *nomination.Nomination) error {
	if err := r.db.Save(n).Error; err != nil {
		r.log.Error("failed to save nomination", "error", err, "nomination_id", n.ID)
		return fmt.Errorf("failed to save nomination: %w", err)
	}

	r.log.Debug("nomination saved", "nomination_id", n.ID, "state", n.State)
	return nil
}

// IncrementVotes bumps the raw vote counter in the database so concurrent
// votes never lose an increment.
func (r *PostgresNominationRepository) IncrementVotes(id uuid.UUID) error {
	res := r.db.Model(&nomination.Nomination{}).
		Where("id = ?", id).
		UpdateColumn("votes", gorm.Expr("votes + ?", 1))
	if res.Error != nil {
		r.log.Error("failed to increment votes", "nomination_id", id, "error", res.Error)
		return fmt.Errorf("failed to increment votes: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetManualAdjustment stores an operator correction separately from the raw
// counter; the two are only summed at presentation time.
func (r *PostgresNominationRepository) SetManualAdjustment(id uuid.UUID, adjustment int) error {
	res := r.db.Model(&nomination.Nomination{}).
		Where("id = ?", id).
		UpdateColumn("manual_adjustment", adjustment)
	if res.Error != nil {
		r.log.Error("failed to set manual adjustment", "nomination_id", id, "error", res.Error)
		return fmt.Errorf("failed to set manual adjustment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	r.log.Info("manual vote adjustment set", "nomination_id", id, "adjustment", adjustment)
	return nil
}
