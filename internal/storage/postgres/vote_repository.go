package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/domain/vote"
	"github.com/gravadigital/nominations-api/internal/logger"
)

// ErrDuplicateVote is returned when the (voter, subcategory) uniqueness
// constraint rejects an insert.
var ErrDuplicateVote = errors.New("voter has already voted in this subcategory")

// PostgresVoteRepository implements VoteRepository using GORM
type PostgresVoteRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresVoteRepository creates a new vote repository
func NewPostgresVoteRepository(db *gorm.DB) *PostgresVoteRepository {
	return &PostgresVoteRepository{
		db:  db,
		log: logger.Repository("vote"),
	}
}

func (r *PostgresVoteRepository) WithTx(tx *gorm.DB) VoteRepository {
	return &PostgresVoteRepository{db: tx, log: r.log}
}

func (r *PostgresVoteRepository) Create(v *vote.Vote) error {
	if err := v.Validate(); err != nil {
		r.log.Error("vote validation failed", "error", err, "vote_id", v.ID)
		return fmt.Errorf("vote validation failed: %w", err)
	}

	if err := r.db.Create(v).Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("duplicate vote rejected", "voter_id", v.VoterID, "subcategory_id", v.SubcategoryID)
			return ErrDuplicateVote
		}
		r.log.Error("failed to create vote", "error", err, "vote_id", v.ID)
		return fmt.Errorf("failed to create vote: %w", err)
	}

	r.log.Info("vote created", "vote_id", v.ID, "nomination_id", v.NominationID, "voter_id", v.VoterID)
	return nil
}

func (r *PostgresVoteRepository) HasVoted(voterID uuid.UUID, subcategoryID string) (bool, error) {
	var count int64
	if err := r.db.Model(&vote.Vote{}).
		Where("voter_id = ? AND subcategory_id = ?", voterID, subcategoryID).
		Count(&count).Error; err != nil {
		r.log.Error("failed to check voting status", "voter_id", voterID, "subcategory_id", subcategoryID, "error", err)
		return false, fmt.Errorf("failed to check voting status: %w", err)
	}

	return count > 0, nil
}

func (r *PostgresVoteRepository) CountBySubcategory(subcategoryID string) (int64, error) {
	var count int64
	if err := r.db.Model(&vote.Vote{}).
		Where("subcategory_id = ?", subcategoryID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count votes by subcategory: %w", err)
	}
	return count, nil
}

// isUniqueViolation matches unique-constraint errors across the postgres and
// sqlite dialects.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
