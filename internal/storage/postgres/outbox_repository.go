package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/logger"
)

// ErrNotClaimable is returned when a row cannot be marked done/failed because
// it is no longer in the processing state.
var ErrNotClaimable = errors.New("outbox row is not in a claimable state")

// PostgresOutboxRepository implements OutboxRepository using GORM. One
// instance is bound to one external system's table.
type PostgresOutboxRepository struct {
	db     *gorm.DB
	table  string
	system string
	log    *log.Logger
}

// NewPostgresOutboxRepository creates an outbox repository for one external
// system's table.
func NewPostgresOutboxRepository(db *gorm.DB, system, table string) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{
		db:     db,
		table:  table,
		system: system,
		log:    logger.Repository("outbox_" + system),
	}
}

// NewHubSpotOutboxRepository creates the repository for the HubSpot outbox.
func NewHubSpotOutboxRepository(db *gorm.DB) *PostgresOutboxRepository {
	return NewPostgresOutboxRepository(db, "hubspot", HubSpotOutboxTable)
}

// NewLoopsOutboxRepository creates the repository for the Loops outbox.
func NewLoopsOutboxRepository(db *gorm.DB) *PostgresOutboxRepository {
	return NewPostgresOutboxRepository(db, "loops", LoopsOutboxTable)
}

func (r *PostgresOutboxRepository) WithTx(tx *gorm.DB) OutboxRepository {
	return &PostgresOutboxRepository{db: tx, table: r.table, system: r.system, log: r.log}
}

func (r *PostgresOutboxRepository) System() string {
	return r.system
}

func (r *PostgresOutboxRepository) Append(ev *outbox.Event) error {
	if err := r.db.Table(r.table).Create(ev).Error; err != nil {
		r.log.Error("failed to append outbox event", "error", err, "event_type", ev.EventType)
		return fmt.Errorf("failed to append outbox event: %w", err)
	}

	r.log.Debug("outbox event appended", "event_id", ev.ID, "event_type", ev.EventType)
	return nil
}

// ClaimPending selects up to limit pending rows oldest-first and claims each
// with a conditional update that flips pending to processing and increments
// attempt_count in one statement. A row already claimed by an overlapping run
// is skipped because its conditional update matches zero rows.
func (r *PostgresOutboxRepository) ClaimPending(limit int) ([]outbox.Event, error) {
	var candidates []outbox.Event
	if err := r.db.Table(r.table).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		r.log.Error("failed to select pending outbox events", "error", err)
		return nil, fmt.Errorf("failed to select pending outbox events: %w", err)
	}

	claimed := make([]outbox.Event, 0, len(candidates))
	for _, ev := range candidates {
		res := r.db.Table(r.table).
			Where("id = ? AND status = ?", ev.ID, outbox.StatusPending).
			Updates(map[string]interface{}{
				"status":        outbox.StatusProcessing,
				"attempt_count": gorm.Expr("attempt_count + 1"),
				"updated_at":    time.Now(),
			})
		if res.Error != nil {
			r.log.Error("failed to claim outbox event", "event_id", ev.ID, "error", res.Error)
			return nil, fmt.Errorf("failed to claim outbox event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// lost the race to a concurrent run
			r.log.Debug("outbox event already claimed elsewhere", "event_id", ev.ID)
			continue
		}

		ev.Status = outbox.StatusProcessing
		ev.AttemptCount++
		claimed = append(claimed, ev)
	}

	if len(claimed) > 0 {
		r.log.Debug("outbox events claimed", "count", len(claimed))
	}
	return claimed, nil
}

// MarkDone finishes a processing row successfully. Done is terminal.
func (r *PostgresOutboxRepository) MarkDone(id uuid.UUID) error {
	res := r.db.Table(r.table).
		Where("id = ? AND status = ?", id, outbox.StatusProcessing).
		Updates(map[string]interface{}{
			"status":     outbox.StatusDone,
			"last_error": nil,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		r.log.Error("failed to mark outbox event done", "event_id", id, "error", res.Error)
		return fmt.Errorf("failed to mark outbox event done: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotClaimable
	}

	r.log.Info("outbox event delivered", "event_id", id)
	return nil
}

// MarkFailed records the failure and either releases the row for a later
// retry or dead-letters it once attemptCount has reached maxAttempts. The
// resulting status is returned.
func (r *PostgresOutboxRepository) MarkFailed(id uuid.UUID, attemptCount, maxAttempts int, cause error) (outbox.Status, error) {
	status := outbox.StatusPending
	if attemptCount >= maxAttempts {
		status = outbox.StatusDead
	}

	lastError := cause.Error()
	res := r.db.Table(r.table).
		Where("id = ? AND status = ?", id, outbox.StatusProcessing).
		Updates(map[string]interface{}{
			"status":     status,
			"last_error": &lastError,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		r.log.Error("failed to record outbox failure", "event_id", id, "error", res.Error)
		return "", fmt.Errorf("failed to record outbox failure: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", ErrNotClaimable
	}

	if status == outbox.StatusDead {
		r.log.Error("outbox event dead-lettered", "event_id", id, "attempts", attemptCount, "last_error", lastError)
	} else {
		r.log.Warn("outbox event failed, will retry", "event_id", id, "attempts", attemptCount, "last_error", lastError)
	}
	return status, nil
}

func (r *PostgresOutboxRepository) ListByStatus(status outbox.Status, limit int) ([]outbox.Event, error) {
	var events []outbox.Event
	q := r.db.Table(r.table).
		Where("status = ?", status).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		r.log.Error("failed to list outbox events", "status", status, "error", err)
		return nil, fmt.Errorf("failed to list outbox events: %w", err)
	}

	return events, nil
}

func (r *PostgresOutboxRepository) CountByStatus(status outbox.Status) (int64, error) {
	var count int64
	if err := r.db.Table(r.table).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count outbox events: %w", err)
	}
	return count, nil
}
