// Package crm holds the external marketing/CRM sync clients and the
// idempotent orchestration on top of them. Failures are values, never
// panics: every caller needs to continue past a failed sync.
package crm

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/nominations-api/internal/logger"
	"github.com/gravadigital/nominations-api/internal/validation"
)

// Contact is one external contact record.
type Contact struct {
	ID         string
	Email      string
	Attributes map[string]string
}

// ContactAPI is the minimal contract a CRM has to satisfy: search by email
// yields zero or one result, create/update yield success or failure.
type ContactAPI interface {
	Name() string
	SearchByEmail(ctx context.Context, email string) (*Contact, error)
	Create(ctx context.Context, email string, attributes map[string]string) (*Contact, error)
	Update(ctx context.Context, id string, attributes map[string]string) error
}

// SyncResult is the typed outcome of one sync attempt.
type SyncResult struct {
	System  string `json:"system"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok reports whether the attempt either succeeded or was a deliberate no-op.
func (r SyncResult) Ok() bool {
	return r.Success
}

// Syncer wraps one CRM's ContactAPI with the idempotent
// "ensure this contact exists with these attributes" operation. Both the
// best-effort direct path and the outbox replay path call it, possibly for
// the same logical event, and must land on the same end state.
type Syncer struct {
	api     ContactAPI
	enabled bool
	log     *log.Logger
}

// NewSyncer creates a syncer for one external system. A disabled syncer
// reports every call as a skipped success.
func NewSyncer(api ContactAPI, enabled bool) *Syncer {
	return &Syncer{
		api:     api,
		enabled: enabled,
		log:     logger.Sync(api.Name()),
	}
}

// System returns the external system name.
func (s *Syncer) System() string {
	return s.api.Name()
}

// Enabled reports whether this system is configured for syncing.
func (s *Syncer) Enabled() bool {
	return s.enabled
}

// EnsureContact looks the contact up by email and either patches the existing
// record (merging the given attributes, leaving others untouched) or creates
// a new one. Invoking it twice with the same input produces the same end
// state.
func (s *Syncer) EnsureContact(ctx context.Context, email string, attributes map[string]string) SyncResult {
	if !s.enabled {
		return SyncResult{System: s.System(), Success: true, Skipped: true}
	}

	email = validation.NormalizeEmail(email)
	if email == "" {
		return s.failure(fmt.Errorf("contact email is empty"))
	}

	existing, err := s.api.SearchByEmail(ctx, email)
	if err != nil {
		return s.failure(fmt.Errorf("contact search failed: %w", err))
	}

	if existing != nil {
		if err := s.api.Update(ctx, existing.ID, attributes); err != nil {
			return s.failure(fmt.Errorf("contact update failed: %w", err))
		}
		s.log.Debug("contact updated", "email", email, "contact_id", existing.ID)
		return SyncResult{System: s.System(), Success: true}
	}

	created, err := s.api.Create(ctx, email, attributes)
	if err != nil {
		return s.failure(fmt.Errorf("contact create failed: %w", err))
	}

	s.log.Debug("contact created", "email", email, "contact_id", created.ID)
	return SyncResult{System: s.System(), Success: true}
}

func (s *Syncer) failure(err error) SyncResult {
	s.log.Warn("sync attempt failed", "error", err)
	return SyncResult{System: s.System(), Success: false, Error: err.Error()}
}
