package services

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/logger"
)

// OutboxProcessor replays pending outbox rows against their external
// systems. It runs as a triggered batch job and is safe under overlapping
// invocations: the claim step is an atomic conditional update, so two runs
// can never both claim the same row. Rows are processed independently; one
// failing row never affects another.
type OutboxProcessor struct {
	targets          []SyncTarget
	maxAttempts      int
	defaultBatchSize int
	log              *log.Logger
}

// NewOutboxProcessor creates the processor
func NewOutboxProcessor(targets []SyncTarget, maxAttempts, defaultBatchSize int) *OutboxProcessor {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if defaultBatchSize <= 0 {
		defaultBatchSize = 25
	}
	return &OutboxProcessor{
		targets:          targets,
		maxAttempts:      maxAttempts,
		defaultBatchSize: defaultBatchSize,
		log:              logger.Service("outbox_processor"),
	}
}

// ProcessResult is the outcome of one row.
type ProcessResult struct {
	ID        uuid.UUID        `json:"id"`
	System    string           `json:"system"`
	EventType outbox.EventType `json:"event_type"`
	Status    outbox.Status    `json:"status"`
	Error     string           `json:"error,omitempty"`
}

// ProcessReport summarizes one processor run.
type ProcessReport struct {
	Processed int             `json:"processed"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Results   []ProcessResult `json:"results"`
}

// Process claims up to batchSize pending rows per external system, oldest
// first, replays each from its stored payload snapshot, and records the
// outcome: done on success, pending again below the retry ceiling, dead at
// it.
func (p *OutboxProcessor) Process(ctx context.Context, batchSize int) *ProcessReport {
	if batchSize <= 0 {
		batchSize = p.defaultBatchSize
	}

	report := &ProcessReport{Results: []ProcessResult{}}

	for _, t := range p.targets {
		events, err := t.Outbox.ClaimPending(batchSize)
		if err != nil {
			p.log.Error("failed to claim pending outbox events", "system", t.Outbox.System(), "error", err)
			continue
		}

		for _, ev := range events {
			report.Processed++
			result := ProcessResult{
				ID:        ev.ID,
				System:    t.Outbox.System(),
				EventType: ev.EventType,
			}

			if err := p.replay(ctx, t, &ev); err != nil {
				report.Failed++
				result.Error = err.Error()
				status, markErr := t.Outbox.MarkFailed(ev.ID, ev.AttemptCount, p.maxAttempts, err)
				if markErr != nil {
					p.log.Error("failed to record outbox failure", "event_id", ev.ID, "error", markErr)
					result.Status = ev.Status
				} else {
					result.Status = status
				}
			} else {
				if err := t.Outbox.MarkDone(ev.ID); err != nil {
					p.log.Error("failed to mark outbox event done", "event_id", ev.ID, "error", err)
				}
				report.Succeeded++
				result.Status = outbox.StatusDone
			}

			report.Results = append(report.Results, result)
		}
	}

	p.log.Info("outbox batch processed",
		"processed", report.Processed,
		"succeeded", report.Succeeded,
		"failed", report.Failed)
	return report
}

// replay dispatches one claimed row using the stored payload snapshot, never
// a fresh read of the source entities.
func (p *OutboxProcessor) replay(ctx context.Context, t SyncTarget, ev *outbox.Event) error {
	payload, err := ev.DecodePayload()
	if err != nil {
		return err
	}
	return deliver(ctx, t.Syncer, ev.EventType, payload)
}
