package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookstore/internal/services"
)

const (
	QueueMirrorRetry     = "mirror_retry"
	QueueMirrorReconcile = "mirror_reconcile"
)

// Resyncer repairs mirror documents from the relational store.
// *services.MirrorSync implements it.
type Resyncer interface {
	Resync(ctx context.Context, collection string, id uint) error
	ResyncAll(ctx context.Context) (services.ReconcileResult, error)
}

// MirrorRetryTask re-syncs one row whose mirror write failed.
type MirrorRetryTask struct {
	Collection string `json:"collection"`
	ID         uint   `json:"id"`
}

// Config returns the queue configuration for mirror retries. Attempts and
// backoff follow the client's settings.
func (t MirrorRetryTask) Config() backlite.QueueConfig {
	p := currentPolicy()
	return backlite.QueueConfig{
		Name:        QueueMirrorRetry,
		MaxAttempts: p.MaxRetries,
		Backoff:     p.RetryDelay,
		Timeout:     p.TaskTimeout,
		Retention: &backlite.Retention{
			Duration:   p.RetentionDuration,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// MirrorRetryProcessor re-reads the row and upserts it, or deletes the
// document when the row is gone.
func MirrorRetryProcessor(resyncer Resyncer) backlite.QueueProcessor[MirrorRetryTask] {
	return func(ctx context.Context, task MirrorRetryTask) error {
		if resyncer == nil {
			return fmt.Errorf("mirror sync not configured")
		}
		if err := resyncer.Resync(ctx, task.Collection, task.ID); err != nil {
			return fmt.Errorf("resync %s %d: %w", task.Collection, task.ID, err)
		}
		log.Printf("[TASK] Mirror caught up for %s %d", task.Collection, task.ID)
		return nil
	}
}

// NewMirrorRetryQueue creates a backlite queue for mirror retries.
func NewMirrorRetryQueue(resyncer Resyncer) backlite.Queue {
	return backlite.NewQueue(MirrorRetryProcessor(resyncer))
}

// MirrorReconcileTask pushes every row to the mirror.
type MirrorReconcileTask struct {
	Reason string `json:"reason,omitempty"`
}

func (t MirrorReconcileTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueMirrorReconcile,
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     60 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   currentPolicy().RetentionDuration,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func MirrorReconcileProcessor(resyncer Resyncer) backlite.QueueProcessor[MirrorReconcileTask] {
	return func(ctx context.Context, task MirrorReconcileTask) error {
		if resyncer == nil {
			return fmt.Errorf("mirror sync not configured")
		}
		start := time.Now()
		result, err := resyncer.ResyncAll(ctx)
		if err != nil {
			return fmt.Errorf("mirror reconcile: %w", err)
		}
		log.Printf("[TASK] Mirror reconcile (%s) finished in %v: %d synced, %d failed",
			task.Reason, time.Since(start).Round(time.Millisecond), result.Synced, result.Failed)
		return nil
	}
}

func NewMirrorReconcileQueue(resyncer Resyncer) backlite.Queue {
	return backlite.NewQueue(MirrorReconcileProcessor(resyncer))
}
