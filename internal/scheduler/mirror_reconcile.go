package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookstore/internal/services"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Reconciler pushes every relational row to the document mirror.
// *services.MirrorSync implements it.
type Reconciler interface {
	ResyncAll(ctx context.Context) (services.ReconcileResult, error)
}

// ValidateSchedule checks a standard five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// MirrorReconcileScheduler periodically re-syncs the whole mirror so that
// documents missed by failed writes and exhausted retries catch up.
type MirrorReconcileScheduler struct {
	reconciler Reconciler
	schedule   string
	timeout    time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	lastResult *services.ReconcileResult
}

// NewMirrorReconcileScheduler creates a scheduler for the given cron schedule.
// Each run is bounded by timeout.
func NewMirrorReconcileScheduler(reconciler Reconciler, schedule string, timeout time.Duration) *MirrorReconcileScheduler {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &MirrorReconcileScheduler{
		reconciler: reconciler,
		schedule:   schedule,
		timeout:    timeout,
		cron:       cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start registers the job and starts the cron runner. The scheduler stops
// when ctx is cancelled.
func (s *MirrorReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runReconcile()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconcile job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	next := s.cron.Entry(entryID).Next
	log.Printf("[RECONCILE] Scheduler started with schedule '%s'. Next run: %v", s.schedule, next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running reconcile to finish. The
// lock is released before waiting, since the running job takes it on exit.
func (s *MirrorReconcileScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	stopped := s.cron.Stop()
	s.mu.Unlock()

	<-stopped.Done()
	log.Printf("[RECONCILE] Scheduler stopped")
}

// RunNow triggers an immediate reconcile in the background.
func (s *MirrorReconcileScheduler) RunNow() {
	go s.runReconcile()
}

func (s *MirrorReconcileScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a reconcile is currently in progress.
func (s *MirrorReconcileScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// LastResult returns the outcome of the most recent completed run.
func (s *MirrorReconcileScheduler) LastResult() *services.ReconcileResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// GetNextRunTime returns when the next reconcile will occur.
func (s *MirrorReconcileScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	t := s.cron.Entry(s.entryID).Next
	return &t
}

// runReconcile runs one full resync unless another one is in flight.
func (s *MirrorReconcileScheduler) runReconcile() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("[RECONCILE] Skipped (already running)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	log.Printf("[RECONCILE] Starting full mirror resync")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.reconciler.ResyncAll(ctx)
	if err != nil {
		log.Printf("[RECONCILE] Failed after %d rows: %v", result.Synced+result.Failed, err)
		return
	}

	s.mu.Lock()
	s.lastResult = &result
	s.mu.Unlock()

	log.Printf("[RECONCILE] Synced %d rows (%d failed) in %v",
		result.Synced, result.Failed, time.Since(startTime).Round(time.Millisecond))
}
