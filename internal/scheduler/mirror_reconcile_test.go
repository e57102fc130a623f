package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/services"
)

type blockingReconciler struct {
	calls   atomic.Int32
	release chan struct{}
}

func (r *blockingReconciler) ResyncAll(ctx context.Context) (services.ReconcileResult, error) {
	r.calls.Add(1)
	select {
	case <-r.release:
	case <-ctx.Done():
		return services.ReconcileResult{}, ctx.Err()
	}
	return services.ReconcileResult{Synced: 4, Failed: 1}, nil
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.Error(t, ValidateSchedule("every night"))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"), "seconds field is not accepted")
}

func TestMirrorReconcileScheduler_StartStop(t *testing.T) {
	s := NewMirrorReconcileScheduler(&blockingReconciler{}, "0 3 * * *", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.GetNextRunTime())
	assert.Equal(t, 3, s.GetNextRunTime().Hour())

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
	assert.Nil(t, s.GetNextRunTime())
}

func TestMirrorReconcileScheduler_InvalidSchedule(t *testing.T) {
	s := NewMirrorReconcileScheduler(&blockingReconciler{}, "nope", time.Second)
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestMirrorReconcileScheduler_SkipsOverlappingRuns(t *testing.T) {
	r := &blockingReconciler{release: make(chan struct{})}
	s := NewMirrorReconcileScheduler(r, "0 3 * * *", 5*time.Second)

	s.RunNow()
	require.Eventually(t, s.IsSyncing, time.Second, 5*time.Millisecond)

	s.runReconcile() // returns immediately while the first run is in flight
	assert.Equal(t, int32(1), r.calls.Load())

	close(r.release)
	require.Eventually(t, func() bool { return !s.IsSyncing() }, time.Second, 5*time.Millisecond)
	require.NotNil(t, s.LastResult())
	assert.Equal(t, services.ReconcileResult{Synced: 4, Failed: 1}, *s.LastResult())
}

func TestMirrorReconcileScheduler_StopDuringScheduledRun(t *testing.T) {
	r := &blockingReconciler{release: make(chan struct{})}
	s := NewMirrorReconcileScheduler(r, "0 3 * * *", 10*time.Second)
	require.NoError(t, s.Start(context.Background()))

	// A job tracked by cron, so Stop has to wait for it.
	s.cron.Schedule(cron.Every(time.Second), cron.FuncJob(s.runReconcile))
	require.Eventually(t, s.IsSyncing, 3*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	close(r.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the reconcile finished")
	}
	assert.False(t, s.IsRunning())
	assert.False(t, s.IsSyncing())
	require.NotNil(t, s.LastResult())
}
