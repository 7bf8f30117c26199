package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newScheduler() *Scheduler { return New(zap.NewNop()) }

func TestEvery_Fires(t *testing.T) {
	s := newScheduler()
	defer s.Stop()

	var count int32
	s.Every("tick", 20*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}

func TestEvery_Replaces(t *testing.T) {
	s := newScheduler()
	defer s.Stop()

	var count1, count2 int32
	s.Every("task", 20*time.Millisecond, func() { atomic.AddInt32(&count1, 1) })
	time.Sleep(30 * time.Millisecond)
	s.Every("task", 20*time.Millisecond, func() { atomic.AddInt32(&count2, 1) })
	time.Sleep(80 * time.Millisecond)

	snap1 := atomic.LoadInt32(&count1)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&count1), "replaced task must stop")
	assert.Positive(t, atomic.LoadInt32(&count2))
}

func TestAfter_FiresOnce(t *testing.T) {
	s := newScheduler()
	defer s.Stop()

	var count int32
	s.After("once", 30*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestAfter_ReplacesCancelsOld(t *testing.T) {
	s := newScheduler()
	defer s.Stop()

	var count int32
	s.After("d", 500*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	s.After("d", 30*time.Millisecond, func() { atomic.AddInt32(&count, 10) })
	time.Sleep(100 * time.Millisecond)
	// Only the replacement fires.
	assert.Equal(t, int32(10), atomic.LoadInt32(&count))
}

func TestCancel_Periodic(t *testing.T) {
	s := newScheduler()
	defer s.Stop()

	var count int32
	s.Every("task", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Cancel("task")
	snap := atomic.LoadInt32(&count)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count), "task must stop after Cancel")
}

func TestCancel_OneShot(t *testing.T) {
	s := newScheduler()
	defer s.Stop()

	var count int32
	s.After("d", 100*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	s.Cancel("d")
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))
}

func TestCancel_Unknown(t *testing.T) {
	s := newScheduler()
	defer s.Stop()
	// Must not panic.
	s.Cancel("nope")
}

func TestStop_StopsEverything(t *testing.T) {
	s := newScheduler()

	var c1, c2 int32
	s.Every("a", 20*time.Millisecond, func() { atomic.AddInt32(&c1, 1) })
	s.Every("b", 20*time.Millisecond, func() { atomic.AddInt32(&c2, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	// Give goroutines time to observe the stop signal before snapping counts.
	time.Sleep(30 * time.Millisecond)
	snap1, snap2 := atomic.LoadInt32(&c1), atomic.LoadInt32(&c2)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&c1))
	assert.Equal(t, snap2, atomic.LoadInt32(&c2))
}

func TestStop_Idempotent(t *testing.T) {
	s := newScheduler()
	s.Stop()
	s.Stop()
}

func TestNames(t *testing.T) {
	s := newScheduler()
	defer s.Stop()

	require.Empty(t, s.Names())
	s.Every("alpha", time.Hour, func() {})
	s.Every("beta", time.Hour, func() {})
	names := s.Names()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "alpha")
	assert.Contains(t, names, "beta")

	s.Cancel("alpha")
	assert.Equal(t, []string{"beta"}, s.Names())
}

func TestPanicRecovery(t *testing.T) {
	s := newScheduler()
	defer s.Stop()

	var after int32
	s.Every("panic", 20*time.Millisecond, func() {
		panic("oops")
	})
	time.Sleep(80 * time.Millisecond)
	atomic.StoreInt32(&after, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&after))
}
