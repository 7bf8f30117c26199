// Package scheduler runs named background tasks on an interval or after
// a delay. The game loop itself is request-driven; the scheduler carries
// the slow world processes, like the periodic NPC evolution pass.
package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of scheduled work. Tasks must not block for long; a
// slow task delays its own next run, not other tasks.
type Task func()

// Scheduler owns a set of named periodic and one-shot tasks.
type Scheduler struct {
	mu       sync.Mutex
	periodic map[string]chan struct{}
	oneShots map[string]*time.Timer
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates an empty Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		periodic: make(map[string]chan struct{}),
		oneShots: make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Every runs fn on a fixed interval until the task is cancelled or the
// scheduler stops. Registering an existing name replaces the old task.
func (s *Scheduler) Every(name string, interval time.Duration, fn Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.periodic[name]; ok {
		close(old)
	}
	done := make(chan struct{})
	s.periodic[name] = done

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(name, fn)
			case <-done:
				return
			case <-s.stopCh:
				return
			}
		}
	}()
	s.logger.Info("scheduled task registered",
		zap.String("task", name),
		zap.Duration("interval", interval))
}

// After runs fn once after the delay. Registering an existing name
// cancels the pending run and schedules a new one.
func (s *Scheduler) After(name string, delay time.Duration, fn Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.oneShots[name]; ok {
		old.Stop()
	}
	s.oneShots[name] = time.AfterFunc(delay, func() {
		defer func() {
			s.mu.Lock()
			delete(s.oneShots, name)
			s.mu.Unlock()
		}()
		s.run(name, fn)
	})
}

// Cancel stops the named task, periodic or one-shot. Unknown names are
// ignored.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if done, ok := s.periodic[name]; ok {
		close(done)
		delete(s.periodic, name)
	}
	if timer, ok := s.oneShots[name]; ok {
		timer.Stop()
		delete(s.oneShots, name)
	}
}

// Stop halts every task. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Names lists the registered periodic tasks.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.periodic))
	for name := range s.periodic {
		names = append(names, name)
	}
	return names
}

// run executes fn, turning a panic into a log line so one bad task
// cannot take the process down.
func (s *Scheduler) run(name string, fn Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
	}()
	fn()
}
