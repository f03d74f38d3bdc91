package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"codegen-backend/internal/timeutil"
)

type SchedulerConfig struct {
	ProcessInterval  time.Duration
	CapacityInterval time.Duration
	// AlignToMidnight delays the first capacity check to the next midnight
	// in Location.
	AlignToMidnight bool
	Location        *time.Location
}

// Scheduler drives the worker: a processing pass every ProcessInterval and
// a capacity check every CapacityInterval.
type Scheduler struct {
	processor *RequestProcessor
	monitor   *CapacityMonitor
	pool      *PoolGenerator
	cfg       SchedulerConfig

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewScheduler(processor *RequestProcessor, monitor *CapacityMonitor, pool *PoolGenerator, cfg SchedulerConfig) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = timeutil.IST
	}
	return &Scheduler{
		processor: processor,
		monitor:   monitor,
		pool:      pool,
		cfg:       cfg,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start begins both loops. Work runs with ctx; Stop ends the loops.
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("[Scheduler] Starting: pass every %s, capacity check every %s", s.cfg.ProcessInterval, s.cfg.CapacityInterval)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, 0, s.cfg.ProcessInterval, s.runPass)
	}()
	go func() {
		defer s.wg.Done()
		s.loop(ctx, s.firstCapacityDelay(), s.cfg.CapacityInterval, s.checkCapacity)
	}()
}

// Stop ends the loops and waits for in-flight work, including a pool run
// started by a capacity check.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		log.Println("[Scheduler] Stopping...")
		close(s.stopChan)
	})
	s.wg.Wait()
	if s.pool != nil {
		s.pool.Wait()
	}
}

func (s *Scheduler) firstCapacityDelay() time.Duration {
	if !s.cfg.AlignToMidnight {
		return 0
	}
	now := s.now()
	return timeutil.NextMidnight(now, s.cfg.Location).Sub(now)
}

// loop runs fn after delay and then every interval until stopped.
func (s *Scheduler) loop(ctx context.Context, delay, interval time.Duration, fn func(ctx context.Context)) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-s.stopChan:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}

	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	_, err := s.processor.RunPass(ctx)
	switch {
	case errors.Is(err, ErrPassInProgress):
		log.Printf("[Scheduler] Previous pass still running, skipping tick")
	case err != nil:
		log.Printf("[Scheduler] Pass failed: %v", err)
	}
}

func (s *Scheduler) checkCapacity(ctx context.Context) {
	if _, err := s.monitor.Check(ctx); err != nil {
		log.Printf("[Scheduler] Capacity check failed: %v", err)
	}
}
