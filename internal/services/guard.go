package services

import (
	"context"
	"log"
	"sync/atomic"
)

// Locker is a cross-process advisory lock. cache.RedisLock implements it.
type Locker interface {
	Acquire(ctx context.Context, name string) (bool, error)
	Release(ctx context.Context, name string) error
}

// RunGuard lets at most one run of a job be active. The local flag is a
// compare-and-swap; a Locker, when set, extends exclusion to other
// processes sharing the same Redis.
type RunGuard struct {
	name   string
	locker Locker

	active atomic.Bool
	remote atomic.Bool
}

func NewRunGuard(name string, locker Locker) *RunGuard {
	return &RunGuard{name: name, locker: locker}
}

func (g *RunGuard) Name() string {
	return g.name
}

// TryAcquire returns false without blocking when the job is already running
// here or, with a Locker, in another process. If the Locker itself fails
// the guard falls back to local exclusion only.
func (g *RunGuard) TryAcquire(ctx context.Context) bool {
	if !g.active.CompareAndSwap(false, true) {
		return false
	}
	if g.locker == nil {
		return true
	}

	ok, err := g.locker.Acquire(ctx, g.name)
	if err != nil {
		log.Printf("[Guard] Remote lock %s unavailable, using local guard only: %v", g.name, err)
		return true
	}
	if !ok {
		g.active.Store(false)
		return false
	}
	g.remote.Store(true)
	return true
}

func (g *RunGuard) Release(ctx context.Context) {
	if g.remote.CompareAndSwap(true, false) {
		// release even if the run's own context was cancelled
		if err := g.locker.Release(context.WithoutCancel(ctx), g.name); err != nil {
			log.Printf("[Guard] Failed to release remote lock %s: %v", g.name, err)
		}
	}
	g.active.Store(false)
}

// Active reports whether this process holds the guard.
func (g *RunGuard) Active() bool {
	return g.active.Load()
}
