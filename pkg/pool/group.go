package pool

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Group is a single-use barrier over fetch tasks submitted to a shared pool.
// Each Go call schedules one task; Wait blocks until every scheduled task has
// finished. A task that cannot be scheduled runs inline so the barrier always
// accounts for it.
type Group struct {
	pool   *Pool
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewGroup binds a task group to a pool. A nil pool degrades to plain
// goroutines.
func NewGroup(p *Pool) *Group {
	logger := zap.NewNop()
	if p != nil {
		logger = p.logger
	}
	return &Group{pool: p, logger: logger}
}

// Go schedules fn and tracks it for Wait. fn receives the caller's context,
// not the pool's. A panicking task is abandoned and logged; it still releases
// the barrier.
func (g *Group) Go(ctx context.Context, fn func(context.Context)) {
	g.wg.Add(1)
	wrapped := func(context.Context) {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.logger.Sugar().Errorw("group task panicked", "panic", r)
			}
		}()
		fn(ctx)
	}
	if g.pool == nil {
		go wrapped(ctx)
		return
	}
	if err := g.pool.Submit(ctx, wrapped); err != nil {
		wrapped(ctx)
	}
}

// Wait blocks until all scheduled tasks complete.
func (g *Group) Wait() {
	g.wg.Wait()
}
