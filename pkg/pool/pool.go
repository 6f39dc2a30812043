package pool

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task is a unit of work executed by the pool.
type Task func(context.Context)

// Config tunes worker pool behaviour.
type Config struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// Pool is a bounded worker pool backed by goroutines. It is safe for
// concurrent submission; callers need no external synchronization.
type Pool struct {
	workers    int
	bufferSize int
	logger     *zap.Logger

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// New builds a pool with the provided configuration.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 20
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		logger:     cfg.Logger,
		tasks:      make(chan Task, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.started = true
	p.logger.Sugar().Infow("worker pool started", "workers", p.workers)
}

// Stop cancels workers and waits for them to exit. Queued tasks that have
// not started are discarded.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Sugar().Infow("worker pool stopped")
}

// Submit pushes a task onto the pool.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.Lock()
	poolCtx := p.ctx
	started := p.started
	p.mu.Unlock()

	if !started {
		return fmt.Errorf("worker pool not started")
	}

	select {
	case <-poolCtx.Done():
		return fmt.Errorf("worker pool stopped: %w", poolCtx.Err())
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- task:
		return nil
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			p.run(task)
		}
	}
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Sugar().Errorw("pool task panicked", "panic", r)
		}
	}()
	task(p.ctx)
}
