package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecutesAllTasks(t *testing.T) {
	p := New(Config{Workers: 4})
	p.Start(context.Background())
	defer p.Stop()

	var count int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		err := p.Submit(context.Background(), func(context.Context) {
			defer wg.Done()
			atomic.AddInt64(&count, 1)
		})
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, int64(50), atomic.LoadInt64(&count))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := New(Config{Workers: 3, BufferSize: 64})
	p.Start(context.Background())
	defer p.Stop()

	var active, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		err := p.Submit(context.Background(), func(context.Context) {
			defer wg.Done()
			cur := atomic.AddInt64(&active, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&active, -1)
		})
		require.NoError(t, err)
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3))
}

func TestPoolSubmitBeforeStart(t *testing.T) {
	p := New(Config{Workers: 1})
	err := p.Submit(context.Background(), func(context.Context) {})
	require.Error(t, err)
}

func TestPoolRecoversFromPanic(t *testing.T) {
	p := New(Config{Workers: 1})
	p.Start(context.Background())
	defer p.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(context.Background(), func(context.Context) {
		defer wg.Done()
		panic("boom")
	}))
	wg.Wait()

	// Worker must survive the panic and keep processing.
	done := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(context.Context) {
		close(done)
	}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not recover after panic")
	}
}

func TestGroupWaitsForAllTasks(t *testing.T) {
	p := New(Config{Workers: 4})
	p.Start(context.Background())
	defer p.Stop()

	var count int64
	g := NewGroup(p)
	for i := 0; i < 10; i++ {
		g.Go(context.Background(), func(context.Context) {
			atomic.AddInt64(&count, 1)
		})
	}
	g.Wait()
	assert.Equal(t, int64(10), atomic.LoadInt64(&count))
}

func TestGroupNilPoolRunsInline(t *testing.T) {
	var count int64
	g := NewGroup(nil)
	for i := 0; i < 5; i++ {
		g.Go(context.Background(), func(context.Context) {
			atomic.AddInt64(&count, 1)
		})
	}
	g.Wait()
	assert.Equal(t, int64(5), atomic.LoadInt64(&count))
}

func TestGroupRecoversPanicWithoutPool(t *testing.T) {
	var count int64
	g := NewGroup(nil)
	g.Go(context.Background(), func(context.Context) {
		panic("boom")
	})
	g.Go(context.Background(), func(context.Context) {
		atomic.AddInt64(&count, 1)
	})
	g.Wait()

	// The panicking task is abandoned; the barrier still releases and the
	// other task runs.
	assert.Equal(t, int64(1), atomic.LoadInt64(&count))
}

func TestGroupRecoversPanicOnSubmitFallback(t *testing.T) {
	// An unstarted pool rejects every Submit, forcing the inline path.
	p := New(Config{Workers: 1})

	g := NewGroup(p)
	assert.NotPanics(t, func() {
		g.Go(context.Background(), func(context.Context) {
			panic("boom")
		})
		g.Wait()
	})
}
