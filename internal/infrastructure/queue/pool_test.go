package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_DoRunsJob(t *testing.T) {
	p := NewPool(2, nil, zerolog.Nop())
	p.Start(context.Background())
	defer p.Stop()

	var got int
	if err := p.Do(context.Background(), func() { got = 42 }); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if got != 42 {
		t.Fatalf("job did not run, got %d", got)
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(workers, nil, zerolog.Nop())
	p.Start(context.Background())
	defer p.Stop()

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), func() {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
			})
		}()
	}
	wg.Wait()

	if peak > workers {
		t.Fatalf("expected at most %d concurrent jobs, saw %d", workers, peak)
	}
}

func TestPool_CancelledContextSkipsJob(t *testing.T) {
	p := NewPool(1, nil, zerolog.Nop())
	p.Start(context.Background())
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	if err := p.Do(ctx, func() { ran = true }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran {
		t.Fatalf("job for a cancelled context must not run")
	}
}

func TestPool_AbandonedWhileQueued(t *testing.T) {
	p := NewPool(1, nil, zerolog.Nop())
	p.Start(context.Background())
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Do(context.Background(), func() {
			close(started)
			<-release
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var ran atomic.Bool
	if err := p.Do(ctx, func() { ran.Store(true) }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(release)

	// A follow-up job proves the worker moved past the abandoned one.
	if err := p.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("follow-up job failed: %v", err)
	}
	if ran.Load() {
		t.Fatalf("abandoned job must be skipped")
	}
}

func TestPool_StopRejectsNewWork(t *testing.T) {
	p := NewPool(1, nil, zerolog.Nop())
	p.Start(context.Background())
	p.Stop()

	if err := p.Do(context.Background(), func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_ContextCancelStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(2, nil, zerolog.Nop())
	p.Start(ctx)
	cancel()
	p.Stop()
}

func TestPool_DepthGaugeReturnsToZero(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_pool_depth"})
	p := NewPool(2, gauge, zerolog.Nop())
	p.Start(context.Background())
	defer p.Stop()

	for i := 0; i < 10; i++ {
		if err := p.Do(context.Background(), func() {}); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	var m dto.Metric
	if err := gauge.Write(&m); err != nil {
		t.Fatalf("read gauge: %v", err)
	}
	if v := m.GetGauge().GetValue(); v != 0 {
		t.Fatalf("expected depth 0, got %v", v)
	}
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("read gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestPool_StopReleasesQueuedDepth(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_pool_depth_on_stop"})
	p := NewPool(1, gauge, zerolog.Nop())
	p.Start(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	var callers sync.WaitGroup
	callers.Add(1)
	go func() {
		defer callers.Done()
		_ = p.Do(context.Background(), func() {
			close(started)
			<-release
		})
	}()
	<-started

	const queued = 3
	var ran atomic.Int32
	errs := make(chan error, queued)
	for i := 0; i < queued; i++ {
		callers.Add(1)
		go func() {
			defer callers.Done()
			errs <- p.Do(context.Background(), func() { ran.Add(1) })
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for gaugeValue(t, gauge) != queued {
		if time.Now().After(deadline) {
			t.Fatalf("jobs never queued, depth=%v", gaugeValue(t, gauge))
		}
		time.Sleep(time.Millisecond)
	}

	p.close()
	close(release)
	p.Stop()
	callers.Wait()
	close(errs)

	if v := gaugeValue(t, gauge); v != 0 {
		t.Fatalf("expected depth 0 after stop, got %v", v)
	}
	if ran.Load() != 0 {
		t.Fatalf("queued jobs must not run after stop, ran %d", ran.Load())
	}
	for err := range errs {
		if !errors.Is(err, ErrPoolClosed) {
			t.Fatalf("expected ErrPoolClosed for queued callers, got %v", err)
		}
	}
}
