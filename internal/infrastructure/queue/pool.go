package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrPoolClosed is returned by Do once the pool has been stopped.
var ErrPoolClosed = errors.New("worker pool closed")

type job struct {
	ctx  context.Context
	fn   func()
	done chan struct{}
}

// Pool runs CPU-bound functions on a fixed number of worker goroutines so
// that request goroutines only block on a channel while the work runs.
type Pool struct {
	jobs    chan job
	workers int
	depth   prometheus.Gauge
	log     zerolog.Logger

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool creates a Pool with numWorkers workers. If numWorkers <= 0,
// defaultWorkers is used. depth may be nil.
func NewPool(numWorkers int, depth prometheus.Gauge, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Pool{
		jobs:    make(chan job, channelBuffer),
		workers: numWorkers,
		depth:   depth,
		log:     log,
		quit:    make(chan struct{}),
	}
}

// Start launches the workers. They stop when ctx is cancelled or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case <-ctx.Done():
			p.close()
		case <-p.quit:
		}
	}()
	p.log.Info().Int("workers", p.workers).Msg("worker pool started")
}

// Stop closes the pool and waits for every worker to return. Jobs still
// queued are abandoned and their callers get ErrPoolClosed.
func (p *Pool) Stop() {
	p.close()
	p.wg.Wait()
	for {
		select {
		case <-p.jobs:
			p.setDepth(-1)
		default:
			return
		}
	}
}

func (p *Pool) close() {
	p.closeOnce.Do(func() { close(p.quit) })
}

// Do runs fn on a worker and blocks until it has finished. If ctx ends first
// Do returns ctx.Err(); a job that has not started by then is skipped, one
// already running completes and its result is discarded by the caller.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	j := job{ctx: ctx, fn: fn, done: make(chan struct{})}
	select {
	case p.jobs <- j:
		p.setDepth(1)
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrPoolClosed
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		// A running job still finishes; only report closure if it never ran.
		select {
		case <-j.done:
			return nil
		default:
			return ErrPoolClosed
		}
	}
}

func (p *Pool) setDepth(delta float64) {
	if p.depth != nil {
		p.depth.Add(delta)
	}
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	for {
		// quit wins over queued work so Stop does not wait on the backlog.
		select {
		case <-p.quit:
			return
		default:
		}
		select {
		case <-p.quit:
			return
		case j := <-p.jobs:
			p.setDepth(-1)
			if j.ctx.Err() != nil {
				p.log.Debug().Int("worker_id", id).Msg("skipping job for abandoned request")
				continue
			}
			j.fn()
			close(j.done)
		}
	}
}
