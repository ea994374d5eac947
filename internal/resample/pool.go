package resample

import (
	"context"
	"log"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the number of concurrent ffmpeg renders.
const DefaultWorkers = 2

// Pool runs renders in the background, at most workers at a time, and
// delivers exactly one Result per Submit on the Results channel.
type Pool struct {
	renderer Renderer
	sem      *semaphore.Weighted
	results  chan Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts a pool around r. workers < 1 means DefaultWorkers.
func NewPool(r Renderer, workers int) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		renderer: r,
		sem:      semaphore.NewWeighted(int64(workers)),
		results:  make(chan Result, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit queues req. It never blocks; the render waits for a free worker.
// It returns false once the pool is closed.
func (p *Pool) Submit(req Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}

	p.wg.Add(1)
	go p.work(req)
	return true
}

func (p *Pool) work(req Request) {
	defer p.wg.Done()

	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		return
	}
	seg, err := p.renderer.Render(p.ctx, req)
	p.sem.Release(1)

	res := Result{Request: req, Segment: seg, Err: err}
	select {
	case p.results <- res:
	case <-p.ctx.Done():
		discard(res)
	}
}

// Results delivers completed renders. The receiver owns every successful
// Segment.Path it reads.
func (p *Pool) Results() <-chan Result { return p.results }

// Close cancels pending renders, waits for running ones, and removes any
// rendered files nobody collected.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	for {
		select {
		case res := <-p.results:
			discard(res)
		default:
			return
		}
	}
}

func discard(res Result) {
	if res.Err != nil || res.Segment.Path == "" {
		return
	}
	if err := os.Remove(res.Segment.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("resample: remove %s: %v", res.Segment.Path, err)
	}
}

// Discard removes the file behind a Result the receiver does not want.
func Discard(res Result) { discard(res) }
