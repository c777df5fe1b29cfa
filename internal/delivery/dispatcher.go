// Package delivery hands real-time notifications off the write path. Jobs
// run on a small worker pool behind a bounded queue and are dropped, never
// retried, when the queue is full.
package delivery

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"messaging_go/internal/domain"
)

// Job is a unit of best-effort work.
type Job = func(ctx context.Context) error

type queuedJob struct {
	id   string
	name string
	run  Job
}

// Dispatcher runs submitted jobs on a fixed set of workers. Each worker owns
// its own queue, so jobs submitted under the same key run one after another
// in submission order.
type Dispatcher struct {
	queues  []chan queuedJob
	next    atomic.Uint64
	timeout time.Duration

	wg sync.WaitGroup
}

// NewDispatcher splits queueSize evenly across the workers' queues.
func NewDispatcher(queueSize, workers int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	perWorker := (queueSize + workers - 1) / workers
	if perWorker <= 0 {
		perWorker = 1
	}
	d := &Dispatcher{
		queues:  make([]chan queuedJob, workers),
		timeout: timeout,
	}
	for i := range d.queues {
		d.queues[i] = make(chan queuedJob, perWorker)
	}
	return d
}

// Submit enqueues fn on the next worker without blocking. It reports false
// when that queue is full and the job was dropped.
func (d *Dispatcher) Submit(name string, fn Job) bool {
	shard := int(d.next.Add(1) % uint64(len(d.queues)))
	return d.enqueue(shard, name, fn)
}

// SubmitFor is Submit pinned to the worker owning key.
func (d *Dispatcher) SubmitFor(key int64, name string, fn Job) bool {
	shard := int(uint64(key) % uint64(len(d.queues)))
	return d.enqueue(shard, name, fn)
}

func (d *Dispatcher) enqueue(shard int, name string, fn Job) bool {
	job := queuedJob{id: uuid.NewString(), name: name, run: fn}
	select {
	case d.queues[shard] <- job:
		return true
	default:
		log.Printf("delivery: %v: queue full, dropped %s (%s)", domain.ErrDeliveryFailed, job.name, job.id)
		return false
	}
}

// Run starts the workers and blocks until ctx is cancelled. Jobs still
// queued at that point are drained before Run returns.
func (d *Dispatcher) Run(ctx context.Context) {
	for _, q := range d.queues {
		d.wg.Add(1)
		go d.worker(ctx, q)
	}
	<-ctx.Done()
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, queue <-chan queuedJob) {
	defer d.wg.Done()
	for {
		select {
		case job := <-queue:
			d.execute(job)
		case <-ctx.Done():
			for {
				select {
				case job := <-queue:
					d.execute(job)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) execute(job queuedJob) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("delivery: job %s (%s) panicked: %v", job.name, job.id, r)
		}
	}()
	if err := job.run(ctx); err != nil {
		log.Printf("delivery: %v", fmt.Errorf("%w: %s (%s): %w", domain.ErrDeliveryFailed, job.name, job.id, err))
	}
}
