package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
)

// ErrRunnerClosed is returned by Submit after Close.
var ErrRunnerClosed = errors.New("ingestion runner closed")

// Handle tracks one submitted job.
type Handle struct {
	// Job is the ledger entry in its RECEIVED state.
	Job domain.IngestJob
	// Pdf is the parent record in its INGESTING state.
	Pdf    domain.Pdf
	done   chan struct{}
	out    Outcome
	err    error
	cancel context.CancelFunc
}

// Wait blocks until the job is terminal or ctx is done. A done ctx does not
// cancel the job; use Cancel for that.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.out, h.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Done is closed when the job reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancel asks the job to stop. The pipeline rolls it back.
func (h *Handle) Cancel() {
	h.cancel()
}

type task struct {
	ctx    context.Context
	pdf    domain.Pdf
	req    LoadRequest
	handle *Handle
}

// Runner executes ingestion jobs on a fixed pool of workers. Jobs for
// different records run in parallel.
type Runner struct {
	pipeline *Pipeline
	queue    chan *task
	base     context.Context
	stop     context.CancelFunc

	mu      sync.Mutex
	closed  bool
	handles map[string]*Handle
	wg      sync.WaitGroup
	// sendMu is held for reading while sending on queue and for writing
	// while closing it.
	sendMu sync.RWMutex
}

// NewRunner starts workers goroutines. Jobs run under contexts derived from
// ctx; cancelling ctx cancels every running job.
func NewRunner(ctx context.Context, pipeline *Pipeline, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	base, stop := context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-base.Done():
		}
	}()

	r := &Runner{
		pipeline: pipeline,
		queue:    make(chan *task, workers*4),
		base:     base,
		stop:     stop,
		handles:  make(map[string]*Handle),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work(i)
	}
	return r
}

// Submit records the job as RECEIVED and queues it. It blocks while the
// queue is full, until ctx is done.
func (r *Runner) Submit(ctx context.Context, req LoadRequest) (*Handle, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrRunnerClosed
	}

	job, pdf, err := r.pipeline.Begin(ctx, req)
	if err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(contextutil.WithLogger(r.base, contextutil.LoggerFromContext(ctx)))
	h := &Handle{Job: job, Pdf: pdf, done: make(chan struct{}), cancel: cancel}
	t := &task{ctx: jobCtx, pdf: pdf, req: req, handle: h}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.reject(t, ErrRunnerClosed)
		return nil, ErrRunnerClosed
	}
	r.handles[job.ID] = h
	r.mu.Unlock()

	r.sendMu.RLock()
	defer r.sendMu.RUnlock()
	if r.base.Err() != nil {
		r.reject(t, ErrRunnerClosed)
		return nil, ErrRunnerClosed
	}
	select {
	case r.queue <- t:
		return h, nil
	case <-ctx.Done():
		r.reject(t, ctx.Err())
		return nil, ctx.Err()
	case <-r.base.Done():
		r.reject(t, ErrRunnerClosed)
		return nil, ErrRunnerClosed
	}
}

// CancelJob cancels a queued or running job. It reports whether the job was
// known to this runner and not yet finished.
func (r *Runner) CancelJob(jobID string) bool {
	r.mu.Lock()
	h, ok := r.handles[jobID]
	r.mu.Unlock()
	if ok {
		h.Cancel()
	}
	return ok
}

func (r *Runner) work(id int) {
	defer r.wg.Done()
	for t := range r.queue {
		ctx := contextutil.With(t.ctx, "worker", id)
		out, err := r.pipeline.Run(ctx, t.handle.Job, t.pdf, t.req)
		r.finish(t, out, err)
	}
}

func (r *Runner) finish(t *task, out Outcome, err error) {
	r.mu.Lock()
	delete(r.handles, t.handle.Job.ID)
	r.mu.Unlock()

	t.handle.cancel()
	t.handle.out, t.handle.err = out, err
	close(t.handle.done)
}

// reject rolls back a job that never reached a worker.
func (r *Runner) reject(t *task, cause error) {
	t.handle.cancel()
	ctx := contextutil.WithLogger(context.Background(), contextutil.LoggerFromContext(t.ctx))
	err := fmt.Errorf("job not started: %w", cause)
	failed := r.pipeline.rollback(ctx, t.handle.Job, t.pdf, err)
	r.finish(t, Outcome{Pdf: t.pdf, Job: failed}, err)
}

// Close stops accepting jobs, cancels running ones and waits for the workers
// to finish their rollbacks.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.stop()
	r.sendMu.Lock()
	close(r.queue)
	r.sendMu.Unlock()
	r.wg.Wait()
}
