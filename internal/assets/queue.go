package assets

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// DecodeFunc turns loaded bytes into a value on a worker goroutine.
type DecodeFunc func(data []byte, path string) (any, error)

// DoneFunc receives a finished request on the frame thread.
type DoneFunc func(value any, err error)

type request struct {
	path   string
	decode DecodeFunc
	done   DoneFunc
}

type result struct {
	req   request
	value any
	err   error
}

// Queue loads and decodes assets on a bounded worker pool. Results are only
// delivered from Poll, so callbacks may touch GL state.
type Queue struct {
	ctx     context.Context
	cancel  context.CancelFunc
	manager *Manager
	group   errgroup.Group
	backlog []request
	results chan result
	pending int
	log     *zap.Logger
}

// NewQueue creates a queue running at most workers loads at once.
func NewQueue(ctx context.Context, m *Manager, workers int) *Queue {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	q := &Queue{
		ctx:     ctx,
		cancel:  cancel,
		manager: m,
		results: make(chan result, workers),
		log:     logger.Named("assets.queue"),
	}
	q.group.SetLimit(workers)
	return q
}

// Request schedules path for loading. decode may be nil to receive raw bytes.
func (q *Queue) Request(path string, decode DecodeFunc, done DoneFunc) {
	q.backlog = append(q.backlog, request{path: path, decode: decode, done: done})
	q.pending++
	q.pump()
}

// Manager returns the manager the queue loads through.
func (q *Queue) Manager() *Manager {
	return q.manager
}

// Pending returns the number of requests whose callback has not run yet.
func (q *Queue) Pending() int {
	return q.pending
}

// Poll runs callbacks for finished requests and returns how many ran.
// It never blocks.
func (q *Queue) Poll() int {
	n := 0
	for {
		select {
		case r := <-q.results:
			q.pending--
			n++
			if r.err != nil {
				q.log.Warn("asset request failed", zap.String("path", r.req.path), zap.Error(r.err))
			}
			if r.req.done != nil {
				r.req.done(r.value, r.err)
			}
		default:
			q.pump()
			return n
		}
	}
}

// Close cancels outstanding work and waits for the workers to exit.
// Callbacks of unfinished requests are not run.
func (q *Queue) Close() {
	q.cancel()
	done := make(chan struct{})
	go func() {
		_ = q.group.Wait()
		close(done)
	}()
	for {
		select {
		case <-q.results:
		case <-done:
			q.backlog = nil
			q.pending = 0
			return
		}
	}
}

// pump starts backlog entries while worker slots are free.
func (q *Queue) pump() {
	for len(q.backlog) > 0 {
		req := q.backlog[0]
		if !q.group.TryGo(func() error {
			q.run(req)
			return nil
		}) {
			return
		}
		q.backlog = q.backlog[1:]
	}
}

func (q *Queue) run(req request) {
	var value any
	data, err := q.manager.Load(q.ctx, req.path)
	if err == nil {
		value = data
		if req.decode != nil {
			value, err = req.decode(data, req.path)
		}
	}

	select {
	case q.results <- result{req: req, value: value, err: err}:
	case <-q.ctx.Done():
	}
}
