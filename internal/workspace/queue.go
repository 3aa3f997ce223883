package workspace

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/user/datalenz/internal/types"
)

// dispatchJob is one unit of work bound to a session.
type dispatchJob struct {
	sessionID types.SessionID
	run       func(ctx context.Context)
}

// Queue hard-serializes dispatches per session: each session gets its own
// FIFO lane, so a response can never land out of order with an earlier
// query against the same session. A global semaphore caps how many lanes
// execute at once when several sessions are in play.
type Queue struct {
	lanes     map[types.SessionID]chan dispatchJob
	semaphore *semaphore.Weighted

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewQueue creates a Queue allowing up to maxConcurrent lanes to execute
// simultaneously.
func NewQueue(maxConcurrent int64) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Queue{
		lanes:     make(map[types.SessionID]chan dispatchJob),
		semaphore: semaphore.NewWeighted(maxConcurrent),
	}
}

// Start initialises the queue's context. Must be called before Enqueue.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels the queue context, closes all lanes, and waits for in-flight
// jobs to finish.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Lock()
	q.stopped = true
	for _, lane := range q.lanes {
		close(lane)
	}
	q.lanes = make(map[types.SessionID]chan dispatchJob)
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue adds a job to the session's lane, creating the lane (and its
// goroutine) on first use. Returns an error if the lane's buffer is full.
func (q *Queue) Enqueue(sessionID types.SessionID, run func(ctx context.Context)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ctx == nil {
		return fmt.Errorf("queue not started")
	}
	if q.stopped {
		return fmt.Errorf("queue stopped")
	}

	lane, exists := q.lanes[sessionID]
	if !exists {
		lane = make(chan dispatchJob, 16)
		q.lanes[sessionID] = lane
		q.wg.Add(1)
		go q.processLane(lane)
	}

	select {
	case lane <- dispatchJob{sessionID: sessionID, run: run}:
		return nil
	default:
		return fmt.Errorf("dispatch queue full for session %s", sessionID)
	}
}

// processLane drains a single session lane, acquiring a semaphore slot
// before running each job synchronously. Strict FIFO within the lane.
func (q *Queue) processLane(lane chan dispatchJob) {
	defer q.wg.Done()
	for {
		select {
		case job, ok := <-lane:
			if !ok {
				return
			}
			if err := q.semaphore.Acquire(q.ctx, 1); err != nil {
				return
			}
			job.run(q.ctx)
			q.semaphore.Release(1)
		case <-q.ctx.Done():
			return
		}
	}
}
