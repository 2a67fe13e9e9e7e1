package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task states.
const (
	TaskPending = "pending"
	TaskRunning = "running"
	TaskDone    = "done"
	TaskFailed  = "failed"
)

// Task is the tracked state of one queued unit of work.
type Task struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	State      string      `json:"state"`
	Error      string      `json:"error,omitempty"`
	Result     interface{} `json:"result,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// TaskFunc performs the work for one task. Errors mark the task failed;
// they are recorded, not propagated.
type TaskFunc func() (interface{}, error)

type queuedTask struct {
	id string
	fn TaskFunc
}

// TaskQueue is a bounded task queue with a fixed worker pool. Task state
// lives in a typed store keyed by id, not in ambient globals, so
// concurrent workers and status polling are well-defined.
type TaskQueue struct {
	tasks chan queuedTask
	mu    sync.RWMutex
	byID  map[string]*Task
	wg    sync.WaitGroup
	log   *zap.SugaredLogger

	// sendMu serialises sends against close: submitters hold the read
	// lock across the channel send, Close takes the write lock before
	// closing. Workers never touch it, so a submitter blocked on a full
	// buffer still drains.
	sendMu sync.RWMutex
	closed bool
}

// NewTaskQueue starts workers goroutines over a buffer-bounded queue.
func NewTaskQueue(workers, buffer int, log *zap.SugaredLogger) *TaskQueue {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 64
	}

	q := &TaskQueue{
		tasks: make(chan queuedTask, buffer),
		byID:  map[string]*Task{},
		log:   log,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

func (q *TaskQueue) worker(idx int) {
	defer q.wg.Done()
	for item := range q.tasks {
		q.setState(item.id, TaskRunning, nil, "")

		result, err := item.fn()
		if err != nil {
			q.log.Warnf("[Queue] worker %d: task %s failed: %v", idx, item.id, err)
			q.setState(item.id, TaskFailed, nil, err.Error())
			continue
		}
		q.setState(item.id, TaskDone, result, "")
	}
}

func (q *TaskQueue) setState(id, state string, result interface{}, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.byID[id]
	if !ok {
		return
	}
	t.State = state
	t.Error = errMsg
	if result != nil {
		t.Result = result
	}
	if state == TaskDone || state == TaskFailed {
		now := time.Now()
		t.FinishedAt = &now
	}
}

// Submit enqueues one task and returns its id. Blocks when the queue is
// full; that back-pressure is the rate control for batch drivers.
func (q *TaskQueue) Submit(label string, fn TaskFunc) (string, error) {
	q.sendMu.RLock()
	defer q.sendMu.RUnlock()
	if q.closed {
		return "", fmt.Errorf("queue closed")
	}

	id := uuid.NewString()
	q.mu.Lock()
	q.byID[id] = &Task{
		ID:        id,
		Label:     label,
		State:     TaskPending,
		CreatedAt: time.Now(),
	}
	q.mu.Unlock()

	q.tasks <- queuedTask{id: id, fn: fn}
	return id, nil
}

// Task returns a copy of the tracked state for id.
func (q *TaskQueue) Task(id string) (Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.byID[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Close stops accepting tasks and waits for in-flight work to finish.
// The write lock is acquired before closing the channel, so no submitter
// can be mid-send when the channel closes.
func (q *TaskQueue) Close() {
	q.sendMu.Lock()
	if q.closed {
		q.sendMu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.sendMu.Unlock()

	q.wg.Wait()
}

// ForEachBatch runs n items through fn with bounded concurrency: items
// are processed in batches of batchSize, every item inside a batch in
// parallel, settle-all semantics — one item's failure never aborts its
// siblings. The returned slice has one entry per item (nil on success).
func ForEachBatch(n, batchSize int, fn func(i int) error) []error {
	if batchSize < 1 {
		batchSize = 10
	}
	errs := make([]error, n)

	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errs[i] = fmt.Errorf("panic: %v", r)
					}
				}()
				errs[i] = fn(i)
			}(i)
		}
		wg.Wait()
	}
	return errs
}
