package chat

import (
	"context"
	"log"
	"sync"
	"time"
)

const DefaultAutoResponseDelay = 1500 * time.Millisecond

type pendingTask struct {
	timer *time.Timer
}

// AutoResponder runs one delayed task per thread. Scheduling a thread that
// already has a pending task replaces it.
type AutoResponder struct {
	delay time.Duration
	run   func(ctx context.Context, threadID string) error

	mu      sync.Mutex
	pending map[string]*pendingTask
	stopped bool
	wg      sync.WaitGroup
}

func NewAutoResponder(delay time.Duration, run func(ctx context.Context, threadID string) error) *AutoResponder {
	if delay <= 0 {
		delay = DefaultAutoResponseDelay
	}
	return &AutoResponder{delay: delay, run: run, pending: map[string]*pendingTask{}}
}

// Schedule (re)arms the task for threadID. It returns false once the
// responder is stopped.
func (a *AutoResponder) Schedule(threadID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return false
	}
	a.cancelLocked(threadID)

	task := &pendingTask{}
	a.wg.Add(1)
	task.timer = time.AfterFunc(a.delay, func() {
		defer a.wg.Done()
		a.mu.Lock()
		if a.pending[threadID] != task {
			a.mu.Unlock()
			return
		}
		delete(a.pending, threadID)
		a.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.run(ctx, threadID); err != nil {
			log.Printf("[chat] auto-response for %s: %v", threadID, err)
		}
	})
	a.pending[threadID] = task
	return true
}

// Cancel drops the pending task for threadID, reporting whether one was
// waiting.
func (a *AutoResponder) Cancel(threadID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelLocked(threadID)
}

func (a *AutoResponder) cancelLocked(threadID string) bool {
	task, ok := a.pending[threadID]
	if !ok {
		return false
	}
	delete(a.pending, threadID)
	if task.timer.Stop() {
		a.wg.Done()
	}
	return true
}

func (a *AutoResponder) Pending(threadID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[threadID]
	return ok
}

// Stop cancels every pending task and waits for running ones to finish.
func (a *AutoResponder) Stop() {
	a.mu.Lock()
	a.stopped = true
	for id := range a.pending {
		a.cancelLocked(id)
	}
	a.mu.Unlock()
	a.wg.Wait()
}
