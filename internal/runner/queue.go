package runner

import (
	"sync"
	"time"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

type queueItem struct {
	id        string
	notBefore time.Time
}

// workQueue is a deduplicating work queue for session ids. An id added while
// it is being processed is marked dirty and re-queued when Done is called, so
// no event is lost mid-run. Requeue applies exponential backoff for transient
// store failures.
type workQueue struct {
	mu         sync.Mutex
	items      []queueItem
	dirty      map[string]bool
	processing map[string]bool
	// attempts counts consecutive Requeues per id, reset by Done.
	attempts map[string]int
	notify   chan struct{}
	closed   bool
}

func newWorkQueue() *workQueue {
	return &workQueue{
		dirty:      make(map[string]bool),
		processing: make(map[string]bool),
		attempts:   make(map[string]int),
		notify:     make(chan struct{}, 1),
	}
}

// Add enqueues an id, collapsing duplicates.
func (q *workQueue) Add(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.dirty[id] = true
	if q.processing[id] {
		return
	}
	for _, item := range q.items {
		if item.id == id {
			return
		}
	}

	q.items = append(q.items, queueItem{id: id})
	q.wake()
}

// Get blocks until an item is ready or the queue is closed.
// Returns ("", false) once closed and drained.
func (q *workQueue) Get() (string, bool) {
	for {
		q.mu.Lock()

		if q.closed && len(q.items) == 0 {
			q.mu.Unlock()
			return "", false
		}

		now := time.Now()
		for i, item := range q.items {
			// A closed queue drains without honoring backoff delays.
			if q.closed || !item.notBefore.After(now) {
				id := item.id
				q.items = append(q.items[:i], q.items[i+1:]...)
				delete(q.dirty, id)
				q.processing[id] = true
				q.mu.Unlock()
				return id, true
			}
		}

		// Items exist but are backing off; sleep until the earliest is ready.
		var wait time.Duration
		if len(q.items) > 0 {
			earliest := q.items[0].notBefore
			for _, item := range q.items[1:] {
				if item.notBefore.Before(earliest) {
					earliest = item.notBefore
				}
			}
			wait = time.Until(earliest)
		}
		q.mu.Unlock()

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-q.notify:
				timer.Stop()
			case <-timer.C:
			}
		} else {
			// Nothing queued; block until notified. A closed notify channel
			// returns immediately and the loop re-checks the closed flag.
			<-q.notify
		}
	}
}

// Done releases an id after a successful round. If it was re-added while
// processing it goes back into the queue as a fresh item.
func (q *workQueue) Done(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.processing, id)
	delete(q.attempts, id)

	if q.dirty[id] && !q.closed {
		q.items = append(q.items, queueItem{id: id})
		q.wake()
	}
}

// Requeue re-adds an id with exponential backoff. The attempt count survives
// dequeues and only resets on Done, so consecutive failures escalate the delay.
func (q *workQueue) Requeue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.attempts[id]++

	backoff := maxBackoff
	if shift := q.attempts[id] - 1; shift < 6 {
		backoff = initialBackoff << shift
	}

	delete(q.processing, id)
	q.dirty[id] = true
	q.items = append(q.items, queueItem{
		id:        id,
		notBefore: time.Now().Add(backoff),
	})
	q.wake()
}

// Close unblocks pending Get calls once the queue drains.
func (q *workQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.notify)
}

// wake signals Get without blocking. Caller must hold q.mu.
func (q *workQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
