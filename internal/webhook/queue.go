package webhook

import (
	"context"
	"sync"
)

// Message carries only the outbox event id. Payloads stay in the
// database; the queue never owns them.
type Message struct {
	EventID int64
}

// Queue is the unbounded in-process FIFO between the ledger commit path,
// the retry subscriber, recovery and the single delivery worker. Sends
// never block; durability lives in the outbox, not here.
type Queue struct {
	mu   sync.Mutex
	buf  []Message
	wake chan struct{}
}

func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

func (q *Queue) Push(m Message) {
	q.mu.Lock()
	q.buf = append(q.buf, m)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop blocks until a message is available or the context is cancelled.
func (q *Queue) Pop(ctx context.Context) (Message, bool) {
	for {
		q.mu.Lock()
		if len(q.buf) > 0 {
			m := q.buf[0]
			q.buf = q.buf[1:]
			q.mu.Unlock()
			return m, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Message{}, false
		case <-q.wake:
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
