package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for i := int64(1); i <= 5; i++ {
		q.Push(Message{EventID: i})
	}

	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		msg, ok := q.Pop(ctx)
		require.True(t, ok)
		assert.Equal(t, i, msg.EventID)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(Message{EventID: 42})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, ok := q.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.EventID)
}

func TestQueuePopCancelled(t *testing.T) {
	q := NewQueue()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.Pop(ctx)
	assert.False(t, ok)
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers = 4
	const perProducer = 100

	for p := 0; p < producers; p++ {
		go func(base int64) {
			for i := int64(0); i < perProducer; i++ {
				q.Push(Message{EventID: base*perProducer + i})
			}
		}(int64(p))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	seen := make(map[int64]bool)
	for i := 0; i < producers*perProducer; i++ {
		msg, ok := q.Pop(ctx)
		require.True(t, ok)
		require.False(t, seen[msg.EventID], "duplicate message %d", msg.EventID)
		seen[msg.EventID] = true
	}
}
