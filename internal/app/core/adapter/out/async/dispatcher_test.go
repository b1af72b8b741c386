package async

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

type collector struct {
	mu     sync.Mutex
	events []domain.TransactionCompleted
	block  chan struct{}
}

func (c *collector) Publish(ctx context.Context, event domain.TransactionCompleted) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *collector) ids() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.TransactionID)
	}
	return out
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestDispatcherDeliversInOrder(t *testing.T) {
	c := &collector{}
	d := NewDispatcher(c, 16, quiet)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, d.Publish(context.Background(), domain.TransactionCompleted{TransactionID: i}))
	}
	assert.Eventually(t, func() bool { return len(c.ids()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, c.ids())

	cancel()
	<-d.Done()
	assert.ErrorIs(t, d.Publish(context.Background(), domain.TransactionCompleted{}), ErrStopped)
}

func TestDispatcherQueueFull(t *testing.T) {
	c := &collector{block: make(chan struct{})}
	d := NewDispatcher(c, 1, quiet)

	// run loop 尚未啟動，容量 1 只能放一筆
	require.NoError(t, d.Publish(context.Background(), domain.TransactionCompleted{TransactionID: 1}))
	assert.ErrorIs(t, d.Publish(context.Background(), domain.TransactionCompleted{TransactionID: 2}), ErrQueueFull)
	close(c.block)
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	c := &collector{}
	d := NewDispatcher(c, 16, quiet)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, d.Publish(context.Background(), domain.TransactionCompleted{TransactionID: i}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	<-d.Done()

	assert.ElementsMatch(t, []int64{1, 2, 3}, c.ids())
}
