package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
)

// ErrQueueFull 輸送帶已滿，事件被丟棄
var ErrQueueFull = errors.New("event queue is full")

// ErrStopped Dispatcher 已停止
var ErrStopped = errors.New("event dispatcher stopped")

// Dispatcher 把交易完成事件放進輸送帶，由單一 run loop 依序交給下游 Publisher
// 交易的 commit 不必等待 broker
//
// Publish(不等待) -> Channel -> Run Loop -> next.Publish
type Dispatcher struct {
	next   usecase.EventPublisher
	logger *slog.Logger
	// 輸送帶 負責接收事件
	queue chan domain.TransactionCompleted

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewDispatcher 建立 Dispatcher
//
// 參數:
//
//	next: 實際發佈事件的 Publisher (如 Kafka)
//	size: 輸送帶容量
//	logger: 記錄發佈失敗
func NewDispatcher(next usecase.EventPublisher, size int, logger *slog.Logger) *Dispatcher {
	if size <= 0 {
		size = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		next:   next,
		logger: logger,
		queue:  make(chan domain.TransactionCompleted, size),
		done:   make(chan struct{}),
	}
}

// Publish 非阻塞放入輸送帶，滿了回傳 ErrQueueFull
func (d *Dispatcher) Publish(ctx context.Context, event domain.TransactionCompleted) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start 啟動 run loop (非同步)，ctx 結束後把剩下的事件送完才停止
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

// Done run loop 結束 (含 drain) 後關閉
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，停止收件並把剩下的事件處理完
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()
			d.drain()
			return
		case event := <-d.queue:
			d.dispatch(context.Background(), event)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.dispatch(context.Background(), event)
		default:
			return
		}
	}
}

// dispatch 發佈單筆事件，失敗只記錄
func (d *Dispatcher) dispatch(ctx context.Context, event domain.TransactionCompleted) {
	if err := d.next.Publish(ctx, event); err != nil {
		d.logger.Error("dispatch transaction event failed",
			"event_id", event.EventID,
			"account", event.AccountNumber,
			"transaction_id", event.TransactionID,
			"error", err,
		)
	}
}

var _ usecase.EventPublisher = (*Dispatcher)(nil)
