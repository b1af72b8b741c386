package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/adapter/out/async"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
)

var errDrainTimeout = errors.New("event dispatcher did not drain in time")

// eventPipeline 交易事件輸送帶，生命週期獨立於 signal context
// 必須等 HTTP / gRPC 都停止後才關閉，進行中的請求 commit 後的事件才不會遺失
type eventPipeline struct {
	dispatcher *async.Dispatcher
	cancel     context.CancelFunc
}

func startEvents(next usecase.EventPublisher, size int, logger *slog.Logger) *eventPipeline {
	ctx, cancel := context.WithCancel(context.Background())
	d := async.NewDispatcher(next, size, logger)
	d.Start(ctx)
	return &eventPipeline{dispatcher: d, cancel: cancel}
}

// stop 停止收件並等待剩下的事件送完
func (p *eventPipeline) stop(ctx context.Context) error {
	p.cancel()
	select {
	case <-p.dispatcher.Done():
		return nil
	case <-ctx.Done():
		return errDrainTimeout
	}
}

// shutdown 依序停止 servers (等待進行中的請求)，最後才關閉事件輸送帶
func shutdown(ctx context.Context, logger *slog.Logger, servers []func(context.Context) error, events *eventPipeline) {
	for _, stop := range servers {
		if err := stop(ctx); err != nil {
			logger.Warn("server shutdown", "error", err)
		}
	}
	if events == nil {
		return
	}
	if err := events.stop(ctx); err != nil {
		logger.Warn("event shutdown", "error", err)
	}
}

// gracefulStop 等待 gRPC 請求結束，超過 ctx 期限就強制關閉
func gracefulStop(stopGraceful, stopNow func()) func(context.Context) error {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			stopGraceful()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			stopNow()
			<-done
			return ctx.Err()
		}
	}
}
