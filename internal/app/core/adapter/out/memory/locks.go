package memory

import (
	"context"
	"errors"
	"time"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

// rowLock 單一帳戶的排他鎖，容量 1 的 channel
// 與 sync.Mutex 不同之處在於等待可被 context 與逾時中斷
type rowLock chan struct{}

func newRowLock() rowLock {
	return make(rowLock, 1)
}

// acquire 取得鎖，timeout <= 0 表示只受 ctx 限制
func (l rowLock) acquire(ctx context.Context, timeout time.Duration) error {
	// Fast path
	select {
	case l <- struct{}{}:
		return nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case l <- struct{}{}:
		return nil
	case <-expired:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.ErrLockTimeout
		}
		return ctx.Err()
	}
}

func (l rowLock) release() {
	<-l
}
