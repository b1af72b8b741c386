package usecase

import (
	"context"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

// AccountStore 帳戶的持久化介面
type AccountStore interface {
	// CreateAccount 在同一個原子單位內寫入帳戶與開戶存款流水
	// 帳號重複回傳 ErrAccountNumberTaken，Email 重複回傳 ErrEmailAlreadyRegistered
	CreateAccount(ctx context.Context, acc *domain.Account, opening *domain.Transaction) error
	// GetByAccountNumber 不存在時回傳 ErrAccountNotFound
	GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error)
	// GetByEmail 不存在時回傳 ErrAccountNotFound
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	AccountNumberExists(ctx context.Context, number string) (bool, error)
}

// TransactionLedger 流水的讀取介面
type TransactionLedger interface {
	// ListRecent 依建立順序由新到舊，最多 limit 筆
	ListRecent(ctx context.Context, number string, limit int) ([]domain.Transaction, error)
}

// UnitOfWork 以帳戶為單位的原子操作
type UnitOfWork interface {
	// WithAccountLock 取得帳戶的排他鎖後執行 fn
	// fn 回傳 nil 則 commit，回傳 error 則整個單位 rollback
	// 帳戶不存在回傳 ErrAccountNotFound，等鎖逾時回傳 ErrLockTimeout
	WithAccountLock(ctx context.Context, number string, fn func(tx AccountTx) error) error
}

// AccountTx 持有帳戶鎖期間可用的操作，離開 WithAccountLock 後即失效
type AccountTx interface {
	// Account 鎖定後讀到的帳戶狀態 (副本)
	Account() domain.Account
	UpdateBalance(ctx context.Context, balance domain.Money) error
	// AppendTransaction 寫入流水並回填 ID 與 CreatedAt
	AppendTransaction(ctx context.Context, tran *domain.Transaction) error
}

// Store 帳戶與流水的完整儲存層
type Store interface {
	AccountStore
	TransactionLedger
	UnitOfWork
}

// EventPublisher 交易完成事件的發佈介面
type EventPublisher interface {
	Publish(ctx context.Context, event domain.TransactionCompleted) error
}

// CredentialHasher 密碼雜湊
type CredentialHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) bool
}
