package usecase

import (
	"context"
	"strings"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

const (
	// DefaultListLimit 未指定筆數時的預設值
	DefaultListLimit = 50
	// MaxListLimit 單次查詢上限
	MaxListLimit = 200
)

// Directory 帳戶與流水的唯讀查詢
type Directory struct {
	accounts AccountStore
	ledger   TransactionLedger
}

// NewDirectory 建立查詢服務
func NewDirectory(accounts AccountStore, ledger TransactionLedger) *Directory {
	return &Directory{
		accounts: accounts,
		ledger:   ledger,
	}
}

// GetAccount 依帳號查詢帳戶
func (d *Directory) GetAccount(ctx context.Context, number string) (*domain.Account, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domain.ErrAccountNotFound
	}
	return d.accounts.GetByAccountNumber(ctx, number)
}

// ListTransactions 查詢帳戶最近的流水，由新到舊
// limit <= 0 使用 DefaultListLimit，超過 MaxListLimit 以上限計
func (d *Directory) ListTransactions(ctx context.Context, number string, limit int) ([]domain.Transaction, error) {
	if _, err := d.GetAccount(ctx, number); err != nil {
		return nil, err
	}
	return d.ledger.ListRecent(ctx, strings.TrimSpace(number), ClampLimit(limit))
}

// ClampLimit 將查詢筆數限制在 (0, MaxListLimit]
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
