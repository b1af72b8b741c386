package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

// ApplyRequest 單一帳戶的入帳/扣款請求
type ApplyRequest struct {
	AccountNumber string
	Kind          domain.TransactionKind
	Amount        domain.Money
	Description   string
}

// ApplyResult 交易 commit 後的結果
type ApplyResult struct {
	NewBalance  domain.Money
	Transaction domain.Transaction
}

// LedgerEngine 帳務核心：鎖定帳戶 → 讀取 → 驗證 → 計算 → 寫餘額 → 寫流水 → commit
// 同一帳戶的交易序列化執行，不同帳戶互不阻塞
type LedgerEngine struct {
	store UnitOfWork
	opts  options
}

// NewLedgerEngine 建立帳務核心
func NewLedgerEngine(store UnitOfWork, opts ...Option) *LedgerEngine {
	return &LedgerEngine{
		store: store,
		opts:  newOptions(opts),
	}
}

// ApplyTransaction 對單一帳戶入帳或扣款
//
// 參數:
//
//	ctx: 上下文 (deadline 同時限制等鎖時間)
//	req: ApplyRequest - 帳號、類型、金額、描述
//
// 回傳值:
//
//	*ApplyResult: 新餘額與寫入的流水
//	error: ErrInvalidKind, ErrInvalidAmount, ErrAccountNotFound, ErrInsufficientFunds,
//	       ErrBalanceOverflow, ErrLockTimeout, ErrStorageUnavailable
func (e *LedgerEngine) ApplyTransaction(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	// 1. 驗證 (不碰任何狀態)
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidKind, req.Kind)
	}
	if !req.Amount.IsPositive() || req.Amount > domain.MaxMoney {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	number := strings.TrimSpace(req.AccountNumber)
	if number == "" {
		return nil, domain.ErrAccountNotFound
	}

	tran := domain.Transaction{
		AccountNumber: number,
		Kind:          req.Kind,
		Amount:        req.Amount,
		Description:   domain.NormalizeDescription(req.Description),
	}
	var newBalance domain.Money

	// 2. 鎖定帳戶，以下步驟皆在同一個原子單位
	err := e.store.WithAccountLock(ctx, number, func(tx AccountTx) error {
		acc := tx.Account()
		if err := acc.Apply(tran.Kind, tran.Amount); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, acc.Balance); err != nil {
			return err
		}
		tran.CreatedAt = e.opts.timestamp()
		if err := tx.AppendTransaction(ctx, &tran); err != nil {
			return err
		}
		newBalance = acc.Balance
		return nil
	})
	if err != nil {
		e.logFailure(req, err)
		return nil, err
	}

	e.opts.logger.Debug("transaction committed",
		"account", number,
		"type", tran.Kind,
		"amount", tran.Amount.String(),
		"balance", newBalance.String(),
		"transaction_id", tran.ID,
	)
	e.publish(ctx, tran, newBalance)

	return &ApplyResult{NewBalance: newBalance, Transaction: tran}, nil
}

func (e *LedgerEngine) logFailure(req ApplyRequest, err error) {
	attrs := []any{"account", req.AccountNumber, "type", req.Kind, "amount", req.Amount.String(), "error", err}
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrBalanceOverflow),
		errors.Is(err, domain.ErrAccountNotFound):
		e.opts.logger.Info("transaction rejected", attrs...)
	case domain.IsRetryable(err):
		e.opts.logger.Warn("transaction failed", attrs...)
	default:
		e.opts.logger.Error("transaction failed", attrs...)
	}
}

// publish 事件發佈失敗只記錄，不影響已 commit 的交易
func (e *LedgerEngine) publish(ctx context.Context, tran domain.Transaction, balance domain.Money) {
	publishEvent(ctx, e.opts, domain.NewTransactionCompleted(tran, balance))
}

func publishEvent(ctx context.Context, o options, event domain.TransactionCompleted) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn("publish transaction event failed",
			slog.String("account", event.AccountNumber),
			slog.Int64("transaction_id", event.TransactionID),
			slog.Any("error", err),
		)
	}
}
