package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionCompleted 交易 commit 後對外發佈的事件
type TransactionCompleted struct {
	EventID       string          `json:"eventId"`
	TransactionID int64           `json:"transactionId"`
	AccountNumber string          `json:"accountNumber"`
	Kind          TransactionKind `json:"type"`
	Amount        Money           `json:"amount"`
	BalanceAfter  Money           `json:"balanceAfter"`
	Description   string          `json:"description"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// NewTransactionCompleted 由已 commit 的流水建立事件
func NewTransactionCompleted(tran Transaction, balanceAfter Money) TransactionCompleted {
	return TransactionCompleted{
		EventID:       uuid.NewString(),
		TransactionID: tran.ID,
		AccountNumber: tran.AccountNumber,
		Kind:          tran.Kind,
		Amount:        tran.Amount,
		BalanceAfter:  balanceAfter,
		Description:   tran.Description,
		OccurredAt:    tran.CreatedAt,
	}
}
