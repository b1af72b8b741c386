package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TransactionKind 交易類型
type TransactionKind string

const (
	// 入帳
	KindCredit TransactionKind = "credit"
	// 扣款
	KindDebit TransactionKind = "debit"
)

const (
	// DefaultDescription 未填寫描述時使用
	DefaultDescription = "Transaction"
	// InitialDepositDescription 開戶首筆存款的描述
	InitialDepositDescription = "Initial deposit"
	// MaxDescriptionLength 描述最大字數
	MaxDescriptionLength = 255
)

// ParseKind 解析交易類型，大小寫不敏感
func ParseKind(s string) (TransactionKind, error) {
	k := TransactionKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// Valid 是否為 credit 或 debit
func (k TransactionKind) Valid() bool {
	return k == KindCredit || k == KindDebit
}

// Transaction 帳務流水 (ledger entry)，寫入後不可修改
type Transaction struct {
	// ID: 由儲存層分配，單調遞增
	ID            int64           `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	Kind          TransactionKind `json:"type"`
	Amount        Money           `json:"amount"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Signed 入帳為正、扣款為負
func (t *Transaction) Signed() Money {
	if t.Kind == KindDebit {
		return -t.Amount
	}
	return t.Amount
}

// NormalizeDescription 去除前後空白、空值補預設、超長截斷
func NormalizeDescription(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultDescription
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		s = string([]rune(s)[:MaxDescriptionLength])
	}
	return s
}
