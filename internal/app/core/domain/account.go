package domain

import "time"

// Profile 帳戶持有人資料
type Profile struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Account 帳戶
//
// 結構:
//
//	Number: 9 位數字帳號，建立後不可變更
//	CredentialHash: bcrypt 雜湊，不輸出
//	Balance: 餘額，永遠 >= 0
type Account struct {
	Number         string    `json:"accountNumber"`
	Profile        Profile   `json:"profile"`
	CredentialHash string    `json:"-"`
	Balance        Money     `json:"balance"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Credit 入帳
func (a *Account) Credit(amount Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.Balance > MaxMoney-amount {
		return ErrBalanceOverflow
	}
	a.Balance += amount
	return nil
}

// Debit 扣款
func (a *Account) Debit(amount Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.Balance < amount {
		return ErrInsufficientFunds
	}
	a.Balance -= amount
	return nil
}

// Apply 依交易類型入帳或扣款
func (a *Account) Apply(kind TransactionKind, amount Money) error {
	switch kind {
	case KindCredit:
		return a.Credit(amount)
	case KindDebit:
		return a.Debit(amount)
	default:
		return ErrInvalidKind
	}
}
