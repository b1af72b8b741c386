package gormstore

import (
	"time"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	AccountNumber string    `gorm:"column:account_number;type:varchar(20);uniqueIndex;not null"`
	FullName      string    `gorm:"column:full_name;type:varchar(255);not null"`
	Email         string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Phone         string    `gorm:"column:phone;type:varchar(32);not null"`
	PasswordHash  string    `gorm:"column:password_hash;type:varchar(255);not null"`
	Balance       int64     `gorm:"column:balance_minor;not null;check:chk_accounts_balance,balance_minor >= 0"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

func (a *sqlAccount) toDomain() *domain.Account {
	return &domain.Account{
		Number: a.AccountNumber,
		Profile: domain.Profile{
			FullName: a.FullName,
			Email:    a.Email,
			Phone:    a.Phone,
		},
		CredentialHash: a.PasswordHash,
		Balance:        domain.Money(a.Balance),
		CreatedAt:      a.CreatedAt.UTC(),
	}
}

func newSQLAccount(acc *domain.Account) *sqlAccount {
	return &sqlAccount{
		AccountNumber: acc.Number,
		FullName:      acc.Profile.FullName,
		Email:         acc.Profile.Email,
		Phone:         acc.Profile.Phone,
		PasswordHash:  acc.CredentialHash,
		Balance:       int64(acc.Balance),
		CreatedAt:     acc.CreatedAt,
	}
}

// sqlTransaction 對應資料庫的 transactions 表
type sqlTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	AccountNumber string    `gorm:"column:account_number;type:varchar(20);index:idx_transactions_account_id;not null"`
	Type          string    `gorm:"column:type;type:varchar(6);not null"`
	Amount        int64     `gorm:"column:amount_minor;not null;check:chk_transactions_amount,amount_minor > 0"`
	Description   string    `gorm:"column:description;type:varchar(255);not null"`
	CreatedAt     time.Time `gorm:"column:created_at;index"`

	// 只用來建立 FOREIGN KEY，寫入時 Omit
	Account sqlAccount `gorm:"foreignKey:AccountNumber;references:AccountNumber;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

func (t *sqlTransaction) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:            t.ID,
		AccountNumber: t.AccountNumber,
		Kind:          domain.TransactionKind(t.Type),
		Amount:        domain.Money(t.Amount),
		Description:   t.Description,
		CreatedAt:     t.CreatedAt.UTC(),
	}
}

func newSQLTransaction(tran *domain.Transaction) *sqlTransaction {
	return &sqlTransaction{
		AccountNumber: tran.AccountNumber,
		Type:          string(tran.Kind),
		Amount:        int64(tran.Amount),
		Description:   tran.Description,
		CreatedAt:     tran.CreatedAt,
	}
}
