package memory

import (
	"time"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

type walOp string

const (
	// 開戶：帳戶資料 + 首筆流水
	opOpen walOp = "open"
	// 交易 commit：新餘額 + 本次流水
	opPost walOp = "post"
)

// walRecord 一筆 WAL 紀錄即一個原子單位
type walRecord struct {
	Op            walOp                `json:"op"`
	Account       *walAccount          `json:"account,omitempty"`
	AccountNumber string               `json:"account_number,omitempty"`
	Balance       domain.Money         `json:"balance"`
	Entries       []domain.Transaction `json:"entries"`
}

// walAccount domain.Account 不輸出密碼雜湊，WAL 需要完整欄位
type walAccount struct {
	Number         string       `json:"number"`
	FullName       string       `json:"full_name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	CredentialHash string       `json:"credential_hash"`
	Balance        domain.Money `json:"balance"`
	CreatedAt      time.Time    `json:"created_at"`
}

func newWALAccount(acc *domain.Account) *walAccount {
	return &walAccount{
		Number:         acc.Number,
		FullName:       acc.Profile.FullName,
		Email:          acc.Profile.Email,
		Phone:          acc.Profile.Phone,
		CredentialHash: acc.CredentialHash,
		Balance:        acc.Balance,
		CreatedAt:      acc.CreatedAt,
	}
}

func (a *walAccount) toDomain() domain.Account {
	return domain.Account{
		Number: a.Number,
		Profile: domain.Profile{
			FullName: a.FullName,
			Email:    a.Email,
			Phone:    a.Phone,
		},
		CredentialHash: a.CredentialHash,
		Balance:        a.Balance,
		CreatedAt:      a.CreatedAt,
	}
}
