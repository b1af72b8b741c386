package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

const (
	// MinInitialDeposit 開戶最低存款 10.00
	MinInitialDeposit domain.Money = 10 * domain.CurrencyScale
	// MinCredentialLength 密碼最短長度
	MinCredentialLength = 6
	// MaxCredentialBytes bcrypt 只接受 72 bytes 以內的密碼
	MaxCredentialBytes = 72
	// MaxAccountNumberAttempts 產生帳號的最大嘗試次數
	MaxAccountNumberAttempts = 10

	accountNumberMin   = 100000000
	accountNumberRange = 900000000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RandomAccountNumber 產生 9 位數帳號 (100000000 ~ 999999999)
func RandomAccountNumber() string {
	return strconv.Itoa(accountNumberMin + rand.Intn(accountNumberRange))
}

// RegisterRequest 開戶資料
type RegisterRequest struct {
	FullName       string
	Email          string
	Phone          string
	Credential     string
	InitialDeposit domain.Money
}

// Registration 開戶服務
type Registration struct {
	store  AccountStore
	hasher CredentialHasher
	opts   options
}

// NewRegistration 建立開戶服務
func NewRegistration(store AccountStore, hasher CredentialHasher, opts ...Option) *Registration {
	return &Registration{
		store:  store,
		hasher: hasher,
		opts:   newOptions(opts),
	}
}

// CreateAccount 開戶並寫入首筆存款
//
// 參數:
//
//	ctx: 上下文
//	req: RegisterRequest - 開戶資料
//
// 回傳值:
//
//	*domain.Account: 新建立的帳戶
//	error: ErrInvalidInput, ErrInvalidAmount, ErrEmailAlreadyRegistered,
//	       ErrAccountNumberExhausted, ErrStorageUnavailable
func (r *Registration) CreateAccount(ctx context.Context, req RegisterRequest) (*domain.Account, error) {
	profile, err := validateRegistration(&req)
	if err != nil {
		return nil, err
	}

	// Email 先檢查一次，CreateAccount 內會再檢查
	if _, err := r.store.GetByEmail(ctx, profile.Email); err == nil {
		return nil, domain.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := r.hasher.Hash(req.Credential)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	now := r.opts.timestamp()
	for attempt := 1; attempt <= MaxAccountNumberAttempts; attempt++ {
		number := r.opts.numbers()
		exists, err := r.store.AccountNumberExists(ctx, number)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		acc := &domain.Account{
			Number:         number,
			Profile:        profile,
			CredentialHash: hash,
			Balance:        req.InitialDeposit,
			CreatedAt:      now,
		}
		opening := &domain.Transaction{
			AccountNumber: number,
			Kind:          domain.KindCredit,
			Amount:        req.InitialDeposit,
			Description:   domain.InitialDepositDescription,
			CreatedAt:     now,
		}
		err = r.store.CreateAccount(ctx, acc, opening)
		if errors.Is(err, domain.ErrAccountNumberTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		r.opts.logger.Info("account created", "account", number, "attempt", attempt)
		publishEvent(ctx, r.opts, domain.NewTransactionCompleted(*opening, acc.Balance))
		return acc, nil
	}

	r.opts.logger.Error("account number allocation exhausted", "attempts", MaxAccountNumberAttempts)
	return nil, domain.ErrAccountNumberExhausted
}

// validateRegistration 檢查並正規化開戶資料
func validateRegistration(req *RegisterRequest) (domain.Profile, error) {
	profile := domain.Profile{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
	}
	switch {
	case profile.FullName == "":
		return profile, fmt.Errorf("%w: full name is required", domain.ErrInvalidInput)
	case profile.Email == "":
		return profile, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	case profile.Phone == "":
		return profile, fmt.Errorf("%w: phone is required", domain.ErrInvalidInput)
	case req.Credential == "":
		return profile, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	case !emailPattern.MatchString(profile.Email):
		return profile, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	case len(req.Credential) < MinCredentialLength:
		return profile, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinCredentialLength)
	case len(req.Credential) > MaxCredentialBytes:
		return profile, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, MaxCredentialBytes)
	case req.InitialDeposit < MinInitialDeposit || req.InitialDeposit > domain.MaxMoney:
		return profile, fmt.Errorf("%w: minimum initial deposit is %s", domain.ErrInvalidAmount, MinInitialDeposit)
	}
	return profile, nil
}
