package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

// AuthGateway 以帳號與密碼驗證身分
type AuthGateway struct {
	accounts AccountStore
	hasher   CredentialHasher
	// dummyHash 帳號不存在時仍做一次比對，讓兩種失敗耗時一致
	dummyHash string
	opts      options
}

// NewAuthGateway 建立驗證服務
func NewAuthGateway(accounts AccountStore, hasher CredentialHasher, opts ...Option) *AuthGateway {
	g := &AuthGateway{
		accounts: accounts,
		hasher:   hasher,
		opts:     newOptions(opts),
	}
	if h, err := hasher.Hash("not-a-real-credential"); err == nil {
		g.dummyHash = h
	}
	return g
}

// Authenticate 驗證帳號密碼，成功回傳帳戶
// 帳號不存在與密碼錯誤一律回傳 ErrInvalidCredentials
func (g *AuthGateway) Authenticate(ctx context.Context, number, secret string) (*domain.Account, error) {
	number = strings.TrimSpace(number)
	if number == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}

	acc, err := g.accounts.GetByAccountNumber(ctx, number)
	if errors.Is(err, domain.ErrAccountNotFound) {
		g.hasher.Compare(g.dummyHash, secret)
		g.opts.logger.Info("login failed", "account", number, "reason", "unknown account")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !g.hasher.Compare(acc.CredentialHash, secret) {
		g.opts.logger.Info("login failed", "account", number, "reason", "credential mismatch")
		return nil, domain.ErrInvalidCredentials
	}
	return acc, nil
}

// Verify 只回報驗證是否通過，儲存層錯誤才會回傳 error
func (g *AuthGateway) Verify(ctx context.Context, number, secret string) (bool, error) {
	_, err := g.Authenticate(ctx, number, secret)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrInvalidCredentials):
		return false, nil
	default:
		return false, err
	}
}
