package usecase

import (
	"context"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層，Driving Adapter 只依賴它
type CoreUseCase struct {
	engine       *LedgerEngine
	directory    *Directory
	auth         *AuthGateway
	registration *Registration
}

// NewCoreUseCase 以同一個 Store 組裝所有服務
func NewCoreUseCase(store Store, hasher CredentialHasher, opts ...Option) *CoreUseCase {
	return &CoreUseCase{
		engine:       NewLedgerEngine(store, opts...),
		directory:    NewDirectory(store, store),
		auth:         NewAuthGateway(store, hasher, opts...),
		registration: NewRegistration(store, hasher, opts...),
	}
}

// ApplyTransaction 處理入帳/扣款
func (c *CoreUseCase) ApplyTransaction(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	return c.engine.ApplyTransaction(ctx, req)
}

// CreateAccount 開戶
func (c *CoreUseCase) CreateAccount(ctx context.Context, req RegisterRequest) (*domain.Account, error) {
	return c.registration.CreateAccount(ctx, req)
}

// Authenticate 登入驗證
func (c *CoreUseCase) Authenticate(ctx context.Context, number, secret string) (*domain.Account, error) {
	return c.auth.Authenticate(ctx, number, secret)
}

// GetAccount 取得帳戶
func (c *CoreUseCase) GetAccount(ctx context.Context, number string) (*domain.Account, error) {
	return c.directory.GetAccount(ctx, number)
}

// ListTransactions 取得最近流水
func (c *CoreUseCase) ListTransactions(ctx context.Context, number string, limit int) ([]domain.Transaction, error) {
	return c.directory.ListTransactions(ctx, number, limit)
}
