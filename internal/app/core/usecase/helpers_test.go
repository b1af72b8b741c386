package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/adapter/out/gormstore"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-retail-ledger/pkg/database"
	"github.com/JoeShih716/go-retail-ledger/pkg/password"
)

var (
	quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	testHasher  = password.NewBcryptHasher(bcrypt.MinCost)
)

type storeFactory struct {
	name string
	new  func(t *testing.T) usecase.Store
}

// storeFactories 兩種 Store 實作跑同一組測試
func storeFactories() []storeFactory {
	return []storeFactory{
		{name: "memory", new: newMemoryStore},
		{name: "sqlite", new: newSQLiteStore},
	}
}

func newMemoryStore(t *testing.T) usecase.Store {
	t.Helper()
	s, err := memory.NewStore(nil, 2*time.Second)
	require.NoError(t, err)
	return s
}

func newSQLiteClient(t *testing.T) *database.Client {
	t.Helper()
	client, err := database.NewClient(database.Config{
		Driver:   database.DriverSQLite,
		DBName:   filepath.Join(t.TempDir(), "ledger.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newSQLiteStore(t *testing.T) usecase.Store {
	t.Helper()
	s := gormstore.NewStore(newSQLiteClient(t), 2*time.Second)
	require.NoError(t, s.AutoMigrate(context.Background()))
	return s
}

// seed 直接經由 Registration 開戶，回傳帳號
func seed(t *testing.T, store usecase.Store, email string, deposit domain.Money) string {
	t.Helper()
	reg := usecase.NewRegistration(store, testHasher, usecase.WithLogger(quietLogger))
	acc, err := reg.CreateAccount(context.Background(), usecase.RegisterRequest{
		FullName:       "Test User",
		Email:          email,
		Phone:          "0912345678",
		Credential:     "secret1",
		InitialDeposit: deposit,
	})
	require.NoError(t, err)
	return acc.Number
}

// recordingPublisher 記錄收到的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.TransactionCompleted
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.TransactionCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []domain.TransactionCompleted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.TransactionCompleted(nil), p.events...)
}

// untouchableStore 驗證失敗時不應碰到儲存層
type untouchableStore struct {
	usecase.Store
	t *testing.T
}

func (u untouchableStore) WithAccountLock(ctx context.Context, number string, fn func(tx usecase.AccountTx) error) error {
	u.t.Fatalf("store accessed for account %s", number)
	return nil
}
