package usecase_test

import (
	"context"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
)

func validRequest() usecase.RegisterRequest {
	return usecase.RegisterRequest{
		FullName:       "Alice Chen",
		Email:          "Alice@Example.com ",
		Phone:          "0912345678",
		Credential:     "secret1",
		InitialDeposit: 2500,
	}
}

func TestCreateAccount(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			store := f.new(t)
			pub := &recordingPublisher{}
			reg := usecase.NewRegistration(store, testHasher, usecase.WithLogger(quietLogger), usecase.WithPublisher(pub))

			acc, err := reg.CreateAccount(ctx, validRequest())
			require.NoError(t, err)
			assert.Regexp(t, regexp.MustCompile(`^[1-9][0-9]{8}$`), acc.Number)
			assert.Equal(t, "alice@example.com", acc.Profile.Email)
			assert.Equal(t, domain.Money(2500), acc.Balance)
			assert.True(t, testHasher.Compare(acc.CredentialHash, "secret1"))

			stored, err := store.GetByAccountNumber(ctx, acc.Number)
			require.NoError(t, err)
			assert.Equal(t, domain.Money(2500), stored.Balance)

			entries, err := store.ListRecent(ctx, acc.Number, 10)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, domain.KindCredit, entries[0].Kind)
			assert.Equal(t, domain.Money(2500), entries[0].Amount)
			assert.Equal(t, domain.InitialDepositDescription, entries[0].Description)

			events := pub.Events()
			require.Len(t, events, 1)
			assert.Equal(t, acc.Number, events[0].AccountNumber)
			assert.Equal(t, entries[0].ID, events[0].TransactionID)
		})
	}
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			store := f.new(t)
			reg := usecase.NewRegistration(store, testHasher, usecase.WithLogger(quietLogger))

			_, err := reg.CreateAccount(ctx, validRequest())
			require.NoError(t, err)

			again := validRequest()
			again.Email = "alice@example.com"
			_, err = reg.CreateAccount(ctx, again)
			assert.ErrorIs(t, err, domain.ErrEmailAlreadyRegistered)
		})
	}
}

func TestCreateAccountValidation(t *testing.T) {
	reg := usecase.NewRegistration(newMemoryStore(t), testHasher, usecase.WithLogger(quietLogger))

	cases := []struct {
		name   string
		mutate func(*usecase.RegisterRequest)
		want   error
	}{
		{"missing name", func(r *usecase.RegisterRequest) { r.FullName = " " }, domain.ErrInvalidInput},
		{"missing email", func(r *usecase.RegisterRequest) { r.Email = "" }, domain.ErrInvalidInput},
		{"missing phone", func(r *usecase.RegisterRequest) { r.Phone = "" }, domain.ErrInvalidInput},
		{"missing password", func(r *usecase.RegisterRequest) { r.Credential = "" }, domain.ErrInvalidInput},
		{"bad email", func(r *usecase.RegisterRequest) { r.Email = "alice@example" }, domain.ErrInvalidInput},
		{"email with space", func(r *usecase.RegisterRequest) { r.Email = "al ice@example.com" }, domain.ErrInvalidInput},
		{"short password", func(r *usecase.RegisterRequest) { r.Credential = "12345" }, domain.ErrInvalidInput},
		{"password over 72 bytes", func(r *usecase.RegisterRequest) { r.Credential = strings.Repeat("a", 73) }, domain.ErrInvalidInput},
		{"multibyte password over 72 bytes", func(r *usecase.RegisterRequest) { r.Credential = strings.Repeat("é", 72) }, domain.ErrInvalidInput},
		{"low deposit", func(r *usecase.RegisterRequest) { r.InitialDeposit = 999 }, domain.ErrInvalidAmount},
		{"negative deposit", func(r *usecase.RegisterRequest) { r.InitialDeposit = -5000 }, domain.ErrInvalidAmount},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validRequest()
			c.mutate(&req)
			_, err := reg.CreateAccount(context.Background(), req)
			assert.ErrorIs(t, err, c.want)
		})
	}

	// 最低存款 10.00 剛好可以
	req := validRequest()
	req.InitialDeposit = usecase.MinInitialDeposit
	_, err := reg.CreateAccount(context.Background(), req)
	assert.NoError(t, err)

	// 密碼剛好 72 bytes 可以
	req = validRequest()
	req.Email = "max@example.com"
	req.Credential = strings.Repeat("é", 36)
	_, err = reg.CreateAccount(context.Background(), req)
	assert.NoError(t, err)
}

func TestCreateAccountRetriesTakenNumbers(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	first := usecase.NewRegistration(store, testHasher,
		usecase.WithLogger(quietLogger),
		usecase.WithAccountNumberGenerator(func() string { return "111111111" }))
	_, err := first.CreateAccount(ctx, validRequest())
	require.NoError(t, err)

	var calls atomic.Int32
	seq := []string{"111111111", "111111111", "222222222"}
	second := usecase.NewRegistration(store, testHasher,
		usecase.WithLogger(quietLogger),
		usecase.WithAccountNumberGenerator(func() string {
			i := calls.Add(1) - 1
			return seq[i]
		}))
	req := validRequest()
	req.Email = "bob@example.com"
	acc, err := second.CreateAccount(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "222222222", acc.Number)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCreateAccountNumberExhausted(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	fixed := usecase.WithAccountNumberGenerator(func() string { return "111111111" })

	reg := usecase.NewRegistration(store, testHasher, usecase.WithLogger(quietLogger), fixed)
	_, err := reg.CreateAccount(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Email = "bob@example.com"
	_, err = reg.CreateAccount(ctx, req)
	assert.ErrorIs(t, err, domain.ErrAccountNumberExhausted)

	_, err = store.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRandomAccountNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^[1-9][0-9]{8}$`)
	for i := 0; i < 1000; i++ {
		assert.Regexp(t, pattern, usecase.RandomAccountNumber())
	}
}
