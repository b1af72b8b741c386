package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
)

func TestDirectory(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			store := f.new(t)
			number := seed(t, store, "alice@example.com", 1000)
			engine := usecase.NewLedgerEngine(store, usecase.WithLogger(quietLogger))
			for i := 0; i < 60; i++ {
				_, err := engine.ApplyTransaction(ctx, usecase.ApplyRequest{AccountNumber: number, Kind: domain.KindCredit, Amount: 1})
				require.NoError(t, err)
			}

			dir := usecase.NewDirectory(store, store)

			acc, err := dir.GetAccount(ctx, number)
			require.NoError(t, err)
			assert.Equal(t, domain.Money(1060), acc.Balance)

			entries, err := dir.ListTransactions(ctx, number, 0)
			require.NoError(t, err)
			assert.Len(t, entries, usecase.DefaultListLimit)

			entries, err = dir.ListTransactions(ctx, number, 5)
			require.NoError(t, err)
			assert.Len(t, entries, 5)

			entries, err = dir.ListTransactions(ctx, number, 1000)
			require.NoError(t, err)
			assert.Len(t, entries, 61)
			assert.Equal(t, domain.InitialDepositDescription, entries[len(entries)-1].Description)

			_, err = dir.GetAccount(ctx, "000000000")
			assert.ErrorIs(t, err, domain.ErrAccountNotFound)
			_, err = dir.ListTransactions(ctx, "000000000", 10)
			assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, usecase.DefaultListLimit, usecase.ClampLimit(0))
	assert.Equal(t, usecase.DefaultListLimit, usecase.ClampLimit(-3))
	assert.Equal(t, 7, usecase.ClampLimit(7))
	assert.Equal(t, usecase.MaxListLimit, usecase.ClampLimit(usecase.MaxListLimit+1))
}
