package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
	grpcpool "github.com/JoeShih716/go-retail-ledger/pkg/grpc"
	pb "github.com/JoeShih716/go-retail-ledger/proto"
)

// 壓測流程: 開一個帳戶後對同一帳戶送出成對的 credit/debit，
// 全部完成後餘額應回到初始存款，驗證沒有 lost update
func main() {
	target := flag.String("target", "localhost:50051", "grpc server address")
	pairs := flag.Int("pairs", 10000, "number of credit/debit pairs")
	concurrency := flag.Int("concurrency", 100, "concurrent requests")
	amount := flag.String("amount", "1.25", "amount per transaction")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(logger, *target, *pairs, *concurrency, *amount); err != nil {
		logger.Error("load test failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, target string, pairs, concurrency int, amount string) error {
	var failures atomic.Int64
	pool := grpcpool.NewPool(grpcpool.WithInterceptor(countFailures(&failures)))
	defer pool.Close()

	conn, err := pool.GetConnection(target)
	if err != nil {
		return err
	}
	c := pb.NewLedgerServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// 初始存款要足以支付所有並發中的扣款
	deposit := domain.Money(int64(concurrency)) * mustParse(amount)
	if deposit < usecase.MinInitialDeposit {
		deposit = usecase.MinInitialDeposit
	}
	created, err := c.CreateAccount(ctx, &pb.CreateAccountRequest{
		FullName:       "Load Test",
		Email:          "load-" + uuid.NewString() + "@example.com",
		Phone:          "0000000000",
		Password:       "loadtest",
		InitialDeposit: deposit.String(),
	})
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	logger.Info("account created", "account", created.AccountNumber, "deposit", deposit.String())

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	var credited, debited atomic.Int64
	startTime := time.Now()

	for i := 0; i < pairs; i++ {
		for _, kind := range []domain.TransactionKind{domain.KindCredit, domain.KindDebit} {
			sem <- struct{}{}
			wg.Add(1)
			go func(kind domain.TransactionKind) {
				defer wg.Done()
				defer func() { <-sem }()
				_, err := c.ApplyTransaction(ctx, &pb.ApplyTransactionRequest{
					AccountNumber: created.AccountNumber,
					Type:          string(kind),
					Amount:        amount,
					Description:   "load test",
				})
				if err != nil {
					return
				}
				if kind == domain.KindCredit {
					credited.Add(1)
				} else {
					debited.Add(1)
				}
			}(kind)
		}
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	acc, err := c.GetAccount(ctx, &pb.GetAccountRequest{AccountNumber: created.AccountNumber})
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	unit := mustParse(amount)
	expected := deposit + domain.Money(credited.Load()-debited.Load())*unit
	total := credited.Load() + debited.Load()
	fmt.Printf("Completed %d transactions in %v (%d failed)\n", total, elapsed, failures.Load())
	fmt.Printf("TPS: %.2f\n", float64(total)/elapsed.Seconds())
	fmt.Printf("Balance: %s, expected %s\n", acc.Balance, expected.String())

	if acc.Balance != expected.String() {
		return fmt.Errorf("balance mismatch: got %s, want %s", acc.Balance, expected.String())
	}
	return nil
}

func countFailures(n *atomic.Int64) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		err := invoker(ctx, method, req, reply, cc, opts...)
		if err != nil {
			n.Add(1)
		}
		return err
	}
}

func mustParse(s string) domain.Money {
	m, err := domain.ParseMoney(s)
	if err != nil || !m.IsPositive() {
		panic(fmt.Sprintf("invalid amount %q", s))
	}
	return m
}
