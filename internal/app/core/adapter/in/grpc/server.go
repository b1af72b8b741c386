package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
	pb "github.com/JoeShih716/go-retail-ledger/proto"
)

type GrpcServer struct {
	pb.UnimplementedLedgerServiceServer
	core   *usecase.CoreUseCase
	logger *slog.Logger
}

func NewGrpcServer(core *usecase.CoreUseCase, logger *slog.Logger) *GrpcServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GrpcServer{
		core:   core,
		logger: logger,
	}
}

func (s *GrpcServer) CreateAccount(ctx context.Context, req *pb.CreateAccountRequest) (*pb.CreateAccountResponse, error) {
	deposit, err := domain.ParseMoney(req.InitialDeposit)
	if err != nil {
		return nil, s.toStatus(err)
	}
	acc, err := s.core.CreateAccount(ctx, usecase.RegisterRequest{
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Credential:     req.Password,
		InitialDeposit: deposit,
	})
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &pb.CreateAccountResponse{AccountNumber: acc.Number}, nil
}

func (s *GrpcServer) Authenticate(ctx context.Context, req *pb.AuthenticateRequest) (*pb.AuthenticateResponse, error) {
	acc, err := s.core.Authenticate(ctx, req.AccountNumber, req.Password)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &pb.AuthenticateResponse{
		AccountNumber: acc.Number,
		FullName:      acc.Profile.FullName,
	}, nil
}

func (s *GrpcServer) GetAccount(ctx context.Context, req *pb.GetAccountRequest) (*pb.Account, error) {
	acc, err := s.core.GetAccount(ctx, req.AccountNumber)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &pb.Account{
		AccountNumber: acc.Number,
		FullName:      acc.Profile.FullName,
		Email:         acc.Profile.Email,
		Phone:         acc.Profile.Phone,
		Balance:       acc.Balance.String(),
		CreatedAt:     acc.CreatedAt.UnixMilli(),
	}, nil
}

func (s *GrpcServer) ApplyTransaction(ctx context.Context, req *pb.ApplyTransactionRequest) (*pb.ApplyTransactionResponse, error) {
	// 1. 轉換交易類型與金額
	kind, err := domain.ParseKind(req.Type)
	if err != nil {
		return nil, s.toStatus(err)
	}
	amount, err := domain.ParseMoney(req.Amount)
	if err != nil {
		return nil, s.toStatus(err)
	}

	// 2. 執行交易
	res, err := s.core.ApplyTransaction(ctx, usecase.ApplyRequest{
		AccountNumber: req.AccountNumber,
		Kind:          kind,
		Amount:        amount,
		Description:   req.Description,
	})
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &pb.ApplyTransactionResponse{
		TransactionId: res.Transaction.ID,
		NewBalance:    res.NewBalance.String(),
	}, nil
}

func (s *GrpcServer) ListTransactions(ctx context.Context, req *pb.ListTransactionsRequest) (*pb.ListTransactionsResponse, error) {
	entries, err := s.core.ListTransactions(ctx, req.AccountNumber, int(req.Limit))
	if err != nil {
		return nil, s.toStatus(err)
	}
	out := make([]*pb.Transaction, 0, len(entries))
	for _, e := range entries {
		out = append(out, &pb.Transaction{
			Id:          e.ID,
			Type:        string(e.Kind),
			Amount:      e.Amount.String(),
			Description: e.Description,
			CreatedAt:   e.CreatedAt.UnixMilli(),
		})
	}
	return &pb.ListTransactionsResponse{Transactions: out}, nil
}

// toStatus 將 domain 錯誤轉為 gRPC status
func (s *GrpcServer) toStatus(err error) error {
	code := codeOf(err)
	switch code {
	case codes.Internal:
		s.logger.Error("grpc request failed", "error", err)
		return status.Error(code, "internal error")
	case codes.Unavailable:
		// 不對外暴露 driver 錯誤細節
		s.logger.Warn("grpc request failed", "error", err)
		return status.Error(code, domain.ErrStorageUnavailable.Error())
	}
	return status.Error(code, err.Error())
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrAccountNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrEmailAlreadyRegistered):
		return codes.AlreadyExists
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrBalanceOverflow):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrLockTimeout):
		return codes.Aborted
	case errors.Is(err, domain.ErrStorageUnavailable):
		return codes.Unavailable
	case errors.Is(err, domain.ErrInvalidCredentials):
		return codes.Unauthenticated
	case errors.Is(err, domain.ErrAccountNumberExhausted):
		return codes.ResourceExhausted
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

var _ pb.LedgerServiceServer = (*GrpcServer)(nil)
