package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	grpc_adapter "github.com/JoeShih716/go-retail-ledger/internal/app/core/adapter/in/grpc"
	rest_adapter "github.com/JoeShih716/go-retail-ledger/internal/app/core/adapter/in/rest"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/adapter/out/gormstore"
	kafka_adapter "github.com/JoeShih716/go-retail-ledger/internal/app/core/adapter/out/kafka"
	memory_adapter "github.com/JoeShih716/go-retail-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-retail-ledger/internal/config"
	"github.com/JoeShih716/go-retail-ledger/pkg/database"
	"github.com/JoeShih716/go-retail-ledger/pkg/password"
	"github.com/JoeShih716/go-retail-ledger/pkg/ratelimit"
	"github.com/JoeShih716/go-retail-ledger/pkg/wal"
	pb "github.com/JoeShih716/go-retail-ledger/proto"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.PathFromEnv(config.DefaultPath), "path to config file")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 初始化帳戶儲存 (Driven Adapter)
	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. 交易完成事件 (可選)
	opts := []usecase.Option{usecase.WithLogger(logger)}
	var events *eventPipeline
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka_adapter.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()

		events = startEvents(publisher, cfg.Kafka.QueueSize, logger)
		opts = append(opts, usecase.WithPublisher(events.dispatcher))
		logger.Info("event publishing enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	// 4. 初始化 UseCase
	coreUseCase := usecase.NewCoreUseCase(store, password.NewBcryptHasher(cfg.Security.BcryptCost), opts...)

	// 5. 登入限流 (可選)
	var loginLimiter *ratelimit.TokenBucket
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		loginLimiter = ratelimit.NewTokenBucket(rdb, "ratelimit:login", cfg.Redis.LoginCapacity, cfg.Redis.LoginRefillPerSec)
	}

	// 6. Driving Adapters
	router, err := rest_adapter.NewRouter(rest_adapter.Dependencies{
		Core:         coreUseCase,
		Logger:       logger,
		LoginLimiter: loginLimiter,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("starting http server", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		grpcServer = grpc.NewServer()
		pb.RegisterLedgerServiceServer(grpcServer, grpc_adapter.NewGrpcServer(coreUseCase, logger))
		go func() {
			logger.Info("starting grpc server", "addr", cfg.GRPC.Addr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	// Graceful Shutdown
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case runErr = <-errCh:
		logger.Error("server failed, shutting down", "error", runErr)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	servers := []func(context.Context) error{httpServer.Shutdown}
	if grpcServer != nil {
		servers = append(servers, gracefulStop(grpcServer.GracefulStop, grpcServer.Stop))
	}
	shutdown(shutdownCtx, logger, servers, events)
	logger.Info("server exited")
	return runErr
}

// newStore 依設定建立 Store，回傳的 close 函式釋放底層資源
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (usecase.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDatabase:
		client, err := database.NewClient(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		logger.Info("connected to database", "driver", cfg.Database.Driver)

		store := gormstore.NewStore(client, cfg.Store.LockTimeout)
		if cfg.Store.AutoMigrate {
			if err := store.AutoMigrate(ctx); err != nil {
				_ = client.Close()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return store, func() { _ = client.Close() }, nil

	default:
		walFile, err := wal.NewWAL(cfg.Store.WALPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open wal: %w", err)
		}
		store, err := memory_adapter.NewStore(walFile, cfg.Store.LockTimeout)
		if err != nil {
			_ = walFile.Close()
			return nil, nil, fmt.Errorf("recover from wal: %w", err)
		}
		logger.Info("memory store ready", "wal", cfg.Store.WALPath)
		return store, func() { _ = walFile.Close() }, nil
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
}
