package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-retail-ledger/pkg/ratelimit"
)

// DefaultMaxBodyBytes 未設定時的請求 body 上限
const DefaultMaxBodyBytes int64 = 1 << 20

// Dependencies HTTP 層需要的依賴
type Dependencies struct {
	Core   *usecase.CoreUseCase
	Logger *slog.Logger
	// LoginLimiter 為 nil 時 /api/login 不限流
	LoginLimiter *ratelimit.TokenBucket
	MaxBodyBytes int64
}

// NewRouter 建立 HTTP 路由
func NewRouter(deps Dependencies) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	registerValidator, err := newSchemaValidator("register", registerSchema)
	if err != nil {
		return nil, err
	}
	loginValidator, err := newSchemaValidator("login", loginSchema)
	if err != nil {
		return nil, err
	}
	transactionValidator, err := newSchemaValidator("transaction", transactionSchema)
	if err != nil {
		return nil, err
	}

	h := &handler{core: deps.Core, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(CorrelationID)
	r.Use(RequestLogger(logger))
	r.Use(BodySizeLimit(maxBody))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})

	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		r.With(registerValidator.Middleware).Post("/register", h.register)

		login := r.With()
		if deps.LoginLimiter != nil {
			login = login.With(RateLimit(deps.LoginLimiter, rateLimitKeyByIP))
		}
		login.With(loginValidator.Middleware).Post("/login", h.login)

		r.Get("/account/{accountNumber}", h.account)
		r.With(transactionValidator.Middleware).Post("/transaction", h.transaction)
		r.Get("/transactions/{accountNumber}", h.transactions)
	})

	return r, nil
}
