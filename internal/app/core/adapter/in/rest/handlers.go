package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
)

type handler struct {
	core   *usecase.CoreUseCase
	logger *slog.Logger
}

// flexMoney 接受 JSON number 或字串
type flexMoney string

func (m *flexMoney) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = flexMoney(s)
		return nil
	}
	*m = flexMoney(b)
	return nil
}

type registerRequest struct {
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Password       string    `json:"password"`
	InitialDeposit flexMoney `json:"initialDeposit"`
}

type registerResponse struct {
	Message       string `json:"message"`
	AccountNumber string `json:"accountNumber"`
	Success       bool   `json:"success"`
}

type loginRequest struct {
	AccountNumber string `json:"accountNumber"`
	Password      string `json:"password"`
}

type loginResponse struct {
	Message       string `json:"message"`
	AccountNumber string `json:"accountNumber"`
	FullName      string `json:"fullName"`
}

type accountResponse struct {
	AccountNumber string       `json:"accountNumber"`
	FullName      string       `json:"fullName"`
	Email         string       `json:"email"`
	Balance       domain.Money `json:"balance"`
}

type transactionRequest struct {
	AccountNumber string    `json:"accountNumber"`
	Type          string    `json:"type"`
	Amount        flexMoney `json:"amount"`
	Description   string    `json:"description"`
}

type transactionResponse struct {
	Message    string       `json:"message"`
	NewBalance domain.Money `json:"newBalance"`
}

type transactionEntry struct {
	ID          int64        `json:"id"`
	Type        string       `json:"type"`
	Amount      domain.Money `json:"amount"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", "")
		return
	}
	deposit, err := domain.ParseMoney(string(req.InitialDeposit))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	acc, err := h.core.CreateAccount(r.Context(), usecase.RegisterRequest{
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Credential:     req.Password,
		InitialDeposit: deposit,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Message:       "Account created successfully",
		AccountNumber: acc.Number,
		Success:       true,
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", "")
		return
	}
	acc, err := h.core.Authenticate(r.Context(), req.AccountNumber, req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Message:       "Login successful",
		AccountNumber: acc.Number,
		FullName:      acc.Profile.FullName,
	})
}

func (h *handler) account(w http.ResponseWriter, r *http.Request) {
	acc, err := h.core.GetAccount(r.Context(), chi.URLParam(r, "accountNumber"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		AccountNumber: acc.Number,
		FullName:      acc.Profile.FullName,
		Email:         acc.Profile.Email,
		Balance:       acc.Balance,
	})
}

func (h *handler) transaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", "")
		return
	}
	kind, err := domain.ParseKind(req.Type)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	amount, err := domain.ParseMoney(string(req.Amount))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	res, err := h.core.ApplyTransaction(r.Context(), usecase.ApplyRequest{
		AccountNumber: req.AccountNumber,
		Kind:          kind,
		Amount:        amount,
		Description:   req.Description,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{
		Message:    "Transaction successful",
		NewBalance: res.NewBalance,
	})
}

func (h *handler) transactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid_input", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.core.ListTransactions(r.Context(), chi.URLParam(r, "accountNumber"), limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]transactionEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, transactionEntry{
			ID:          e.ID,
			Type:        string(e.Kind),
			Amount:      e.Amount,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
