package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

type errorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: correlationIDFromContext(r.Context()),
	})
}

// writeDomainError 將 domain 錯誤對應到 HTTP status 與錯誤碼
func (h *handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := httpStatusOf(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		h.logger.Error("request failed", "cid", correlationIDFromContext(r.Context()), "error", err)
		message = "internal error"
	case http.StatusServiceUnavailable:
		h.logger.Warn("request failed", "cid", correlationIDFromContext(r.Context()), "error", err)
		message = "service temporarily unavailable, try again later"
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeError(w, r, status, code, message)
}

func httpStatusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, domain.ErrInvalidKind):
		return http.StatusBadRequest, "invalid_type"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "account_not_found"
	case errors.Is(err, domain.ErrEmailAlreadyRegistered):
		return http.StatusConflict, "email_already_registered"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, domain.ErrBalanceOverflow):
		return http.StatusConflict, "balance_overflow"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domain.ErrLockTimeout):
		return http.StatusServiceUnavailable, "lock_timeout"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, domain.ErrAccountNumberExhausted):
		return http.StatusServiceUnavailable, "account_number_exhausted"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
