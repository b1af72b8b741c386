package domain

import "errors"

var (
	// ErrInvalidAmount 金額必須為正數且最多 2 位小數
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidKind 交易類型只能是 credit 或 debit
	ErrInvalidKind = errors.New("invalid transaction type")

	// ErrInvalidInput 註冊資料缺漏或格式錯誤
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmailAlreadyRegistered Email 已被註冊
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	// ErrAccountNumberTaken 帳號已存在 (註冊時重抽帳號用，不對外)
	ErrAccountNumberTaken = errors.New("account number already taken")

	// ErrInsufficientFunds 餘額不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrBalanceOverflow 入帳後超過餘額上限
	ErrBalanceOverflow = errors.New("balance overflow")

	// ErrLockTimeout 等待帳戶鎖逾時，可稍後重試
	ErrLockTimeout = errors.New("account lock wait timeout")

	// ErrStorageUnavailable 儲存層錯誤，可稍後重試
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrAccountNumberExhausted 多次產生帳號皆重複
	ErrAccountNumberExhausted = errors.New("could not allocate a unique account number")

	// ErrInvalidCredentials 帳號或密碼錯誤
	ErrInvalidCredentials = errors.New("invalid account number or password")
)

// IsRetryable 回報錯誤是否屬於「稍後再試」類別
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrStorageUnavailable)
}
