package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

const (
	mysqlLockWaitTimeout = 1205
	mysqlDuplicateEntry  = 1062
	pgLockNotAvailable   = "55P03"
	pgUniqueViolation    = "23505"
)

// isLockTimeout 判斷是否為等鎖逾時
func isLockTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlLockWaitTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgLockNotAvailable
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// isDuplicateKey 判斷是否為唯一鍵衝突
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isDomainError 已分類過的錯誤直接往上拋
func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrAccountNotFound,
		domain.ErrInsufficientFunds,
		domain.ErrBalanceOverflow,
		domain.ErrInvalidAmount,
		domain.ErrInvalidKind,
		domain.ErrEmailAlreadyRegistered,
		domain.ErrAccountNumberTaken,
		domain.ErrLockTimeout,
		domain.ErrStorageUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// classify 將 driver / gorm 錯誤轉為 domain 錯誤
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrAccountNotFound
	case isLockTimeout(err):
		return fmt.Errorf("%w: %w", domain.ErrLockTimeout, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
}

// classifyDuplicate 依衝突的欄位判斷是 Email 還是帳號
func classifyDuplicate(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "email") {
		return domain.ErrEmailAlreadyRegistered
	}
	return domain.ErrAccountNumberTaken
}
