package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-retail-ledger/pkg/database"
)

// Store 以 GORM 實作的帳戶與流水儲存層 (MySQL / Postgres / SQLite)
//
// 結構:
//
//	client: 資料庫客戶端
//	lockTimeout: 等待 row lock 的上限，0 表示使用資料庫預設值
type Store struct {
	client      *database.Client
	lockTimeout time.Duration
}

// NewStore 建立 Store
func NewStore(client *database.Client, lockTimeout time.Duration) *Store {
	return &Store{
		client:      client,
		lockTimeout: lockTimeout,
	}
}

// AutoMigrate 建立或更新 accounts / transactions 表
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.db(ctx).AutoMigrate(&sqlAccount{}, &sqlTransaction{})
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.client.DB().WithContext(ctx)
}

// CreateAccount 在同一個 DB transaction 內寫入帳戶與開戶存款
func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account, opening *domain.Transaction) error {
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&sqlAccount{}).Where("email = ?", acc.Profile.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrEmailAlreadyRegistered
		}
		if err := tx.Model(&sqlAccount{}).Where("account_number = ?", acc.Number).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAccountNumberTaken
		}

		row := newSQLAccount(acc)
		if err := tx.Create(row).Error; err != nil {
			if isDuplicateKey(err) {
				return classifyDuplicate(err)
			}
			return err
		}

		entry := newSQLTransaction(opening)
		if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
			return err
		}
		acc.CreatedAt = row.CreatedAt.UTC()
		opening.ID = entry.ID
		opening.CreatedAt = entry.CreatedAt.UTC()
		return nil
	})
	return classify(err)
}

// GetByAccountNumber 依帳號查詢
func (s *Store) GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error) {
	var row sqlAccount
	if err := s.db(ctx).Where("account_number = ?", number).Take(&row).Error; err != nil {
		return nil, classify(err)
	}
	return row.toDomain(), nil
}

// GetByEmail 依 Email 查詢
func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var row sqlAccount
	if err := s.db(ctx).Where("email = ?", email).Take(&row).Error; err != nil {
		return nil, classify(err)
	}
	return row.toDomain(), nil
}

// AccountNumberExists 帳號是否已被使用
func (s *Store) AccountNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := s.db(ctx).Model(&sqlAccount{}).Where("account_number = ?", number).Count(&count).Error; err != nil {
		return false, classify(err)
	}
	return count > 0, nil
}

// ListRecent 由新到舊列出流水 (id 在同一帳戶內依 commit 順序遞增)
func (s *Store) ListRecent(ctx context.Context, number string, limit int) ([]domain.Transaction, error) {
	var rows []sqlTransaction
	err := s.db(ctx).
		Where("account_number = ?", number).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	out := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// WithAccountLock 開啟 DB transaction，以 SELECT ... FOR UPDATE 鎖定帳戶後執行 fn
//
// 參數:
//
//	ctx: 上下文
//	number: 帳號
//	fn: 持有鎖期間執行的邏輯，回傳 error 即 rollback
//
// 回傳:
//
//	error: fn 的錯誤，或 ErrAccountNotFound / ErrLockTimeout / ErrStorageUnavailable
func (s *Store) WithAccountLock(ctx context.Context, number string, fn func(tx usecase.AccountTx) error) error {
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.setLockTimeout(tx); err != nil {
			return err
		}

		// 悲觀鎖
		var row sqlAccount
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_number = ?", number).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrAccountNotFound
		}
		if err != nil {
			if isLockTimeout(err) {
				return fmt.Errorf("%w: %w", domain.ErrLockTimeout, err)
			}
			return err
		}

		return fn(&accountTx{tx: tx, row: &row})
	})
	return classify(err)
}

// setLockTimeout 設定本次 transaction 等待 row lock 的上限
// mysql 的 innodb_lock_wait_timeout 是 session 變數，改由 DSN 對每條連線設定 (database.Config.LockWaitTimeout)
func (s *Store) setLockTimeout(tx *gorm.DB) error {
	if s.lockTimeout <= 0 {
		return nil
	}
	switch tx.Dialector.Name() {
	case database.DriverPostgres:
		// SET LOCAL 只在這個 transaction 內有效
		return tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())).Error
	default:
		// sqlite 以單一連線序列化，等待由連線池與 _busy_timeout 控制
		return nil
	}
}

// accountTx 持有 row lock 期間的操作
type accountTx struct {
	tx  *gorm.DB
	row *sqlAccount
}

func (a *accountTx) Account() domain.Account {
	return *a.row.toDomain()
}

func (a *accountTx) UpdateBalance(ctx context.Context, balance domain.Money) error {
	if balance < 0 {
		return domain.ErrInsufficientFunds
	}
	res := a.tx.Model(a.row).Update("balance_minor", int64(balance))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("update balance of %s: %d rows affected", a.row.AccountNumber, res.RowsAffected)
	}
	a.row.Balance = int64(balance)
	return nil
}

func (a *accountTx) AppendTransaction(ctx context.Context, tran *domain.Transaction) error {
	tran.AccountNumber = a.row.AccountNumber
	entry := newSQLTransaction(tran)
	if err := a.tx.Omit(clause.Associations).Create(entry).Error; err != nil {
		return err
	}
	tran.ID = entry.ID
	tran.CreatedAt = entry.CreatedAt.UTC()
	return nil
}

var _ usecase.Store = (*Store)(nil)
