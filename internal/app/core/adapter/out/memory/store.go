package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-retail-ledger/pkg/wal"
)

// errTxClosed 在 WithAccountLock 結束後仍使用 AccountTx
var errTxClosed = errors.New("account transaction already closed")

// Store 記憶體帳本，每個帳戶一把鎖，不同帳戶的交易可並行
//
// 結構:
//
//	accounts: 帳號 → 帳戶狀態，mu 只在查找與開戶時持有
//	byEmail: Email → 帳號
//	nextID: 流水 ID 序號
//	wal: Write-Ahead Log 實例，nil 表示不落盤
//	lockTimeout: 等待帳戶鎖的上限
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*accountState
	byEmail  map[string]string

	nextID      atomic.Int64
	wal         *wal.WAL
	lockTimeout time.Duration
	now         func() time.Time
}

// accountState 單一帳戶的狀態
// lock 是整個交易期間持有的帳戶鎖，mu 只保護讀寫欄位的瞬間
type accountState struct {
	lock    rowLock
	mu      sync.RWMutex
	account domain.Account
	entries []domain.Transaction
}

// NewStore 建立記憶體帳本並從 WAL 恢復狀態
//
// 參數:
//
//	w: Write-Ahead Log 實例，可為 nil
//	lockTimeout: 等待帳戶鎖的上限，<= 0 表示只受 ctx 限制
//
// 回傳:
//
//	*Store: 記憶體帳本
//	error: WAL 恢復失敗
func NewStore(w *wal.WAL, lockTimeout time.Duration) (*Store, error) {
	s := &Store{
		accounts:    make(map[string]*accountState),
		byEmail:     make(map[string]string),
		wal:         w,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
	if w != nil {
		if err := s.recoverFromWAL(); err != nil {
			return nil, fmt.Errorf("recover from wal: %w", err)
		}
	}
	return s, nil
}

// CreateAccount 開戶並寫入首筆流水
func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account, opening *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[acc.Profile.Email]; ok {
		return domain.ErrEmailAlreadyRegistered
	}
	if _, ok := s.accounts[acc.Number]; ok {
		return domain.ErrAccountNumberTaken
	}

	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = s.now().UTC()
	}
	entry := *opening
	entry.AccountNumber = acc.Number
	entry.ID = s.nextID.Add(1)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = acc.CreatedAt
	}

	// 1. 寫入 WAL (Critical Path)
	if s.wal != nil {
		rec := walRecord{Op: opOpen, Account: newWALAccount(acc), Entries: []domain.Transaction{entry}}
		if err := s.wal.Write(rec); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
	}

	// 2. 更新記憶體
	s.insertLocked(*acc, []domain.Transaction{entry})
	*opening = entry
	return nil
}

// insertLocked 呼叫前需持有 s.mu
func (s *Store) insertLocked(acc domain.Account, entries []domain.Transaction) {
	s.accounts[acc.Number] = &accountState{
		lock:    newRowLock(),
		account: acc,
		entries: entries,
	}
	s.byEmail[acc.Profile.Email] = acc.Number
}

func (s *Store) lookup(number string) *accountState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[number]
}

// GetByAccountNumber 依帳號查詢
func (s *Store) GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error) {
	st := s.lookup(number)
	if st == nil {
		return nil, domain.ErrAccountNotFound
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	acc := st.account
	return &acc, nil
}

// GetByEmail 依 Email 查詢
func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	number, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.GetByAccountNumber(ctx, number)
}

// AccountNumberExists 帳號是否已被使用
func (s *Store) AccountNumberExists(ctx context.Context, number string) (bool, error) {
	return s.lookup(number) != nil, nil
}

// ListRecent 由新到舊列出流水
func (s *Store) ListRecent(ctx context.Context, number string, limit int) ([]domain.Transaction, error) {
	st := s.lookup(number)
	if st == nil {
		return []domain.Transaction{}, nil
	}
	st.mu.RLock()
	defer st.mu.RUnlock()

	n := len(st.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Transaction, 0, n)
	for i := len(st.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, st.entries[i])
	}
	return out, nil
}

// WithAccountLock 取得帳戶鎖後執行 fn，fn 成功才寫入 WAL 並套用到記憶體
//
// 參數:
//
//	ctx: 上下文
//	number: 帳號
//	fn: 持有鎖期間執行的邏輯，回傳 error 則所有暫存的變更捨棄
//
// 回傳:
//
//	error: fn 的錯誤，或 ErrAccountNotFound / ErrLockTimeout / ErrStorageUnavailable
func (s *Store) WithAccountLock(ctx context.Context, number string, fn func(tx usecase.AccountTx) error) error {
	st := s.lookup(number)
	if st == nil {
		return domain.ErrAccountNotFound
	}

	if err := st.lock.acquire(ctx, s.lockTimeout); err != nil {
		return err
	}
	defer st.lock.release()

	st.mu.RLock()
	snapshot := st.account
	st.mu.RUnlock()

	tx := &accountTx{store: s, account: snapshot, balance: snapshot.Balance}
	err := fn(tx)
	tx.closed = true
	if err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	// 1. 寫入 WAL (Critical Path)，失敗則記憶體不變
	if s.wal != nil {
		rec := walRecord{Op: opPost, AccountNumber: number, Balance: tx.balance, Entries: tx.pending}
		if err := s.wal.Write(rec); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
	}

	// 2. 套用到記憶體
	st.mu.Lock()
	st.account.Balance = tx.balance
	st.entries = append(st.entries, tx.pending...)
	st.mu.Unlock()
	return nil
}

// accountTx 暫存持有鎖期間的變更，commit 時一次套用
type accountTx struct {
	store   *Store
	account domain.Account
	balance domain.Money
	pending []domain.Transaction
	dirty   bool
	closed  bool
}

func (t *accountTx) Account() domain.Account {
	acc := t.account
	acc.Balance = t.balance
	return acc
}

func (t *accountTx) UpdateBalance(ctx context.Context, balance domain.Money) error {
	if t.closed {
		return errTxClosed
	}
	if balance < 0 {
		return domain.ErrInsufficientFunds
	}
	t.balance = balance
	t.dirty = true
	return nil
}

func (t *accountTx) AppendTransaction(ctx context.Context, tran *domain.Transaction) error {
	if t.closed {
		return errTxClosed
	}
	tran.AccountNumber = t.account.Number
	tran.ID = t.store.nextID.Add(1)
	if tran.CreatedAt.IsZero() {
		tran.CreatedAt = t.store.now().UTC()
	}
	t.pending = append(t.pending, *tran)
	t.dirty = true
	return nil
}

// recoverFromWAL 從 WAL 檔案恢復帳本狀態
// 只有 NewStore 呼叫，無需 Lock (單執行緒)
func (s *Store) recoverFromWAL() error {
	var maxID int64
	err := s.wal.ReadAll(func(jsonRaw []byte) error {
		var rec walRecord
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return err
		}
		for _, e := range rec.Entries {
			maxID = max(maxID, e.ID)
		}
		return s.applyRecord(&rec)
	})
	if err != nil {
		return err
	}
	s.nextID.Store(maxID)
	return nil
}

// applyRecord 恢復單筆紀錄至記憶體 (不寫入 WAL)
func (s *Store) applyRecord(rec *walRecord) error {
	switch rec.Op {
	case opOpen:
		if rec.Account == nil {
			return fmt.Errorf("wal open record without account")
		}
		s.insertLocked(rec.Account.toDomain(), rec.Entries)
	case opPost:
		st, ok := s.accounts[rec.AccountNumber]
		if !ok {
			return fmt.Errorf("wal post record for unknown account %s", rec.AccountNumber)
		}
		st.account.Balance = rec.Balance
		st.entries = append(st.entries, rec.Entries...)
	default:
		return fmt.Errorf("unknown wal op %q", rec.Op)
	}
	return nil
}

var _ usecase.Store = (*Store)(nil)
