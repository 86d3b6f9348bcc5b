package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

// Store 是一個使用 Mutex 實現的記憶體帳本
//
// 結構:
//
//	mu: 保護所有 Map 的讀寫鎖 (只在讀取與 commit 時短暫持有)
//	locks: 以帳號為 key 的鎖，unit of work 期間持有
//	seqMu: 分配 ID 與時間戳，確保交易 ID 與時間同序
//	wal: Write-Ahead Log 實例 (可為 nil)
type Store struct {
	mu           sync.RWMutex
	users        map[int64]*domain.User
	emails       map[string]int64
	accounts     map[int64]*domain.Account
	numbers      map[string]int64
	transactions map[int64][]*domain.Transaction // accountID -> 交易 (依寫入順序)

	locks *keyedLocker

	seqMu             sync.Mutex
	nextUserID        int64
	nextAccountID     int64
	nextTransactionID int64
	lastTimestamp     time.Time
	now               func() time.Time

	// Write-Ahead Logging
	wal *wal.WAL
}

// NewStore 建立一個新的 Store 實例
//
// 參數:
//
//	w: Write-Ahead Log 實例，nil 代表純記憶體
//
// 回傳:
//
//	*Store: Store 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewStore(w *wal.WAL) (*Store, error) {
	s := &Store{
		users:        make(map[int64]*domain.User),
		emails:       make(map[string]int64),
		accounts:     make(map[int64]*domain.Account),
		numbers:      make(map[string]int64),
		transactions: make(map[int64][]*domain.Transaction),
		locks:        newKeyedLocker(),
		now:          time.Now,
		wal:          w,
	}
	if w != nil {
		if err := s.recoverFromWAL(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Do 以單一原子單位執行 fn (實作 usecase.UnitOfWork)
//
// 帳號鎖依字典序取得；fn 的寫入先暫存在 unit，fn 成功才 commit
func (s *Store) Do(ctx context.Context, lockNumbers []string, fn func(repos usecase.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.locks.lockAll(domain.LockNumbers(lockNumbers...))
	defer unlock()

	u := newUnit(s, false)
	if err := fn(u); err != nil {
		return err
	}
	return s.commit(u)
}

// Reader 回傳唯讀的儲存介面
func (s *Store) Reader() usecase.Repositories {
	return newUnit(s, true)
}

// commit 驗證 unit 的寫入並套用 (先寫 WAL 再更新記憶體)
func (s *Store) commit(u *unit) error {
	if u.empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. 驗證 compare-and-write 與唯一性
	for id, base := range u.baseVersions {
		current, ok := s.accounts[id]
		if !ok {
			return domain.AccountNotFound("id", id)
		}
		if current.Version != base {
			return fmt.Errorf("%w: account %s", domain.ErrConcurrentModification, current.Number)
		}
	}
	for _, acc := range u.newAccounts {
		if _, ok := s.numbers[acc.Number]; ok {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNumber, acc.Number)
		}
	}
	for _, user := range u.newUsers {
		if _, ok := s.emails[user.Email]; ok {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, user.Email)
		}
	}

	// 交易 ID 與時間在持有 s.mu 時分配，全域順序等於 commit 順序
	for _, tran := range u.newTransactions {
		tran.ID, tran.CreatedAt = s.nextTransaction()
	}
	rec := u.record()

	// 2. 寫入 WAL (Critical Path)
	if s.wal != nil {
		if err := s.wal.Write(rec); err != nil {
			zap.L().Error("Failed to write WAL", zap.Error(err))
			return fmt.Errorf("%w: %v", domain.ErrWALWriteFailed, err)
		}
	}

	// 3. 更新記憶體
	s.apply(rec)
	for i, tran := range u.newTransactions {
		u.appended[i].ID, u.appended[i].CreatedAt = tran.ID, tran.CreatedAt
	}
	return nil
}

// apply 套用一筆紀錄，呼叫端需持有 s.mu
func (s *Store) apply(rec *walRecord) {
	for _, user := range rec.Users {
		s.users[user.ID] = user
		s.emails[user.Email] = user.ID
	}
	for _, acc := range rec.Accounts {
		s.accounts[acc.ID] = acc
		s.numbers[acc.Number] = acc.ID
	}
	for _, tran := range rec.Transactions {
		if tran.FromAccountID != nil {
			s.transactions[*tran.FromAccountID] = append(s.transactions[*tran.FromAccountID], tran)
		}
		if tran.ToAccountID != nil && (tran.FromAccountID == nil || *tran.ToAccountID != *tran.FromAccountID) {
			s.transactions[*tran.ToAccountID] = append(s.transactions[*tran.ToAccountID], tran)
		}
	}
}

// nextTransaction 分配交易 ID 與寫入時間，時間不會倒退
func (s *Store) nextTransaction() (int64, time.Time) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.nextTransactionID++
	ts := s.now()
	if ts.Before(s.lastTimestamp) {
		ts = s.lastTimestamp
	}
	s.lastTimestamp = ts
	return s.nextTransactionID, ts
}

func (s *Store) nextAccount() (int64, time.Time) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.nextAccountID++
	return s.nextAccountID, s.now()
}

func (s *Store) nextUser() (int64, time.Time) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.nextUserID++
	return s.nextUserID, s.now()
}

// 以下讀取方法都回傳複本

func (s *Store) accountByID(id int64) (*domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

func (s *Store) accountByNumber(number string) (*domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.numbers[number]
	if !ok {
		return nil, false
	}
	return s.accounts[id].Clone(), true
}

func (s *Store) userByID(id int64) (*domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, false
	}
	c := *user
	return &c, true
}

func (s *Store) emailTaken(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.emails[email]
	return ok
}

func (s *Store) transactionsOf(accountID int64) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.transactions[accountID]
	out := make([]*domain.Transaction, 0, len(list))
	for _, tran := range list {
		out = append(out, tran.Clone())
	}
	return out
}

var _ usecase.UnitOfWork = (*Store)(nil)
