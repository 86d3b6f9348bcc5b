package memory

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// walRecord 一次 commit 的內容，WAL 中一行一筆
type walRecord struct {
	Users        []*domain.User        `json:"users,omitempty"`
	Accounts     []*domain.Account     `json:"accounts,omitempty"`
	Transactions []*domain.Transaction `json:"transactions,omitempty"`
}

// recoverFromWAL 從 WAL 檔案恢復帳本狀態
// 只有 NewStore 呼叫，無需 Lock (單執行緒)
//
// 回傳:
//
//	error: 恢復過程錯誤
func (s *Store) recoverFromWAL() error {
	count := 0
	err := s.wal.ReadAll(func(jsonRaw []byte) error {
		var rec walRecord
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return fmt.Errorf("failed to decode wal record %d: %w", count+1, err)
		}
		s.apply(&rec)
		s.advanceSequences(&rec)
		count++
		return nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("Recovered ledger from WAL",
		zap.Int("records", count),
		zap.Int("users", len(s.users)),
		zap.Int("accounts", len(s.accounts)))
	return nil
}

// advanceSequences 讓後續分配的 ID 與時間接在恢復的資料之後
func (s *Store) advanceSequences(rec *walRecord) {
	for _, user := range rec.Users {
		if user.ID > s.nextUserID {
			s.nextUserID = user.ID
		}
	}
	for _, acc := range rec.Accounts {
		if acc.ID > s.nextAccountID {
			s.nextAccountID = acc.ID
		}
	}
	for _, tran := range rec.Transactions {
		if tran.ID > s.nextTransactionID {
			s.nextTransactionID = tran.ID
		}
		if tran.CreatedAt.After(s.lastTimestamp) {
			s.lastTimestamp = tran.CreatedAt
		}
	}
}
