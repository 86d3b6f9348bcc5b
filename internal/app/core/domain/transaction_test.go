package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionConstructors(t *testing.T) {
	a := &Account{ID: 1, Number: "1111111111"}
	b := &Account{ID: 2, Number: "2222222222"}
	amount := decimal.NewFromInt(10)

	dep := NewDeposit(a, amount)
	assert.Nil(t, dep.FromAccountID)
	require.NotNil(t, dep.ToAccountID)
	assert.Equal(t, int64(1), *dep.ToAccountID)
	assert.Equal(t, TransactionStatusSuccess, dep.Status)

	wd := NewWithdrawal(a, amount, TransactionStatusFailed)
	require.NotNil(t, wd.FromAccountID)
	assert.Nil(t, wd.ToAccountID)
	assert.Equal(t, TransactionTypeWithdraw, wd.Type)

	tr := NewTransfer(a, b, amount, TransactionStatusSuccess)
	assert.True(t, tr.Involves(1))
	assert.True(t, tr.Involves(2))
	assert.False(t, tr.Involves(3))
}

func TestTransactionEffectOn(t *testing.T) {
	a := &Account{ID: 1}
	b := &Account{ID: 2}
	amount := decimal.RequireFromString("12.34")

	tr := NewTransfer(a, b, amount, TransactionStatusSuccess)
	assert.True(t, tr.EffectOn(1).Equal(amount.Neg()))
	assert.True(t, tr.EffectOn(2).Equal(amount))

	failed := NewTransfer(a, b, amount, TransactionStatusFailed)
	assert.True(t, failed.EffectOn(1).IsZero())
	assert.True(t, failed.EffectOn(2).IsZero())
}

func TestLockNumbers(t *testing.T) {
	assert.Equal(t, []string{"1000000000", "9000000000"}, LockNumbers("9000000000", "1000000000"))
	assert.Equal(t, []string{"1000000000", "9000000000"}, LockNumbers("1000000000", "9000000000"))
	assert.Equal(t, []string{"5"}, LockNumbers("5", "5", ""))
	assert.Empty(t, LockNumbers())
}

func TestSortNewestFirst(t *testing.T) {
	now := time.Now()
	trans := []*Transaction{
		{ID: 1, CreatedAt: now.Add(-time.Minute)},
		{ID: 2, CreatedAt: now},
		{ID: 3, CreatedAt: now},
		{ID: 4, CreatedAt: now.Add(-time.Hour)},
	}
	SortNewestFirst(trans)

	ids := make([]int64, 0, len(trans))
	for _, tr := range trans {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []int64{3, 2, 1, 4}, ids)
}

func TestTransactionTypeJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Type   TransactionType
		Status TransactionStatus
	}{TransactionTypeTransfer, TransactionStatusFailed})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Type":"TRANSFER","Status":"FAILED"}`, string(b))

	var out struct {
		Type   TransactionType
		Status TransactionStatus
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, TransactionTypeTransfer, out.Type)
	assert.Equal(t, TransactionStatusFailed, out.Status)

	_, err = ParseTransactionType("REFUND")
	assert.Error(t, err)
}

func TestTransactionClone(t *testing.T) {
	tr := NewTransfer(&Account{ID: 1}, &Account{ID: 2}, decimal.NewFromInt(1), TransactionStatusSuccess)
	c := tr.Clone()
	*c.FromAccountID = 99
	assert.Equal(t, int64(1), *tr.FromAccountID)
}
