package usecase

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// NumberGenerator 產生候選帳號 (唯一性由呼叫端與儲存層保證)
type NumberGenerator interface {
	Next() (string, error)
}

// NumberGeneratorFunc 讓一般函式滿足 NumberGenerator
type NumberGeneratorFunc func() (string, error)

func (f NumberGeneratorFunc) Next() (string, error) {
	return f()
}

// UUIDNumberGenerator 從隨機 UUID 取出固定位數的數字帳號
type UUIDNumberGenerator struct {
	digits  int
	modulus *big.Int
}

func NewUUIDNumberGenerator(digits int) *UUIDNumberGenerator {
	if digits <= 0 {
		digits = DefaultAccountNumberDigits
	}
	return &UUIDNumberGenerator{
		digits:  digits,
		modulus: new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil),
	}
}

// Next 回傳長度固定為 digits 的數字字串 (不足補 0)
func (g *UUIDNumberGenerator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to draw account number: %w", err)
	}
	n := new(big.Int).SetBytes(id[:])
	n.Mod(n, g.modulus)

	s := n.Text(10)
	if len(s) < g.digits {
		s = strings.Repeat("0", g.digits-len(s)) + s
	}
	return s, nil
}
