package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 金額精度：小數點後 2 位
const (
	Scale = 2
)

// ValidateAmount 檢查金額為正數且小數不超過 Scale 位
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}
	if !amount.Equal(amount.Truncate(Scale)) {
		return fmt.Errorf("%w: %s has more than %d fractional digits", ErrInvalidAmount, amount.String(), Scale)
	}
	return nil
}

// ParseAmount 將字串轉為金額並檢查
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}
