package usecase

// 帳號產生的預設值
const (
	DefaultAccountNumberDigits = 10
	DefaultMaxNumberAttempts   = 10
)

// CoreUseCase 是核心業務邏輯層
type CoreUseCase struct {
	uow               UnitOfWork
	numbers           NumberGenerator
	maxNumberAttempts int
}

// Option 定義了 CoreUseCase 的配置選項函數
type Option func(*CoreUseCase)

// WithNumberGenerator 替換帳號產生器
func WithNumberGenerator(g NumberGenerator) Option {
	return func(c *CoreUseCase) {
		c.numbers = g
	}
}

// WithMaxNumberAttempts 設定帳號碰撞時的最大重試次數
func WithMaxNumberAttempts(n int) Option {
	return func(c *CoreUseCase) {
		if n > 0 {
			c.maxNumberAttempts = n
		}
	}
}

func NewCoreUseCase(uow UnitOfWork, opts ...Option) *CoreUseCase {
	c := &CoreUseCase{
		uow:               uow,
		numbers:           NewUUIDNumberGenerator(DefaultAccountNumberDigits),
		maxNumberAttempts: DefaultMaxNumberAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
