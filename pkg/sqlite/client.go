package sqlite

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-bank-ledger/pkg/logger"
)

// MemoryPath 純記憶體資料庫 (測試用)
const MemoryPath = ":memory:"

// Config SQLite 連線配置
type Config struct {
	Path        string `yaml:"path"`         // 資料庫檔案路徑，":memory:" 為純記憶體
	BusyTimeout int    `yaml:"busy_timeout"` // 等待寫鎖的毫秒數
	LogLevel    string `yaml:"log_level"`    // GORM Log 等級
}

// DSN 產生 go-sqlite3 的連線字串
func (c *Config) DSN() string {
	if c.Path == "" || c.Path == MemoryPath {
		return MemoryPath
	}
	timeout := c.BusyTimeout
	if timeout <= 0 {
		timeout = 5000
	}
	sep := "?"
	if strings.Contains(c.Path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("file:%s%s_busy_timeout=%d&_journal_mode=WAL&_txlock=immediate", c.Path, sep, timeout)
}

// Client 封裝 GORM DB 實例
type Client struct {
	db *gorm.DB
}

// NewClient 開啟 SQLite 資料庫
//
// SQLite 只允許單一寫入者，連線池固定為 1 條連線，
// 整個 unit of work 因此天然序列化 (SQLite 不支援 SELECT ... FOR UPDATE)
func NewClient(cfg Config) (*Client, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Gorm(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	// 記憶體資料庫在連線關閉後就消失
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}

	zap.L().Info("Opened SQLite database", zap.String("path", cfg.Path))
	return &Client{db: db}, nil
}

// DB 回傳底層的 *gorm.DB 實例
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Close 關閉資料庫
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
