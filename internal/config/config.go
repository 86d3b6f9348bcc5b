package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
	"github.com/JoeShih716/go-bank-ledger/pkg/postgres"
	"github.com/JoeShih716/go-bank-ledger/pkg/sqlite"
)

// DefaultPath 預設設定檔位置
const DefaultPath = "config/config.yaml"

// 儲存層種類
const (
	StoreMemory   = "memory"
	StoreMySQL    = "mysql"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config 服務設定
//
// 優先順序: 環境變數 > YAML 設定檔 > 預設值
type Config struct {
	Store    string          `yaml:"store"`
	GRPC     GRPCConfig      `yaml:"grpc"`
	Log      LogConfig       `yaml:"log"`
	WAL      WALConfig       `yaml:"wal"`
	Ledger   LedgerConfig    `yaml:"ledger"`
	MySQL    mysql.Config    `yaml:"mysql"`
	SQLite   sqlite.Config   `yaml:"sqlite"`
	Postgres postgres.Config `yaml:"postgres"`
}

type GRPCConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// WALConfig 記憶體儲存的 Write-Ahead Log，Path 為空代表不落地
type WALConfig struct {
	Path string `yaml:"path"`
}

type LedgerConfig struct {
	AccountNumberDigits int `yaml:"account_number_digits"`
	MaxNumberAttempts   int `yaml:"max_number_attempts"`
}

// Default 回傳預設設定
func Default() *Config {
	return &Config{
		Store: StoreMemory,
		GRPC: GRPCConfig{
			Addr:            ":50051",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		WAL: WALConfig{
			Path: "wal.log",
		},
		Ledger: LedgerConfig{
			AccountNumberDigits: 10,
			MaxNumberAttempts:   10,
		},
		MySQL: mysql.DefaultConfig(),
		SQLite: sqlite.Config{
			Path:     "ledger.db",
			LogLevel: "error",
		},
		Postgres: postgres.DefaultConfig(),
	}
}

// Load 讀取設定
//
// 參數:
//
//	path: YAML 設定檔路徑，空字串使用 DefaultPath (預設檔案不存在時只用預設值)
//
// 回傳:
//
//	*Config: 合併後的設定
//	error: 檔案或環境變數格式錯誤
func Load(path string) (*Config, error) {
	// .env 不存在是正常的，環境變數也可能由 shell 或容器設定
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 檢查設定是否合法
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreMySQL, StoreSQLite:
	case StorePostgres:
		if c.Postgres.URL == "" {
			return errors.New("postgres store requires DATABASE_URL or postgres.url")
		}
	default:
		return fmt.Errorf("unknown store %q (memory, mysql, sqlite, postgres)", c.Store)
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}
	if c.Ledger.AccountNumberDigits <= 0 || c.Ledger.AccountNumberDigits > 18 {
		return fmt.Errorf("ledger.account_number_digits must be between 1 and 18, got %d", c.Ledger.AccountNumberDigits)
	}
	if c.Ledger.MaxNumberAttempts <= 0 {
		return fmt.Errorf("ledger.max_number_attempts must be positive, got %d", c.Ledger.MaxNumberAttempts)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Store = getEnvString("LEDGER_STORE", c.Store)
	c.GRPC.Addr = getEnvString("LEDGER_GRPC_ADDR", c.GRPC.Addr)
	c.Log.Level = getEnvString("LEDGER_LOG_LEVEL", c.Log.Level)
	c.WAL.Path = getEnvString("LEDGER_WAL_PATH", c.WAL.Path)

	var err error
	if c.Log.Development, err = getEnvBool("LEDGER_LOG_DEVELOPMENT", c.Log.Development); err != nil {
		return err
	}
	if c.GRPC.ShutdownTimeout, err = getEnvDuration("LEDGER_SHUTDOWN_TIMEOUT", c.GRPC.ShutdownTimeout); err != nil {
		return err
	}

	c.MySQL.Host = getEnvString("MYSQL_HOST", c.MySQL.Host)
	c.MySQL.User = getEnvString("MYSQL_USER", c.MySQL.User)
	c.MySQL.Password = getEnvString("MYSQL_PASSWORD", c.MySQL.Password)
	c.MySQL.DBName = getEnvString("MYSQL_DBNAME", c.MySQL.DBName)
	if c.MySQL.Port, err = getEnvInt("MYSQL_PORT", c.MySQL.Port); err != nil {
		return err
	}

	c.SQLite.Path = getEnvString("SQLITE_PATH", c.SQLite.Path)
	c.Postgres.URL = getEnvString("DATABASE_URL", c.Postgres.URL)
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %q (%w)", key, value, err)
		}
		return intValue, nil
	}
	return defaultValue, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid bool for %s: %q (%w)", key, value, err)
		}
		return boolValue, nil
	}
	return defaultValue, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}
