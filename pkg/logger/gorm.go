package logger

import (
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// gormWriter 讓 GORM 的輸出走 zap
type gormWriter struct {
	sugar *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.sugar.Infof(format, args...)
}

// Gorm 根據等級字串建立 GORM Logger，輸出到全域 zap logger
//
// level: "silent", "error", "warn", "info"，其他值視為 "error"
func Gorm(level string) gormlogger.Interface {
	var logLevel gormlogger.LogLevel
	switch level {
	case "info":
		logLevel = gormlogger.Info
	case "warn":
		logLevel = gormlogger.Warn
	case "silent":
		logLevel = gormlogger.Silent
	default:
		logLevel = gormlogger.Error
	}

	return gormlogger.New(gormWriter{sugar: zap.L().Named("gorm").Sugar()}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
