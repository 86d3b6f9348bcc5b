package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/zap"
)

// FileModePrivate rw------- 帳本紀錄只允許擁有者讀寫
const FileModePrivate fs.FileMode = 0600

// ErrCorrupted WAL 中間出現無法解析的紀錄
var ErrCorrupted = errors.New("wal: corrupted record")

// ErrBroken 寫入失敗後無法還原檔尾，之後的寫入一律拒絕
var ErrBroken = errors.New("wal: log is broken")

// File WAL 使用的底層檔案操作 (*os.File 即滿足)
type File interface {
	io.ReadWriteSeeker
	io.Closer
	Sync() error
	Truncate(size int64) error
}

// Option 定義了 WAL 的配置選項函數
type Option func(*WAL)

// WithFile 包裝底層檔案，例如注入 I/O 錯誤
func WithFile(wrap func(File) File) Option {
	return func(w *WAL) {
		w.file = wrap(w.file)
	}
}

// WAL 以一行一筆 JSON 的方式追加寫入的日誌檔
type WAL struct {
	path   string
	file   File
	mu     sync.Mutex
	broken error
}

// NewWAL 開啟或建立一個 WAL 檔案
// O_APPEND 每次寫入時自動跳到文件末尾
func NewWAL(path string, opts ...Option) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModePrivate)
	if err != nil {
		return nil, fmt.Errorf("failed to open wal %s: %w", path, err)
	}
	w := &WAL{path: path, file: file}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path 回傳檔案路徑
func (w *WAL) Path() string {
	return w.path
}

// Write 寫入一筆資料並刷入硬碟，回傳 nil 代表資料已落地
//
// 寫入或 fsync 失敗時把檔案截回寫入前的長度，回傳錯誤代表這筆紀錄不會被重播；
// 截斷也失敗則標記為 broken，之後的 Write 都回傳 ErrBroken
func (w *WAL) Write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode wal record: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.broken != nil {
		return fmt.Errorf("%w: %v", ErrBroken, w.broken)
	}

	offset, err := w.file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to locate wal end: %w", err)
	}
	if err := w.append(line); err != nil {
		if rbErr := w.rollback(offset); rbErr != nil {
			w.broken = rbErr
			zap.L().Error("Failed to roll back WAL, refusing further writes",
				zap.String("path", w.path),
				zap.Int64("offset", offset),
				zap.NamedError("write_error", err),
				zap.Error(rbErr))
			return fmt.Errorf("%w: write: %v, rollback: %v", ErrBroken, err, rbErr)
		}
		return err
	}
	return nil
}

func (w *WAL) append(line []byte) error {
	n, err := w.file.Write(line)
	if err == nil && n < len(line) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return err
	}
	return w.file.Sync()
}

// rollback 截掉 offset 之後的內容並落地
func (w *WAL) rollback(offset int64) error {
	if err := w.file.Truncate(offset); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close 關閉檔案
func (w *WAL) Close() error {
	return w.file.Close()
}

// ReadAll 從頭依序讀取每一筆紀錄
//
// 參數:
//
//	callback: 接收一筆紀錄的原始 JSON，回傳錯誤會中止讀取
//
// 檔尾沒有換行的殘缺紀錄 (寫入途中 crash) 會被截掉並記錄 warning；
// 中間的紀錄無法解析則回傳 ErrCorrupted
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// 確保從頭讀取 (O_APPEND 下寫入仍會接在檔尾)
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(w.file)
	var offset int64
	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return w.truncateTail(offset, lineNo, len(line))
			}
			return nil
		}
		if err != nil {
			return err
		}
		offset += int64(len(line))

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return fmt.Errorf("%w: %s line %d", ErrCorrupted, w.path, lineNo)
		}
		if err := callback(line); err != nil {
			return err
		}
	}
}

func (w *WAL) truncateTail(offset int64, lineNo, size int) error {
	zap.L().Warn("Discarding torn WAL record",
		zap.String("path", w.path),
		zap.Int("line", lineNo),
		zap.Int("bytes", size))
	if err := w.file.Truncate(offset); err != nil {
		return fmt.Errorf("failed to truncate torn wal record: %w", err)
	}
	return nil
}
