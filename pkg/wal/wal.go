package wal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// 自己定義常用的權限常量
const (
	// rw-r--r-- (擁有者讀寫，其他人唯讀) - 適用於大多數檔案
	FileModeReadOnly fs.FileMode = 0644

	// rwxr-xr-x (擁有者全開，其他人可讀可執行) - 適用於目錄
	FileModeExecutable fs.FileMode = 0755

	// rw------- (只有擁有者可讀寫) - 適用於私鑰、機密檔 (帳戶資料含密碼雜湊)
	FileModePrivate fs.FileMode = 0600
)

// ErrBroken fsync 失敗後檔案狀態不明，WAL 拒絕之後的寫入
var ErrBroken = errors.New("wal is broken")

// logFile WAL 需要的檔案操作，*os.File 即滿足
type logFile interface {
	io.ReadWriteSeeker
	io.Closer
	Sync() error
	Truncate(size int64) error
	Stat() (fs.FileInfo, error)
}

// WAL 以 JSON Lines 格式追加寫入的 Write-Ahead Log
type WAL struct {
	file logFile
	mu   sync.Mutex
	// broken 非 nil 時所有寫入都回傳它
	broken error
}

// NewWAL 開啟或建立一個 WAL 檔案，上層目錄不存在時一併建立
// O_RDWR讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func NewWAL(path string) (*WAL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, FileModeExecutable); err != nil {
			return nil, fmt.Errorf("create wal dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModePrivate)
	if err != nil {
		return nil, err
	}
	return &WAL{file: file}, nil
}

// Write 寫入一筆資料並 fsync，回傳 nil 代表資料已落盤
// 回傳 error 時這筆紀錄已從檔案截掉，重啟後不會被重播
func (w *WAL) Write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.broken != nil {
		return w.broken
	}

	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	offset := info.Size()

	if _, err := w.file.Write(data); err != nil {
		return w.rollback(offset, err, false)
	}
	if err := w.file.Sync(); err != nil {
		// fsync 失敗後 page cache 與磁碟內容不再可信
		return w.rollback(offset, err, true)
	}
	return nil
}

// rollback 把檔案截回寫入前的長度，截不回去或 poison 為 true 時標記 WAL 損壞
func (w *WAL) rollback(offset int64, cause error, poison bool) error {
	if err := w.file.Truncate(offset); err != nil {
		w.broken = fmt.Errorf("%w: truncate after failed write: %w", ErrBroken, errors.Join(cause, err))
		return w.broken
	}
	if poison {
		_ = w.file.Sync()
		w.broken = fmt.Errorf("%w: %w", ErrBroken, cause)
		return w.broken
	}
	return cause
}

// Sync 強制刷入硬碟 (關鍵！)
func (w *WAL) Sync() error {
	return w.file.Sync()
}

// Close 關閉檔案
func (w *WAL) Close() error {
	return w.file.Close()
}

// ReadAll 依寫入順序讀取所有資料
// callback 是一個函式，接收一個 json.RawMessage
// 這樣可以避免一次將所有資料載入記憶體
// 檔案結尾若有寫到一半的紀錄 (crash 造成) 會被截掉，之後的寫入接在最後一筆完整紀錄後
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// 確保從頭讀取
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	var good int64
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return w.file.Truncate(good)
			}
			return err
		}
		good = decoder.InputOffset()
		if err := callback(raw); err != nil {
			return err
		}
	}
}
