package wal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Seq  int    `json:"seq"`
	Note string `json:"note"`
}

func readRecords(t *testing.T, w *WAL) []record {
	t.Helper()
	var out []record
	require.NoError(t, w.ReadAll(func(raw []byte) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	}))
	return out
}

func TestWriteAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.wal")
	w, err := NewWAL(path)
	require.NoError(t, err)

	require.NoError(t, w.Write(record{Seq: 1, Note: "open"}))
	require.NoError(t, w.Write(record{Seq: 2, Note: "post"}))
	require.NoError(t, w.Close())

	reopened, err := NewWAL(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, []record{{1, "open"}, {2, "post"}}, readRecords(t, reopened))

	// 讀完後仍可繼續追加
	require.NoError(t, reopened.Write(record{Seq: 3, Note: "post"}))
	assert.Len(t, readRecords(t, reopened), 3)
}

func TestReadAllIgnoresTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.wal")
	w, err := NewWAL(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(record{Seq: 1, Note: "open"}))
	require.NoError(t, w.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, FileModePrivate)
	require.NoError(t, err)
	_, err = f.WriteString(`{"seq":2,"no`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := NewWAL(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, []record{{1, "open"}}, readRecords(t, reopened))

	require.NoError(t, reopened.Write(record{Seq: 3, Note: "post"}))
	assert.Equal(t, []record{{1, "open"}, {3, "post"}}, readRecords(t, reopened))
}

func TestReadAllStopsOnCallbackError(t *testing.T) {
	w, err := NewWAL(filepath.Join(t.TempDir(), "ledger.wal"))
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Write(record{Seq: 1}))

	err = w.ReadAll(func([]byte) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}

// faultyFile 可注入 Write / Sync 失敗的檔案
type faultyFile struct {
	*os.File
	// partialWrite > 0 時只寫入前 n bytes 後回傳錯誤
	partialWrite int
	failSync     bool
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if f.partialWrite > 0 {
		n, _ := f.File.Write(p[:min(f.partialWrite, len(p))])
		return n, errors.New("disk full")
	}
	return f.File.Write(p)
}

func (f *faultyFile) Sync() error {
	if f.failSync {
		return errors.New("input/output error")
	}
	return f.File.Sync()
}

func TestFailedSyncIsNotReplayed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.wal")
	w, err := NewWAL(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(record{Seq: 1, Note: "open"}))

	file := &faultyFile{File: w.file.(*os.File), failSync: true}
	w.file = file
	err = w.Write(record{Seq: 2, Note: "post"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBroken)

	// 之後的寫入一律拒絕，即使檔案恢復正常
	file.failSync = false
	assert.ErrorIs(t, w.Write(record{Seq: 3, Note: "post"}), ErrBroken)
	require.NoError(t, w.Close())

	reopened, err := NewWAL(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, []record{{1, "open"}}, readRecords(t, reopened))
}

func TestFailedWriteIsTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.wal")
	w, err := NewWAL(path)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Write(record{Seq: 1, Note: "open"}))

	file := &faultyFile{File: w.file.(*os.File), partialWrite: 5}
	w.file = file
	err = w.Write(record{Seq: 2, Note: "post"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBroken)

	// 截掉半筆紀錄後仍可繼續寫入
	file.partialWrite = 0
	require.NoError(t, w.Write(record{Seq: 3, Note: "post"}))
	assert.Equal(t, []record{{1, "open"}, {3, "post"}}, readRecords(t, w))
}
