package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	mysqlCfg := Config{Host: "db", User: "ledger", Password: "secret", DBName: "bank"}
	mysqlCfg.SetDefaults()
	assert.Equal(t, "ledger:secret@tcp(db:3306)/bank?charset=utf8mb4&parseTime=True&loc=UTC", mysqlCfg.DSN())

	mysqlCfg.LockWaitTimeout = 5 * time.Second
	assert.Equal(t, "ledger:secret@tcp(db:3306)/bank?charset=utf8mb4&parseTime=True&loc=UTC&innodb_lock_wait_timeout=5", mysqlCfg.DSN())
	mysqlCfg.LockWaitTimeout = 200 * time.Millisecond
	assert.Contains(t, mysqlCfg.DSN(), "&innodb_lock_wait_timeout=1")

	pgCfg := Config{Driver: DriverPostgres, Host: "pg", User: "ledger", Password: "secret", DBName: "bank"}
	pgCfg.SetDefaults()
	assert.Equal(t, "host=pg port=5432 user=ledger password=secret dbname=bank sslmode=disable TimeZone=UTC", pgCfg.DSN())

	liteCfg := Config{Driver: DriverSQLite, DBName: "/tmp/ledger.db"}
	assert.Equal(t, "/tmp/ledger.db?_foreign_keys=on&_busy_timeout=5000", liteCfg.DSN())
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, DriverMySQL, cfg.Driver)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 10, cfg.ConnectRetries)
}

func TestNewClientSQLite(t *testing.T) {
	client, err := NewClient(Config{
		Driver:   DriverSQLite,
		DBName:   filepath.Join(t.TempDir(), "ledger.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	var one int
	require.NoError(t, client.DB().Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewClientUnknownDriver(t *testing.T) {
	_, err := NewClient(Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}
