package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-retail-ledger/pkg/database"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Store.LockTimeout)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "ledger.transaction_completed", cfg.Kafka.Topic)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, database.DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, 100, cfg.Database.MaxOpenConns)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: database
  lock_timeout: 250ms
  auto_migrate: true
database:
  driver: sqlite
  dbname: /tmp/ledger.db
http:
  addr: ":9090"
kafka:
  brokers: ["k1:9092", "k2:9092"]
  queue_size: 16
security:
  bcrypt_cost: 10
log:
  level: debug
  format: text
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StoreDatabase, cfg.Store.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Store.LockTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.LockWaitTimeout)
	assert.NotContains(t, cfg.Database.DSN(), "innodb")
	assert.True(t, cfg.Store.AutoMigrate)
	assert.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 16, cfg.Kafka.QueueSize)
	assert.Equal(t, 10, cfg.Security.BcryptCost)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "http:\n  addr: \":9090\"\n")
	t.Setenv("LEDGER_HTTP_ADDR", ":7070")
	t.Setenv("LEDGER_KAFKA_BROKERS", "a:1, b:2,")
	t.Setenv("LEDGER_DB_PORT", "3307")
	t.Setenv("LEDGER_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"unknown store":    "store:\n  driver: redis\n",
		"unknown database": "store:\n  driver: database\ndatabase:\n  driver: oracle\n  dbname: x\n",
		"missing dbname":   "store:\n  driver: database\ndatabase:\n  driver: sqlite\n",
		"negative timeout": "store:\n  lock_timeout: -1s\n",
		"bcrypt cost":      "security:\n  bcrypt_cost: 40\n",
		"log level":        "log:\n  level: loud\n",
		"bad yaml":         "store: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsBadPortEnv(t *testing.T) {
	t.Setenv("LEDGER_DB_PORT", "abc")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPathFromEnv(t *testing.T) {
	assert.Equal(t, DefaultPath, PathFromEnv(DefaultPath))
	t.Setenv("LEDGER_CONFIG", "/etc/ledger.yaml")
	assert.Equal(t, "/etc/ledger.yaml", PathFromEnv(DefaultPath))
}
