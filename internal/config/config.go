package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-retail-ledger/pkg/database"
)

// DefaultPath 設定檔預設位置
const DefaultPath = "config/config.yaml"

// 帳戶儲存方式
const (
	StoreMemory   = "memory"
	StoreDatabase = "database"
)

type Config struct {
	Store    StoreConfig     `yaml:"store"`
	Database database.Config `yaml:"database"`
	HTTP     HTTPConfig      `yaml:"http"`
	GRPC     GRPCConfig      `yaml:"grpc"`
	Kafka    KafkaConfig     `yaml:"kafka"`
	Redis    RedisConfig     `yaml:"redis"`
	Security SecurityConfig  `yaml:"security"`
	Log      LogConfig       `yaml:"log"`
}

type StoreConfig struct {
	Driver      string        `yaml:"driver"`   // memory 或 database
	WALPath     string        `yaml:"wal_path"` // memory 模式使用
	LockTimeout time.Duration `yaml:"lock_timeout"`
	AutoMigrate bool          `yaml:"auto_migrate"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr"` // 空字串不啟動
}

type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"` // 空則不發送事件
	Topic     string   `yaml:"topic"`
	QueueSize int      `yaml:"queue_size"`
}

type RedisConfig struct {
	Addr              string  `yaml:"addr"` // 空則登入不限流
	LoginCapacity     int     `yaml:"login_capacity"`
	LoginRefillPerSec float64 `yaml:"login_refill_per_sec"`
}

type SecurityConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json 或 text
}

// Load 讀取設定檔，套用 .env 與環境變數覆寫後補全預設值
//
// 參數:
//
//	path: string - YAML 設定檔路徑，檔案不存在時只使用環境變數與預設值
//
// 回傳值:
//
//	*Config: 設定
//	error: 檔案格式錯誤或驗證失敗
func Load(path string) (*Config, error) {
	// .env 不存在不算錯誤
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PathFromEnv LEDGER_CONFIG 優先，否則使用 fallback
func PathFromEnv(fallback string) string {
	if p := os.Getenv("LEDGER_CONFIG"); p != "" {
		return p
	}
	return fallback
}

func (c *Config) applyEnv() error {
	setString(&c.Store.Driver, "LEDGER_STORE_DRIVER")
	setString(&c.Store.WALPath, "LEDGER_WAL_PATH")
	setString(&c.Database.Driver, "LEDGER_DB_DRIVER")
	setString(&c.Database.Host, "LEDGER_DB_HOST")
	setString(&c.Database.User, "LEDGER_DB_USER")
	setString(&c.Database.Password, "LEDGER_DB_PASSWORD")
	setString(&c.Database.DBName, "LEDGER_DB_NAME")
	setString(&c.HTTP.Addr, "LEDGER_HTTP_ADDR")
	setString(&c.GRPC.Addr, "LEDGER_GRPC_ADDR")
	setString(&c.Redis.Addr, "LEDGER_REDIS_ADDR")
	setString(&c.Log.Level, "LEDGER_LOG_LEVEL")

	if v := os.Getenv("LEDGER_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEDGER_DB_PORT: %w", err)
		}
		c.Database.Port = port
	}
	if v := os.Getenv("LEDGER_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SetDefaults 補全未設定的欄位
func (c *Config) SetDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMemory
	}
	if c.Store.WALPath == "" {
		c.Store.WALPath = "data/ledger.wal"
	}
	if c.Store.LockTimeout == 0 {
		c.Store.LockTimeout = 5 * time.Second
	}
	if c.Database.LockWaitTimeout == 0 {
		c.Database.LockWaitTimeout = c.Store.LockTimeout
	}
	c.Database.SetDefaults()

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.HTTP.ReadHeaderTimeout == 0 {
		c.HTTP.ReadHeaderTimeout = 5 * time.Second
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "ledger.transaction_completed"
	}
	if c.Kafka.QueueSize == 0 {
		c.Kafka.QueueSize = 1024
	}

	if c.Redis.LoginCapacity == 0 {
		c.Redis.LoginCapacity = 10
	}
	if c.Redis.LoginRefillPerSec == 0 {
		c.Redis.LoginRefillPerSec = 0.2
	}

	if c.Security.BcryptCost == 0 {
		c.Security.BcryptCost = 12
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate 檢查設定值
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreMemory, StoreDatabase:
	default:
		errs = append(errs, fmt.Errorf("store.driver %q: must be %s or %s", c.Store.Driver, StoreMemory, StoreDatabase))
	}
	if c.Store.LockTimeout <= 0 {
		errs = append(errs, errors.New("store.lock_timeout must be positive"))
	}
	if c.Store.Driver == StoreDatabase {
		switch c.Database.Driver {
		case database.DriverMySQL, database.DriverPostgres, database.DriverSQLite:
		default:
			errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
		}
		if c.Database.DBName == "" {
			errs = append(errs, errors.New("database.dbname is required"))
		}
	}
	if c.HTTP.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	if c.Kafka.QueueSize < 0 {
		errs = append(errs, errors.New("kafka.queue_size must be positive"))
	}
	if c.Redis.LoginCapacity < 0 || c.Redis.LoginRefillPerSec < 0 {
		errs = append(errs, errors.New("redis login limits must be positive"))
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("security.bcrypt_cost %d out of range [4, 31]", c.Security.BcryptCost))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not supported", c.Log.Level))
	}
	return errors.Join(errs...)
}
