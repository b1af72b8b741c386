package usecase

import (
	"log/slog"
	"time"
)

type options struct {
	logger    *slog.Logger
	now       func() time.Time
	publisher EventPublisher
	numbers   func() string
}

// Option 定義 UseCase 的配置選項函數
type Option func(*options)

// WithLogger 設定 logger，未設定時使用 slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock 設定時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithPublisher 設定交易完成事件的發佈者
func WithPublisher(p EventPublisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithAccountNumberGenerator 設定帳號產生器 (測試用)
func WithAccountNumberGenerator(gen func() string) Option {
	return func(o *options) {
		o.numbers = gen
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:  slog.Default(),
		now:     time.Now,
		numbers: RandomAccountNumber,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) timestamp() time.Time {
	return o.now().UTC()
}
