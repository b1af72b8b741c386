package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-retail-ledger/internal/app/core/usecase"
)

// DefaultTopic 交易完成事件的預設 topic
const DefaultTopic = "ledger.transaction_completed"

// Publisher 將交易完成事件寫入 Kafka
// key 為帳號，同一帳戶的事件落在同一個 partition，保持順序
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher 建立 Kafka Publisher
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Publish 同步寫入一筆事件
func (p *Publisher) Publish(ctx context.Context, event domain.TransactionCompleted) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close 送出緩衝中的訊息並關閉連線
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newMessage(event domain.TransactionCompleted) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.AccountNumber),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("transaction_completed")},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}, nil
}

var _ usecase.EventPublisher = (*Publisher)(nil)
