package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-retail-ledger/internal/app/core/domain"
)

func TestNewMessage(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	msg, err := newMessage(domain.TransactionCompleted{
		EventID:       "evt-1",
		TransactionID: 42,
		AccountNumber: "123456789",
		Kind:          domain.KindDebit,
		Amount:        1250,
		BalanceAfter:  8750,
		Description:   "ATM",
		OccurredAt:    at,
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("123456789"), msg.Key)
	assert.Equal(t, at, msg.Time)
	assert.JSONEq(t, `{
		"eventId": "evt-1",
		"transactionId": 42,
		"accountNumber": "123456789",
		"type": "debit",
		"amount": 12.50,
		"balanceAfter": 87.50,
		"description": "ATM",
		"occurredAt": "2026-03-04T05:06:07Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "transaction_completed", string(msg.Headers[0].Value))
}

func TestNewPublisherDefaults(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	assert.Equal(t, DefaultTopic, p.writer.Topic)
	require.NoError(t, p.Close())
}
