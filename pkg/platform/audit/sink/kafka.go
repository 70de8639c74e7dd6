// Package sink bridges audit events onto external transports.
package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"vprove/internal/platform/kafka/producer"
	audit "vprove/pkg/platform/audit"
)

// Kafka appends audit events to a Kafka topic. Records are keyed by actor so
// an account's events stay ordered within a partition.
type Kafka struct {
	producer *producer.Producer
	topic    string
}

func NewKafka(p *producer.Producer, topic string) *Kafka {
	return &Kafka{producer: p, topic: topic}
}

func (k *Kafka) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(kafkaEvent{
		Timestamp:  event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Action:     event.Action,
		Actor:      event.Actor.String(),
		Account:    event.Account.String(),
		Directory:  event.Directory.String(),
		Credential: uint64(event.Credential),
		Member:     uint64(event.Member),
		Role:       event.Role,
		RequestID:  event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return k.producer.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(event.Actor.String()),
		Value: payload,
	})
}

type kafkaEvent struct {
	Timestamp  string `json:"timestamp"`
	Action     string `json:"action"`
	Actor      string `json:"actor"`
	Account    string `json:"account,omitempty"`
	Directory  string `json:"directory,omitempty"`
	Credential uint64 `json:"credential,omitempty"`
	Member     uint64 `json:"member,omitempty"`
	Role       string `json:"role,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// Fanout appends each event to every underlying store, returning the first
// failure after attempting all of them.
type Fanout []audit.Store

func (f Fanout) Append(ctx context.Context, event audit.Event) error {
	var firstErr error
	for _, s := range f {
		if err := s.Append(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
