// Package events publishes per-item outcome events to Kafka for downstream
// analytics. The producer is optional; a nil *Producer is a no-op.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tweetbot/types"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// OutcomeEvent is the JSON payload emitted after each publish or resurface
// attempt sequence
type OutcomeEvent struct {
	EventID   string               `json:"event_id"`
	CycleID   string               `json:"cycle_id"`
	Kind      string               `json:"kind"` // "publish" or "resurface"
	Outcome   types.PublishOutcome `json:"outcome"`
	EmittedAt time.Time            `json:"emitted_at"`
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// Producer wraps a sarama sync producer for outcome events
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer creates a Kafka producer and verifies broker connectivity
func NewProducer(config ProducerConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{producer: producer, topic: config.Topic}, nil
}

// Emit sends one outcome event. Emission failures are logged, never fatal:
// analytics must not interfere with publishing. Safe to call on a nil
// receiver.
func (p *Producer) Emit(kind, cycleID string, outcome types.PublishOutcome) {
	if p == nil {
		return
	}

	event := OutcomeEvent{
		EventID:   uuid.NewString(),
		CycleID:   cycleID,
		Kind:      kind,
		Outcome:   outcome,
		EmittedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("events: marshal outcome: %v", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(outcome.ItemID),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		log.Printf("events: send outcome for %s: %v", outcome.ItemID, err)
	}
}

// Close shuts the underlying producer down. Safe on nil.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
