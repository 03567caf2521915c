// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package kafkaout publishes validated log records to a Kafka topic.
package kafkaout

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

// DefaultTopic is the topic log records are published to unless configured
// otherwise.
const DefaultTopic = "service-logs"

// Producer publishes log records to Kafka. Records are keyed by service name
// so one service's logs stay ordered within a partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// Config holds Kafka producer configuration.
type Config struct {
	Brokers []string
	Topic   string
}

// NewProducer connects a synchronous producer to the given brokers.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Producer{producer: producer, topic: cfg.Topic}, nil
}

// newWithProducer wires an existing sarama producer, for tests.
func newWithProducer(p sarama.SyncProducer, topic string) *Producer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Producer{producer: p, topic: topic}
}

// Publish sends one record as a JSON document. It returns the partition and
// offset the broker assigned.
func (p *Producer) Publish(rec logattr.Record) (partition int32, offset int64, err error) {
	doc, err := json.Marshal(rec.Document())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal log document: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(doc),
	}
	if service, ok := rec.Attributes[logattr.KeyServiceName].(string); ok && service != "" {
		msg.Key = sarama.StringEncoder(service)
	}

	partition, offset, err = p.producer.SendMessage(msg)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to publish to %q: %w", p.topic, err)
	}
	return partition, offset, nil
}

// Topic returns the topic this producer publishes to.
func (p *Producer) Topic() string {
	return p.topic
}

// Close shuts down the underlying producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}
