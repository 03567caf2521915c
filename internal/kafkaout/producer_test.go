// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package kafkaout

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

func testRecord() logattr.Record {
	return logattr.Record{
		Timestamp: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Severity:  logattr.SeverityInfo,
		Body:      "user login successful",
		Attributes: map[string]any{
			logattr.KeyServiceName: "auth-api",
			logattr.KeyEnvironment: "prod",
			logattr.KeyLogLevel:    "INFO",
			logattr.KeyEventDomain: "auth",
			logattr.KeyEventType:   "access",
		},
	}
}

func TestPublish(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "service-logs" {
			return errors.New("wrong topic: " + msg.Topic)
		}

		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "auth-api" {
			return errors.New("wrong key: " + string(key))
		}

		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(value, &doc); err != nil {
			return err
		}
		if doc["message"] != "user login successful" {
			return errors.New("wrong message")
		}
		if doc["@timestamp"] == nil {
			return errors.New("missing @timestamp")
		}
		return nil
	})

	p := newWithProducer(mock, "")
	if p.Topic() != DefaultTopic {
		t.Errorf("Topic() = %q, want %q", p.Topic(), DefaultTopic)
	}

	if _, _, err := p.Publish(testRecord()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPublish_BrokerError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newWithProducer(mock, "custom-topic")
	if _, _, err := p.Publish(testRecord()); err == nil {
		t.Fatal("expected broker error")
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	if _, err := NewProducer(Config{}); err == nil {
		t.Fatal("expected error without brokers")
	}
}
