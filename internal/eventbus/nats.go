/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus mirrors planning events onto NATS.
package eventbus

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/missionplan/internal/events"
)

// SubjectPrefix is prepended to the event type to form the NATS subject.
const SubjectPrefix = "missionplan.events."

// NATSBus delivers events to local subscribers and publishes them on NATS.
type NATSBus struct {
	conn   *nats.Conn
	local  *events.Bus
	logger zerolog.Logger
	nodeID string
}

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "missionplan",
		MaxReconnects: 5,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NewNATSBus connects to NATS. local receives every publish as well and may
// be nil.
func NewNATSBus(cfg NATSConfig, local *events.Bus, logger zerolog.Logger) (*NATSBus, error) {
	logger = logger.With().Str("component", "eventbus").Logger()
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	if local == nil {
		local = events.NewBus()
	}
	logger.Info().Str("url", conn.ConnectedUrl()).Msg("nats connected")
	return &NATSBus{conn: conn, local: local, logger: logger, nodeID: generateNodeID()}, nil
}

// Subscribe registers a local subscriber.
func (nb *NATSBus) Subscribe(eventType events.EventType) events.Subscriber {
	return nb.local.Subscribe(eventType)
}

// Publish fans the event out locally and to NATS. NATS failures are logged;
// the planning pass never waits on the broker.
func (nb *NATSBus) Publish(eventType events.EventType, payload events.Payload) {
	nb.local.Publish(eventType, payload)

	data, err := marshalNATSMessage(eventType, payload, nb.nodeID)
	if err != nil {
		nb.logger.Warn().Err(err).Str("event", string(eventType)).Msg("encode event")
		return
	}
	if err := nb.conn.Publish(Subject(eventType), data); err != nil {
		nb.logger.Warn().Err(err).Str("event", string(eventType)).Msg("publish event")
	}
}

// Unsubscribe removes a local subscriber.
func (nb *NATSBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	nb.local.Unsubscribe(eventType, sub)
}

// Close flushes pending messages and closes the connection.
func (nb *NATSBus) Close() error {
	if nb.conn == nil {
		return nil
	}
	defer nb.conn.Close()
	if err := nb.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}

// Subject returns the NATS subject for an event type.
func Subject(eventType events.EventType) string {
	return SubjectPrefix + string(eventType)
}

type natsMessage struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
	MessageID string           `json:"message_id"` // For deduplication
}

func marshalNATSMessage(eventType events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	msg := natsMessage{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
		MessageID: uuid.NewString(),
	}
	return json.Marshal(msg)
}

func unmarshalNATSMessage(data []byte) (*natsMessage, error) {
	var msg natsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal nats message: %w", err)
	}
	return &msg, nil
}

func generateNodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "missionplan"
	}
	return host + "-" + uuid.NewString()[:8]
}
