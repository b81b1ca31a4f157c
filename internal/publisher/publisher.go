// Package publisher fans freshly ingested log lines and relay transitions out to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"heat_controller/internal/logger"
	"heat_controller/internal/models"
)

// Writer is the subset of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers      []string
	ReadingTopic string
	EventTopic   string
	DeviceID     string
}

// Reading is the message value for one log line.
type Reading struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"ts"`
	Readings  []int     `json:"readings"`
	Event     string    `json:"event,omitempty"`
}

// Transition is the message value for one relay or boot event.
type Transition struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"ts"`
	Event     string    `json:"event"`
}

type Publisher struct {
	readings Writer
	events   Writer
	deviceID string
	log      *logger.Logger
}

// New returns a publisher with one writer per topic, or a no-op publisher when no brokers are configured.
func New(cfg Config, log *logger.Logger) *Publisher {
	if len(cfg.Brokers) == 0 {
		return &Publisher{log: logger.OrNop(log).Named("publisher")}
	}
	return NewWithWriters(newWriter(cfg.Brokers, cfg.ReadingTopic), newWriter(cfg.Brokers, cfg.EventTopic), cfg.DeviceID, log)
}

// NewWithWriters builds a publisher on explicit writers. Either may be nil to disable that stream.
func NewWithWriters(readings, events Writer, deviceID string, log *logger.Logger) *Publisher {
	return &Publisher{
		readings: readings,
		events:   events,
		deviceID: deviceID,
		log:      logger.OrNop(log).Named("publisher"),
	}
}

func newWriter(brokers []string, topic string) Writer {
	if topic == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.Hash{},
		Async:        false,
	}
}

// Enabled reports whether any stream is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && (p.readings != nil || p.events != nil)
}

// Publish writes every line to the reading topic and every event line to the event topic.
// It returns the number of messages written.
func (p *Publisher) Publish(ctx context.Context, lines []models.LogLine) (int, error) {
	if !p.Enabled() || len(lines) == 0 {
		return 0, nil
	}
	key := []byte(p.deviceID)
	var readings, events []kafka.Message
	for _, l := range lines {
		at := time.Unix(l.Timestamp, 0).UTC()
		if p.readings != nil {
			r := Reading{DeviceID: p.deviceID, Timestamp: at, Readings: l.Readings}
			if l.Event != models.EventNone {
				r.Event = l.Event.String()
			}
			b, err := json.Marshal(r)
			if err != nil {
				return 0, err
			}
			readings = append(readings, kafka.Message{Key: key, Value: b, Time: at,
				Headers: []kafka.Header{{Key: "ts", Value: []byte(strconv.FormatInt(l.Timestamp, 10))}}})
		}
		if p.events != nil && l.Event != models.EventNone {
			b, err := json.Marshal(Transition{DeviceID: p.deviceID, Timestamp: at, Event: l.Event.String()})
			if err != nil {
				return 0, err
			}
			events = append(events, kafka.Message{Key: key, Value: b, Time: at})
		}
	}

	written := 0
	if len(readings) > 0 {
		if err := p.readings.WriteMessages(ctx, readings...); err != nil {
			return written, fmt.Errorf("write readings: %w", err)
		}
		written += len(readings)
	}
	if len(events) > 0 {
		if err := p.events.WriteMessages(ctx, events...); err != nil {
			return written, fmt.Errorf("write events: %w", err)
		}
		written += len(events)
	}
	p.log.Debugw("lines_published", "readings", len(readings), "events", len(events))
	return written, nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var first error
	for _, w := range []Writer{p.readings, p.events} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
