package booking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ProgressSink receives busy/headline/detail notifications for UI display.
// Sinks carry no logic; failing to deliver never affects the saga.
type ProgressSink interface {
	Publish(busy bool, headline, detail string)
}

// NopSink discards all progress events.
type NopSink struct{}

func (NopSink) Publish(bool, string, string) {}

// LoggerSink writes progress events to the structured log.
type LoggerSink struct {
	Logger *zap.Logger
}

func (s LoggerSink) Publish(busy bool, headline, detail string) {
	s.Logger.Info("booking progress",
		zap.Bool("busy", busy),
		zap.String("headline", headline),
		zap.String("detail", detail))
}

// ProgressEvent is the wire form of a progress notification.
type ProgressEvent struct {
	Busy     bool      `json:"busy"`
	Headline string    `json:"headline"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// RedisSink publishes progress events on a per-session pub/sub channel so the
// portal frontend can stream them.
type RedisSink struct {
	Client    *redis.Client
	SessionID string
	Logger    *zap.Logger
}

// ProgressChannel returns the pub/sub channel name for a session.
func ProgressChannel(sessionID string) string {
	return "booking:progress:" + sessionID
}

func (s RedisSink) Publish(busy bool, headline, detail string) {
	payload, err := json.Marshal(ProgressEvent{
		Busy:     busy,
		Headline: headline,
		Detail:   detail,
		At:       time.Now(),
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Client.Publish(ctx, ProgressChannel(s.SessionID), payload).Err(); err != nil && s.Logger != nil {
		s.Logger.Warn("failed to publish progress event",
			zap.String("sessionId", s.SessionID),
			zap.Error(err))
	}
}

// MultiSink fans one event out to several sinks.
type MultiSink []ProgressSink

func (m MultiSink) Publish(busy bool, headline, detail string) {
	for _, s := range m {
		s.Publish(busy, headline, detail)
	}
}
