// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
)

const (
	kafkaSourceName = "kafka"

	// fetchRetryWait spaces fetch attempts after a broker error.
	fetchRetryWait = 5 * time.Second
)

// kafkaReader is the slice of kafka.Reader this source uses.
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSource consumes normalized PositionRecord JSON from a Kafka topic.
// Offsets commit only after the record is on the bus, so a crash between
// publish and commit redelivers rather than drops.
type KafkaSource struct {
	reader    kafkaReader
	emitter   Emitter
	retryWait time.Duration
}

// NewKafkaSource builds a consumer-group reader over the configured topic.
// New groups start at the latest offset; a fleet monitor has no use for
// stale positions.
func NewKafkaSource(cfg config.KafkaConfig, emitter Emitter) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka group id is required")
	}
	if emitter == nil {
		return nil, errors.New("emitter is required")
	}

	minBytes := cfg.MinBytes
	if minBytes <= 0 {
		minBytes = 1
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    minBytes,
		MaxBytes:    maxBytes,
		MaxWait:     maxWait,
	})

	return &KafkaSource{
		reader:    reader,
		emitter:   emitter,
		retryWait: fetchRetryWait,
	}, nil
}

// String returns the source name used in logs and metric labels.
func (s *KafkaSource) String() string {
	return kafkaSourceName
}

// Run consumes until ctx is canceled. Broker errors are retried in place;
// undecodable messages are committed and skipped; a bus publish failure
// stops the source with the message uncommitted for redelivery.
func (s *KafkaSource) Run(ctx context.Context) error {
	defer func() {
		if err := s.reader.Close(); err != nil {
			logging.Warn().Err(err).Msg("kafka reader close failed")
		}
	}()

	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.RecordIngestError(kafkaSourceName, "fetch")
			logging.Warn().
				Err(err).
				Msg("kafka fetch failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryWait):
			}
			continue
		}

		var record models.PositionRecord
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			metrics.RecordIngestError(kafkaSourceName, "decode")
			logging.Warn().
				Err(err).
				Str("topic", msg.Topic).
				Int64("offset", msg.Offset).
				Msg("skipping undecodable kafka message")
			if err := s.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("commit skipped message: %w", err)
			}
			continue
		}

		if err := s.emitter.Publish(ctx, kafkaSourceName, &record); err != nil {
			return fmt.Errorf("publish record: %w", err)
		}
		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit message: %w", err)
		}
	}
}
