// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
)

// Topics carried by the internal event bus.
const (
	TopicPositionReceived  = "position.received"
	TopicVehicleClassified = "vehicle.classified"
)

// Bus wires the internal event bus over the in-process gochannel Pub/Sub.
// Ingest sources publish normalized positions to position.received; a router
// handler runs each through the Pipeline, which in turn publishes classified
// records to vehicle.classified for downstream consumers.
type Bus struct {
	pubsub   *gochannel.GoChannel
	router   *message.Router
	pipeline *Pipeline
}

// NewBus builds the Pub/Sub, the router with its middleware stack, and the
// position handler, and attaches the classified publisher to the pipeline.
func NewBus(p *Pipeline, cfg config.BusConfig) (*Bus, error) {
	if p == nil {
		return nil, errors.New("pipeline is required")
	}
	if cfg.PoisonTopic == "" {
		cfg.PoisonTopic = "position.poison"
	}

	logger := newWatermillLogger()

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	// Middleware wraps first-added outermost. PoisonQueue sits outside
	// Retry so a message is diverted only after its retries are exhausted.
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(middleware.CorrelationID)

	poison, err := middleware.PoisonQueue(pubsub, cfg.PoisonTopic)
	if err != nil {
		return nil, fmt.Errorf("create poison queue: %w", err)
	}
	router.AddMiddleware(poison)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryCount,
		InitialInterval: cfg.RetryInterval,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	b := &Bus{
		pubsub:   pubsub,
		router:   router,
		pipeline: p,
	}

	router.AddConsumerHandler(
		"classify-position",
		TopicPositionReceived,
		pubsub,
		b.handlePosition,
	)

	router.AddConsumerHandler(
		"poison-monitor",
		cfg.PoisonTopic,
		pubsub,
		b.handlePoison,
	)

	p.SetClassifiedPublisher(pubsub)

	return b, nil
}

// PublishPosition places a normalized position record on the bus. Ingest
// sources call this once per report.
func (b *Bus) PublishPosition(record *models.PositionRecord) error {
	if record == nil {
		return errors.New("record is required")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal position record: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	middleware.SetCorrelationID(watermill.NewUUID(), msg)
	msg.Metadata.Set("vehicle_id", record.VehicleID)

	if err := b.pubsub.Publish(TopicPositionReceived, msg); err != nil {
		return fmt.Errorf("publish position: %w", err)
	}
	metrics.RecordBusPublish(TopicPositionReceived)
	return nil
}

// handlePosition decodes a position message and runs it through the
// pipeline. Undecodable payloads and validation failures are acked and
// dropped; retrying cannot fix either. Storage errors propagate so the
// retry middleware takes over and, past the limit, the message is poisoned.
func (b *Bus) handlePosition(msg *message.Message) error {
	var record models.PositionRecord
	if err := json.Unmarshal(msg.Payload, &record); err != nil {
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("dropping undecodable position message")
		return nil
	}

	_, err := b.pipeline.Process(msg.Context(), &record)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return nil
		}
		return err
	}
	return nil
}

// handlePoison counts and logs messages that exhausted their retries.
func (b *Bus) handlePoison(msg *message.Message) error {
	metrics.RecordPoisonMessage()
	logging.Warn().
		Str("message_uuid", msg.UUID).
		Str("vehicle_id", msg.Metadata.Get("vehicle_id")).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Msg("position message poisoned")
	return nil
}

// Run starts the router and blocks until ctx is canceled or Close is
// called. In-flight handlers get CloseTimeout to finish.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running returns a channel that closes once all handlers are up.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close stops the router and the underlying Pub/Sub.
func (b *Bus) Close() error {
	routerErr := b.router.Close()
	pubsubErr := b.pubsub.Close()
	if routerErr != nil {
		return routerErr
	}
	return pubsubErr
}
