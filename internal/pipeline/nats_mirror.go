// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

//go:build nats

package pipeline

import (
	"fmt"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/logging"
)

// AttachNATSMirror adds a handler that republishes every classified record
// to a NATS JetStream subject for consumers outside the process. Must be
// called before Run. Disabled config is a no-op.
func (b *Bus) AttachNATSMirror(cfg config.NATSConfig) error {
	if !cfg.Enabled {
		return nil
	}

	pub, err := newNATSPublisher(cfg)
	if err != nil {
		return fmt.Errorf("create NATS mirror publisher: %w", err)
	}

	b.router.AddHandler(
		"nats-mirror",
		TopicVehicleClassified,
		b.pubsub,
		cfg.Subject,
		pub,
		func(msg *message.Message) ([]*message.Message, error) {
			return []*message.Message{msg}, nil
		},
	)

	logging.Info().
		Str("subject", cfg.Subject).
		Str("url", cfg.URL).
		Msg("NATS mirror attached")
	return nil
}

func newNATSPublisher(cfg config.NATSConfig) (message.Publisher, error) {
	logger := newWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logging.Error().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	return wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
}
