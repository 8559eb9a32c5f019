// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

//go:build nats

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedNATSServer wraps an in-process nats-server with JetStream so
// single-binary deployments can run the classified mirror without an
// external broker.
type EmbeddedNATSServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedNATSServer creates and starts an embedded NATS server with
// JetStream persistence under storeDir. Returns an error if the server is
// not ready for connections within 30 seconds.
func NewEmbeddedNATSServer(storeDir string) (*EmbeddedNATSServer, error) {
	opts := &server.Options{
		ServerName: "ghostbus-mirror",
		Host:       "127.0.0.1",
		Port:       4222,
		JetStream:  true,
		StoreDir:   storeDir,
		// The mirror subject must stay reachable over TCP so external
		// consumers can subscribe to it.
		DontListen: false,
		Debug:      false,
		Trace:      false,
		NoLog:      false,
		MaxPayload: 1 << 20,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}

	return &EmbeddedNATSServer{
		server:    ns,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedNATSServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server and waits for it to finish, or returns early
// when ctx is canceled.
func (s *EmbeddedNATSServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// IsRunning returns server health status.
func (s *EmbeddedNATSServer) IsRunning() bool {
	return s.server.Running()
}
