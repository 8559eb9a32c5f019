// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/tomtom215/ghostbus/internal/config"
)

// fetchResult is one queued FetchMessage outcome.
type fetchResult struct {
	msg kafka.Message
	err error
}

// stubKafkaReader serves queued results, then blocks until ctx is done.
type stubKafkaReader struct {
	mu      sync.Mutex
	queue   []fetchResult
	commits []int64
	closed  bool
}

func (r *stubKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *stubKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range msgs {
		r.commits = append(r.commits, msg.Offset)
	}
	return nil
}

func (r *stubKafkaReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *stubKafkaReader) committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, len(r.commits))
	copy(out, r.commits)
	return out
}

func (r *stubKafkaReader) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func positionMessage(t *testing.T, vehicleID string, offset int64) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(positionFor(vehicleID))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return kafka.Message{Topic: "positions", Offset: offset, Value: payload}
}

func testKafkaSource(reader kafkaReader, emitter Emitter) *KafkaSource {
	return &KafkaSource{
		reader:    reader,
		emitter:   emitter,
		retryWait: 5 * time.Millisecond,
	}
}

func TestNewKafkaSource_Validation(t *testing.T) {
	valid := config.KafkaConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "positions",
		GroupID: "ghostbus",
	}

	tests := []struct {
		name    string
		mutate  func(cfg *config.KafkaConfig)
		emitter Emitter
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(cfg *config.KafkaConfig) {},
			emitter: &recordingEmitter{},
		},
		{
			name:    "missing brokers",
			mutate:  func(cfg *config.KafkaConfig) { cfg.Brokers = nil },
			emitter: &recordingEmitter{},
			wantErr: true,
		},
		{
			name:    "missing topic",
			mutate:  func(cfg *config.KafkaConfig) { cfg.Topic = "" },
			emitter: &recordingEmitter{},
			wantErr: true,
		},
		{
			name:    "missing group id",
			mutate:  func(cfg *config.KafkaConfig) { cfg.GroupID = "" },
			emitter: &recordingEmitter{},
			wantErr: true,
		},
		{
			name:    "nil emitter",
			mutate:  func(cfg *config.KafkaConfig) {},
			emitter: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			source, err := NewKafkaSource(cfg, tt.emitter)
			if tt.wantErr {
				if err == nil {
					t.Error("NewKafkaSource() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewKafkaSource() error = %v", err)
			}
			if source.String() != "kafka" {
				t.Errorf("String() = %q, want kafka", source.String())
			}
			if err := source.reader.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestKafkaSource_ConsumesAndCommits(t *testing.T) {
	reader := &stubKafkaReader{
		queue: []fetchResult{
			{msg: positionMessage(t, "B101", 0)},
			{msg: positionMessage(t, "B102", 1)},
		},
	}
	emitter := &recordingEmitter{}
	source := testKafkaSource(reader, emitter)

	done := runSource(t, source)

	waitForEmitted(t, emitter, 2)

	emitter.mu.Lock()
	if emitter.records[0].VehicleID != "B101" || emitter.records[1].VehicleID != "B102" {
		t.Errorf("records = [%q, %q], want [B101, B102]",
			emitter.records[0].VehicleID, emitter.records[1].VehicleID)
	}
	if emitter.sources[0] != "kafka" {
		t.Errorf("source label = %q, want kafka", emitter.sources[0])
	}
	emitter.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for len(reader.committed()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	commits := reader.committed()
	if len(commits) != 2 || commits[0] != 0 || commits[1] != 1 {
		t.Errorf("committed offsets = %v, want [0 1]", commits)
	}

	select {
	case err := <-done:
		t.Fatalf("source stopped early: %v", err)
	default:
	}
}

func TestKafkaSource_SkipsUndecodable(t *testing.T) {
	reader := &stubKafkaReader{
		queue: []fetchResult{
			{msg: kafka.Message{Topic: "positions", Offset: 0, Value: []byte("{not json")}},
			{msg: positionMessage(t, "B101", 1)},
		},
	}
	emitter := &recordingEmitter{}
	source := testKafkaSource(reader, emitter)

	runSource(t, source)

	waitForEmitted(t, emitter, 1)

	emitter.mu.Lock()
	if emitter.records[0].VehicleID != "B101" {
		t.Errorf("record = %q, want B101", emitter.records[0].VehicleID)
	}
	emitter.mu.Unlock()

	// The skipped message commits too, or it would redeliver forever.
	deadline := time.Now().Add(time.Second)
	for len(reader.committed()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	commits := reader.committed()
	if len(commits) != 2 || commits[0] != 0 || commits[1] != 1 {
		t.Errorf("committed offsets = %v, want [0 1]", commits)
	}
}

func TestKafkaSource_PublishFailureStopsUncommitted(t *testing.T) {
	reader := &stubKafkaReader{
		queue: []fetchResult{{msg: positionMessage(t, "B101", 0)}},
	}
	busErr := errors.New("bus closed")
	source := testKafkaSource(reader, &recordingEmitter{err: busErr})

	done := make(chan error, 1)
	go func() { done <- source.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, busErr) {
			t.Errorf("Run() error = %v, want wrapped bus error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after publish failure")
	}

	if commits := reader.committed(); len(commits) != 0 {
		t.Errorf("committed offsets = %v, want none", commits)
	}
	if !reader.isClosed() {
		t.Error("reader left open after Run returned")
	}
}

func TestKafkaSource_FetchErrorRetries(t *testing.T) {
	reader := &stubKafkaReader{
		queue: []fetchResult{
			{err: errors.New("broker unreachable")},
			{msg: positionMessage(t, "B101", 0)},
		},
	}
	emitter := &recordingEmitter{}
	source := testKafkaSource(reader, emitter)

	runSource(t, source)

	waitForEmitted(t, emitter, 1)
}

func TestKafkaSource_StopsOnCancel(t *testing.T) {
	reader := &stubKafkaReader{}
	source := testKafkaSource(reader, &recordingEmitter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- source.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if !reader.isClosed() {
		t.Error("reader left open after Run returned")
	}
}
