// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSupervisorTree_AllLayers(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   50 * time.Millisecond,
		ShutdownTimeout:  500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error: %v", err)
	}

	gcSvc := NewMockService("window-store-gc")
	hubSvc := NewMockService("websocket-hub")
	busSvc := NewMockService("event-bus")
	ingestSvc := NewMockService("ingest-manager")
	httpSvc := NewMockService("http-server")

	tree.AddDataService(gcSvc)
	tree.AddMessagingService(hubSvc)
	tree.AddMessagingService(busSvc)
	tree.AddMessagingService(ingestSvc)
	tree.AddAPIService(httpSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	services := []*MockService{gcSvc, hubSvc, busSvc, ingestSvc, httpSvc}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		started := 0
		for _, svc := range services {
			if svc.StartCount() >= 1 {
				started++
			}
		}
		if started == len(services) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, svc := range services {
		if svc.StartCount() < 1 {
			t.Errorf("service %s never started", svc)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("tree did not shut down")
	}
}

func TestSupervisorTree_FailureIsolation(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error: %v", err)
	}

	// A crashing ingest source must not disturb the data and api layers.
	failingSvc := NewMockService("crashing-ingest")
	failingSvc.SetFailCount(3)
	stableData := NewMockService("stable-gc")
	stableAPI := NewMockService("stable-http")

	tree.AddDataService(stableData)
	tree.AddMessagingService(failingSvc)
	tree.AddAPIService(stableAPI)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for failingSvc.StartCount() < 4 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if got := failingSvc.StartCount(); got < 4 {
		t.Errorf("failing service restarts = %d, want >= 4 (3 failures then stable)", got)
	}
	if stableData.StartCount() != 1 {
		t.Errorf("data service starts = %d, want exactly 1", stableData.StartCount())
	}
	if stableAPI.StartCount() != 1 {
		t.Errorf("api service starts = %d, want exactly 1", stableAPI.StartCount())
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Error("tree did not shut down")
	}
}

func TestSupervisorTree_EmptyTree(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	errCh := tree.ServeBackground(ctx)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("empty tree error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("empty tree did not shut down")
	}
}

func TestSupervisorTree_UnstoppedServiceReport(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error: %v", err)
	}

	tree.AddAPIService(NewMockService("well-behaved"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-errCh

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services = %d, want 0", len(report))
	}
}
