package gonsul

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func newOptionTestClient(t *testing.T, options ...Option) *Client {
	t.Helper()

	transport := TransportFunc(func(context.Context, *Request) (*Response, error) {
		return &Response{StatusCode: 200, Body: []byte("[]")}, nil
	})

	client, err := New(transport, 1, "http", "127.0.0.1:8500", options...)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	t.Cleanup(client.Close)

	return client
}

func TestWithLogger(t *testing.T) {
	logger := NewSimpleLogger()
	client := newOptionTestClient(t, WithLogger(logger))

	if client.logger != logger {
		t.Error("WithLogger did not set the logger")
	}
}

func TestWithSimpleLogger(t *testing.T) {
	client := newOptionTestClient(t, WithSimpleLogger())

	if client.logger == nil {
		t.Error("WithSimpleLogger did not set a logger")
	}
	if client.debug == nil || !client.debug.Enabled {
		t.Error("WithSimpleLogger should enable debug")
	}
}

func TestWithDebug(t *testing.T) {
	client := newOptionTestClient(t, WithDebug())

	if client.debug == nil || !client.debug.Enabled {
		t.Error("WithDebug should enable debug")
	}
}

func TestQueueLoggingWiring(t *testing.T) {
	plain := newOptionTestClient(t)
	if plain.mux.logQueue {
		t.Error("queue logging must be off without debug")
	}

	debugged := newOptionTestClient(t, WithSimpleLogger())
	if !debugged.mux.logQueue {
		t.Error("debug-enabled clients should log queue events")
	}
}

func TestWithDebugConfig(t *testing.T) {
	config := &DebugConfig{Enabled: true, LogRequests: true}
	client := newOptionTestClient(t, WithDebugConfig(config))

	if client.debug != config {
		t.Error("WithDebugConfig did not set the config")
	}
}

func TestWithRequestIDGenerator(t *testing.T) {
	client := newOptionTestClient(t, WithRequestIDGenerator(func() string { return "fixed-id" }))

	if got := client.debug.RequestIDGen(); got != "fixed-id" {
		t.Errorf("expected fixed-id, got %q", got)
	}
}

func TestWithMetricsCollector(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	client := newOptionTestClient(t, WithMetricsCollector(collector))

	if client.metrics != collector {
		t.Error("WithMetricsCollector did not set the collector")
	}
	if client.mux.metrics != collector {
		t.Error("the multiplexer must share the client's collector")
	}
}

func TestWithMetricsRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	client := newOptionTestClient(t, WithMetricsRegistry(registry))

	if client.metrics == nil {
		t.Fatal("WithMetricsRegistry did not set a collector")
	}
	if client.metrics.GetRegistry() != registry {
		t.Error("collector not built on the supplied registry")
	}
}

func TestDebugLoggingDoesNotAlterResults(t *testing.T) {
	client := newOptionTestClient(t, WithSimpleLogger())

	entries, err := client.Get(context.Background(), "key")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %v", entries)
	}
}
