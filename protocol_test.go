package gonsul

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recordingTransport remembers every request it sees and answers with a
// canned response.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*Request
	resp     *Response
}

func (r *recordingTransport) Invoke(_ context.Context, req *Request) *Call {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	call := NewCall(req)
	call.Resolve(r.resp, nil)
	return call
}

func (r *recordingTransport) last(t *testing.T) *Request {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		t.Fatal("transport saw no requests")
	}
	return r.requests[len(r.requests)-1]
}

func TestOperationWireFormat(t *testing.T) {
	tests := []struct {
		name       string
		invoke     func(*Client) error
		body       []byte
		wantMethod string
		wantURL    string
		wantBody   string
	}{
		{
			name:       "Get",
			invoke:     func(c *Client) error { _, err := c.Get(context.Background(), "my-key"); return err },
			wantMethod: "GET",
			wantURL:    "http://127.0.0.1:8500/v1/kv/my-key",
		},
		{
			name:       "GetNestedKey",
			invoke:     func(c *Client) error { _, err := c.Get(context.Background(), "a/b/c"); return err },
			wantMethod: "GET",
			wantURL:    "http://127.0.0.1:8500/v1/kv/a/b/c",
		},
		{
			name:       "GetKeys",
			invoke:     func(c *Client) error { _, err := c.GetKeys(context.Background(), "prefix"); return err },
			wantMethod: "GET",
			wantURL:    "http://127.0.0.1:8500/v1/kv/prefix?keys",
		},
		{
			name:       "Set",
			invoke:     func(c *Client) error { _, err := c.Set(context.Background(), "my-key", []byte("payload")); return err },
			wantMethod: "PUT",
			wantURL:    "http://127.0.0.1:8500/v1/kv/my-key",
			wantBody:   "payload",
		},
		{
			name:       "Delete",
			invoke:     func(c *Client) error { _, err := c.Delete(context.Background(), "my-key"); return err },
			wantMethod: "DELETE",
			wantURL:    "http://127.0.0.1:8500/v1/kv/my-key",
		},
		{
			name:       "ServiceNodes",
			invoke:     func(c *Client) error { _, err := c.ServiceNodes(context.Background(), "web"); return err },
			wantMethod: "GET",
			wantURL:    "http://127.0.0.1:8500/v1/catalog/service/web",
		},
		{
			name:       "Register",
			invoke:     func(c *Client) error { return c.Register(context.Background(), []byte(`{"Name":"web"}`)) },
			wantMethod: "PUT",
			wantURL:    "http://127.0.0.1:8500/v1/agent/service/register",
			wantBody:   `{"Name":"web"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &recordingTransport{resp: &Response{StatusCode: 200, Body: []byte("true")}}
			if tt.wantMethod == "GET" {
				transport.resp = &Response{StatusCode: 200, Body: []byte("[]")}
			}

			client, err := New(transport, 1, "http", "127.0.0.1:8500")
			if err != nil {
				t.Fatalf("New() returned error: %v", err)
			}
			defer client.Close()

			if err := tt.invoke(client); err != nil {
				t.Fatalf("operation returned error: %v", err)
			}

			req := transport.last(t)
			if req.Method != tt.wantMethod {
				t.Errorf("expected method %s, got %s", tt.wantMethod, req.Method)
			}
			if req.URL != tt.wantURL {
				t.Errorf("expected URL %s, got %s", tt.wantURL, req.URL)
			}
			if string(req.Body) != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, req.Body)
			}
		})
	}
}

func TestBuildRequestRejectsBadComposition(t *testing.T) {
	tests := []struct {
		name      string
		scheme    string
		authority string
	}{
		{"space in host", "http", "exam ple.com"},
		{"authority with path", "http", "host:8500/extra"},
		{"empty scheme", "", "127.0.0.1:8500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cerr := buildRequest(tt.scheme, tt.authority, "GET", "/v1/kv/key", nil)
			if cerr == nil {
				t.Fatal("expected URI error")
			}
			if cerr.Type != ErrorTypeURI {
				t.Errorf("expected type %s, got %s", ErrorTypeURI, cerr.Type)
			}
		})
	}
}

func TestInterpretResponseBoundaries(t *testing.T) {
	tests := []struct {
		status   int
		wantType string // empty means success
	}{
		{100, ""},
		{200, ""},
		{301, ""},
		{399, ""},
		{400, ErrorTypeClient},
		{403, ErrorTypeClient},
		{404, ErrorTypeNotFound},
		{499, ErrorTypeClient},
		{500, ErrorTypeServer},
		{599, ErrorTypeServer},
		{999, ErrorTypeTransport},
	}

	for _, tt := range tests {
		body, cerr := interpretResponse(&Response{StatusCode: tt.status, Body: []byte("body")})

		if tt.wantType == "" {
			if cerr != nil {
				t.Errorf("status %d: expected success, got %v", tt.status, cerr)
				continue
			}
			if string(body) != "body" {
				t.Errorf("status %d: body not passed through", tt.status)
			}
			continue
		}

		if cerr == nil {
			t.Errorf("status %d: expected error type %s, got success", tt.status, tt.wantType)
			continue
		}
		if cerr.Type != tt.wantType {
			t.Errorf("status %d: expected type %s, got %s", tt.status, tt.wantType, cerr.Type)
		}
		if cerr.StatusCode != tt.status {
			t.Errorf("status %d: status code not carried, got %d", tt.status, cerr.StatusCode)
		}
	}
}

func TestInterpretResponseEncodingPriority(t *testing.T) {
	for _, status := range []int{400, 500} {
		_, cerr := interpretResponse(&Response{StatusCode: status, Body: []byte{0xff, 0x00, 0x80}})
		if cerr == nil || cerr.Type != ErrorTypeEncoding {
			t.Errorf("status %d with invalid UTF-8: expected encoding error, got %v", status, cerr)
		}
	}
}

func TestErrNotFoundSentinel(t *testing.T) {
	_, cerr := interpretResponse(&Response{StatusCode: 404})
	if !errors.Is(error(cerr), ErrNotFound) {
		t.Error("404 result must match ErrNotFound")
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		pathAndQuery string
		want         string
	}{
		{"/v1/kv/key", "127.0.0.1:8500/v1/kv/key"},
		{"/v1/kv/prefix?keys", "127.0.0.1:8500/v1/kv/prefix"},
		{"/", "127.0.0.1:8500/"},
		{"", "127.0.0.1:8500/"},
	}

	for _, tt := range tests {
		if got := endpointLabel("127.0.0.1:8500", tt.pathAndQuery); got != tt.want {
			t.Errorf("endpointLabel(%q): expected %q, got %q", tt.pathAndQuery, tt.want, got)
		}
	}
}
