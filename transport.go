package gonsul

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is one protocol-level request handed to a Transport: HTTP
// method, absolute URL and raw body bytes. Built fresh per operation;
// never mutated after construction.
type Request struct {
	Method string
	URL    string
	Body   []byte
}

// Response is a transport's answer: the numeric status code and the
// fully buffered body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport starts the network exchange for a single request. Invoke
// returns promptly with the Call that resolves once the exchange
// completes; the blocking work happens behind the Call.
//
// The Multiplexer calls Invoke from its dispatch loop, so the order of
// Invoke entries is exactly the dispatch order, and at most the
// configured bound of exchanges is outstanding at any instant. A
// Transport therefore does not need to tolerate unbounded concurrency.
//
// Timeouts are the Transport's responsibility; the Multiplexer invokes
// with a background context once a request is dispatched.
type Transport interface {
	Invoke(ctx context.Context, req *Request) *Call
}

// TransportFunc adapts a plain blocking function to the Transport
// interface. Each invocation runs the function in its own goroutine
// and resolves the returned Call with its outcome.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Invoke starts f in a goroutine and returns its future.
func (f TransportFunc) Invoke(ctx context.Context, req *Request) *Call {
	call := NewCall(req)
	go func() {
		resp, err := f(ctx, req)
		call.Resolve(resp, err)
	}()
	return call
}

// HTTPTransport is a Transport over net/http. The response body is read
// to completion and buffered before the Call resolves, so the Response
// handed back is self-contained.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps the given *http.Client as a Transport. A nil
// client gets a default with a 30 second timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{client: client}
}

// Invoke starts the HTTP exchange and returns its future.
func (t *HTTPTransport) Invoke(ctx context.Context, req *Request) *Call {
	call := NewCall(req)
	go func() {
		call.Resolve(t.exchange(ctx, req))
	}()
	return call
}

func (t *HTTPTransport) exchange(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: buf}, nil
}
