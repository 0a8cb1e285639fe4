package gonsul

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Client is a typed client for the Consul agent API. It holds the base
// address and funnels every operation through a shared Multiplexer, so
// at most the configured bound of requests is outstanding against the
// transport no matter how many goroutines use the Client. It is safe
// for concurrent use.
//
// Operations are independent: no ordering is guaranteed between calls
// issued concurrently, even through the same Client. Callers needing
// read-after-write consistency must await one call before issuing the
// dependent one.
//
// Every failure of a request itself surfaces as a *ClientError. The one
// exception is the caller's own context: when ctx is canceled or
// expires while awaiting the result, the context's error is returned
// unchanged and the dispatched request still runs to completion on the
// transport. Callers should check context.Canceled and
// context.DeadlineExceeded alongside *ClientError.
type Client struct {
	scheme    string
	authority string
	mux       *Multiplexer
	metrics   *MetricsCollector
	logger    Logger
	debug     *DebugConfig
}

// New constructs a Client dispatching to transport with the given
// concurrency bound and base address. It fails with an ErrorTypeSpawn
// error when the multiplexer's dispatch loop cannot be started; scheme
// and authority are validated lazily, on the first request built.
func New(transport Transport, bound int, scheme, authority string, options ...Option) (*Client, error) {
	client := &Client{
		scheme:    scheme,
		authority: authority,
		debug:     DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	logQueue := client.debug != nil && client.debug.Enabled && client.debug.LogQueue
	mux, err := newMultiplexer(transport, bound, client.metrics, client.logger, logQueue)
	if err != nil {
		return nil, err
	}
	client.mux = mux

	return client, nil
}

// Clone returns a Client sharing this Client's multiplexer, and with
// it the concurrency bound. Cheap; no per-clone resources.
func (c *Client) Clone() *Client {
	clone := *c
	return &clone
}

// Close stops the shared multiplexer. Pending queued calls fail with
// an ErrorTypeSpawn error; the Client and all clones are unusable
// afterwards.
func (c *Client) Close() {
	c.mux.Close()
}

// Get reads a key. The returned entries carry Value exactly as the
// agent sent it, base64-encoded.
func (c *Client) Get(ctx context.Context, key string) ([]KVEntry, error) {
	var entries []KVEntry
	if err := c.do(ctx, http.MethodGet, kvPath+key, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetKeys lists the keys under a prefix.
func (c *Client) GetKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	if err := c.do(ctx, http.MethodGet, kvPath+prefix+"?keys", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// Set stores value under key. The agent answers true when the write
// committed.
func (c *Client) Set(ctx context.Context, key string, value []byte) (bool, error) {
	var committed bool
	if err := c.do(ctx, http.MethodPut, kvPath+key, value, &committed); err != nil {
		return false, err
	}
	return committed, nil
}

// Delete removes a key and its value. Deleting an absent key still
// answers true.
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	var committed bool
	if err := c.do(ctx, http.MethodDelete, kvPath+key, nil, &committed); err != nil {
		return false, err
	}
	return committed, nil
}

// ServiceNodes lists the nodes registered under a service name.
func (c *Client) ServiceNodes(ctx context.Context, service string) ([]ServiceNode, error) {
	var nodes []ServiceNode
	if err := c.do(ctx, http.MethodGet, catalogPath+service, nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Register registers a service with the agent. payload is the
// pre-encoded JSON service definition; any non-error status counts as
// success and the response body is not decoded.
func (c *Client) Register(ctx context.Context, payload []byte) error {
	return c.do(ctx, http.MethodPut, registerPath, payload, nil)
}

// do runs one operation through the pipeline: build the request,
// submit it to the multiplexer, await the future, interpret the status
// and decode the body into out (skipped when out is nil). A ctx that
// ends before the result arrives yields the context's own error, not a
// *ClientError; the dispatched request is not canceled.
func (c *Client) do(ctx context.Context, method, pathAndQuery string, body []byte, out any) error {
	start := time.Now()
	endpoint := endpointLabel(c.authority, pathAndQuery)

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	req, uriErr := buildRequest(c.scheme, c.authority, method, pathAndQuery, body)
	if uriErr != nil {
		uriErr.RequestID = requestID
		uriErr.Endpoint = endpoint
		uriErr.Timestamp = time.Now()
		c.metrics.RecordError(ErrorTypeURI, method, endpoint)
		c.logError(requestID, uriErr)
		return uriErr
	}

	if c.debug != nil && c.debug.Enabled && c.debug.LogRequests && c.logger != nil {
		c.logger.Debug("Starting request", "requestID", requestID, "method", method, "url", req.URL, "endpoint", endpoint)
	}

	c.metrics.RecordRequestStart(method, endpoint)
	defer c.metrics.RecordRequestEnd(method, endpoint)

	call := c.mux.Submit(req)
	resp, err := call.Wait(ctx)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The caller abandoned the wait; the dispatched request
			// still runs to completion on the transport.
			c.metrics.RecordRequest(method, endpoint, 0, duration)
			return err
		}

		cerr := &ClientError{
			Type:      ErrorTypeTransport,
			Message:   "transport request failed",
			Cause:     err,
			RequestID: requestID,
			Method:    method,
			URL:       req.URL,
			Endpoint:  endpoint,
			Timestamp: time.Now(),
			Duration:  duration,
		}
		var known *ClientError
		if errors.As(err, &known) {
			// Already classified (closed multiplexer); keep its type.
			cerr.Type = known.Type
			cerr.Message = known.Message
			cerr.Cause = known.Cause
		}
		c.metrics.RecordRequest(method, endpoint, 0, duration)
		c.metrics.RecordError(cerr.Type, method, endpoint)
		c.logError(requestID, cerr)
		return cerr
	}

	c.metrics.RecordRequest(method, endpoint, resp.StatusCode, duration)

	if c.debug != nil && c.debug.Enabled && c.debug.LogResponses && c.logger != nil {
		c.logger.Debug("Request finished", "requestID", requestID, "status", resp.StatusCode, "duration", duration, "endpoint", endpoint)
	}

	raw, ierr := interpretResponse(resp)
	if ierr != nil {
		ierr.RequestID = requestID
		ierr.Method = method
		ierr.URL = req.URL
		ierr.Endpoint = endpoint
		ierr.Timestamp = time.Now()
		ierr.Duration = duration
		c.metrics.RecordError(ierr.Type, method, endpoint)
		c.logError(requestID, ierr)
		return ierr
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		derr := &ClientError{
			Type:       ErrorTypeDecode,
			Message:    "decoding response body",
			Cause:      err,
			RequestID:  requestID,
			Method:     method,
			URL:        req.URL,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Timestamp:  time.Now(),
			Duration:   duration,
		}
		c.metrics.RecordError(ErrorTypeDecode, method, endpoint)
		c.logError(requestID, derr)
		return derr
	}

	return nil
}

func (c *Client) logError(requestID string, cerr *ClientError) {
	if c.debug == nil || !c.debug.Enabled || !c.debug.LogErrors || c.logger == nil {
		return
	}
	c.logger.Warn("Request failed", "requestID", requestID, "errorType", cerr.Type, "error", cerr.Message, "endpoint", cerr.Endpoint)
}
