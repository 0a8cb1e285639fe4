package gonsul

import (
	"fmt"
	"time"
)

// Error type discriminators carried by ClientError. The set is closed:
// every failure a caller can observe is one of these.
const (
	// ErrorTypeNotFound means the requested resource does not exist (404).
	ErrorTypeNotFound = "NotFound"
	// ErrorTypeClient means the agent returned a 4xx other than 404.
	ErrorTypeClient = "Client"
	// ErrorTypeServer means the agent returned a 5xx.
	ErrorTypeServer = "Server"
	// ErrorTypeTransport means the underlying transport failed.
	ErrorTypeTransport = "Transport"
	// ErrorTypeURI means scheme/authority/path could not be composed
	// into a valid absolute URI.
	ErrorTypeURI = "URI"
	// ErrorTypeDecode means a successful response body failed to decode.
	ErrorTypeDecode = "Decode"
	// ErrorTypeEncoding means an error response body was not valid UTF-8.
	ErrorTypeEncoding = "Encoding"
	// ErrorTypeSpawn means the multiplexer's dispatch loop could not be
	// started or is no longer running.
	ErrorTypeSpawn = "Spawn"
)

// Sentinel errors for errors.Is comparisons. Matching is by Type, so
// any ClientError of the same type satisfies Is against these.
var (
	// ErrNotFound is returned when the requested key or service does not exist.
	ErrNotFound = &ClientError{Type: ErrorTypeNotFound, Message: "resource not found"}

	// ErrSpawn is returned when the multiplexer cannot serve requests.
	ErrSpawn = &ClientError{Type: ErrorTypeSpawn, Message: "multiplexer unavailable"}
)

// ClientError is the error surfaced for every failed operation. Type
// identifies the failure class; the remaining fields carry per-call
// diagnostic context when the failure occurred inside a request
// lifecycle.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	Endpoint   string
	StatusCode int
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.Endpoint != "" {
		info += fmt.Sprintf("Endpoint: %s\n", e.Endpoint)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}
