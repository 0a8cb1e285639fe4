package gonsul

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Path templates for the agent API. Keys and service names are spliced
// in verbatim; composition is validated by buildRequest.
const (
	kvPath       = "/v1/kv/"
	catalogPath  = "/v1/catalog/service/"
	registerPath = "/v1/agent/service/register"
)

// buildRequest composes scheme://authority{pathAndQuery} into an
// absolute URI and wraps it in a Request. Composition failures surface
// as ErrorTypeURI: validation is lazy, so a bad authority is only
// noticed on the first request built against it.
func buildRequest(scheme, authority, method, pathAndQuery string, body []byte) (*Request, *ClientError) {
	raw := scheme + "://" + authority + pathAndQuery

	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeURI,
			Message: fmt.Sprintf("composing request URI %q", raw),
			Cause:   err,
			Method:  method,
		}
	}
	// Lenient parses can silently shift authority segments into the
	// path; require the parts to survive composition unchanged.
	if u.Scheme != scheme || u.Host != authority {
		return nil, &ClientError{
			Type:    ErrorTypeURI,
			Message: fmt.Sprintf("invalid scheme %q or authority %q", scheme, authority),
			Method:  method,
		}
	}

	return &Request{Method: method, URL: raw, Body: body}, nil
}

// interpretResponse maps a raw transport response onto the error
// taxonomy. Informational, success and redirection statuses pass the
// body through for decoding; 404 is NotFound; other 4xx and 5xx carry
// the body text as the error message. Error bodies that are not valid
// UTF-8 surface as ErrorTypeEncoding instead, since no message can be
// built from them.
func interpretResponse(resp *Response) ([]byte, *ClientError) {
	status := resp.StatusCode

	switch {
	case status >= 100 && status < 400:
		return resp.Body, nil

	case status == http.StatusNotFound:
		return nil, &ClientError{
			Type:       ErrorTypeNotFound,
			Message:    "resource not found",
			StatusCode: status,
		}

	case status >= 400 && status < 500:
		text, encErr := errorBodyText(resp.Body, status)
		if encErr != nil {
			return nil, encErr
		}
		return nil, &ClientError{
			Type:       ErrorTypeClient,
			Message:    text,
			StatusCode: status,
		}

	case status >= 500 && status < 600:
		text, encErr := errorBodyText(resp.Body, status)
		if encErr != nil {
			return nil, encErr
		}
		return nil, &ClientError{
			Type:       ErrorTypeServer,
			Message:    text,
			StatusCode: status,
		}

	default:
		// Outside the HTTP status range; nothing conforming produces
		// this, so report the transport as broken.
		return nil, &ClientError{
			Type:       ErrorTypeTransport,
			Message:    fmt.Sprintf("protocol violation: status %d outside the HTTP range", status),
			StatusCode: status,
		}
	}
}

func errorBodyText(body []byte, status int) (string, *ClientError) {
	if !utf8.Valid(body) {
		return "", &ClientError{
			Type:       ErrorTypeEncoding,
			Message:    "error response body is not valid UTF-8",
			StatusCode: status,
		}
	}
	return string(body), nil
}

// endpointLabel renders authority+path (query stripped) for metric and
// log labels.
func endpointLabel(authority, pathAndQuery string) string {
	path := pathAndQuery
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	var builder strings.Builder
	builder.WriteString(authority)
	if path != "" && path != "/" {
		builder.WriteString(path)
	} else {
		builder.WriteByte('/')
	}
	return builder.String()
}
