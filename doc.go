// Package gonsul provides a typed client for the Consul agent API built
// around a bounded concurrent request multiplexer:
//
//   - KV operations (get, list keys, set, delete) and catalog/service
//     operations (service nodes, register) as typed methods
//   - A Multiplexer that caps concurrent requests against the transport
//     at a fixed bound, queueing excess callers FIFO (backpressure)
//   - A pluggable Transport interface; any f(ctx, *Request) works via
//     TransportFunc, and an adapter over net/http ships in the package
//   - A closed error taxonomy (*ClientError) with diagnostic context
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Safe concurrent use of a single *Client instance; Clone shares
//     the multiplexer and therefore the bound
//   - No hidden recovery: no retries, no caching, every error surfaces
//
// Typical usage:
//
//	client, err := gonsul.New(
//	    gonsul.NewHTTPTransport(nil),
//	    100, "http", "127.0.0.1:8500",
//	    gonsul.WithMetricsRegistry(prometheus.DefaultRegisterer),
//	)
//	if err != nil {
//	    // the multiplexer could not be started
//	}
//	entries, err := client.Get(ctx, "my-key")
//
// The client issues exactly one request per call and returns its
// outcome. Calls issued concurrently have no ordering relationship;
// await one result before issuing a dependent request.
package gonsul
