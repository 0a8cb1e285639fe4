package gonsul

import (
	"context"
	"fmt"
	"sync"
)

// Call is the single-assignment future for one request. It is resolved
// exactly once. A caller that abandons a Call does not cancel the
// dispatched request; the transport runs it to completion and the
// result is simply never observed.
type Call struct {
	req  *Request
	resp *Response
	err  error
	done chan struct{}
}

// NewCall returns an unresolved Call for req. Transport implementations
// create one per invocation and resolve it when the exchange completes.
func NewCall(req *Request) *Call {
	return &Call{req: req, done: make(chan struct{})}
}

// Wait blocks until the call resolves or ctx is done. Waiting again
// after resolution returns the same result.
func (c *Call) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-c.done:
		return c.resp, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports the channel closed when the call resolves.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Resolve assigns the call's result and releases waiters. It must be
// called exactly once.
func (c *Call) Resolve(resp *Response, err error) {
	c.resp = resp
	c.err = err
	close(c.done)
}

// Multiplexer lets any number of callers share one Transport while at
// most bound requests are outstanding against it. Calls arriving with
// every slot taken queue in submission order and are dispatched FIFO as
// slots free. The dispatch loop invokes the transport itself — only
// waiting for outcomes happens on side goroutines — so the transport
// observes calls in strict dispatch order and never sees more than
// bound concurrent invocations, regardless of how many callers submit.
//
// All slot and queue state is owned by the single dispatch goroutine;
// callers only ever touch channels.
type Multiplexer struct {
	transport Transport
	bound     int
	metrics   *MetricsCollector
	logger    Logger
	logQueue  bool

	submitCh  chan *Call
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewMultiplexer starts a multiplexer dispatching to transport with the
// given concurrency bound. It fails with an ErrorTypeSpawn error when
// the dispatch loop cannot be started (nil transport or bound < 1).
func NewMultiplexer(transport Transport, bound int) (*Multiplexer, error) {
	return newMultiplexer(transport, bound, nil, nil, false)
}

func newMultiplexer(transport Transport, bound int, metrics *MetricsCollector, logger Logger, logQueue bool) (*Multiplexer, error) {
	if transport == nil {
		return nil, &ClientError{Type: ErrorTypeSpawn, Message: "cannot start dispatch loop: transport is nil"}
	}
	if bound < 1 {
		return nil, &ClientError{Type: ErrorTypeSpawn, Message: fmt.Sprintf("cannot start dispatch loop: bound must be at least 1, got %d", bound)}
	}

	m := &Multiplexer{
		transport: transport,
		bound:     bound,
		metrics:   metrics,
		logger:    logger,
		logQueue:  logQueue,
		submitCh:  make(chan *Call),
		closeCh:   make(chan struct{}),
	}
	go m.dispatchLoop()

	return m, nil
}

// Submit hands a request to the dispatch loop and returns its future.
// If every slot is taken the call queues in arrival order. Submitting
// against a closed multiplexer resolves the call immediately with an
// ErrorTypeSpawn error.
func (m *Multiplexer) Submit(req *Request) *Call {
	call := NewCall(req)

	select {
	case m.submitCh <- call:
	case <-m.closeCh:
		call.Resolve(nil, &ClientError{Type: ErrorTypeSpawn, Message: "multiplexer closed"})
	}

	return call
}

// Close stops the dispatch loop. Queued calls that were never
// dispatched resolve with an ErrorTypeSpawn error; already dispatched
// calls run to completion on the transport. Close is idempotent.
func (m *Multiplexer) Close() {
	m.closeOnce.Do(func() {
		close(m.closeCh)
	})
}

func (m *Multiplexer) dispatchLoop() {
	var (
		queue      []*Call
		dispatched int
	)
	completions := make(chan struct{})

	// Invoking the transport here, on the loop goroutine, is what makes
	// transport entry order the dispatch order. The spawned goroutine
	// only awaits the outcome. Once dispatched a request is
	// fire-and-forget: it gets a fresh background context so an
	// abandoned caller cannot cancel it.
	dispatch := func(call *Call) {
		dispatched++
		m.metrics.RecordMuxDispatched(dispatched)
		inner := m.transport.Invoke(context.Background(), call.req)
		go func() {
			resp, err := inner.Wait(context.Background())
			call.Resolve(resp, err)
			completions <- struct{}{}
		}()
	}

	for {
		select {
		case call := <-m.submitCh:
			if dispatched < m.bound {
				dispatch(call)
			} else {
				queue = append(queue, call)
				m.metrics.RecordMuxQueueDepth(len(queue))
				m.logQueueEvent("Call queued", len(queue))
			}

		case <-completions:
			dispatched--
			m.metrics.RecordMuxDispatched(dispatched)
			if len(queue) > 0 {
				next := queue[0]
				queue = queue[1:]
				m.metrics.RecordMuxQueueDepth(len(queue))
				m.logQueueEvent("Call dequeued", len(queue))
				dispatch(next)
			}

		case <-m.closeCh:
			for _, call := range queue {
				call.Resolve(nil, &ClientError{Type: ErrorTypeSpawn, Message: "multiplexer closed"})
			}
			queue = nil
			m.metrics.RecordMuxQueueDepth(0)

			// Wait out in-flight invocations so their goroutines
			// do not block forever on the completions channel.
			for dispatched > 0 {
				<-completions
				dispatched--
			}
			m.metrics.RecordMuxDispatched(0)
			return
		}
	}
}

func (m *Multiplexer) logQueueEvent(msg string, depth int) {
	if !m.logQueue || m.logger == nil {
		return
	}
	m.logger.Debug(msg, "queueDepth", depth, "bound", m.bound)
}
