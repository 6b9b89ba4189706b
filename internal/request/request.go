// Package request provides the single-shot handle commands use to await
// results from the external gateway.
package request

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"sync"

	"cyborgian/internal/apperr"
)

// Status is the lifecycle state of a Request.
type Status int

const (
	Pending Status = iota
	Success
	Failed
	Canceled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Format is the response format the issuer expects.
type Format int

const (
	XML Format = iota
	JSON
	Raw
)

// DefaultPriority is used for work nobody is waiting on interactively.
const DefaultPriority = 1000

// ErrFinished is returned when a terminal request is transitioned again.
var ErrFinished = errors.New("request already finished")

// Dispatcher fulfils requests. It is the only writer of Success and Failed.
// Lower priority values are served first.
type Dispatcher interface {
	Dispatch(r *Request, priority int)
}

// Request is created by a command, handed to a Dispatcher and awaited with
// Wait. A Request must not be reused once it reached a terminal state.
type Request struct {
	Query    string
	Format   Format
	Priority int

	mu       sync.Mutex
	status   Status
	response []byte
	reason   string
	done     chan struct{}
}

// New returns a pending request for query.
func New(query string, format Format) *Request {
	return &Request{
		Query:    query,
		Format:   format,
		Priority: DefaultPriority,
		done:     make(chan struct{}),
	}
}

// Complete marks the request successful with payload.
func (r *Request) Complete(payload []byte) error {
	return r.finish(Success, payload, "")
}

// Fail marks the request failed with reason.
func (r *Request) Fail(reason string) error {
	return r.finish(Failed, nil, reason)
}

func (r *Request) finish(status Status, payload []byte, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != Pending {
		return fmt.Errorf("%w: %s", ErrFinished, r.status)
	}
	r.status = status
	r.response = payload
	r.reason = reason
	close(r.done)
	return nil
}

// Wait blocks until the request leaves Pending or ctx is done. In the latter
// case the request is marked Canceled even if the dispatcher has not noticed
// yet. Wait returns the terminal status; it never fails.
func (r *Request) Wait(ctx context.Context) Status {
	select {
	case <-r.done:
		return r.Status()
	default:
	}
	select {
	case <-r.done:
	case <-ctx.Done():
		r.cancel()
	}
	return r.Status()
}

func (r *Request) cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != Pending {
		return
	}
	r.status = Canceled
	close(r.done)
}

// Done is closed once the request reaches a terminal state.
func (r *Request) Done() <-chan struct{} { return r.done }

func (r *Request) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Body returns the payload of a successful request.
func (r *Request) Body() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.response
}

// FailureReason returns the reason given by the dispatcher on failure.
func (r *Request) FailureReason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

// Err maps the current status to the error taxonomy: nil for Success,
// apperr.ErrRequestCanceled for Canceled, *apperr.UpstreamError for Failed.
// A pending request also reports as canceled; callers only use Err after Wait.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.status {
	case Success:
		return nil
	case Failed:
		return apperr.Upstream(r.reason)
	default:
		return apperr.ErrRequestCanceled
	}
}

// DecodeXML unmarshals the payload of a successful request into v.
func (r *Request) DecodeXML(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if err := xml.Unmarshal(r.Body(), v); err != nil {
		return fmt.Errorf("decode %q: %w", r.Query, err)
	}
	return nil
}

// Await dispatches r with priority, waits for it and returns its error class.
func Await(ctx context.Context, d Dispatcher, r *Request, priority int) error {
	r.Priority = priority
	d.Dispatch(r, priority)
	r.Wait(ctx)
	return r.Err()
}
