// Package dispatch fulfils requests against the rate-limited HTTP API,
// one at a time, in priority order.
package dispatch

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cyborgian/internal/metrics"
	"cyborgian/internal/request"

	"github.com/rs/zerolog"
)

const reasonShutdown = "dispatcher shut down"

// Config configures a Dispatcher.
type Config struct {
	BaseURL   string
	UserAgent string
	Interval  time.Duration
	Retry     RetryConfig
	Client    *http.Client
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Dispatcher implements request.Dispatcher. Requests are queued by
// Dispatch and served by the worker started with Start.
type Dispatcher struct {
	cfg     Config
	client  *http.Client
	limiter *AdaptiveLimiter
	log     zerolog.Logger

	mu     sync.Mutex
	queue  queue
	seq    uint64
	closed bool
	wake   chan struct{}
	stop   chan struct{}
	once   sync.Once
}

var _ request.Dispatcher = (*Dispatcher)(nil)

func New(cfg Config) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 650 * time.Millisecond
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Dispatcher{
		cfg:     cfg,
		client:  client,
		limiter: NewAdaptiveLimiter(cfg.Interval, 0.5),
		log:     cfg.Logger.With().Str("component", "dispatcher").Logger(),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// Dispatch queues r. After Shutdown the request fails immediately.
func (d *Dispatcher) Dispatch(r *request.Request, priority int) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		_ = r.Fail(reasonShutdown)
		return
	}
	d.seq++
	heap.Push(&d.queue, &item{req: r, priority: priority, seq: d.seq})
	depth := d.queue.Len()
	d.mu.Unlock()

	d.cfg.Metrics.SetQueueDepth(depth)
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued requests.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Start serves queued requests until ctx is done or Shutdown is called.
func (d *Dispatcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	d.log.Info().Str("base_url", d.cfg.BaseURL).Dur("interval", d.cfg.Interval).Msg("Dispatcher started")
	for {
		it := d.next()
		if it == nil {
			select {
			case <-ctx.Done():
				d.Shutdown()
				return nil
			case <-d.wake:
			}
			continue
		}
		d.serve(ctx, it.req)
	}
}

func (d *Dispatcher) next() *item {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue.Len() == 0 {
		return nil
	}
	it := heap.Pop(&d.queue).(*item)
	d.cfg.Metrics.SetQueueDepth(d.queue.Len())
	return it
}

// Shutdown stops the worker and fails every queued request.
func (d *Dispatcher) Shutdown() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		pending := d.queue
		d.queue = nil
		d.mu.Unlock()

		close(d.stop)
		for _, it := range pending {
			_ = it.req.Fail(reasonShutdown)
		}
		d.cfg.Metrics.SetQueueDepth(0)
		d.log.Info().Int("failed", len(pending)).Msg("Dispatcher stopped")
	})
}

func (d *Dispatcher) serve(ctx context.Context, r *request.Request) {
	if r.Status() != request.Pending {
		d.cfg.Metrics.ObserveGateway("skipped")
		return
	}

	// Abort the call when the waiter gives up.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-r.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	var body []byte
	err := withRetry(ctx, func() error {
		var err error
		body, err = d.fetch(ctx, r)
		return err
	}, d.limiter, d.cfg.Retry, d.log)

	switch {
	case err == nil:
		if r.Complete(body) == nil {
			d.cfg.Metrics.ObserveGateway("success")
			return
		}
		d.cfg.Metrics.ObserveGateway("canceled")
	case r.Status() == request.Canceled:
		d.cfg.Metrics.ObserveGateway("canceled")
	case errors.Is(err, context.Canceled):
		_ = r.Fail(reasonShutdown)
		d.cfg.Metrics.ObserveGateway("failed")
	default:
		d.log.Warn().Err(err).Str("query", r.Query).Msg("Gateway request failed")
		_ = r.Fail(err.Error())
		d.cfg.Metrics.ObserveGateway("failed")
	}
}

func (d *Dispatcher) fetch(ctx context.Context, r *request.Request) ([]byte, error) {
	url := d.cfg.BaseURL
	if r.Query != "" {
		url += "?" + r.Query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FatalError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	switch r.Format {
	case request.XML:
		req.Header.Set("Accept", "application/xml, text/xml")
	case request.JSON:
		req.Header.Set("Accept", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &FatalError{Err: ctx.Err()}
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		se := &StatusError{Code: resp.StatusCode, RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}
		if se.rateLimited() || se.serverError() {
			return nil, se
		}
		return nil, &FatalError{Err: se}
	}
	return io.ReadAll(resp.Body)
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
