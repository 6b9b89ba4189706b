package command

import (
	"context"
	"time"

	"cyborgian/internal/message"
	"cyborgian/internal/metrics"
	"cyborgian/internal/response"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Middleware wraps a command resolved for d (logging, metrics, tracing).
type Middleware func(d *Descriptor, next Command) Command

// Apply wraps c with mws; the first middleware is the outermost.
func Apply(d *Descriptor, c Command, mws ...Middleware) Command {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](d, c)
	}
	return c
}

// ExecFunc is the signature of Command.Execute.
type ExecFunc func(ctx context.Context, m *message.Message) (*response.Response, error)

// Wrapped runs ExecFunc in place of the inner command's Execute. The
// cancellation token is passed through to the inner command.
type Wrapped struct {
	Inner    Command
	ExecFunc ExecFunc
}

func (w *Wrapped) Execute(ctx context.Context, m *message.Message) (*response.Response, error) {
	if w.ExecFunc != nil {
		return w.ExecFunc(ctx, m)
	}
	return w.Inner.Execute(ctx, m)
}

func (w *Wrapped) SetCancellationToken(token context.Context) { w.Inner.SetCancellationToken(token) }

func (w *Wrapped) Unwrap() Command { return w.Inner }

// Wrap returns a command that runs exec instead of c.Execute.
func Wrap(c Command, exec ExecFunc) Command {
	return &Wrapped{Inner: c, ExecFunc: exec}
}

// Root unwraps c until it reaches the concrete command.
func Root(c Command) Command {
	for {
		u, ok := c.(interface{ Unwrap() Command })
		if !ok {
			return c
		}
		c = u.Unwrap()
	}
}

func outcome(r *response.Response, err error) string {
	switch {
	case err != nil:
		return "failed"
	case r == nil:
		return "none"
	default:
		return r.Status().String()
	}
}

// WithLogging logs every execution with its trigger, author and outcome.
func WithLogging(log zerolog.Logger) Middleware {
	return func(d *Descriptor, next Command) Command {
		return Wrap(next, func(ctx context.Context, m *message.Message) (*response.Response, error) {
			start := time.Now()
			r, err := next.Execute(ctx, m)
			ev := log.Info()
			if err != nil {
				// The caller reports the failure.
				ev = log.Debug().Err(err)
			}
			ev.Str("command", d.Name()).
				Str("author", m.AuthorID).
				Stringer("kind", m.Kind()).
				Str("outcome", outcome(r, err)).
				Dur("took", time.Since(start)).
				Msg("Command executed")
			return r, err
		})
	}
}

// WithMetrics counts executions and observes their duration.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(d *Descriptor, next Command) Command {
		return Wrap(next, func(ctx context.Context, msg *message.Message) (*response.Response, error) {
			start := time.Now()
			r, err := next.Execute(ctx, msg)
			m.ObserveCommand(d.Name(), outcome(r, err), time.Since(start))
			return r, err
		})
	}
}

// WithTracing opens a span per execution using the global tracer provider.
func WithTracing() Middleware {
	tracer := otel.Tracer("cyborgian/internal/command")
	return func(d *Descriptor, next Command) Command {
		return Wrap(next, func(ctx context.Context, m *message.Message) (*response.Response, error) {
			ctx, span := tracer.Start(ctx, "command."+d.Name(),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("command.trigger", m.Trigger()),
					attribute.String("command.kind", m.Kind().String()),
				),
			)
			defer span.End()
			r, err := next.Execute(ctx, m)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.SetAttributes(attribute.String("command.outcome", outcome(r, err)))
			return r, err
		})
	}
}
