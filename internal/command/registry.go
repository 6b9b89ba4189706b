package command

import (
	"context"
	"fmt"
	"sync"

	"cyborgian/internal/apperr"
	"cyborgian/internal/message"
	"cyborgian/internal/response"

	"github.com/rs/zerolog"
)

// Registry holds the registered descriptors and the cancellation token
// shared by every command it resolves. It is safe for concurrent use;
// Register and Clear are expected at startup only.
type Registry struct {
	mu          sync.RWMutex
	descriptors []*Descriptor
	middlewares []Middleware
	log         zerolog.Logger

	token  context.Context
	cancel context.CancelFunc
}

type Option func(*Registry)

// WithMiddleware wraps every resolved command. The first middleware is
// the outermost.
func WithMiddleware(mws ...Middleware) Option {
	return func(r *Registry) { r.middlewares = append(r.middlewares, mws...) }
}

func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{log: zerolog.Nop()}
	r.token, r.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates d and appends a copy of it.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: descriptor is nil", apperr.ErrInvalidArgument)
	}
	if err := validate(d); err != nil {
		return err
	}
	r.mu.Lock()
	r.descriptors = append(r.descriptors, d.clone())
	r.mu.Unlock()
	r.log.Debug().Strs("triggers", d.Triggers).Msg("Registered command")
	return nil
}

func validate(d *Descriptor) error {
	if len(d.Triggers) == 0 {
		return fmt.Errorf("%w: no triggers", apperr.ErrInvalidDefinition)
	}
	for _, t := range d.Triggers {
		if blank(t) {
			return fmt.Errorf("%w: blank trigger in %q", apperr.ErrInvalidDefinition, d.Triggers)
		}
	}
	if d.Factory == nil {
		return fmt.Errorf("%w: %q has no factory", apperr.ErrInvalidDefinition, d.Triggers[0])
	}
	if d.Factory() == nil {
		return fmt.Errorf("%w: %q factory builds no command", apperr.ErrInvalidDefinition, d.Triggers[0])
	}
	if d.Slash != nil && blank(d.Slash.Name) {
		return fmt.Errorf("%w: %q has slash metadata without a name", apperr.ErrInvalidDefinition, d.Triggers[0])
	}
	// Interactions arrive with the slash name as content.
	if d.Slash != nil && !d.Matches(d.Slash.Name) {
		return fmt.Errorf("%w: slash name %q is not a trigger", apperr.ErrInvalidDefinition, d.Slash.Name)
	}
	return nil
}

// MustRegister is Register for startup code; it panics on error.
func (r *Registry) MustRegister(descriptors ...*Descriptor) {
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Resolve builds the command registered for trigger, wraps it in the
// registry middleware and binds it to the shared token. It returns nil
// without error when nothing matches.
func (r *Registry) Resolve(trigger string) (Command, error) {
	if blank(trigger) {
		return nil, fmt.Errorf("%w: trigger is blank", apperr.ErrInvalidArgument)
	}
	d := r.lookup(trigger)
	if d == nil {
		return nil, nil
	}
	c := Apply(d, d.Factory(), r.middlewares...)
	c.SetCancellationToken(r.token)
	return c, nil
}

func (r *Registry) lookup(trigger string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.descriptors {
		if d.Matches(trigger) {
			return d
		}
	}
	return nil
}

// Execute resolves the trigger of m and runs the command. It returns a nil
// response without error when no command matches; the caller decides how
// to tell the user.
func (r *Registry) Execute(ctx context.Context, m *message.Message) (*response.Response, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: message is nil", apperr.ErrInvalidArgument)
	}
	c, err := r.Resolve(m.Trigger())
	if err != nil || c == nil {
		return nil, err
	}
	return c.Execute(ctx, m)
}

// Clear removes every descriptor.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.descriptors = nil
	r.mu.Unlock()
}

// Cancel fires the shared token. Every command resolved by this registry,
// before or after the call, observes the cancellation.
func (r *Registry) Cancel() {
	r.cancel()
}

// Descriptors returns a snapshot of the registered descriptors.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}
