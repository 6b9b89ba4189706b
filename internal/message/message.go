// Package message unifies free-text and structured (slash) invocations
// behind a single reply contract.
package message

import (
	"context"
	"strings"
	"sync/atomic"

	"cyborgian/internal/response"
)

// Kind tells how a message reached the bot. It is fixed at construction.
type Kind int

const (
	KindText Kind = iota
	KindInteraction
)

func (k Kind) String() string {
	if k == KindInteraction {
		return "SlashCommand"
	}
	return "Message"
}

// Option is a named parameter of a structured invocation, already rendered
// to text by the transport.
type Option struct {
	Name  string
	Value string
}

// Channel is where replies for free-text messages go. A channel supports
// any number of independent messages.
type Channel interface {
	ReplyTo(ctx context.Context, m *Message, r *response.Response, public bool) error
	Write(ctx context.Context, r *response.Response) error
}

// Interaction is the transport handle of a structured invocation. It may
// be responded to once; later output must amend the original response.
type Interaction interface {
	Defer(ctx context.Context) error
	Respond(ctx context.Context, r *response.Response, ephemeral bool) error
	ModifyOriginalResponse(ctx context.Context, r *response.Response) error
	// FollowUp posts an additional message below the original response.
	FollowUp(ctx context.Context, r *response.Response) error
	HasResponded() bool
	Options() []Option
}

// Origin describes where a message came from. Transports fill it in for
// telemetry; the pipeline does not depend on it.
type Origin struct {
	ChannelID string
	GuildID   string
	Private   bool
}

// Message is an inbound invocation. Apart from the responded flag it is
// immutable and must not be shared across concurrent invocations.
type Message struct {
	AuthorID string
	Content  string
	Channel  Channel
	Origin   Origin

	kind        Kind
	interaction Interaction
	responded   atomic.Bool
}

// NewText wraps a free-text message. content must already have the
// separator character stripped.
func NewText(authorID, content string, ch Channel) *Message {
	return &Message{AuthorID: authorID, Content: content, Channel: ch, kind: KindText}
}

// NewInteraction wraps a structured invocation. content is the command name.
func NewInteraction(authorID, content string, ch Channel, i Interaction) *Message {
	return &Message{
		AuthorID:    authorID,
		Content:     content,
		Channel:     ch,
		kind:        KindInteraction,
		interaction: i,
	}
}

func (m *Message) Kind() Kind               { return m.kind }
func (m *Message) IsInteraction() bool      { return m.kind == KindInteraction }
func (m *Message) Interaction() Interaction { return m.interaction }

// HasResponded reports whether a reply was sent for this message.
func (m *Message) HasResponded() bool { return m.responded.Load() }

// Trigger returns the content up to the first space, or the whole content.
func (m *Message) Trigger() string {
	return Trigger(m.Content)
}

// Trigger returns content up to the first space.
func Trigger(content string) string {
	trigger, _, _ := strings.Cut(content, " ")
	return trigger
}

// Params returns the option values of an interaction, or the whitespace
// separated words after the trigger of a free-text message.
func (m *Message) Params() []string {
	if m.IsInteraction() {
		opts := m.interaction.Options()
		out := make([]string, 0, len(opts))
		for _, o := range opts {
			out = append(out, o.Value)
		}
		return out
	}
	_, rest, _ := strings.Cut(m.Content, " ")
	return strings.Fields(rest)
}

// Param returns the named option of an interaction. Free-text messages
// carry no names, so it returns the positional fallback: the whole
// remainder, if any.
func (m *Message) Param(name string) (string, bool) {
	if m.IsInteraction() {
		for _, o := range m.interaction.Options() {
			if o.Name == name {
				return o.Value, true
			}
		}
		return "", false
	}
	rest := m.Remainder()
	return rest, rest != ""
}

// Remainder is the parameter text joined back together, trimmed.
func (m *Message) Remainder() string {
	if m.IsInteraction() {
		return strings.TrimSpace(strings.Join(m.Params(), " "))
	}
	_, rest, _ := strings.Cut(m.Content, " ")
	return strings.TrimSpace(rest)
}

// Defer tells the transport a reply will follow. No-op for free text.
func (m *Message) Defer(ctx context.Context) error {
	if !m.IsInteraction() || m.interaction.HasResponded() {
		return nil
	}
	return m.interaction.Defer(ctx)
}

// Reply sends r. For interactions the first reply responds and any later
// reply amends the original response; free-text replies are new messages.
func (m *Message) Reply(ctx context.Context, r *response.Response, public bool) error {
	var err error
	switch {
	case !m.IsInteraction():
		err = m.Channel.ReplyTo(ctx, m, r, public)
	case m.HasResponded() || m.interaction.HasResponded():
		err = m.interaction.ModifyOriginalResponse(ctx, r)
	default:
		err = m.interaction.Respond(ctx, r, !public)
	}
	if err != nil {
		return err
	}
	m.responded.Store(true)
	return nil
}

// ReplyText is Reply with a plain successful response.
func (m *Message) ReplyText(ctx context.Context, content string, public bool) error {
	return m.Reply(ctx, response.Text(content), public)
}
