package response

import (
	"fmt"
	"strings"

	"cyborgian/internal/apperr"

	"github.com/bwmarrin/discordgo"
)

const (
	// DefaultColor is applied by WithDefaults when no color was chosen.
	DefaultColor = 0xb01e66
	// FailureColor is used by the FailWith* helpers.
	FailureColor = 0xe74c3c

	defaultFailureTitle = "Something went wrong"
)

type property int

const (
	propTitle property = iota
	propDescription
	propFooter
	propThumbnailURL
	propURL
)

// Field is a named value rendered in order of insertion.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

type renderer func(b *Builder) *Response

// Builder accumulates reply state. It is not safe for concurrent use and is
// meant to be reused within one command invocation, calling Clear between
// builds.
type Builder struct {
	render  renderer
	status  Status
	content string
	props   map[property]string
	color   int
	colored bool
	fields  []Field
	err     error
}

// NewEmbed returns a builder for transports with rich-message support. The
// built response carries an embed only if a field or property was set.
func NewEmbed() *Builder {
	return newBuilder(renderEmbed)
}

// NewPlain returns a builder that renders properties and fields into the
// response content, for text-only transports.
func NewPlain() *Builder {
	return newBuilder(renderPlain)
}

func newBuilder(r renderer) *Builder {
	return &Builder{render: r, props: make(map[property]string)}
}

// Success sets the outcome to Success.
func (b *Builder) Success() *Builder {
	b.status = Success
	return b
}

// Failed sets the outcome to Error and the content to reason.
func (b *Builder) Failed(reason string) *Builder {
	b.status = Error
	b.content = reason
	return b
}

// FailWithDescription sets the outcome to Error and shows reason under a
// generic failure title.
func (b *Builder) FailWithDescription(reason string) *Builder {
	return b.FailWithTitle(defaultFailureTitle, reason)
}

// FailWithTitle is FailWithDescription with a custom title.
func (b *Builder) FailWithTitle(title, reason string) *Builder {
	b.status = Error
	b.props[propTitle] = title
	b.props[propDescription] = reason
	return b.WithColor(FailureColor)
}

func (b *Builder) WithTitle(title string) *Builder {
	b.props[propTitle] = title
	return b
}

func (b *Builder) WithDescription(description string) *Builder {
	b.props[propDescription] = description
	return b
}

func (b *Builder) WithFooter(footer string) *Builder {
	b.props[propFooter] = footer
	return b
}

func (b *Builder) WithThumbnailURL(url string) *Builder {
	b.props[propThumbnailURL] = url
	return b
}

func (b *Builder) WithURL(url string) *Builder {
	b.props[propURL] = url
	return b
}

// WithContent sets the plain text sent alongside any rich payload.
func (b *Builder) WithContent(content string) *Builder {
	b.content = content
	return b
}

func (b *Builder) WithColor(color int) *Builder {
	b.color = color
	b.colored = true
	return b
}

// WithDefaults sets the footer and, unless one was chosen, the default color.
func (b *Builder) WithDefaults(footer string) *Builder {
	if !b.colored {
		b.WithColor(DefaultColor)
	}
	return b.WithFooter(footer)
}

// WithField appends a field. Duplicate names are kept. A blank value is
// recorded as an error and reported by Build.
func (b *Builder) WithField(name, value string, inline bool) *Builder {
	if strings.TrimSpace(value) == "" {
		if b.err == nil {
			b.err = fmt.Errorf("%w: field %q has no value", apperr.ErrInvalidArgument, name)
		}
		return b
	}
	b.fields = append(b.fields, Field{Name: name, Value: value, Inline: inline})
	return b
}

// Err returns the first error recorded since the last Clear.
func (b *Builder) Err() error { return b.err }

// Fields returns a copy of the accumulated fields.
func (b *Builder) Fields() []Field {
	out := make([]Field, len(b.fields))
	copy(out, b.fields)
	return out
}

// Clear resets all accumulated state, including the outcome.
func (b *Builder) Clear() *Builder {
	b.status = Success
	b.content = ""
	b.props = make(map[property]string)
	b.color = 0
	b.colored = false
	b.fields = nil
	b.err = nil
	return b
}

// Build projects the accumulated state into a Response. It does not modify
// the builder.
func (b *Builder) Build() (*Response, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.render(b), nil
}

func (b *Builder) empty() bool {
	return len(b.fields) == 0 && len(b.props) == 0 && !b.colored
}

func renderEmbed(b *Builder) *Response {
	r := &Response{status: b.status, content: b.content}
	if b.empty() {
		return r
	}
	embed := &discordgo.MessageEmbed{
		URL:         b.props[propURL],
		Title:       b.props[propTitle],
		Description: b.props[propDescription],
		Color:       b.color,
	}
	for _, f := range b.fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if footer, ok := b.props[propFooter]; ok {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}
	if thumb, ok := b.props[propThumbnailURL]; ok {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumb}
	}
	r.embed = embed
	return r
}

func renderPlain(b *Builder) *Response {
	var sections []string
	add := func(s string) {
		if s != "" {
			sections = append(sections, s)
		}
	}
	add(b.content)
	add(b.props[propTitle])
	add(b.props[propURL])
	add(b.props[propDescription])
	if len(b.fields) > 0 {
		lines := make([]string, 0, len(b.fields))
		for _, f := range b.fields {
			lines = append(lines, f.Name+": "+f.Value)
		}
		add(strings.Join(lines, "\n"))
	}
	add(b.props[propFooter])
	return &Response{status: b.status, content: strings.Join(sections, "\n\n")}
}
