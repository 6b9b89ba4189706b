// Package console is a text transport reading commands from a stream and
// printing replies.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"cyborgian/internal/message"
	"cyborgian/internal/response"
)

const quit = "quit"

// AuthorID identifies the console user in usage records.
const AuthorID = "console"

// Handler processes one message synchronously.
type Handler interface {
	Handle(ctx context.Context, m *message.Message)
}

// Channel prints replies to a writer.
type Channel struct {
	mu  sync.Mutex
	out io.Writer
}

var _ message.Channel = (*Channel)(nil)

func NewChannel(out io.Writer) *Channel {
	return &Channel{out: out}
}

func (c *Channel) ReplyTo(ctx context.Context, _ *message.Message, r *response.Response, _ bool) error {
	return c.Write(ctx, r)
}

func (c *Channel) Write(_ context.Context, r *response.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, render(r))
	return err
}

// render prints the content and, for responses built for rich transports,
// the embed as text.
func render(r *response.Response) string {
	var sections []string
	if s := r.Content(); s != "" {
		sections = append(sections, s)
	}
	if e := r.Embed(); e != nil {
		for _, s := range []string{e.Title, e.URL, e.Description} {
			if s != "" {
				sections = append(sections, s)
			}
		}
		if len(e.Fields) > 0 {
			lines := make([]string, len(e.Fields))
			for i, f := range e.Fields {
				lines[i] = f.Name + ": " + f.Value
			}
			sections = append(sections, strings.Join(lines, "\n"))
		}
		if e.Footer != nil && e.Footer.Text != "" {
			sections = append(sections, e.Footer.Text)
		}
	}
	return strings.Join(sections, "\n\n")
}

// Run reads lines from in until EOF, "quit" or ctx is done. Every
// non-blank line is handled as a free-text message.
func Run(ctx context.Context, in io.Reader, out io.Writer, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch := NewChannel(out)
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			if line == quit {
				return nil
			}
			if line == "" {
				continue
			}
			m := message.NewText(AuthorID, line, ch)
			m.Origin = message.Origin{ChannelID: AuthorID, Private: true}
			h.Handle(ctx, m)
		}
	}
}
