// Package commands implements the bot's commands.
package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"cyborgian/internal/apperr"
	"cyborgian/internal/command"
	"cyborgian/internal/config"
	"cyborgian/internal/locale"
	"cyborgian/internal/request"
	"cyborgian/internal/response"
	"cyborgian/internal/storage"

	"github.com/rs/zerolog"
)

// Interactive requests jump ahead of background work.
const interactivePriority = 0

// descriptionLimit keeps chunked descriptions below the 4096 character
// embed limit, leaving room for separators.
const descriptionLimit = 3800

// Lister lists the registered commands.
type Lister interface {
	Descriptors() []*command.Descriptor
}

// UsageCounter reads usage statistics.
type UsageCounter interface {
	CommandCounts(ctx context.Context) ([]storage.CommandCount, error)
}

// Deps are shared by every command. NewBuilder picks the rendering of the
// transport; it defaults to embeds.
type Deps struct {
	Config     *config.Config
	Dispatcher request.Dispatcher
	NewBuilder func() *response.Builder
	Commands   Lister
	Usage      UsageCounter
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Descriptors returns every command, in registration order.
func Descriptors(deps Deps) []*command.Descriptor {
	if deps.NewBuilder == nil {
		deps.NewBuilder = response.NewEmbed
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Config == nil {
		deps.Config = &config.Config{}
	}
	e := &env{Deps: deps, fmt: locale.New(deps.Config.Locale)}
	return []*command.Descriptor{
		pingDescriptor(),
		aboutDescriptor(e),
		helpDescriptor(e),
		statsDescriptor(e),
		nationDescriptor(e),
		regionDescriptor(e),
		endorsableDescriptor(e),
	}
}

// env is Deps plus the values derived from them.
type env struct {
	Deps
	fmt *locale.Formatter
}

func (e *env) footer() string { return e.Config.Footer() }

// fetch dispatches query and decodes the XML answer into v.
func (e *env) fetch(ctx context.Context, query string, v any) error {
	r := request.New(query, request.XML)
	if err := request.Await(ctx, e.Dispatcher, r, interactivePriority); err != nil {
		return err
	}
	return r.DecodeXML(v)
}

// fail turns an expected error into an Error response. Anything else is
// returned as is and reported by the caller of the command.
func (e *env) fail(name string, err error) (*response.Response, error) {
	if !apperr.Expected(err) {
		return nil, err
	}
	e.Logger.Debug().Err(err).Str("command", name).Msg("Command failed")
	b := e.NewBuilder()
	if errors.Is(err, apperr.ErrNoParameter) {
		b.FailWithTitle("That didn't work.", apperr.MsgNoParameter)
	} else {
		b.FailWithDescription(apperr.UserMessage(err))
	}
	return b.WithFooter(e.footer()).Build()
}

// failWith reports a command specific reason.
func (e *env) failWith(reason string) (*response.Response, error) {
	return e.NewBuilder().FailWithDescription(reason).WithFooter(e.footer()).Build()
}

// ToID converts a nation or region name to its API identifier.
func ToID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// displayName turns an API identifier back into something readable.
func displayName(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}

const baseURL = "https://www.nationstates.net"

func nationURL(id string) string { return baseURL + "/nation=" + ToID(id) }
func regionURL(id string) string { return baseURL + "/region=" + ToID(id) }

// nationLink renders a markdown link to a nation.
func nationLink(id string) string {
	return "[" + displayName(id) + "](" + nationURL(id) + ")"
}

// splitList splits a comma separated shard value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
