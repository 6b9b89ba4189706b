package commands

import (
	"context"
	"fmt"
	"strings"

	"cyborgian/internal/apperr"
	"cyborgian/internal/command"
	"cyborgian/internal/config"
	"cyborgian/internal/message"
	"cyborgian/internal/response"

	"github.com/bwmarrin/discordgo"
)

const msgNotWAMember = "Specified nation is not a WA member."

type endorsableCommand struct {
	command.Base
	env *env
}

func (c *endorsableCommand) Execute(ctx context.Context, m *message.Message) (*response.Response, error) {
	ctx, cancel := c.Scope(ctx)
	defer cancel()
	if err := m.Defer(ctx); err != nil {
		c.env.Logger.Warn().Err(err).Msg("Failed to defer reply")
	}

	name, _ := m.Param("nation")
	if strings.TrimSpace(name) == "" {
		return c.env.fail("endorsable", apperr.ErrNoParameter)
	}
	id := ToID(name)

	var n nationXML
	if err := c.env.fetch(ctx, endorsementsQuery(id), &n); err != nil {
		return c.env.fail("endorsable", err)
	}
	if !n.inWA() {
		return c.env.failWith(msgNotWAMember)
	}
	var r regionXML
	if err := c.env.fetch(ctx, waNationsQuery(n.Region), &r); err != nil {
		return c.env.fail("endorsable", err)
	}

	candidates := endorsable(id, splitList(n.Endorsements), splitList(r.WANations))
	title := fmt.Sprintf("%s could endorse %d more nations.", displayOr(n.Name, id), len(candidates))
	if len(candidates) == 0 {
		return c.env.NewBuilder().Success().
			WithTitle(title).
			WithDefaults(c.env.footer()).
			Build()
	}

	links := make([]string, len(candidates))
	for i, cand := range candidates {
		links[i] = nationLink(cand)
	}
	b := c.env.NewBuilder()
	return command.SendChunked(ctx, m, command.Chunk(links, descriptionLimit), func(chunk []string, _ int) (*response.Response, error) {
		return b.Clear().Success().
			WithTitle(title).
			WithDescription(strings.Join(chunk, ", ")).
			WithDefaults(c.env.footer()).
			Build()
	})
}

// endorsable returns the WA nations of the region that nation has not
// endorsed yet, excluding nation itself, in region order.
func endorsable(nation string, endorsed, waNations []string) []string {
	skip := make(map[string]bool, len(endorsed)+1)
	skip[ToID(nation)] = true
	for _, e := range endorsed {
		skip[ToID(e)] = true
	}
	var out []string
	for _, w := range waNations {
		if !skip[ToID(w)] {
			out = append(out, w)
		}
	}
	return out
}

func displayOr(name, id string) string {
	if name != "" {
		return name
	}
	return displayName(id)
}

func endorsableDescriptor(e *env) *command.Descriptor {
	return &command.Descriptor{
		Factory:     func() command.Command { return &endorsableCommand{env: e} },
		Triggers:    []string{"endorsable", "ce", "couldendorse"},
		Description: "List the WA nations in the region a nation has not endorsed yet",
		Category:    config.CategoryNationStates,
		Slash: &command.SlashMeta{
			Name:        "endorsable",
			Description: "List the WA nations in the region a nation has not endorsed yet",
			Params: []command.Param{
				{Name: "nation", Description: "The nation name", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
		},
	}
}
