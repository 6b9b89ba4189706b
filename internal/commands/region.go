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

type regionCommand struct {
	command.Base
	env *env
}

func (c *regionCommand) Execute(ctx context.Context, m *message.Message) (*response.Response, error) {
	ctx, cancel := c.Scope(ctx)
	defer cancel()
	if err := m.Defer(ctx); err != nil {
		c.env.Logger.Warn().Err(err).Msg("Failed to defer reply")
	}

	name, _ := m.Param("name")
	if strings.TrimSpace(name) == "" {
		return c.env.fail("region", apperr.ErrNoParameter)
	}
	id := ToID(name)

	var r regionXML
	if err := c.env.fetch(ctx, regionStatsQuery(id), &r); err != nil {
		return c.env.fail("region", err)
	}
	return c.render(id, &r)
}

func (c *regionCommand) render(id string, r *regionXML) (*response.Response, error) {
	f := c.env.fmt
	wa := len(splitList(r.WANations))

	founder := "None"
	if r.Founder != "" && r.Founder != "0" {
		founder = nationLink(r.Founder)
	}
	delegate := "None"
	if r.Delegate != "" && r.Delegate != "0" {
		delegate = fmt.Sprintf("%s | %s votes", nationLink(r.Delegate), f.Int(r.DelegateVotes))
	}

	b := c.env.NewBuilder().Success().
		WithTitle(r.Name).
		WithURL(regionURL(id)).
		WithDescription(fmt.Sprintf("%s nations | %s WA members", f.Int(r.NumNations), f.Int(wa)))
	if r.Flag != "" {
		b.WithThumbnailURL(r.Flag)
	}
	if r.Founded != "" {
		b.WithField("Founded", r.Founded, true)
	}
	if r.Power != "" {
		b.WithField("Power", r.Power, true)
	}
	b.WithField("Founder", founder, false).
		WithField("WA Delegate", delegate, false)
	return b.WithDefaults(c.env.footer()).Build()
}

func regionDescriptor(e *env) *command.Descriptor {
	return &command.Descriptor{
		Factory:     func() command.Command { return &regionCommand{env: e} },
		Triggers:    []string{"region", "r"},
		Description: "Get you some cool info about a NationStates Region",
		Category:    config.CategoryNationStates,
		Slash: &command.SlashMeta{
			Name:        "region",
			Description: "Get you some cool info about a NationStates Region",
			Params: []command.Param{
				{Name: "name", Description: "The region name", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
			Global: true,
		},
	}
}
