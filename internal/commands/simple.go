package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cyborgian/internal/command"
	"cyborgian/internal/config"
	"cyborgian/internal/message"
	"cyborgian/internal/response"
	"cyborgian/internal/version"
)

type pingCommand struct {
	command.Base
}

func (c *pingCommand) Execute(context.Context, *message.Message) (*response.Response, error) {
	return response.Text("Pong !"), nil
}

func pingDescriptor() *command.Descriptor {
	return &command.Descriptor{
		Factory:     func() command.Command { return &pingCommand{} },
		Triggers:    []string{"ping"},
		Description: "Check that the bot is alive",
		Category:    config.CategoryMaintenance,
		Slash:       &command.SlashMeta{Name: "ping", Description: "Check that the bot is alive", Global: true},
	}
}

type aboutCommand struct {
	command.Base
	env *env
}

func (c *aboutCommand) Execute(context.Context, *message.Message) (*response.Response, error) {
	contact := c.env.Config.Contact
	if strings.TrimSpace(contact) == "" {
		contact = "Not provided"
	}
	return c.env.NewBuilder().Success().
		WithTitle("About "+version.AppName).
		WithDescription(version.AppDescription).
		WithField("Contact for this instance", contact, false).
		WithField("Github", "[CyborgianStates]("+version.Repository+")", true).
		WithField("Developed by Drehtisch", "Discord: Drehtisch#5680\nNationStates: [Tigerania](https://www.nationstates.net/nation=tigerania)", true).
		WithField("Support", "via [OpenCollective](https://opencollective.com/fnr)", false).
		WithField("Release", release(), false).
		WithDefaults(c.env.footer()).
		Build()
}

func release() string {
	buildDate := "unknown"
	if version.BuildDate != "" {
		if t, err := time.Parse(time.RFC3339, version.BuildDate); err == nil {
			buildDate = t.Format(time.DateOnly)
		} else {
			buildDate = "invalid date"
		}
	}
	goVer := strings.TrimPrefix(version.GoVersion, "go")
	if goVer == "" {
		goVer = "unknown"
	}
	return fmt.Sprintf("%s, %s (Go %s)", version.Version, buildDate, goVer)
}

func aboutDescriptor(e *env) *command.Descriptor {
	return &command.Descriptor{
		Factory:     func() command.Command { return &aboutCommand{env: e} },
		Triggers:    []string{"about"},
		Description: "Learn where this bot comes from",
		Category:    config.CategoryInformation,
		Slash:       &command.SlashMeta{Name: "about", Description: "Learn where this bot comes from", Global: true},
	}
}

type helpCommand struct {
	command.Base
	env *env
}

func (c *helpCommand) Execute(ctx context.Context, m *message.Message) (*response.Response, error) {
	if c.env.Commands == nil {
		return c.env.failWith("No commands are available.")
	}
	lines := helpLines(c.env.Commands.Descriptors(), c.env.Config.Separator())
	if len(lines) == 0 {
		return c.env.failWith("No commands are available.")
	}
	b := c.env.NewBuilder()
	return command.SendChunked(ctx, m, command.Chunk(lines, descriptionLimit), func(chunk []string, _ int) (*response.Response, error) {
		return b.Clear().Success().
			WithTitle("📖 Available Commands").
			WithDescription(strings.Join(chunk, "\n")).
			WithDefaults(c.env.footer()).
			Build()
	})
}

// helpLines lists commands grouped by category, categories by weight.
func helpLines(descriptors []*command.Descriptor, separator string) []string {
	byCategory := make(map[string][]*command.Descriptor)
	var categories []string
	for _, d := range descriptors {
		if _, ok := byCategory[d.Category]; !ok {
			categories = append(categories, d.Category)
		}
		byCategory[d.Category] = append(byCategory[d.Category], d)
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return config.CategoryWeight(categories[i]) < config.CategoryWeight(categories[j])
	})

	var lines []string
	for _, cat := range categories {
		title := cat
		if title == "" {
			title = "Other"
		}
		lines = append(lines, "**"+title+"**")
		for _, d := range byCategory[cat] {
			triggers := make([]string, len(d.Triggers))
			for i, t := range d.Triggers {
				triggers[i] = "`" + separator + t + "`"
			}
			line := strings.Join(triggers, ", ")
			if s := d.Summary(); s != "" {
				line += " - " + s
			}
			lines = append(lines, line)
		}
	}
	return lines
}

func helpDescriptor(e *env) *command.Descriptor {
	return &command.Descriptor{
		Factory:     func() command.Command { return &helpCommand{env: e} },
		Triggers:    []string{"help"},
		Description: "Show a list of available commands",
		Category:    config.CategoryInformation,
		Slash:       &command.SlashMeta{Name: "help", Description: "Show a list of available commands", Global: true},
	}
}

const statsTop = 10

type statsCommand struct {
	command.Base
	env *env
}

func (c *statsCommand) Execute(ctx context.Context, _ *message.Message) (*response.Response, error) {
	if c.env.Usage == nil {
		return c.env.failWith("Usage statistics are not available.")
	}
	ctx, cancel := c.Scope(ctx)
	defer cancel()
	counts, err := c.env.Usage.CommandCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("read usage: %w", err)
	}
	if len(counts) == 0 {
		return c.env.NewBuilder().Success().
			WithTitle("Command usage").
			WithDescription("Nothing recorded yet.").
			WithDefaults(c.env.footer()).
			Build()
	}
	if len(counts) > statsTop {
		counts = counts[:statsTop]
	}
	lines := make([]string, len(counts))
	for i, cc := range counts {
		lines[i] = fmt.Sprintf("`%s`: %s", cc.Command, c.env.fmt.Int(cc.Count))
	}
	return c.env.NewBuilder().Success().
		WithTitle("Command usage").
		WithDescription(strings.Join(lines, "\n")).
		WithDefaults(c.env.footer()).
		Build()
}

func statsDescriptor(e *env) *command.Descriptor {
	return &command.Descriptor{
		Factory:     func() command.Command { return &statsCommand{env: e} },
		Triggers:    []string{"stats"},
		Description: "Show the most used commands",
		Category:    config.CategoryMaintenance,
		Slash:       &command.SlashMeta{Name: "stats", Description: "Show the most used commands"},
	}
}
