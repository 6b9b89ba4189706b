package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"cyborgian/internal/apperr"
	"cyborgian/internal/command"
	"cyborgian/internal/config"
	"cyborgian/internal/message"
	"cyborgian/internal/response"

	"github.com/bwmarrin/discordgo"
)

const daysPerYear = 365.242199

type nationCommand struct {
	command.Base
	env *env
}

func (c *nationCommand) Execute(ctx context.Context, m *message.Message) (*response.Response, error) {
	ctx, cancel := c.Scope(ctx)
	defer cancel()
	if err := m.Defer(ctx); err != nil {
		c.env.Logger.Warn().Err(err).Msg("Failed to defer reply")
	}

	name, _ := m.Param("name")
	if strings.TrimSpace(name) == "" {
		return c.env.fail("nation", apperr.ErrNoParameter)
	}
	id := ToID(name)

	var n nationXML
	if err := c.env.fetch(ctx, nationStatsQuery(id), &n); err != nil {
		return c.env.fail("nation", err)
	}
	var officers regionXML
	if err := c.env.fetch(ctx, officersQuery(n.Region), &officers); err != nil {
		return c.env.fail("nation", err)
	}
	return c.render(id, &n, officers.office(id))
}

func (c *nationCommand) render(id string, n *nationXML, office string) (*response.Response, error) {
	f := c.env.fmt
	score := func(scale int) string {
		v, _ := n.score(scale)
		return f.Decimal(v, 2)
	}

	pop, unit := n.Population, "million"
	if pop >= 1000 {
		pop, unit = pop/1000, "billion"
	}
	founded := time.Unix(n.FoundedTime, 0).UTC()

	residency, _ := n.score(scaleResidency)
	joined := c.env.Now().UTC().Add(-time.Duration(residency * float64(24*time.Hour)))
	years := int(residency / daysPerYear)
	days := int(math.Mod(residency, daysPerYear))
	stay := fmt.Sprintf("%d d", days)
	if years > 0 {
		stay = fmt.Sprintf("%d y %s", years, stay)
	}

	b := c.env.NewBuilder().Success().
		WithTitle(n.FullName).
		WithURL(nationURL(id)).
		WithDescription(fmt.Sprintf("%s %s %s | Last active %s", f.Decimal(pop, 3), unit, n.Demonym, n.LastActivity)).
		WithField("Founded", fmt.Sprintf("%s (%s)", founded.Format("02.01.2006"), n.Founded), false).
		WithField("Region", fmt.Sprintf("[%s](%s)", n.Region, regionURL(n.Region)), true)
	if n.Flag != "" {
		b.WithThumbnailURL(n.Flag)
	}
	if office != "" {
		b.WithField("Regional Officer", office, true)
	}
	b.WithField("Resident Since", fmt.Sprintf("%s (%s)", joined.Format("02.01.2006"), stay), office == "")
	b.WithField(n.Category, fmt.Sprintf("C: %s (%s) | E: %s (%s) | P: %s (%s)",
		n.Freedom.CivilRights, score(scaleCivilRights),
		n.Freedom.Economy, score(scaleEconomy),
		n.Freedom.PoliticalFreedom, score(scalePoliticalFreedom)), false)

	influence := fmt.Sprintf("%s Influence (%s)", score(scaleInfluence), n.Influence)
	var votes []string
	if n.inWA() {
		endos, _ := n.score(scaleEndorsements)
		influence = fmt.Sprintf("%s endorsements | %s", f.Int(int(endos)), influence)
		if n.GAVote != "" {
			votes = append(votes, "GA: "+n.GAVote)
		}
		if n.SCVote != "" {
			votes = append(votes, "SC: "+n.SCVote)
		}
	}
	b.WithField(n.WAStatus, influence, false)
	if len(votes) > 0 {
		b.WithField("WA Vote", strings.Join(votes, " | "), false)
	}
	b.WithField("Links", fmt.Sprintf("[Dispatches](%[1]s/page=dispatches/nation=%[2]s)  |  [Cards Deck](%[1]s/page=deck/nation=%[2]s)  |  [Challenge](%[1]s/page=challenge?entity_name=%[2]s)", baseURL, id), false)
	return b.WithDefaults(c.env.footer()).Build()
}

func nationDescriptor(e *env) *command.Descriptor {
	return &command.Descriptor{
		Factory:     func() command.Command { return &nationCommand{env: e} },
		Triggers:    []string{"nation", "n"},
		Description: "Get some cool info about a NationStates nation",
		Category:    config.CategoryNationStates,
		Slash: &command.SlashMeta{
			Name:        "nation",
			Description: "Get some cool info about a NationStates nation",
			Params: []command.Param{
				{Name: "name", Description: "The nation name", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
			Global: true,
		},
	}
}
