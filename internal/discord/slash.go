package discord

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"

	"cyborgian/internal/command"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Definition converts the slash metadata of d, or returns nil when d is
// free-text only.
func Definition(d *command.Descriptor) *discordgo.ApplicationCommand {
	if d.Slash == nil {
		return nil
	}
	def := &discordgo.ApplicationCommand{
		Name:        d.Slash.Name,
		Description: d.Slash.Description,
		Type:        discordgo.ChatApplicationCommand,
	}
	for _, p := range d.Slash.Params {
		def.Options = append(def.Options, &discordgo.ApplicationCommandOption{
			Name:        p.Name,
			Description: p.Description,
			Type:        p.Type,
			Required:    p.Required,
		})
	}
	return def
}

// hashCommand returns a deterministic SHA-1 of a command's stable fields.
// Remote commands carry IDs and versions that the hash ignores.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		entry := map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]any, len(o.Choices))
			for j, ch := range o.Choices {
				choices[j] = map[string]any{"name": ch.Name, "value": ch.Value}
			}
			entry["choices"] = choices
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}

// Syncer publishes slash commands. Global commands go to every guild, the
// rest to the primary guild only; without a primary guild everything is
// global.
type Syncer struct {
	s            Session
	appID        string
	primaryGuild string
	log          zerolog.Logger
}

func NewSyncer(s Session, appID, primaryGuild string, log zerolog.Logger) *Syncer {
	return &Syncer{s: s, appID: appID, primaryGuild: primaryGuild, log: log}
}

// Sync makes the remote commands of both scopes match descriptors.
// Unchanged commands are left alone; a command found in the wrong scope
// is removed there and created in the right one.
func (y *Syncer) Sync(ctx context.Context, descriptors []*command.Descriptor) error {
	global, guild := y.split(descriptors)
	if err := y.syncScope(ctx, "", global); err != nil {
		return err
	}
	if y.primaryGuild == "" {
		return nil
	}
	return y.syncScope(ctx, y.primaryGuild, guild)
}

func (y *Syncer) split(descriptors []*command.Descriptor) (global, guild []*discordgo.ApplicationCommand) {
	seen := make(map[string]bool)
	for _, d := range descriptors {
		def := Definition(d)
		if def == nil || seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		if d.Slash.Global || y.primaryGuild == "" {
			global = append(global, def)
		} else {
			guild = append(guild, def)
		}
	}
	return global, guild
}

func (y *Syncer) syncScope(ctx context.Context, guildID string, wanted []*discordgo.ApplicationCommand) error {
	scope := guildID
	if scope == "" {
		scope = "global"
	}
	opt := discordgo.WithContext(ctx)

	remote, err := y.s.ApplicationCommands(y.appID, guildID, opt)
	if err != nil {
		return fmt.Errorf("list %s commands: %w", scope, err)
	}
	remoteByName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, rc := range remote {
		remoteByName[rc.Name] = rc
	}

	wantedNames := make(map[string]bool, len(wanted))
	for _, def := range wanted {
		wantedNames[def.Name] = true
		rc, ok := remoteByName[def.Name]
		switch {
		case !ok:
			if _, err := y.s.ApplicationCommandCreate(y.appID, guildID, def, opt); err != nil {
				return fmt.Errorf("create %s command %s: %w", scope, def.Name, err)
			}
			y.log.Info().Str("scope", scope).Str("command", def.Name).Msg("Registered slash command")
		case hashCommand(rc) != hashCommand(def):
			if _, err := y.s.ApplicationCommandEdit(y.appID, guildID, rc.ID, def, opt); err != nil {
				return fmt.Errorf("update %s command %s: %w", scope, def.Name, err)
			}
			y.log.Info().Str("scope", scope).Str("command", def.Name).Msg("Updated slash command")
		}
	}

	for _, rc := range remote {
		if wantedNames[rc.Name] {
			continue
		}
		if err := y.s.ApplicationCommandDelete(y.appID, guildID, rc.ID, opt); err != nil {
			return fmt.Errorf("delete %s command %s: %w", scope, rc.Name, err)
		}
		y.log.Info().Str("scope", scope).Str("command", rc.Name).Msg("Deleted slash command")
	}
	return nil
}
