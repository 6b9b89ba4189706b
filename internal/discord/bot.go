package discord

import (
	"context"
	"fmt"
	"strings"

	"cyborgian/internal/command"
	"cyborgian/internal/config"
	"cyborgian/internal/message"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Handler takes over inbound messages. Submit must not block.
type Handler interface {
	Submit(m *message.Message)
}

// Bot is the Discord transport.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	registry *command.Registry
	handler  Handler
	log      zerolog.Logger
	ctx      context.Context
}

func New(cfg *config.Config, registry *command.Registry, handler Handler, log zerolog.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Bot{
		dg:       dg,
		cfg:      cfg,
		registry: registry,
		handler:  handler,
		log:      log.With().Str("component", "discord").Logger(),
		ctx:      context.Background(),
	}, nil
}

// Run connects to the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("Shutdown signal received, closing Discord session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Discord bot is running")
	if !b.cfg.SyncSlashCommands {
		b.log.Info().Msg("Slash command sync skipped")
		return
	}
	appID := r.User.ID
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}
	syncer := NewSyncer(s, appID, b.cfg.PrimaryGuildID, b.log)
	if err := syncer.Sync(b.ctx, b.registry.Descriptors()); err != nil {
		b.log.Error().Err(err).Msg("Failed to sync slash commands")
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if msg, ok := fromMessageCreate(s, m, b.cfg.Separator()); ok {
		b.handler.Submit(msg)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if msg, ok := fromInteraction(s, i.Interaction); ok {
		b.handler.Submit(msg)
		return
	}
	b.log.Debug().Int("type", int(i.Type)).Msg("Ignored interaction")
}

// fromMessageCreate turns a separator-prefixed message by a human into a
// free-text message with the separator stripped.
func fromMessageCreate(s Session, m *discordgo.MessageCreate, separator string) (*message.Message, bool) {
	if m.Author == nil || m.Author.Bot || separator == "" {
		return nil, false
	}
	content, ok := strings.CutPrefix(m.Content, separator)
	if !ok {
		return nil, false
	}
	msg := message.NewText(m.Author.ID, content, NewChannel(s, m.ChannelID, m.GuildID, m.ID))
	msg.Origin = message.Origin{ChannelID: m.ChannelID, GuildID: m.GuildID, Private: m.GuildID == ""}
	return msg, true
}

// fromInteraction wraps chat application commands; the content is the
// command name.
func fromInteraction(s Session, i *discordgo.Interaction) (*message.Message, bool) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil, false
	}
	data := i.ApplicationCommandData()
	if data.CommandType != discordgo.ChatApplicationCommand {
		return nil, false
	}
	var authorID string
	switch {
	case i.Member != nil && i.Member.User != nil:
		authorID = i.Member.User.ID
	case i.User != nil:
		authorID = i.User.ID
	}
	msg := message.NewInteraction(authorID, data.Name, NewChannel(s, i.ChannelID, i.GuildID, ""), NewInteraction(s, i))
	msg.Origin = message.Origin{ChannelID: i.ChannelID, GuildID: i.GuildID, Private: i.GuildID == ""}
	return msg, true
}
