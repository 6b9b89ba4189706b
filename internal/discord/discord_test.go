package discord

import (
	"context"
	"errors"
	"testing"

	"cyborgian/internal/command"
	"cyborgian/internal/message"
	"cyborgian/internal/response"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	channelID string
	data      *discordgo.MessageSend
}

type fakeSession struct {
	sent      []sent
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
	followups []*discordgo.WebhookParams

	remote  map[string][]*discordgo.ApplicationCommand
	created map[string][]string
	edited  map[string][]string
	deleted map[string][]string
	nextID  int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		remote:  make(map[string][]*discordgo.ApplicationCommand),
		created: make(map[string][]string),
		edited:  make(map[string][]string),
		deleted: make(map[string][]string),
	}
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, sent{channelID: channelID, data: data})
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	if len(f.responses) > 0 {
		return errors.New("interaction has already been acknowledged")
	}
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) ApplicationCommands(_, guildID string, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	return f.remote[guildID], nil
}

func (f *fakeSession) ApplicationCommandCreate(_, guildID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.created[guildID] = append(f.created[guildID], cmd.Name)
	return cmd, nil
}

func (f *fakeSession) ApplicationCommandEdit(_, guildID, _ string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.edited[guildID] = append(f.edited[guildID], cmd.Name)
	return cmd, nil
}

func (f *fakeSession) ApplicationCommandDelete(_, guildID, cmdID string, _ ...discordgo.RequestOption) error {
	for _, c := range f.remote[guildID] {
		if c.ID == cmdID {
			f.deleted[guildID] = append(f.deleted[guildID], c.Name)
		}
	}
	return nil
}

type noop struct{ command.Base }

func (noop) Execute(context.Context, *message.Message) (*response.Response, error) { return nil, nil }

func slashDescriptor(name string, global bool, params ...command.Param) *command.Descriptor {
	return &command.Descriptor{
		Factory:  func() command.Command { return &noop{} },
		Triggers: []string{name},
		Slash:    &command.SlashMeta{Name: name, Description: name + " command", Params: params, Global: global},
	}
}

func TestDefinition(t *testing.T) {
	d := slashDescriptor("nation", true, command.Param{
		Name: "name", Description: "Nation name", Type: discordgo.ApplicationCommandOptionString, Required: true,
	})
	def := Definition(d)
	require.NotNil(t, def)
	assert.Equal(t, "nation", def.Name)
	assert.Equal(t, discordgo.ChatApplicationCommand, def.Type)
	require.Len(t, def.Options, 1)
	assert.True(t, def.Options[0].Required)

	assert.Nil(t, Definition(&command.Descriptor{Triggers: []string{"ce"}}))
}

func TestHashIgnoresOptionOrderAndIDs(t *testing.T) {
	a := &discordgo.ApplicationCommand{Name: "x", Description: "d", Type: discordgo.ChatApplicationCommand, Options: []*discordgo.ApplicationCommandOption{
		{Name: "a", Type: discordgo.ApplicationCommandOptionString},
		{Name: "b", Type: discordgo.ApplicationCommandOptionInteger},
	}}
	b := &discordgo.ApplicationCommand{ID: "123", Version: "9", Name: "x", Description: "d", Type: discordgo.ChatApplicationCommand, Options: []*discordgo.ApplicationCommandOption{
		{Name: "b", Type: discordgo.ApplicationCommandOptionInteger},
		{Name: "a", Type: discordgo.ApplicationCommandOptionString},
	}}
	assert.Equal(t, hashCommand(a), hashCommand(b))

	b.Description = "changed"
	assert.NotEqual(t, hashCommand(a), hashCommand(b))
}

func TestSync(t *testing.T) {
	f := newFakeSession()
	ping := Definition(slashDescriptor("ping", true))
	ping.ID = "1"
	f.remote[""] = []*discordgo.ApplicationCommand{
		ping,
		{ID: "2", Name: "about", Description: "stale", Type: discordgo.ChatApplicationCommand},
		{ID: "3", Name: "region", Description: "region command", Type: discordgo.ChatApplicationCommand},
		{ID: "4", Name: "obsolete", Type: discordgo.ChatApplicationCommand},
	}

	descriptors := []*command.Descriptor{
		slashDescriptor("ping", true),
		slashDescriptor("about", true),
		slashDescriptor("nation", true),
		slashDescriptor("region", false),
		{Triggers: []string{"ce"}, Factory: func() command.Command { return &noop{} }},
	}
	y := NewSyncer(f, "app", "guild", zerolog.Nop())
	require.NoError(t, y.Sync(context.Background(), descriptors))

	assert.Equal(t, []string{"nation"}, f.created[""])
	assert.Equal(t, []string{"about"}, f.edited[""])
	assert.ElementsMatch(t, []string{"region", "obsolete"}, f.deleted[""])
	assert.Equal(t, []string{"region"}, f.created["guild"])
}

func TestSyncWithoutPrimaryGuildIsGlobal(t *testing.T) {
	f := newFakeSession()
	y := NewSyncer(f, "app", "", zerolog.Nop())
	require.NoError(t, y.Sync(context.Background(), []*command.Descriptor{
		slashDescriptor("ping", true),
		slashDescriptor("region", false),
	}))
	assert.Equal(t, []string{"ping", "region"}, f.created[""])
	assert.Empty(t, f.created["guild"])
}

func TestChannelPrivateReplyGoesToDM(t *testing.T) {
	f := newFakeSession()
	ctx := context.Background()
	ch := NewChannel(f, "chan", "guild", "msg")
	m := message.NewText("user", "about", ch)

	require.NoError(t, m.ReplyText(ctx, "secret", false))
	require.NoError(t, m.ReplyText(ctx, "hello", true))
	require.NoError(t, ch.Write(ctx, response.Text("chunk")))

	require.Len(t, f.sent, 3)
	assert.Equal(t, "dm-user", f.sent[0].channelID)
	assert.Nil(t, f.sent[0].data.Reference)
	assert.Equal(t, "chan", f.sent[1].channelID)
	require.NotNil(t, f.sent[1].data.Reference)
	assert.Equal(t, "msg", f.sent[1].data.Reference.MessageID)
	assert.Equal(t, "chunk", f.sent[2].data.Content)
}

func TestChannelPrivateReplyInDMStaysThere(t *testing.T) {
	f := newFakeSession()
	m := message.NewText("user", "about", NewChannel(f, "dm", "", "msg"))
	require.NoError(t, m.ReplyText(context.Background(), "secret", false))
	assert.Equal(t, "dm", f.sent[0].channelID)
}

func TestChannelSendsEmbed(t *testing.T) {
	f := newFakeSession()
	r, err := response.NewEmbed().Success().WithTitle("Title").Build()
	require.NoError(t, err)
	require.NoError(t, NewChannel(f, "chan", "", "").Write(context.Background(), r))
	require.Len(t, f.sent[0].data.Embeds, 1)
	assert.Equal(t, "Title", f.sent[0].data.Embeds[0].Title)
}

func commandInteraction(opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "chan",
		GuildID:   "guild",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "user"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:        "nation",
			CommandType: discordgo.ChatApplicationCommand,
			Options:     opts,
		},
	}
}

func TestInteractionReplies(t *testing.T) {
	f := newFakeSession()
	ctx := context.Background()
	m, ok := fromInteraction(f, commandInteraction())
	require.True(t, ok)

	require.NoError(t, m.ReplyText(ctx, "first", false))
	require.NoError(t, m.ReplyText(ctx, "second", true))

	require.Len(t, f.responses, 1)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, f.responses[0].Data.Flags)
	require.Len(t, f.edits, 1)
	assert.Equal(t, "second", *f.edits[0].Content)
}

func TestInteractionDeferThenReply(t *testing.T) {
	f := newFakeSession()
	ctx := context.Background()
	m, ok := fromInteraction(f, commandInteraction())
	require.True(t, ok)

	require.NoError(t, m.Defer(ctx))
	require.NoError(t, m.ReplyText(ctx, "result", true))
	require.Len(t, f.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, f.responses[0].Type)
	require.Len(t, f.edits, 1)
}

func TestInteractionFollowUp(t *testing.T) {
	f := newFakeSession()
	ctx := context.Background()
	m, ok := fromInteraction(f, commandInteraction())
	require.True(t, ok)

	require.NoError(t, m.Defer(ctx))
	require.NoError(t, m.Interaction().FollowUp(ctx, response.Text("more")))
	require.Len(t, f.followups, 1)
	assert.Equal(t, "more", f.followups[0].Content)
	assert.Empty(t, f.followups[0].Embeds)
	assert.Empty(t, f.edits)
}

func TestFromInteraction(t *testing.T) {
	f := newFakeSession()
	m, ok := fromInteraction(f, commandInteraction(
		&discordgo.ApplicationCommandInteractionDataOption{Name: "name", Type: discordgo.ApplicationCommandOptionString, Value: "Testlandia"},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "full", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
	))
	require.True(t, ok)
	assert.True(t, m.IsInteraction())
	assert.Equal(t, "nation", m.Content)
	assert.Equal(t, "user", m.AuthorID)
	assert.Equal(t, message.Origin{ChannelID: "chan", GuildID: "guild"}, m.Origin)
	assert.Equal(t, []string{"Testlandia", "3", "true"}, m.Params())

	_, ok = fromInteraction(f, &discordgo.Interaction{Type: discordgo.InteractionPing})
	assert.False(t, ok)
}

func TestFromMessageCreate(t *testing.T) {
	f := newFakeSession()
	mc := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m", ChannelID: "c", Content: "$nation testlandia", Author: &discordgo.User{ID: "u"},
	}}
	m, ok := fromMessageCreate(f, mc, "$")
	require.True(t, ok)
	assert.Equal(t, "nation testlandia", m.Content)
	assert.False(t, m.IsInteraction())
	assert.True(t, m.Origin.Private)

	mc.Content = "hello"
	_, ok = fromMessageCreate(f, mc, "$")
	assert.False(t, ok)

	mc.Content = "$ping"
	mc.Author.Bot = true
	_, ok = fromMessageCreate(f, mc, "$")
	assert.False(t, ok)
}
