package discord

import (
	"context"
	"strconv"
	"sync"

	"cyborgian/internal/message"
	"cyborgian/internal/response"

	"github.com/bwmarrin/discordgo"
)

// Interaction wraps an application command interaction. It remembers
// whether the interaction was acknowledged, by a deferral or a response.
type Interaction struct {
	s Session
	i *discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

var _ message.Interaction = (*Interaction)(nil)

func NewInteraction(s Session, i *discordgo.Interaction) *Interaction {
	return &Interaction{s: s, i: i}
}

// Defer acknowledges the interaction; the reply follows as an edit.
func (it *Interaction) Defer(ctx context.Context) error {
	err := it.s.InteractionRespond(it.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err == nil {
		it.markResponded()
	}
	return err
}

func (it *Interaction) Respond(ctx context.Context, r *response.Response, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: r.Content()}
	if r.HasEmbed() {
		data.Embeds = []*discordgo.MessageEmbed{r.Embed()}
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := it.s.InteractionRespond(it.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	if err == nil {
		it.markResponded()
	}
	return err
}

// ModifyOriginalResponse replaces content and embeds of the original
// response.
func (it *Interaction) ModifyOriginalResponse(ctx context.Context, r *response.Response) error {
	content := r.Content()
	embeds := []*discordgo.MessageEmbed{}
	if r.HasEmbed() {
		embeds = append(embeds, r.Embed())
	}
	_, err := it.s.InteractionResponseEdit(it.i, &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	}, discordgo.WithContext(ctx))
	return err
}

func (it *Interaction) FollowUp(ctx context.Context, r *response.Response) error {
	params := &discordgo.WebhookParams{Content: r.Content()}
	if r.HasEmbed() {
		params.Embeds = []*discordgo.MessageEmbed{r.Embed()}
	}
	_, err := it.s.FollowupMessageCreate(it.i, true, params, discordgo.WithContext(ctx))
	return err
}

func (it *Interaction) HasResponded() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.responded
}

func (it *Interaction) markResponded() {
	it.mu.Lock()
	it.responded = true
	it.mu.Unlock()
}

// Options renders the top-level options of the invocation as text.
func (it *Interaction) Options() []message.Option {
	if it.i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	return options(it.i.ApplicationCommandData().Options)
}

func options(opts []*discordgo.ApplicationCommandInteractionDataOption) []message.Option {
	out := make([]message.Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, message.Option{Name: o.Name, Value: optionValue(o)})
	}
	return out
}

func optionValue(o *discordgo.ApplicationCommandInteractionDataOption) string {
	switch o.Type {
	case discordgo.ApplicationCommandOptionString:
		return o.StringValue()
	case discordgo.ApplicationCommandOptionInteger:
		return strconv.FormatInt(o.IntValue(), 10)
	case discordgo.ApplicationCommandOptionNumber:
		return strconv.FormatFloat(o.FloatValue(), 'f', -1, 64)
	case discordgo.ApplicationCommandOptionBoolean:
		return strconv.FormatBool(o.BoolValue())
	default:
		if s, ok := o.Value.(string); ok {
			return s
		}
		return ""
	}
}
