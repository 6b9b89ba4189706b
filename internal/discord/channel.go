package discord

import (
	"context"
	"fmt"

	"cyborgian/internal/message"
	"cyborgian/internal/response"

	"github.com/bwmarrin/discordgo"
)

// Channel sends replies to a text channel. Private replies to guild
// messages go to the author's direct messages instead.
type Channel struct {
	s         Session
	channelID string
	guildID   string
	messageID string
}

var _ message.Channel = (*Channel)(nil)

// NewChannel returns the channel of a message. messageID, when set, is
// referenced by public replies.
func NewChannel(s Session, channelID, guildID, messageID string) *Channel {
	return &Channel{s: s, channelID: channelID, guildID: guildID, messageID: messageID}
}

func (c *Channel) ReplyTo(ctx context.Context, m *message.Message, r *response.Response, public bool) error {
	if !public && c.guildID != "" {
		dm, err := c.s.UserChannelCreate(m.AuthorID, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("open direct message channel: %w", err)
		}
		return c.send(ctx, dm.ID, messageSend(r, nil))
	}
	var ref *discordgo.MessageReference
	if c.messageID != "" {
		ref = &discordgo.MessageReference{MessageID: c.messageID, ChannelID: c.channelID, GuildID: c.guildID}
	}
	return c.send(ctx, c.channelID, messageSend(r, ref))
}

func (c *Channel) Write(ctx context.Context, r *response.Response) error {
	return c.send(ctx, c.channelID, messageSend(r, nil))
}

func (c *Channel) send(ctx context.Context, channelID string, data *discordgo.MessageSend) error {
	if _, err := c.s.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return nil
}

func messageSend(r *response.Response, ref *discordgo.MessageReference) *discordgo.MessageSend {
	data := &discordgo.MessageSend{Content: r.Content(), Reference: ref}
	if r.HasEmbed() {
		data.Embeds = []*discordgo.MessageEmbed{r.Embed()}
	}
	return data
}
