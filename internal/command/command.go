// Package command defines the command contract, the descriptors commands
// are registered with and the registry that resolves and runs them.
package command

import (
	"context"
	"strings"

	"cyborgian/internal/message"
	"cyborgian/internal/response"

	"github.com/bwmarrin/discordgo"
)

// Command is a unit of business logic. Execute may block on requests to
// the gateway; it reports user-facing failures as Error responses and
// returns an error only for unexpected failures.
type Command interface {
	Execute(ctx context.Context, m *message.Message) (*response.Response, error)
	SetCancellationToken(token context.Context)
}

// Factory builds a fresh command instance for one invocation.
type Factory func() Command

// Param is a typed parameter of a slash command.
type Param struct {
	Name        string
	Description string
	Type        discordgo.ApplicationCommandOptionType
	Required    bool
}

// SlashMeta describes how a command is published as a slash command.
// Global commands are registered for every guild, the rest only on the
// primary guild.
type SlashMeta struct {
	Name        string
	Description string
	Params      []Param
	Global      bool
}

// Descriptor binds triggers to a command factory. It is immutable once
// registered.
type Descriptor struct {
	Factory     Factory
	Triggers    []string
	Description string
	Category    string
	Slash       *SlashMeta
}

// Name is the slash name if any, otherwise the first trigger.
func (d *Descriptor) Name() string {
	if d.Slash != nil && d.Slash.Name != "" {
		return d.Slash.Name
	}
	if len(d.Triggers) == 0 {
		return ""
	}
	return d.Triggers[0]
}

// Matches reports whether trigger is one of the descriptor's triggers.
// Matching is exact and case-sensitive.
func (d *Descriptor) Matches(trigger string) bool {
	for _, t := range d.Triggers {
		if t == trigger {
			return true
		}
	}
	return false
}

// Summary is the description shown in help output.
func (d *Descriptor) Summary() string {
	if d.Description != "" {
		return d.Description
	}
	if d.Slash != nil {
		return d.Slash.Description
	}
	return ""
}

func (d *Descriptor) clone() *Descriptor {
	c := *d
	c.Triggers = append([]string(nil), d.Triggers...)
	if d.Slash != nil {
		s := *d.Slash
		s.Params = append([]Param(nil), d.Slash.Params...)
		c.Slash = &s
	}
	return &c
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Base carries the cancellation token bound by the registry. Commands
// embed it to satisfy SetCancellationToken.
type Base struct {
	token context.Context
}

func (b *Base) SetCancellationToken(token context.Context) { b.token = token }

// Token returns the bound token, or a never-cancelled context.
func (b *Base) Token() context.Context {
	if b.token == nil {
		return context.Background()
	}
	return b.token
}

// Scope derives the context for one invocation. It is cancelled when ctx
// is done or when the bound token fires, whichever comes first.
func (b *Base) Scope(ctx context.Context) (context.Context, context.CancelFunc) {
	scoped, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(b.Token(), cancel)
	return scoped, func() {
		stop()
		cancel()
	}
}
