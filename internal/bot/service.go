// Package bot runs inbound messages through the command registry and
// delivers the results.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"cyborgian/internal/apperr"
	"cyborgian/internal/command"
	"cyborgian/internal/message"
	"cyborgian/internal/response"
	"cyborgian/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MsgUnknownCommand is the reply to an interaction nobody handles.
const MsgUnknownCommand = "Hmm...That didn't work. I don't know what to do. This is not intended. Please contact BotAdmin to get this fixed."

const usageTimeout = 5 * time.Second

// UsageStore persists one row per handled message.
type UsageStore interface {
	RecordUsage(ctx context.Context, rec storage.UsageRecord) error
}

// Stopper is a dependency stopped on Shutdown, after the registry token
// fired.
type Stopper interface {
	Shutdown()
}

type Config struct {
	Registry       *command.Registry
	Usage          UsageStore
	Stoppers       []Stopper
	PrimaryGuildID string
	Logger         zerolog.Logger
}

// Service handles messages concurrently, one goroutine per message.
type Service struct {
	cfg     Config
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func New(cfg Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "bot").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
	return s
}

// Submit handles m in the background. Messages submitted after Shutdown
// are dropped.
func (s *Service) Submit(m *message.Message) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				s.log.Error().
					Str("panic", fmt.Sprint(p)).
					Str("stack", string(debug.Stack())).
					Str("content", m.Content).
					Msg("Recovered from panic while processing message")
			}
		}()
		s.Handle(s.ctx, m)
	}()
}

// Handle processes one message synchronously.
func (s *Service) Handle(ctx context.Context, m *message.Message) {
	if !relevant(m) {
		return
	}
	traceID := uuid.NewString()
	log := s.log.With().Str("trace_id", traceID).Str("trigger", m.Trigger()).Logger()
	start := time.Now()

	var (
		resp *response.Response
		err  error
	)
	// A separator followed by a space leaves no trigger to resolve.
	if m.Trigger() != "" {
		resp, err = s.cfg.Registry.Execute(ctx, m)
	}
	status := "success"
	switch {
	case err != nil:
		status = "failed"
		log.Error().Err(err).Str("content", m.Content).Msg("Unexpected error while processing message")
		s.reply(ctx, log, m, response.New(response.Error, apperr.UserMessage(err)))
	case resp == nil:
		status = "unknown"
		log.Warn().Str("content", m.Content).Msg("Unknown command trigger")
		if m.IsInteraction() {
			s.reply(ctx, log, m, response.Text(MsgUnknownCommand))
		}
	default:
		if !resp.IsSuccess() {
			status = "error"
		}
		if !m.HasResponded() {
			s.reply(ctx, log, m, resp)
		}
	}

	s.record(ctx, log, m, traceID, status, time.Since(start))
}

func (s *Service) reply(ctx context.Context, log zerolog.Logger, m *message.Message, r *response.Response) {
	if err := m.Reply(ctx, r, true); err != nil {
		log.Error().Err(err).Msg("Failed to deliver reply")
	}
}

func (s *Service) record(ctx context.Context, log zerolog.Logger, m *message.Message, traceID, status string, took time.Duration) {
	if s.cfg.Usage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageTimeout)
	defer cancel()

	primary := s.cfg.PrimaryGuildID != "" && m.Origin.GuildID == s.cfg.PrimaryGuildID
	rec := storage.UsageRecord{
		TraceID:        traceID,
		Timestamp:      time.Now(),
		UserID:         m.AuthorID,
		ChannelID:      m.Origin.ChannelID,
		GuildID:        m.Origin.GuildID,
		IsDM:           m.Origin.Private,
		IsPrimaryGuild: primary,
		CommandType:    m.Kind().String(),
		Command:        usageText(m),
		Status:         status,
		CompleteTime:   took,
	}
	if err := s.cfg.Usage.RecordUsage(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("Failed to record command usage")
	}
}

// Shutdown cancels running commands, stops the dependencies and waits for
// in-flight messages.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.log.Info().Msg("Shutting down")
	s.cfg.Registry.Cancel()
	for _, st := range s.cfg.Stoppers {
		st.Shutdown()
	}
	s.wg.Wait()
	s.cancel()
	s.log.Info().Msg("All handlers finished")
}

func relevant(m *message.Message) bool {
	return m != nil && strings.TrimSpace(m.Content) != ""
}

// usageText is the content of a free-text message, or the command name
// followed by "name: value" for every option of an interaction.
func usageText(m *message.Message) string {
	if !m.IsInteraction() {
		return m.Content
	}
	var sb strings.Builder
	sb.WriteString(m.Content)
	for _, o := range m.Interaction().Options() {
		fmt.Fprintf(&sb, " %s: %s", o.Name, o.Value)
	}
	return sb.String()
}
