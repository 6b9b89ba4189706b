package command

import (
	"context"
	"fmt"

	"cyborgian/internal/apperr"
	"cyborgian/internal/message"
	"cyborgian/internal/response"
)

// Chunk partitions items into consecutive groups whose summed length does
// not exceed limit. An item longer than limit gets a group of its own.
// Order is preserved.
func Chunk(items []string, limit int) [][]string {
	var (
		chunks [][]string
		cur    []string
		size   int
	)
	for _, it := range items {
		if len(cur) > 0 && size+len(it) > limit {
			chunks = append(chunks, cur)
			cur, size = nil, 0
		}
		cur = append(cur, it)
		size += len(it)
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

// RenderFunc builds the response for one chunk.
type RenderFunc func(chunk []string, index int) (*response.Response, error)

// SendChunked renders every chunk, sends all but the last one through the
// message channel in order and returns the last one. Interactions differ:
// the first chunk becomes the original response and every later chunk,
// the last included, is posted as a follow-up, so the returned response is
// already delivered.
func SendChunked(ctx context.Context, m *message.Message, chunks [][]string, render RenderFunc) (*response.Response, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: nothing to send", apperr.ErrInvalidArgument)
	}
	last := len(chunks) - 1
	for i, c := range chunks[:last] {
		r, err := render(c, i)
		if err != nil {
			return nil, err
		}
		if err := sendChunk(ctx, m, r, i); err != nil {
			return nil, fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	r, err := render(chunks[last], last)
	if err != nil || last == 0 || !m.IsInteraction() {
		return r, err
	}
	if err := m.Interaction().FollowUp(ctx, r); err != nil {
		return nil, fmt.Errorf("send chunk %d/%d: %w", last+1, len(chunks), err)
	}
	return r, nil
}

func sendChunk(ctx context.Context, m *message.Message, r *response.Response, index int) error {
	switch {
	case !m.IsInteraction():
		return m.Channel.ReplyTo(ctx, m, r, true)
	case index == 0:
		return m.Reply(ctx, r, true)
	default:
		return m.Interaction().FollowUp(ctx, r)
	}
}
