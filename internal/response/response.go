// Package response defines the reply value produced by commands and the
// fluent builder commands use to assemble it.
package response

import "github.com/bwmarrin/discordgo"

// Status is the outcome of a command execution.
type Status int

const (
	Success Status = iota
	Error
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Response is an immutable reply. The embed, when present, must be treated
// as read-only by transports.
type Response struct {
	status  Status
	content string
	embed   *discordgo.MessageEmbed
}

// New returns a plain response without a rich payload.
func New(status Status, content string) *Response {
	return &Response{status: status, content: content}
}

// Text is shorthand for a successful plain-text response.
func Text(content string) *Response {
	return New(Success, content)
}

func (r *Response) Status() Status                { return r.status }
func (r *Response) Content() string               { return r.content }
func (r *Response) Embed() *discordgo.MessageEmbed { return r.embed }
func (r *Response) IsSuccess() bool               { return r.status == Success }

// HasEmbed reports whether the response carries a rich payload.
func (r *Response) HasEmbed() bool { return r.embed != nil }
