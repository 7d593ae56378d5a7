package provider

import (
	"context"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Request struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// Probe marks a health check. Clients send it like any other request.
	Probe bool
}

const (
	ProbePrompt    = "test"
	ProbeMaxTokens = 1
)

// NewProbe returns the minimal request used to check that model answers.
func NewProbe(model string, temperature float64) *Request {
	return &Request{
		Model:       model,
		Messages:    []Message{{Role: RoleUser, Content: ProbePrompt}},
		MaxTokens:   ProbeMaxTokens,
		Temperature: temperature,
		Probe:       true,
	}
}

type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

type Response struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Client is a generation backend. One implementation exists per vendor family;
// the registry binds a Client to every configured provider.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req *Request) (*Response, error)

func (f ClientFunc) Generate(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
