package claude

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/MadScientist85/Ai-Web-App/internal/provider"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	defaultMaxTokens = 4096
)

type Client struct {
	client anthropic.Client
}

type Option func(*config)

type config struct {
	httpClient *http.Client
}

func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) { cfg.httpClient = c }
}

func New(apiKey, baseURL string, opts ...Option) *Client {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &Client{client: anthropic.NewClient(reqOpts...)}
}

func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	resp, err := c.client.Messages.New(ctx, mapRequest(req))
	if err != nil {
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("claude api returned no content")
	}

	return &provider.Response{
		Content:      text.String(),
		Model:        string(resp.Model),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// mapRequest moves system-role messages into the system parameter, since
// the Messages API only accepts user and assistant turns.
func mapRequest(req *provider.Request) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	if req.System != "" {
		system = append(system, anthropic.TextBlockParam{Text: req.System})
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case provider.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case provider.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(maxTokens),
		System:      system,
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
}
