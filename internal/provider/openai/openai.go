// Package openai implements provider.Client for OpenAI and every vendor that
// speaks the OpenAI chat completions protocol (OpenRouter, Groq, xAI).
package openai

import (
	"context"
	"fmt"
	"net/http"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MadScientist85/Ai-Web-App/internal/provider"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	client  sdk.Client
	baseURL string
}

type Option func(*config)

type config struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) { cfg.httpClient = c }
}

// New builds a client against baseURL, or DefaultBaseURL when empty.
// SDK retries are disabled: a failed call is reported once and the
// dispatcher moves on to the next provider.
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

	return &Client{
		client:  sdk.NewClient(reqOpts...),
		baseURL: baseURL,
	}
}

func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.mapRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openai api error (%s): %w", c.baseURL, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned no choices")
	}

	return &provider.Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func (c *Client) mapRequest(req *provider.Request) sdk.ChatCompletionNewParams {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, sdk.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case provider.RoleSystem:
			messages = append(messages, sdk.SystemMessage(m.Content))
		case provider.RoleAssistant:
			messages = append(messages, sdk.AssistantMessage(m.Content))
		default:
			messages = append(messages, sdk.UserMessage(m.Content))
		}
	}

	params := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(req.Model),
		Messages:    messages,
		Temperature: sdk.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(req.MaxTokens))
	}
	return params
}
