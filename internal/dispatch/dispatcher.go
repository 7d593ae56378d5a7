// Package dispatch walks the provider registry in priority order and returns
// the first successful generation.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MadScientist85/Ai-Web-App/internal/provider"
	"github.com/MadScientist85/Ai-Web-App/internal/registry"
)

const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7
)

// Candidates is the part of the registry the dispatcher reads.
type Candidates interface {
	ListOrdered() []registry.Provider
	IsConfigured(p registry.Provider) bool
}

// Conversation is the caller's request. Nil MaxTokens and Temperature take
// the dispatcher defaults.
type Conversation struct {
	Messages     []provider.Message
	SystemPrompt string
	MaxTokens    *int
	Temperature  *float64
}

type Result struct {
	Content      string
	ProviderName string

	// ModelID is the candidate's configured model. ResponseModel is the
	// model string the vendor reported, which may carry a version suffix.
	ModelID       string
	ResponseModel string
	InputTokens   int
	OutputTokens  int

	// Attempts counts the candidates tried, the winner included.
	Attempts int
}

type Dispatcher struct {
	reg            Candidates
	probeBeforeUse bool
	maxTokens      int
	temperature    float64
	logger         zerolog.Logger
	tracer         trace.Tracer

	breakerSettings *gobreaker.Settings
	mu              sync.Mutex
	breakers        map[string]*gobreaker.CircuitBreaker
}

type Option func(*Dispatcher)

// WithProbeBeforeUse toggles the one-token health probe sent before each
// full call. Enabled by default.
func WithProbeBeforeUse(enabled bool) Option {
	return func(d *Dispatcher) { d.probeBeforeUse = enabled }
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

// WithDefaults overrides the generation parameters used when the
// conversation leaves them unset.
func WithDefaults(maxTokens int, temperature float64) Option {
	return func(d *Dispatcher) {
		d.maxTokens = maxTokens
		d.temperature = temperature
	}
}

// WithCircuitBreaker wraps every provider in its own breaker built from s.
// s.Name is replaced by the provider name. A candidate whose breaker is open
// is recorded as failed without being called.
func WithCircuitBreaker(s gobreaker.Settings) Option {
	return func(d *Dispatcher) { d.breakerSettings = &s }
}

// DefaultBreakerSettings trips after three consecutive failures and retries
// after thirty seconds. Cancellations by the caller do not count.
func DefaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
}

func New(reg Candidates, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:            reg,
		probeBeforeUse: true,
		maxTokens:      DefaultMaxTokens,
		temperature:    DefaultTemperature,
		logger:         zerolog.Nop(),
		tracer:         otel.Tracer("github.com/MadScientist85/Ai-Web-App/internal/dispatch"),
		breakers:       make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Generate tries each candidate in priority order, one at a time, and
// returns the first success. When every candidate fails the error is an
// *ExhaustedError carrying the last failure. A cancelled ctx stops the walk.
func (d *Dispatcher) Generate(ctx context.Context, conv Conversation) (*Result, error) {
	candidates := d.reg.ListOrdered()
	req := d.buildRequest(conv)

	var last AttemptFailure
	attempts := 0
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, d.exhausted(AttemptFailure{ProviderName: p.Name, Cause: err}, attempts)
		}
		attempts++

		resp, err := d.attempt(ctx, p, req)
		if err != nil {
			last = AttemptFailure{ProviderName: p.Name, Cause: err}
			continue
		}

		d.logger.Info().
			Str("event", "attempt_succeeded").
			Str("provider", p.Name).
			Str("model", p.ModelID).
			Str("response_model", resp.Model).
			Int("attempt", attempts).
			Msg("provider succeeded")

		return &Result{
			Content:       resp.Content,
			ProviderName:  p.Name,
			ModelID:       p.ModelID,
			ResponseModel: resp.Model,
			InputTokens:   resp.InputTokens,
			OutputTokens:  resp.OutputTokens,
			Attempts:      attempts,
		}, nil
	}

	return nil, d.exhausted(last, attempts)
}

func (d *Dispatcher) exhausted(last AttemptFailure, attempts int) error {
	err := &ExhaustedError{Last: last, Attempts: attempts}
	d.logger.Error().
		Err(last.Cause).
		Str("provider", last.ProviderName).
		Int("attempts", attempts).
		Msg("all providers failed")
	return err
}

// attempt runs the probe, when enabled, and the full call against one
// candidate.
func (d *Dispatcher) attempt(ctx context.Context, p registry.Provider, req provider.Request) (*provider.Response, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.attempt", trace.WithAttributes(
		attribute.String("provider.name", p.Name),
		attribute.String("provider.model", p.ModelID),
		attribute.Bool("provider.probe", d.probeBeforeUse),
	))
	defer span.End()

	if !d.reg.IsConfigured(p) {
		d.logFailure("attempt_failed", p, ErrNotConfigured)
		span.SetStatus(codes.Error, ErrNotConfigured.Error())
		return nil, ErrNotConfigured
	}

	call := func() (*provider.Response, error) {
		if d.probeBeforeUse {
			if err := d.probe(ctx, p); err != nil {
				d.logFailure("probe_failed", p, err)
				return nil, err
			}
		}
		req.Model = p.ModelID
		resp, err := p.Client.Generate(ctx, &req)
		if err != nil {
			d.logFailure("attempt_failed", p, err)
			return nil, err
		}
		return resp, nil
	}

	resp, err := d.guard(p.Name, call)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			d.logFailure("attempt_failed", p, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("usage.input_tokens", resp.InputTokens),
		attribute.Int("usage.output_tokens", resp.OutputTokens),
	)
	return resp, nil
}

func (d *Dispatcher) probe(ctx context.Context, p registry.Provider) error {
	_, err := p.Client.Generate(ctx, provider.NewProbe(p.ModelID, d.temperature))
	return err
}

func (d *Dispatcher) guard(name string, call func() (*provider.Response, error)) (*provider.Response, error) {
	cb := d.breaker(name)
	if cb == nil {
		return call()
	}
	result, err := cb.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		return nil, err
	}
	return result.(*provider.Response), nil
}

func (d *Dispatcher) breaker(name string) *gobreaker.CircuitBreaker {
	if d.breakerSettings == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	cb, ok := d.breakers[name]
	if !ok {
		s := *d.breakerSettings
		s.Name = name
		cb = gobreaker.NewCircuitBreaker(s)
		d.breakers[name] = cb
	}
	return cb
}

func (d *Dispatcher) logFailure(event string, p registry.Provider, err error) {
	d.logger.Warn().
		Err(err).
		Str("event", event).
		Str("provider", p.Name).
		Str("model", p.ModelID).
		Msg("provider failed, trying next")
}

func (d *Dispatcher) buildRequest(conv Conversation) provider.Request {
	req := provider.Request{
		System:      conv.SystemPrompt,
		Messages:    make([]provider.Message, len(conv.Messages)),
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
	}
	copy(req.Messages, conv.Messages)
	if conv.MaxTokens != nil {
		req.MaxTokens = *conv.MaxTokens
	}
	if conv.Temperature != nil {
		req.Temperature = *conv.Temperature
	}
	return req
}
