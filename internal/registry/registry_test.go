package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadScientist85/Ai-Web-App/internal/provider"
	"github.com/MadScientist85/Ai-Web-App/internal/provider/claude"
	"github.com/MadScientist85/Ai-Web-App/internal/provider/gemini"
	"github.com/MadScientist85/Ai-Web-App/internal/provider/mock"
	"github.com/MadScientist85/Ai-Web-App/internal/provider/openai"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func names(ps []Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestListOrdered_ByPriority(t *testing.T) {
	specs := []Spec{
		{Name: "xai", Model: "grok-beta", Family: FamilyOpenAI, CredentialEnv: "XAI_API_KEY", Priority: 4},
		{Name: "openai", Model: "gpt-4o", Family: FamilyOpenAI, CredentialEnv: "OPENAI_API_KEY", Priority: 1},
		{Name: "groq", Model: "llama-3.1-70b-versatile", Family: FamilyOpenAI, CredentialEnv: "GROQ_API_KEY", Priority: 3},
		{Name: "openrouter", Model: "openai/gpt-4o", Family: FamilyOpenAI, CredentialEnv: "OPENROUTER_API_KEY", Priority: 2},
	}

	r, err := New(specs, WithLookupEnv(envFrom(nil)))
	require.NoError(t, err)

	assert.Equal(t, []string{"openai", "openrouter", "groq", "xai"}, names(r.ListOrdered()))
}

func TestListOrdered_StableOnTies(t *testing.T) {
	specs := []Spec{
		{Name: "b", Model: "m", Family: FamilyOpenAI, Priority: 1},
		{Name: "a", Model: "m", Family: FamilyOpenAI, Priority: 1},
		{Name: "c", Model: "m", Family: FamilyOpenAI, Priority: 0},
	}

	r, err := New(specs, WithLookupEnv(envFrom(nil)))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"c", "b", "a"}, names(r.ListOrdered()))
	}
}

func TestListOrdered_ReturnsCopy(t *testing.T) {
	r, err := New(DefaultSpecs(), WithLookupEnv(envFrom(nil)))
	require.NoError(t, err)

	first := r.ListOrdered()
	first[0].Name = "mutated"
	first[1] = Provider{}

	assert.Equal(t, "openai", r.ListOrdered()[0].Name)
	assert.Equal(t, "openrouter", r.ListOrdered()[1].Name)
}

func TestIsConfigured(t *testing.T) {
	r, err := New(DefaultSpecs(), WithLookupEnv(envFrom(map[string]string{
		"OPENAI_API_KEY": "",
		"GROQ_API_KEY":   "gsk-test",
	})))
	require.NoError(t, err)

	openaiP, _ := r.Lookup("openai")
	groqP, _ := r.Lookup("groq")
	xaiP, _ := r.Lookup("xai")

	assert.False(t, r.IsConfigured(openaiP), "empty credential is not configured")
	assert.True(t, r.IsConfigured(groqP))
	assert.False(t, r.IsConfigured(xaiP), "missing credential is not configured")
	assert.False(t, r.IsConfigured(Provider{Name: "unknown"}))
}

func TestFirstConfigured(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"highest priority wins", map[string]string{"OPENAI_API_KEY": "sk", "XAI_API_KEY": "xai"}, "openai"},
		{"skips unconfigured", map[string]string{"GROQ_API_KEY": "gsk", "XAI_API_KEY": "xai"}, "groq"},
		{"lowest only", map[string]string{"GEMINI_API_KEY": "g"}, "gemini"},
		{"none falls back to default", nil, DefaultProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(DefaultSpecs(), WithLookupEnv(envFrom(tt.env)), WithDefault(DefaultProvider))
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.FirstConfigured().Name)
		})
	}
}

func TestFirstConfigured_ExplicitDefault(t *testing.T) {
	r, err := New(DefaultSpecs(), WithLookupEnv(envFrom(nil)), WithDefault("groq"))
	require.NoError(t, err)

	p := r.FirstConfigured()
	assert.Equal(t, "groq", p.Name)
	assert.False(t, r.IsConfigured(p))
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		specs   []Spec
		opts    []Option
		wantErr error
	}{
		{"empty", nil, nil, ErrNoProviders},
		{"missing name", []Spec{{Model: "m", Family: FamilyOpenAI}}, nil, ErrInvalidProvider},
		{"missing model", []Spec{{Name: "a", Family: FamilyOpenAI}}, nil, ErrInvalidProvider},
		{"duplicate", []Spec{
			{Name: "a", Model: "m", Family: FamilyOpenAI},
			{Name: "a", Model: "m2", Family: FamilyOpenAI},
		}, nil, ErrDuplicateName},
		{"unknown family", []Spec{{Name: "a", Model: "m", Family: "cohere"}}, nil, ErrUnknownFamily},
		{"unknown default", []Spec{{Name: "a", Model: "m", Family: FamilyOpenAI}}, []Option{WithDefault("b")}, ErrUnknownDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.specs, append(tt.opts, WithLookupEnv(envFrom(nil)))...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_FamilyClients(t *testing.T) {
	r, err := New(DefaultSpecs(), WithLookupEnv(envFrom(nil)))
	require.NoError(t, err)

	for _, p := range r.ListOrdered() {
		switch p.Family {
		case FamilyOpenAI:
			assert.IsType(t, &openai.Client{}, p.Client, p.Name)
		case FamilyAnthropic:
			assert.IsType(t, &claude.Client{}, p.Client, p.Name)
		case FamilyGemini:
			assert.IsType(t, &gemini.Client{}, p.Client, p.Name)
		default:
			t.Errorf("unexpected family %q", p.Family)
		}
	}
}

func TestNew_WithFactory(t *testing.T) {
	var gotKey, gotURL string
	m := mock.New()
	factory := func(apiKey, baseURL string) provider.Client {
		gotKey, gotURL = apiKey, baseURL
		return m
	}

	r, err := New([]Spec{
		{Name: "local", Model: "llama3", Family: "ollama", BaseURL: "http://localhost:11434/v1", CredentialEnv: "LOCAL_KEY"},
	}, WithLookupEnv(envFrom(map[string]string{"LOCAL_KEY": "secret"})), WithFactory("ollama", factory))
	require.NoError(t, err)

	p := r.FirstConfigured()
	assert.Equal(t, "local", p.Name)
	assert.Same(t, m, p.Client)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "http://localhost:11434/v1", gotURL)
}

func TestDefaultSpecs(t *testing.T) {
	r, err := New(DefaultSpecs(), WithLookupEnv(envFrom(nil)))
	require.NoError(t, err)

	want := []struct{ name, model, baseURL, env string }{
		{"openai", "gpt-4o", "", "OPENAI_API_KEY"},
		{"openrouter", "openai/gpt-4o", "https://openrouter.ai/api/v1", "OPENROUTER_API_KEY"},
		{"groq", "llama-3.1-70b-versatile", "https://api.groq.com/openai/v1", "GROQ_API_KEY"},
		{"xai", "grok-beta", "https://api.x.ai/v1", "XAI_API_KEY"},
		{"anthropic", "claude-3-5-sonnet-20241022", "", "ANTHROPIC_API_KEY"},
		{"gemini", "gemini-2.0-flash", "", "GEMINI_API_KEY"},
	}

	got := r.ListOrdered()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.name, got[i].Name)
		assert.Equal(t, w.model, got[i].ModelID)
		assert.Equal(t, w.baseURL, got[i].Endpoint.BaseURL)
		assert.Equal(t, w.env, got[i].Endpoint.CredentialEnv)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TEST_GATEWAY_URL", "http://gateway.internal/v1")

	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `
default: primary
providers:
  - name: secondary
    model: llama-3.1-70b-versatile
    family: openai
    base_url: ${TEST_GATEWAY_URL}
    credential_env: SECONDARY_KEY
    priority: 2
  - name: primary
    model: gpt-4o
    family: openai
    credential_env: PRIMARY_KEY
    priority: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "primary", f.Default)
	require.Len(t, f.Providers, 2)
	assert.Equal(t, "http://gateway.internal/v1", f.Providers[0].BaseURL)

	r, err := New(f.Providers, WithDefault(f.Default), WithLookupEnv(envFrom(map[string]string{"SECONDARY_KEY": "k"})))
	require.NoError(t, err)
	assert.Equal(t, []string{"primary", "secondary"}, names(r.ListOrdered()))
	assert.Equal(t, "secondary", r.FirstConfigured().Name)
	assert.Equal(t, "primary", r.Default().Name)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("providers: []\n"), 0o600))
	_, err = LoadFile(empty)
	assert.ErrorIs(t, err, ErrNoProviders)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("providers: [:\n"), 0o600))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}
