package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MadScientist85/Ai-Web-App/internal/provider"
	"github.com/MadScientist85/Ai-Web-App/internal/provider/claude"
	"github.com/MadScientist85/Ai-Web-App/internal/provider/gemini"
	"github.com/MadScientist85/Ai-Web-App/internal/provider/openai"
)

// Backend families.
const (
	FamilyOpenAI    = "openai"
	FamilyAnthropic = "anthropic"
	FamilyGemini    = "gemini"
)

// Spec is the static declaration of one provider.
type Spec struct {
	Name          string `yaml:"name"`
	Model         string `yaml:"model"`
	Family        string `yaml:"family"`
	BaseURL       string `yaml:"base_url"`
	CredentialEnv string `yaml:"credential_env"`
	Priority      int    `yaml:"priority"`
}

// File is the on-disk provider table.
type File struct {
	Default   string `yaml:"default"`
	Providers []Spec `yaml:"providers"`
}

// Factory builds the generation client for a provider from its resolved
// credential and base URL.
type Factory func(apiKey, baseURL string) provider.Client

func DefaultFactories() map[string]Factory {
	return map[string]Factory{
		FamilyOpenAI: func(apiKey, baseURL string) provider.Client {
			return openai.New(apiKey, baseURL)
		},
		FamilyAnthropic: func(apiKey, baseURL string) provider.Client {
			return claude.New(apiKey, baseURL)
		},
		FamilyGemini: func(apiKey, baseURL string) provider.Client {
			return gemini.New(apiKey, baseURL)
		},
	}
}

// DefaultProvider is the designated fallback target of DefaultSpecs.
const DefaultProvider = "openai"

// DefaultSpecs is the built-in provider table.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: "openai", Model: "gpt-4o", Family: FamilyOpenAI, CredentialEnv: "OPENAI_API_KEY", Priority: 1},
		{Name: "openrouter", Model: "openai/gpt-4o", Family: FamilyOpenAI, BaseURL: "https://openrouter.ai/api/v1", CredentialEnv: "OPENROUTER_API_KEY", Priority: 2},
		{Name: "groq", Model: "llama-3.1-70b-versatile", Family: FamilyOpenAI, BaseURL: "https://api.groq.com/openai/v1", CredentialEnv: "GROQ_API_KEY", Priority: 3},
		{Name: "xai", Model: "grok-beta", Family: FamilyOpenAI, BaseURL: "https://api.x.ai/v1", CredentialEnv: "XAI_API_KEY", Priority: 4},
		{Name: "anthropic", Model: "claude-3-5-sonnet-20241022", Family: FamilyAnthropic, CredentialEnv: "ANTHROPIC_API_KEY", Priority: 5},
		{Name: "gemini", Model: "gemini-2.0-flash", Family: FamilyGemini, CredentialEnv: "GEMINI_API_KEY", Priority: 6},
	}
}

// LoadFile reads a YAML provider table. ${VAR} references are expanded
// before parsing.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("registry: read providers file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return File{}, fmt.Errorf("registry: parse providers file: %w", err)
	}
	if len(f.Providers) == 0 {
		return File{}, ErrNoProviders
	}
	return f, nil
}
