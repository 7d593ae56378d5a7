// Package registry holds the statically configured, priority-ordered list of
// generation backends. A Registry is immutable once built and safe for
// concurrent readers.
package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/MadScientist85/Ai-Web-App/internal/provider"
)

var (
	ErrNoProviders     = errors.New("registry: at least one provider is required")
	ErrUnknownFamily   = errors.New("registry: unknown provider family")
	ErrDuplicateName   = errors.New("registry: duplicate provider name")
	ErrUnknownDefault  = errors.New("registry: default provider is not declared")
	ErrInvalidProvider = errors.New("registry: invalid provider")
)

// Endpoint is where a provider is reached and which environment variable
// carries its credential.
type Endpoint struct {
	BaseURL       string `json:"base_url,omitempty"`
	CredentialEnv string `json:"credential_env"`
}

// Provider is one configured backend.
type Provider struct {
	Name     string          `json:"name"`
	ModelID  string          `json:"model"`
	Family   string          `json:"family"`
	Endpoint Endpoint        `json:"endpoint"`
	Priority int             `json:"priority"`
	Client   provider.Client `json:"-"`
}

type Registry struct {
	providers   []Provider
	credentials map[string]string
	defaultName string
}

type Option func(*options)

type options struct {
	lookupEnv   func(string) (string, bool)
	factories   map[string]Factory
	defaultName string
}

// WithLookupEnv replaces os.LookupEnv as the credential source.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(o *options) { o.lookupEnv = fn }
}

// WithFactory registers or overrides the client factory for a family.
func WithFactory(family string, f Factory) Option {
	return func(o *options) { o.factories[family] = f }
}

// WithDefault designates the provider returned by FirstConfigured when no
// provider has a credential. Without it the first provider in priority
// order is the default.
func WithDefault(name string) Option {
	return func(o *options) { o.defaultName = name }
}

// New validates specs, resolves credentials once and builds one client per
// provider. Providers are ordered by ascending priority; declaration order
// breaks ties.
func New(specs []Spec, opts ...Option) (*Registry, error) {
	if len(specs) == 0 {
		return nil, ErrNoProviders
	}

	o := options{
		lookupEnv: os.LookupEnv,
		factories: DefaultFactories(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		providers:   make([]Provider, 0, len(specs)),
		credentials: make(map[string]string, len(specs)),
	}

	for i, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: providers[%d]: name is required", ErrInvalidProvider, i)
		}
		if s.Model == "" {
			return nil, fmt.Errorf("%w: providers[%d] (%s): model is required", ErrInvalidProvider, i, s.Name)
		}
		if _, dup := r.credentials[s.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
		}
		factory, ok := o.factories[s.Family]
		if !ok {
			return nil, fmt.Errorf("%w: providers[%d] (%s): %q", ErrUnknownFamily, i, s.Name, s.Family)
		}

		var credential string
		if s.CredentialEnv != "" {
			credential, _ = o.lookupEnv(s.CredentialEnv)
		}
		r.credentials[s.Name] = credential

		r.providers = append(r.providers, Provider{
			Name:     s.Name,
			ModelID:  s.Model,
			Family:   s.Family,
			Endpoint: Endpoint{BaseURL: s.BaseURL, CredentialEnv: s.CredentialEnv},
			Priority: s.Priority,
			Client:   factory(credential, s.BaseURL),
		})
	}

	sort.SliceStable(r.providers, func(i, j int) bool {
		return r.providers[i].Priority < r.providers[j].Priority
	})

	r.defaultName = o.defaultName
	if r.defaultName == "" {
		r.defaultName = r.providers[0].Name
	}
	if _, ok := r.credentials[r.defaultName]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefault, r.defaultName)
	}

	return r, nil
}

// ListOrdered returns all providers by ascending priority. The slice is a
// copy; callers may not affect the registry through it.
func (r *Registry) ListOrdered() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// IsConfigured reports whether p's credential resolved to a non-empty value.
func (r *Registry) IsConfigured(p Provider) bool {
	return r.credentials[p.Name] != ""
}

// FirstConfigured returns the highest-priority configured provider, or the
// designated default when none is configured. Calls against an unconfigured
// default fail downstream with the vendor's authentication error.
func (r *Registry) FirstConfigured() Provider {
	for _, p := range r.providers {
		if r.IsConfigured(p) {
			return p
		}
	}
	return r.Default()
}

func (r *Registry) Default() Provider {
	p, _ := r.Lookup(r.defaultName)
	return p
}

func (r *Registry) Lookup(name string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}
