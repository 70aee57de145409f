// Package credential resolves the API secret from a prioritized list of
// sources: process environment, managed secret store, local secrets file.
package credential

import (
	"context"
	"errors"
	"strings"
)

// Source is one place a secret may be stored.
type Source interface {
	// Name describes the source in error messages.
	Name() string
	// Lookup returns the value for key, or ErrNotFound if the source does not
	// have it. Any other error is treated as fatal by the Resolver.
	Lookup(ctx context.Context, key string) (string, error)
}

// Resolver consults its sources in order and returns the first non-empty value.
type Resolver struct {
	key     string
	sources []Source
}

// NewResolver creates a Resolver for key over sources, highest priority first.
func NewResolver(key string, sources ...Source) (*Resolver, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("credential: key must not be empty")
	}
	if len(sources) == 0 {
		return nil, errors.New("credential: at least one source is required")
	}
	for _, s := range sources {
		if s == nil {
			return nil, errors.New("credential: source must not be nil")
		}
	}
	return &Resolver{key: key, sources: sources}, nil
}

// Resolve returns the secret or a *ConfigurationError.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	checked := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		checked = append(checked, s.Name())
		v, err := s.Lookup(ctx, r.key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				return "", cfgErr
			}
			return "", &ConfigurationError{Key: r.key, Source: s.Name(), Reason: "lookup failed", Err: err}
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	return "", &ConfigurationError{Key: r.key, Checked: checked}
}
