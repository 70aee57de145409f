// Package bootstrap wires configuration into the credential resolver and the
// Gemini client for both entry points.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"gemini-chat/internal/config"
	"gemini-chat/internal/credential"
	"gemini-chat/internal/integrations/gemini"
	"gemini-chat/internal/integrations/paramstore"
)

// ResolveAPIKey resolves the API key from the environment, then the parameter
// store when PARAM_PREFIX is set, then the secrets file. Resolution errors are
// *credential.ConfigurationError. AWS configuration is only loaded if the
// parameter store is actually consulted.
func ResolveAPIKey(ctx context.Context, cfg config.Config) (string, error) {
	var getter paramstore.Getter
	if cfg.APIKeyParameter() != "" {
		getter = &lazyParamStore{load: loadParamStore}
	}

	resolver, err := credential.NewResolver(config.APIKeyName, sources(cfg, getter)...)
	if err != nil {
		return "", fmt.Errorf("bootstrap: %w", err)
	}
	return resolver.Resolve(ctx)
}

// lazyParamStore builds its SSM client on the first GetParameter call.
type lazyParamStore struct {
	load func(ctx context.Context) (paramstore.Getter, error)

	once   sync.Once
	getter paramstore.Getter
	err    error
}

func (l *lazyParamStore) GetParameter(ctx context.Context, name string) (string, error) {
	l.once.Do(func() {
		l.getter, l.err = l.load(ctx)
	})
	if l.err != nil {
		return "", l.err
	}
	return l.getter.GetParameter(ctx, name)
}

func loadParamStore(ctx context.Context) (paramstore.Getter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load AWS config: %w", err)
	}
	client, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create SSM client: %w", err)
	}
	return client, nil
}

func sources(cfg config.Config, getter paramstore.Getter) []credential.Source {
	out := []credential.Source{credential.EnvSource{}}
	if getter != nil && cfg.APIKeyParameter() != "" {
		out = append(out, credential.ParamStoreSource{Getter: getter, Parameter: cfg.APIKeyParameter()})
	}
	return append(out, credential.FileSource{Path: cfg.SecretsFile})
}

// NewChatClient creates the Gemini client from cfg.
func NewChatClient(cfg config.Config, apiKey string) (*gemini.Client, error) {
	return gemini.NewClient(apiKey, cfg.Model,
		gemini.WithBaseURL(cfg.BaseURL),
		gemini.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
}
