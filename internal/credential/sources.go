package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"gemini-chat/internal/integrations/paramstore"
)

// EnvSource reads the key from the process environment.
type EnvSource struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

func (EnvSource) Name() string { return "environment" }

func (s EnvSource) Lookup(_ context.Context, key string) (string, error) {
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// tokenPayload is the optional JSON shape of a stored parameter value.
type tokenPayload struct {
	Token string `json:"token"`
}

// ParamStoreSource reads the key from a single SSM parameter. The parameter
// holds either the raw secret or {"token": "..."}.
type ParamStoreSource struct {
	Getter    paramstore.Getter
	Parameter string
}

func (s ParamStoreSource) Name() string { return "parameter store " + s.Parameter }

func (s ParamStoreSource) Lookup(ctx context.Context, key string) (string, error) {
	if s.Getter == nil {
		return "", errors.New("credential: paramstore getter is nil")
	}
	if strings.TrimSpace(s.Parameter) == "" {
		return "", errors.New("credential: parameter name is empty")
	}
	raw, err := s.Getter.GetParameter(ctx, s.Parameter)
	if errors.Is(err, paramstore.ErrParameterNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		if raw == "" {
			return "", ErrNotFound
		}
		return raw, nil
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", &ConfigurationError{Key: key, Source: s.Name(), Reason: "unmarshal parameter value as JSON", Err: err}
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", ErrNotFound
	}
	return tp.Token, nil
}

// FileSource reads the key from a TOML secrets file. A missing file is not an
// error; a file that fails to parse is.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "secrets file " + s.Path }

func (s FileSource) Lookup(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &ConfigurationError{Key: key, Source: s.Name(), Reason: "read file", Err: err}
	}

	var values map[string]any
	if _, err := toml.Decode(string(data), &values); err != nil {
		return "", &ConfigurationError{Key: key, Source: s.Name(), Reason: "parse file", Err: err}
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	str, ok := v.(string)
	if !ok {
		return "", &ConfigurationError{Key: key, Source: s.Name(), Reason: fmt.Sprintf("value is %T, want string", v)}
	}
	if strings.TrimSpace(str) == "" {
		return "", ErrNotFound
	}
	return str, nil
}
