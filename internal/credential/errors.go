package credential

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by a Source that does not hold the requested key.
var ErrNotFound = errors.New("credential: not found")

// ConfigurationError reports that a credential could not be resolved. It is
// fatal: callers are expected to stop before any conversation starts.
type ConfigurationError struct {
	Key     string
	Source  string
	Reason  string
	Err     error
	Checked []string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Source == "" {
		return fmt.Sprintf("configuration: %s not found (checked %s)", e.Key, strings.Join(e.Checked, ", "))
	}
	if e.Err == nil {
		return fmt.Sprintf("configuration: %s from %s: %s", e.Key, e.Source, e.Reason)
	}
	return fmt.Sprintf("configuration: %s from %s: %s: %v", e.Key, e.Source, e.Reason, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
