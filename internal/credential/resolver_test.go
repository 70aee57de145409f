package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gemini-chat/internal/integrations/paramstore"
)

const testKey = "GEMINI_API_KEY"

func envWith(vals map[string]string) EnvSource {
	return EnvSource{LookupEnv: func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}}
}

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type fakeGetter struct {
	val   string
	err   error
	calls int
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.val, f.err
}

func mustResolver(t *testing.T, sources ...Source) *Resolver {
	t.Helper()
	r, err := NewResolver(testKey, sources...)
	require.NoError(t, err)
	return r
}

func expectConfigError(t *testing.T, err error) *ConfigurationError {
	t.Helper()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	return cfgErr
}

func TestNewResolver_Validates(t *testing.T) {
	_, err := NewResolver(" ", EnvSource{})
	require.Error(t, err)

	_, err = NewResolver(testKey)
	require.Error(t, err)

	_, err = NewResolver(testKey, nil)
	require.Error(t, err)
}

func TestResolve_EnvironmentWins(t *testing.T) {
	path := writeSecrets(t, `GEMINI_API_KEY = "Y"`)
	r := mustResolver(t, envWith(map[string]string{testKey: "X"}), FileSource{Path: path})

	key, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "X", key)
}

func TestResolve_EnvironmentWinsOverMalformedFile(t *testing.T) {
	path := writeSecrets(t, `GEMINI_API_KEY = `)
	r := mustResolver(t, envWith(map[string]string{testKey: "X"}), FileSource{Path: path})

	key, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "X", key)
}

func TestResolve_FallsBackToFile(t *testing.T) {
	path := writeSecrets(t, "# secrets\nGEMINI_API_KEY=\"Y\"\nOTHER = 1\n")
	r := mustResolver(t, envWith(nil), FileSource{Path: path})

	key, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Y", key)
}

func TestResolve_EmptyEnvironmentValueIsSkipped(t *testing.T) {
	path := writeSecrets(t, `GEMINI_API_KEY = "Y"`)
	r := mustResolver(t, envWith(map[string]string{testKey: "  "}), FileSource{Path: path})

	key, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Y", key)
}

func TestResolve_NoSourceHasKey(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")
	r := mustResolver(t, envWith(nil), FileSource{Path: missing})

	_, err := r.Resolve(context.Background())
	cfgErr := expectConfigError(t, err)
	require.Equal(t, testKey, cfgErr.Key)
	require.Equal(t, []string{"environment", "secrets file " + missing}, cfgErr.Checked)
	require.Contains(t, err.Error(), "GEMINI_API_KEY not found")
}

func TestResolve_FileWithoutKey(t *testing.T) {
	path := writeSecrets(t, `OTHER_KEY = "Z"`)
	r := mustResolver(t, envWith(nil), FileSource{Path: path})

	_, err := r.Resolve(context.Background())
	cfgErr := expectConfigError(t, err)
	require.Empty(t, cfgErr.Source)
}

func TestResolve_MalformedFile(t *testing.T) {
	path := writeSecrets(t, "GEMINI_API_KEY = \"unterminated\n")
	r := mustResolver(t, envWith(nil), FileSource{Path: path})

	_, err := r.Resolve(context.Background())
	cfgErr := expectConfigError(t, err)
	require.Equal(t, "parse file", cfgErr.Reason)
	require.Contains(t, cfgErr.Source, path)
	require.Error(t, cfgErr.Unwrap())
}

func TestResolve_NonStringValue(t *testing.T) {
	path := writeSecrets(t, `GEMINI_API_KEY = 42`)
	r := mustResolver(t, envWith(nil), FileSource{Path: path})

	_, err := r.Resolve(context.Background())
	cfgErr := expectConfigError(t, err)
	require.Contains(t, cfgErr.Reason, "want string")
}

func TestResolve_FileValueIsNeverEvaluated(t *testing.T) {
	path := writeSecrets(t, `GEMINI_API_KEY = "$(echo pwned)"`)
	r := mustResolver(t, envWith(nil), FileSource{Path: path})

	key, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "$(echo pwned)", key)
}

func TestResolve_ParamStoreBetweenEnvAndFile(t *testing.T) {
	path := writeSecrets(t, `GEMINI_API_KEY = "Y"`)
	g := &fakeGetter{val: "from-ssm"}
	r := mustResolver(t,
		envWith(nil),
		ParamStoreSource{Getter: g, Parameter: "/chat/gemini-api-key"},
		FileSource{Path: path},
	)

	key, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "from-ssm", key)
	require.Equal(t, 1, g.calls)
}

func TestResolve_ParamStoreJSONToken(t *testing.T) {
	g := &fakeGetter{val: `{"token":"from-json"}`}
	r := mustResolver(t, ParamStoreSource{Getter: g, Parameter: "/chat/gemini-api-key"})

	key, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "from-json", key)
}

func TestResolve_ParamStoreMalformedJSON(t *testing.T) {
	g := &fakeGetter{val: `{"broken`}
	r := mustResolver(t, ParamStoreSource{Getter: g, Parameter: "/chat/gemini-api-key"})

	_, err := r.Resolve(context.Background())
	cfgErr := expectConfigError(t, err)
	require.Contains(t, cfgErr.Reason, "unmarshal")
}

func TestResolve_ParamStoreNotFoundFallsThrough(t *testing.T) {
	path := writeSecrets(t, `GEMINI_API_KEY = "Y"`)
	g := &fakeGetter{err: fmt.Errorf("%w: %q", paramstore.ErrParameterNotFound, "/chat/gemini-api-key")}
	r := mustResolver(t, envWith(nil), ParamStoreSource{Getter: g, Parameter: "/chat/gemini-api-key"}, FileSource{Path: path})

	key, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Y", key)
}

func TestResolve_ParamStoreFailureIsFatal(t *testing.T) {
	path := writeSecrets(t, `GEMINI_API_KEY = "Y"`)
	g := &fakeGetter{err: errors.New("AccessDeniedException")}
	r := mustResolver(t, envWith(nil), ParamStoreSource{Getter: g, Parameter: "/chat/gemini-api-key"}, FileSource{Path: path})

	_, err := r.Resolve(context.Background())
	cfgErr := expectConfigError(t, err)
	require.Equal(t, "lookup failed", cfgErr.Reason)
	require.ErrorContains(t, err, "AccessDeniedException")
}

func TestResolve_Deterministic(t *testing.T) {
	path := writeSecrets(t, `GEMINI_API_KEY = "Y"`)
	r := mustResolver(t, envWith(nil), FileSource{Path: path})

	for i := 0; i < 3; i++ {
		key, err := r.Resolve(context.Background())
		require.NoError(t, err)
		require.Equal(t, "Y", key)
	}
}

func TestEnvSource_DefaultsToProcessEnvironment(t *testing.T) {
	t.Setenv(testKey, "from-process")
	v, err := EnvSource{}.Lookup(context.Background(), testKey)
	require.NoError(t, err)
	require.Equal(t, "from-process", v)
}
