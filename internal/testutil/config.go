package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/lepinkainen/shelfsync/internal/config"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	OverwriteFiles bool
	DryRun         bool
	APIToken       string
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		OverwriteFiles: config.OverwriteFiles,
		DryRun:         config.DryRun,
		APIToken:       config.APIToken,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.OverwriteFiles = state.OverwriteFiles
	config.DryRun = state.DryRun
	config.APIToken = state.APIToken
}

// ResetConfig resets viper and restores the config globals and viper when
// the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfigOption is a functional option for configuring test config.
type SetTestConfigOption func(*ConfigState)

// WithDryRun sets the DryRun option.
func WithDryRun(v bool) SetTestConfigOption {
	return func(o *ConfigState) {
		o.DryRun = v
	}
}

// WithAPIToken sets the API token.
func WithAPIToken(token string) SetTestConfigOption {
	return func(o *ConfigState) {
		o.APIToken = token
	}
}

// SetTestConfig resets the configuration to test defaults (overwrite on,
// dry run off, a fake token) plus any options. Everything is restored when
// the test completes.
func SetTestConfig(t *testing.T, opts ...SetTestConfigOption) {
	t.Helper()

	ResetConfig(t)

	options := ConfigState{
		OverwriteFiles: true,
		APIToken:       "test-token",
	}
	for _, opt := range opts {
		opt(&options)
	}
	RestoreConfigState(options)
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		// viper has no Unset, an unset key keeps the test value
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}

// SetupTestCache points cache.dbfile at a database inside env and returns
// its path.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	env.MkdirAll("cache")
	dbPath := env.Path("cache", "test-cache.db")
	SetViperValue(t, "cache.dbfile", dbPath)
	SetViperValue(t, "cache.ttl", "24h")

	return dbPath
}

// SetupTestLibrary points library.dbfile at a catalog database inside env
// and returns its path.
func SetupTestLibrary(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("library.db")
	SetViperValue(t, "library.dbfile", dbPath)

	return dbPath
}

// SetupReportDir points report.dir at env and returns the directory.
func SetupReportDir(t *testing.T, env *TestEnv) string {
	t.Helper()

	env.MkdirAll("reports")
	dir := env.Path("reports")
	SetViperValue(t, "report.dir", dir)

	return dir
}
