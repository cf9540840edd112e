package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/xdearboy/bookkeeper/internal/config"
)

// ConfigState holds the config package globals.
type ConfigState struct {
	OverwriteFiles bool
	UpdateCovers   bool
}

// SaveConfigState captures the current config globals.
func SaveConfigState() ConfigState {
	return ConfigState{
		OverwriteFiles: config.OverwriteFiles,
		UpdateCovers:   config.UpdateCovers,
	}
}

// RestoreConfigState restores config globals to a saved state.
func RestoreConfigState(state ConfigState) {
	config.OverwriteFiles = state.OverwriteFiles
	config.UpdateCovers = state.UpdateCovers
}

// ResetConfig resets viper to the registered defaults and restores both
// viper and the config globals when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()
	config.SetDefaults()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetViperValue sets a viper key for the duration of the test.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)
	viper.Set(key, value)

	t.Cleanup(func() {
		// viper has no Unset, so an unset key keeps the test value
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}

// SetupTestDatastore points datastore.dbfile at a database inside env and
// returns its path.
func SetupTestDatastore(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("test.db")
	SetViperValue(t, "datastore.dbfile", dbPath)
	return dbPath
}

// SetupMarkdownOutput sends markdown notes to the root of env.
func SetupMarkdownOutput(t *testing.T, env *TestEnv) {
	t.Helper()
	SetViperValue(t, "MarkdownOutputDir", env.RootDir())
}
