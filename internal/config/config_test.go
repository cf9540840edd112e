package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	SetDefaults()

	cfg := Load()

	assert.Equal(t, "https://www.googleapis.com/books/v1", cfg.Catalog.BaseURL)
	assert.Empty(t, cfg.Catalog.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "en", cfg.Catalog.Language)
	assert.Equal(t, 10, cfg.Catalog.RateLimit)
	assert.Equal(t, 50, cfg.Cache.Capacity)
	assert.Equal(t, 4, cfg.Search.Workers)
	assert.Equal(t, 20, cfg.Search.PageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.RetryDelay)
	assert.Empty(t, cfg.Fallback.File)
	assert.Equal(t, "./bookkeeper.db", cfg.Datastore.DBFile)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "./markdown/", cfg.Markdown.OutputDir)
}

func TestLoadOverrides(t *testing.T) {
	resetViper(t)
	SetDefaults()

	viper.Set("catalog.timeout", "2s")
	viper.Set("search.workers", 8)
	viper.Set("fallback.file", "fallback.yaml")

	cfg := Load()

	assert.Equal(t, 2*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 8, cfg.Search.Workers)
	assert.Equal(t, "fallback.yaml", cfg.Fallback.File)
}

func TestBindEnvAPIKey(t *testing.T) {
	resetViper(t)
	SetDefaults()
	t.Setenv("GOOGLE_BOOKS_API_KEY", "secret-key")

	BindEnv()

	assert.Equal(t, "secret-key", Load().Catalog.APIKey)
}

func TestSetOverwriteFiles(t *testing.T) {
	// Save the original value to restore after the test
	originalValue := OverwriteFiles
	t.Cleanup(func() { OverwriteFiles = originalValue })

	testCases := []struct {
		name     string
		input    bool
		expected bool
	}{
		{name: "set to true", input: true, expected: true},
		{name: "set to false", input: false, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			SetOverwriteFiles(tc.input)
			assert.Equal(t, tc.expected, OverwriteFiles)
		})
	}
}

func TestInitConfig(t *testing.T) {
	resetViper(t)
	origOverwrite, origUpdate := OverwriteFiles, UpdateCovers
	t.Cleanup(func() {
		OverwriteFiles = origOverwrite
		UpdateCovers = origUpdate
	})

	viper.Set("OverwriteFiles", true)
	viper.Set("UpdateCovers", true)
	InitConfig()

	assert.True(t, OverwriteFiles)
	assert.True(t, UpdateCovers)

	SetUpdateCovers(false)
	assert.False(t, UpdateCovers)
}
