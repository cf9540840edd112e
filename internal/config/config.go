package config

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// OverwriteFiles controls whether existing markdown notes should be overwritten
	OverwriteFiles bool
	// UpdateCovers forces cover images to be downloaded again
	UpdateCovers bool
)

// Config is the resolved configuration for a run.
type Config struct {
	Catalog   CatalogConfig
	Cache     CacheConfig
	Search    SearchConfig
	Fallback  FallbackConfig
	Datastore DatastoreConfig
	Server    ServerConfig
	Markdown  MarkdownConfig
}

// CatalogConfig configures the remote book catalog client.
type CatalogConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Language  string
	RateLimit int // requests per second, 0 disables limiting
}

type CacheConfig struct {
	Capacity int
}

type SearchConfig struct {
	Workers    int
	PageSize   int
	RetryDelay time.Duration
}

type FallbackConfig struct {
	File string
}

type DatastoreConfig struct {
	DBFile string
}

type ServerConfig struct {
	Addr string
}

type MarkdownConfig struct {
	OutputDir string
}

// SetDefaults registers the default value of every key with viper.
func SetDefaults() {
	viper.SetDefault("catalog.baseurl", "https://www.googleapis.com/books/v1")
	viper.SetDefault("catalog.apikey", "")
	viper.SetDefault("catalog.timeout", "10s")
	viper.SetDefault("catalog.language", "en")
	viper.SetDefault("catalog.ratelimit", 10)

	viper.SetDefault("cache.capacity", 50)

	viper.SetDefault("search.workers", 4)
	viper.SetDefault("search.pagesize", 20)
	viper.SetDefault("search.retrydelay", "500ms")

	viper.SetDefault("fallback.file", "")
	viper.SetDefault("datastore.dbfile", "./bookkeeper.db")
	viper.SetDefault("server.addr", ":8080")

	viper.SetDefault("MarkdownOutputDir", "./markdown/")
	viper.SetDefault("OverwriteFiles", false)
}

// BindEnv maps well-known environment variables onto config keys.
func BindEnv() {
	viper.AutomaticEnv()
	if err := viper.BindEnv("catalog.apikey", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
}

// InitConfig initializes the global configuration
func InitConfig() {
	OverwriteFiles = viper.GetBool("OverwriteFiles")
	UpdateCovers = viper.GetBool("UpdateCovers")
}

// Load reads the current viper state into a Config.
func Load() Config {
	return Config{
		Catalog: CatalogConfig{
			BaseURL:   viper.GetString("catalog.baseurl"),
			APIKey:    viper.GetString("catalog.apikey"),
			Timeout:   viper.GetDuration("catalog.timeout"),
			Language:  viper.GetString("catalog.language"),
			RateLimit: viper.GetInt("catalog.ratelimit"),
		},
		Cache: CacheConfig{
			Capacity: viper.GetInt("cache.capacity"),
		},
		Search: SearchConfig{
			Workers:    viper.GetInt("search.workers"),
			PageSize:   viper.GetInt("search.pagesize"),
			RetryDelay: viper.GetDuration("search.retrydelay"),
		},
		Fallback:  FallbackConfig{File: viper.GetString("fallback.file")},
		Datastore: DatastoreConfig{DBFile: viper.GetString("datastore.dbfile")},
		Server:    ServerConfig{Addr: viper.GetString("server.addr")},
		Markdown:  MarkdownConfig{OutputDir: viper.GetString("MarkdownOutputDir")},
	}
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

// SetUpdateCovers sets the UpdateCovers flag
func SetUpdateCovers(update bool) {
	UpdateCovers = update
}
