package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/xdearboy/bookkeeper/internal/cache"
	"github.com/xdearboy/bookkeeper/internal/catalog"
	"github.com/xdearboy/bookkeeper/internal/config"
	"github.com/xdearboy/bookkeeper/internal/datastore"
	"github.com/xdearboy/bookkeeper/internal/fallback"
	"github.com/xdearboy/bookkeeper/internal/fileutil"
	"github.com/xdearboy/bookkeeper/internal/googlebooks"
	"github.com/xdearboy/bookkeeper/internal/metrics"
	"github.com/xdearboy/bookkeeper/internal/obsidian"
	"github.com/xdearboy/bookkeeper/internal/ratelimit"
	"github.com/xdearboy/bookkeeper/internal/search"
	"github.com/xdearboy/bookkeeper/internal/server"
	"github.com/xdearboy/bookkeeper/internal/tui"
)

const appDescription = "Search a remote book catalog, with local fallback, and export the results."

var (
	selectBook = tui.Select
	serveHTTP  = server.Serve
	newStore   = func(path string) datastore.Store { return datastore.NewSQLiteStore(path) }
)

// CLI represents the complete command structure for the bookkeeper application
type CLI struct {
	// Global flags
	Verbose      bool   `short:"v" help:"Enable debug logging"`
	Config       string `help:"Path to a YAML config file (defaults to ./config.yaml)" type:"path"`
	Overwrite    bool   `help:"Overwrite existing markdown and JSON files"`
	UpdateCovers bool   `help:"Re-download cover images even if they already exist"`

	Search SearchCmd `cmd:"" help:"Search the catalog for books"`
	Page   PageCmd   `cmd:"" help:"Fetch a single page of results without query variants"`
	Browse BrowseCmd `cmd:"" help:"List books for several categories"`
	Serve  ServeCmd  `cmd:"" help:"Serve the search engine over HTTP"`
}

// SearchCmd represents the search command
type SearchCmd struct {
	Query       string `arg:"" help:"Free-text search query"`
	Max         int    `short:"n" help:"Maximum number of results (defaults to search.pagesize)"`
	JSON        bool   `help:"Print results as JSON"`
	Output      string `short:"o" help:"Also write results to this JSON file"`
	Interactive bool   `short:"i" help:"Pick a single book from the results before exporting"`
	Save        bool   `help:"Store results in the SQLite datastore"`
	Markdown    bool   `help:"Write one Obsidian note per book"`
	MarkdownDir string `help:"Directory for notes (defaults to MarkdownOutputDir)"`
	Covers      bool   `help:"Download cover images next to the notes"`
}

// PageCmd represents the page command
type PageCmd struct {
	Query string `arg:"" help:"Free-text search query"`
	Page  int    `short:"p" help:"Zero-based page number" default:"0"`
	JSON  bool   `help:"Print results as JSON"`
}

// BrowseCmd represents the browse command
type BrowseCmd struct {
	Categories []string `short:"c" name:"category" help:"Category to browse, repeatable (defaults to the built-in list)"`
	Per        int      `help:"Books per category" default:"5"`
	JSON       bool     `help:"Print results as JSON"`
}

// ServeCmd represents the serve command
type ServeCmd struct {
	Addr string `help:"Listen address (defaults to server.addr)"`
}

// app carries what every command needs once configuration is resolved.
type app struct {
	ctx     context.Context
	cfg     config.Config
	engine  *search.Engine
	metrics *metrics.Recorder
	out     io.Writer
}

// Execute parses the command line and runs the selected command.
func Execute() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bookkeeper"),
		kong.Description(appDescription),
		kong.UsageOnError(),
	)

	initLogging(cli.Verbose)

	if err := initConfig(cli.Config); err != nil {
		slog.Error("Fatal error config file", "error", err)
		os.Exit(1)
	}
	updateGlobalConfig(&cli)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(runCtx, config.Load(), os.Stdout)
	if err != nil {
		slog.Error("Failed to set up search engine", "error", err)
		os.Exit(1)
	}

	if err := ctx.Run(a); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// initConfig loads defaults, environment and the optional config file.
// A missing config file is not an error.
func initConfig(path string) error {
	config.SetDefaults()
	config.BindEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		slog.Debug("Config file not found, using defaults")
	}

	config.InitConfig()
	return nil
}

func updateGlobalConfig(cli *CLI) {
	if cli.Overwrite {
		config.SetOverwriteFiles(true)
	}
	if cli.UpdateCovers {
		config.SetUpdateCovers(true)
	}
}

func newApp(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	client := googlebooks.NewClient(
		googlebooks.WithBaseURL(cfg.Catalog.BaseURL),
		googlebooks.WithAPIKey(cfg.Catalog.APIKey),
		googlebooks.WithTimeout(cfg.Catalog.Timeout),
		googlebooks.WithLanguage(cfg.Catalog.Language),
		googlebooks.WithRateLimiter(ratelimit.New("googlebooks", cfg.Catalog.RateLimit)),
	)

	results, err := cache.New(cfg.Cache.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	generator, err := fallback.FromFile(cfg.Fallback.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load fallback catalog: %w", err)
	}

	recorder := metrics.NewRecorder()
	engine := search.New(client,
		search.WithCache(results),
		search.WithFallback(generator),
		search.WithObserver(recorder),
		search.WithWorkers(cfg.Search.Workers),
		search.WithPageSize(cfg.Search.PageSize),
		search.WithRetryDelay(cfg.Search.RetryDelay),
	)
	if !client.HasAPIKey() {
		slog.Warn("No catalog API key configured, searches use the fallback catalog only")
	}

	return &app{ctx: ctx, cfg: cfg, engine: engine, metrics: recorder, out: out}, nil
}

// Run methods for each command

func (s *SearchCmd) Run(a *app) error {
	res := a.engine.Search(a.ctx, s.Query, s.Max)
	books := res.Books

	if s.Interactive {
		choice, err := selectBook(res.Query, books)
		if err != nil {
			return fmt.Errorf("interactive selection failed: %w", err)
		}
		switch choice.Action {
		case tui.ActionSelected:
			books = []catalog.Book{*choice.Selection}
		case tui.ActionStopped:
			slog.Info("Selection cancelled")
			return nil
		default:
			slog.Info("No book selected")
			books = nil
		}
		res.Books = books
	}

	if err := printResult(a.out, res, s.JSON); err != nil {
		return err
	}
	if len(books) == 0 {
		return nil
	}

	if s.Output != "" {
		if _, err := fileutil.WriteJSONFile(newResultJSON(res), s.Output, config.OverwriteFiles); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}
	}

	if s.Save {
		if err := saveBooks(a, res.Query, books); err != nil {
			return err
		}
	}

	if s.Markdown {
		dir := s.MarkdownDir
		if dir == "" {
			dir = a.cfg.Markdown.OutputDir
		}
		exporter := obsidian.Exporter{
			Dir:            dir,
			Overwrite:      config.OverwriteFiles,
			DownloadCovers: s.Covers,
			UpdateCovers:   config.UpdateCovers,
		}
		written, err := exporter.Export(a.ctx, res.Query, books)
		if err != nil {
			return err
		}
		slog.Info("Markdown export finished", "dir", dir, "written", written)
	}
	return nil
}

func (p *PageCmd) Run(a *app) error {
	if p.Page < 0 {
		return fmt.Errorf("page must not be negative, got %d", p.Page)
	}
	return printResult(a.out, a.engine.SearchPage(a.ctx, p.Query, p.Page), p.JSON)
}

func (b *BrowseCmd) Run(a *app) error {
	categories := b.Categories
	if len(categories) == 0 {
		categories = search.DefaultCategories
	}

	results := a.engine.Browse(a.ctx, categories, b.Per)

	if b.JSON {
		payload := make(map[string]resultJSON, len(results))
		for category, res := range results {
			payload[category] = newResultJSON(res)
		}
		return writeJSON(a.out, payload)
	}

	for _, category := range categories {
		res, ok := results[category]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(a.out, "== %s\n", category); err != nil {
			return err
		}
		if err := printResult(a.out, res, false); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServeCmd) Run(a *app) error {
	addr := s.Addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	router, err := server.NewRouter(a.engine, a.metrics.Handler(), a.cfg.Search.PageSize)
	if err != nil {
		return err
	}
	return serveHTTP(a.ctx, addr, router)
}

func saveBooks(a *app, query string, books []catalog.Book) error {
	store := newStore(a.cfg.Datastore.DBFile)
	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close datastore", "error", err)
		}
	}()

	if err := store.SaveBooks(a.ctx, query, books); err != nil {
		return fmt.Errorf("failed to save books: %w", err)
	}
	slog.Info("Saved books to datastore", "db", a.cfg.Datastore.DBFile, "count", len(books))
	return nil
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else if env := os.Getenv("BOOKKEEPER_LOG_LEVEL"); env != "" {
		if err := level.UnmarshalText([]byte(strings.ToUpper(env))); err != nil {
			level = slog.LevelInfo
		}
	}

	// Logs go to stderr so JSON output on stdout stays parseable
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
