package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebot/internal/cache"
	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/services"
	"github.com/desertthunder/tunebot/internal/shared"
	"github.com/desertthunder/tunebot/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	catalog    services.Provider
	media      services.MediaProvider
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	search     *tasks.SearchEngine
	downloads  *tasks.DownloadEngine
	cache      *cache.SearchCache
	history    models.HistoryStore
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Catalog    services.Provider
	Media      services.MediaProvider
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	History    models.HistoryStore // Optional; one-shot commands open the database lazily when unset
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	if opts.Catalog != nil && !opts.Catalog.Enabled() {
		opts.Logger.Warn("catalog provider disabled, search results will be media only",
			"provider", opts.Catalog.Name())
	}

	search := tasks.NewSearchEngine(opts.Media, opts.Catalog, opts.Logger)
	downloads := tasks.NewDownloadEngine(opts.Media, opts.Config.Downloads.Workers, opts.Logger)
	results := cache.NewSearchCache(
		cache.WithTTL(time.Duration(opts.Config.Search.CacheTTLMinutes) * time.Minute),
	)

	return &Runner{
		config:     opts.Config,
		catalog:    opts.Catalog,
		media:      opts.Media,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		search:     search,
		downloads:  downloads,
		cache:      results,
		history:    opts.History,
	}
}

// SetLogger swaps the runner's logger, used when logs move to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, getCommand, historyCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
