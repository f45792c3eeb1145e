package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deva-0608/dataslide/internal/chart"
	"github.com/deva-0608/dataslide/internal/classify"
	cfgpkg "github.com/deva-0608/dataslide/internal/config"
	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/jobs"
	"github.com/deva-0608/dataslide/internal/logging"
	"github.com/deva-0608/dataslide/internal/scoring"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagStorage string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "dataslide",
	Short: "dataslide: turn uploaded spreadsheets into analysis artifacts",
	Long: `dataslide watches a storage tree for uploaded CSV/XLSX/XLS files, profiles each one,
ranks its features by significance and writes description.json, insights.json,
charts and a slide preview manifest next to it.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dataslide/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagStorage, "storage", "", "storage root holding uploads/ and outputs/ (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands retry through currentConfig
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// currentConfig returns the loaded configuration with CLI overrides applied.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if rootCmd.PersistentFlags().Changed("storage") && flagStorage != "" {
		cfg.StorageRoot = flagStorage
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(c *cfgpkg.Global) (*zap.Logger, error) {
	return logging.New(c.LogLevel, c.LogDevelopment)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadOptions(c *cfgpkg.Global) dataset.Options {
	opt := dataset.DefaultOptions()
	if c.NAValues != nil {
		opt.NAValues = c.NAValues
	}
	if c.SheetName != "" {
		opt.SheetName = c.SheetName
	}
	return opt
}

func newPipeline(c *cfgpkg.Global, store *jobs.Store) *jobs.Pipeline {
	p := jobs.NewPipeline(store)
	p.Load = loadOptions(c)
	p.Classify = classify.Options{SampleSize: c.DatetimeSampleSize, RequiredSuccess: c.DatetimeRequiredSuccess}
	p.Scoring = scoring.Options{
		MaxCategories:  c.MaxCategories,
		TopNumerical:   c.TopNumerical,
		TopCategorical: c.TopCategorical,
		TopDatetime:    c.TopDatetime,
	}
	if c.RenderCharts {
		p.Renderer = chart.NewPlotRenderer()
	}
	return p
}

func newCoordinator(c *cfgpkg.Global, store *jobs.Store, p *jobs.Pipeline, log *zap.Logger) *jobs.Coordinator {
	return jobs.NewCoordinator(store, p, jobs.Options{
		PollInterval:   c.PollInterval(),
		MaxAttempts:    c.MaxAttempts,
		RetryBackoff:   c.RetryBackoff(),
		ExclusiveClaim: c.ExclusiveClaim,
		WatchUploads:   c.WatchUploads,
	}, log)
}
