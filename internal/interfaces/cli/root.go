// Package cli implements the disrupt command line interface: batch runs,
// single-stage re-runs and panel assembly, all driven by the same pipeline
// the worker binaries use.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/DisruptMetrics/internal/application/pipeline"
	"github.com/turtacn/DisruptMetrics/internal/config"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/storage"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	InputDir   string
	OutputDir  string
	DI1Path    string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
	Out    io.Writer
	DI1    map[string]float64
}

type cliContextKey struct{}

// NewRootCommand creates the root command with global flags and all
// subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "disrupt",
		Short:   "DisruptMetrics CLI — patent citation disruption metrics",
		Long:    "DisruptMetrics builds tripartite citation networks from patent rosters,\ncomputes temporally weighted CDt disruption scores, and assembles the\nfirm-year panel of disruption indices.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./disrupt.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.InputDir, "input-dir", "", "override the roster input directory")
	pf.StringVar(&opts.OutputDir, "output-dir", "", "override the artifact output directory")
	pf.StringVar(&opts.DI1Path, "di1", "", "path to the external disruption-flag JSON file")

	cmd.AddCommand(
		newRunCommand(),
		newNetworkCommand(),
		newScoresCommand(),
		newPanelCommand(),
	)

	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.InputDir != "" {
		cfg.Pipeline.InputDir = opts.InputDir
	}
	if opts.OutputDir != "" {
		cfg.Pipeline.OutputDir = opts.OutputDir
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}

	var di1 map[string]float64
	if opts.DI1Path != "" {
		di1, err = pipeline.LoadDI1(opts.DI1Path)
		if err != nil {
			return err
		}
	}

	cliCtx := &CLIContext{
		Config: cfg,
		Logger: logger,
		Out:    cmd.OutOrStdout(),
		DI1:    di1,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// loadConfig resolves the config source: an explicit path, then
// ./disrupt.yaml when present, then environment variables alone.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat("disrupt.yaml"); err == nil {
		return config.Load("disrupt.yaml")
	}
	return config.LoadFromEnv()
}

// GetCLIContext extracts the CLIContext set up by the root command.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	v := cmd.Context().Value(cliContextKey{})
	cliCtx, ok := v.(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, appErrors.New(appErrors.ErrCodeInternal, "CLI context not initialized")
	}
	return cliCtx, nil
}

// newPipeline builds the pipeline over a filesystem artifact store rooted at
// the configured output directory.
func newPipeline(cliCtx *CLIContext) (*pipeline.Pipeline, error) {
	store, err := storage.NewFSStore(cliCtx.Config.Pipeline.OutputDir, cliCtx.Logger)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{}
	if len(cliCtx.DI1) > 0 {
		opts = append(opts, pipeline.WithDI1(cliCtx.DI1))
	}
	return pipeline.New(cliCtx.Config.Pipeline, store, cliCtx.Logger, opts...), nil
}

// resolveCompanies returns the batch company list: explicit arguments win,
// then the configured list, then every roster file found in the input
// directory.
func resolveCompanies(cliCtx *CLIContext, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(cliCtx.Config.Pipeline.Companies) > 0 {
		return cliCtx.Config.Pipeline.Companies, nil
	}
	return discoverCompanies(cliCtx.Config.Pipeline.InputDir)
}

// discoverCompanies lists every *.csv roster under dir, one company per file.
func discoverCompanies(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeMissingInput, "read roster directory")
	}

	var companies []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".csv") {
			continue
		}
		companies = append(companies, strings.TrimSuffix(name, ".csv"))
	}
	if len(companies) == 0 {
		return nil, appErrors.Newf(appErrors.ErrCodeMissingInput, "no roster files in %s", filepath.Clean(dir))
	}
	sort.Strings(companies)
	return companies, nil
}

// printJSON writes v indented to the command's output.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}
