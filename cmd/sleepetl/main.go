// Package main provides the CLI entrypoint for sleepetl.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/sleepetl/internal/chart"
	"github.com/verte-zerg/sleepetl/internal/config"
	"github.com/verte-zerg/sleepetl/internal/extract"
	"github.com/verte-zerg/sleepetl/internal/load"
	"github.com/verte-zerg/sleepetl/internal/logging"
	"github.com/verte-zerg/sleepetl/internal/model"
	"github.com/verte-zerg/sleepetl/internal/stats"
	"github.com/verte-zerg/sleepetl/internal/store"
	"github.com/verte-zerg/sleepetl/internal/transform"
)

const (
	defaultWindow = 7
	sinceLayout   = "2006-01-02"
)

var (
	logLevel string
	verbose  bool
	log      = zap.NewNop()

	loadStore bool
	loadDB    string

	chartColor bool

	nightsSince  string
	nightsLast   int
	nightsWindow int
	nightsNaps   bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "sleepetl",
		Short:             "Sleep log spreadsheet ETL",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setupLogger,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			// Sync fails on stderr for some terminals; nothing useful to do.
			_ = log.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newTransformCmd())
	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newChartCmd())
	rootCmd.AddCommand(newNightsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func setupLogger(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	logger, err := logging.New(logLevel, verbose)
	if err != nil {
		return err
	}
	log = logger
	return nil
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract night events from a sleep log CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInput(args, func(r io.Reader) error {
				return extract.Extract(r, cmd.OutOrStdout(), logging.Stage(log, "extract"))
			})
		},
	}
}

func newTransformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform [file]",
		Short: "Turn extract output into night and nap records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInput(args, func(r io.Reader) error {
				return transform.Transform(r, cmd.OutOrStdout(), logging.Stage(log, "transform"))
			})
		},
	}
}

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Print or store transform records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInput(args, func(r io.Reader) error {
				return runLoad(cmd, r)
			})
		},
	}
	addStoreFlags(cmd)
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run extract, transform and load over one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInput(args, func(r io.Reader) error {
				var extracted, records bytes.Buffer
				if err := extract.Extract(r, &extracted, logging.Stage(log, "extract")); err != nil {
					return err
				}
				if err := transform.Transform(&extracted, &records, logging.Stage(log, "transform")); err != nil {
					return err
				}
				return runLoad(cmd, &records)
			})
		},
	}
	addStoreFlags(cmd)
	return cmd
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&loadStore, "store", false, "write records to the database instead of printing them")
	cmd.Flags().StringVar(&loadDB, "db", config.DefaultDBPath(), "database path")
}

func runLoad(cmd *cobra.Command, r io.Reader) error {
	stageLog := logging.Stage(log, "load")
	if !loadStore {
		return load.Print(r, cmd.OutOrStdout(), stageLog)
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	res, err := load.Store(cmd.Context(), r, st, stageLog)
	if err != nil {
		return err
	}
	stageLog.Info("stored records", zap.Int("nights", res.Nights), zap.Int("naps", res.Naps))
	return nil
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart [file]",
		Short: "Draw quarter-hour sleep chart from extract output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			color := fileCfg.Chart.Color
			if cmd.Flags().Changed("color") {
				color = &chartColor
			}
			return withInput(args, func(r io.Reader) error {
				rows, err := chart.Build(r, logging.Stage(log, "chart"))
				if err != nil {
					return err
				}
				return chart.Render(cmd.OutOrStdout(), rows, chart.Options{Color: color})
			})
		},
	}
	cmd.Flags().BoolVar(&chartColor, "color", false, "force colour on or off (default: auto)")
	return cmd
}

func newNightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nights",
		Short: "Show stored nights and a summary",
		Args:  cobra.NoArgs,
		RunE:  runNightsCmd,
	}
	cmd.Flags().StringVar(&nightsSince, "since", "", "only nights on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&nightsLast, "last", 0, "only the last N nights")
	cmd.Flags().IntVar(&nightsWindow, "window", defaultWindow, "moving average window in nights")
	cmd.Flags().BoolVar(&nightsNaps, "naps", false, "list every night's naps after the table")
	cmd.Flags().StringVar(&loadDB, "db", config.DefaultDBPath(), "database path")
	return cmd
}

func runNightsCmd(cmd *cobra.Command, _ []string) error {
	if nightsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if nightsWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	var since *time.Time
	if nightsSince != "" {
		parsed, err := time.Parse(sinceLayout, nightsSince)
		if err != nil {
			return fmt.Errorf("invalid --since date: %w", err)
		}
		since = &parsed
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(cmd.Context(), st, model.ReportConfig{
		Since:  since,
		Last:   nightsLast,
		Window: nightsWindow,
		Naps:   nightsNaps,
	})
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderNightTable(out, report.Nights); err != nil {
		return err
	}
	if nightsNaps {
		if err := stats.RenderNaps(out, report.Nights, report.Naps); err != nil {
			return err
		}
	}
	return stats.RenderSummary(out, report.Nights, report.Window)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		tmpl := config.Template(logging.DefaultLevel, config.DefaultDBPath())
		if err := os.WriteFile(path, []byte(tmpl), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// withInput opens args[0], or stdin when no file is given.
func withInput(args []string, fn func(io.Reader) error) error {
	if len(args) == 0 || args[0] == "-" {
		return fn(os.Stdin)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer closeLogged("input", f)
	return fn(f)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &loadDB, fileCfg.Store.Path)
	st, err := store.Open(loadDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	closeLogged("db", st)
}

// closeLogged closes c and logs a failure instead of returning it.
func closeLogged(what string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+what, zap.Error(err))
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
