package cli

import (
	"fmt"
	"os"
	"strings"

	"feedwin/internal/config"
	"feedwin/internal/format"
	"feedwin/internal/logging"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	StateDir   string
	Format     string
	PrettyJSON bool
	LogLevel   string

	cfg config.Config
	log logging.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "feedwin [file]",
		Short:        "Windowed feed and comment-thread viewer with measured row heights",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		Example: strings.TrimSpace(`
  # Browse a feed file (JSON array or JSON lines)
  feedwin posts.jsonl

  # Browse a nested comment thread
  feedwin view thread comments.jsonl

  # Headless: which rows does a viewport show?
  feedwin range --count 1000000 --estimate 4 --viewport 20 --measure 3=9

  # Headless: flatten a thread with some nodes expanded
  feedwin flatten comments.jsonl --expand c1 --max-depth 3
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// A bare file argument opens the feed viewer.
			if len(args) == 1 {
				return runView(cmd, app, viewFeed, args[0], viewFlags{})
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd)
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("FEEDWIN_CONFIG", ""), "Path to config.toml (default: <config dir>/config.toml)")
	cmd.PersistentFlags().StringVar(&app.StateDir, "state-dir", envOr("FEEDWIN_STATE_DIR", ""), "Directory for scroll state and logs")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("FEEDWIN_FORMAT", "json"), "Output format (json|edn)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("FEEDWIN_LOG_LEVEL", ""), "Log level (debug|info|warn|error; default from config)")

	cmd.AddCommand(newViewCmd(app))
	cmd.AddCommand(newRangeCmd(app))
	cmd.AddCommand(newFlattenCmd(app))
	cmd.AddCommand(newScrollCmd(app))

	return cmd
}

// init resolves configuration once per invocation: flags win over env, env over the file.
func (app *App) init(cmd *cobra.Command) error {
	if _, err := format.Normalize(app.Format); err != nil {
		return writeErr(cmd, err)
	}
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg
	if strings.TrimSpace(app.StateDir) == "" {
		dir, err := config.StateDir()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.StateDir = dir
	}
	if strings.TrimSpace(app.LogLevel) == "" {
		app.LogLevel = cfg.LogLevel()
	}
	// Headless commands log to stderr; the viewer opens its own log file.
	app.log = logging.New(cmd.ErrOrStderr(), logging.ParseLevel(app.LogLevel))
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
