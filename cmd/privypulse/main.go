package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nhle/privypulse/internal/app"
	"github.com/nhle/privypulse/internal/backend"
	"github.com/nhle/privypulse/internal/logging"
	"github.com/nhle/privypulse/internal/model"
	"github.com/nhle/privypulse/internal/query"
	"github.com/nhle/privypulse/internal/render"
)

var version = "dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("privypulse", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", model.DefaultConfigPath(), "Path to the config file")
	fs.String("base-url", "", "Backend root URL (overrides backend.base_url)")
	fs.String("log-level", "", "Log level: debug, info, warn, error")
	queryText := fs.StringP("query", "q", "", "Submit one query, print the result, and exit")
	showVersion := fs.BoolP("version", "V", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *showVersion {
		fmt.Fprintf(stdout, "privypulse %s\n", version)
		return exitOK
	}

	cfg, fileCfg, err := loadConfigs(fs, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	logger, closer, err := logging.OpenFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v; logging disabled\n", err)
		logger = logging.Discard()
	} else {
		defer closer.Close()
	}
	logger.Info("starting", "version", version, "base_url", cfg.Backend.BaseURL)

	if fs.Changed("query") {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		client := backend.NewClientFromConfig(cfg.Backend, logger)
		return runOnce(ctx, client, *queryText, cfg.Backend, stdout, stderr, logger)
	}

	p := tea.NewProgram(
		app.New(app.Options{
			Config:     *cfg,
			FileConfig: fileCfg,
			ConfigPath: *configPath,
			Logger:     logger,
		}),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		logger.Error("program exited with error", "error", err)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// loadConfigs returns the effective configuration, with flags and
// PRIVYPULSE_* variables applied over the file, and the file's own
// values. The settings form edits the latter so one-run overrides are
// never written back.
func loadConfigs(fs *pflag.FlagSet, path string) (effective, file *model.AppConfig, err error) {
	v := model.NewViper()
	v.SetEnvPrefix("PRIVYPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindFlag(v, fs, "backend.base_url", "base-url")
	bindFlag(v, fs, "log.level", "log-level")

	effective, err = model.LoadConfigWith(v, path)
	if err != nil {
		return nil, nil, err
	}
	file, err = model.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	return effective, file, nil
}

// bindFlag lets an explicitly set flag override the config file.
func bindFlag(v *viper.Viper, fs *pflag.FlagSet, key, flag string) {
	f := fs.Lookup(flag)
	if f == nil {
		return
	}
	_ = v.BindPFlag(key, f)
}

// runOnce drives a single submission through the same controller and
// renderer as the interactive view and prints the panel.
func runOnce(
	ctx context.Context,
	b query.Backend,
	text string,
	cfg model.BackendConfig,
	stdout, stderr io.Writer,
	logger *slog.Logger,
) int {
	ctrl := query.NewController(logger)
	ctrl.UpdateQuery(text)

	sub, ok := ctrl.Submit()
	if !ok {
		fmt.Fprintln(stderr, "error: query is empty")
		return exitUsage
	}

	if timeout := cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctrl.Complete(sub, query.Run(ctx, b, sub, logger))

	outcome := ctrl.State().Outcome
	fmt.Fprintln(stdout, render.Render(outcome))

	if _, failed := outcome.(model.Failure); failed {
		return exitFailure
	}
	return exitOK
}
