// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/invowk/pkgport/internal/batch"
	"github.com/invowk/pkgport/internal/config"
	"github.com/invowk/pkgport/internal/gitsync"
	"github.com/invowk/pkgport/internal/platform"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive an
	// App reference and delegate to the batch package through it.
	App struct {
		Config ConfigProvider
		Remote RemoteFactory
		Git    GitFactory
		Clock  batch.Clock

		stdout io.Writer
		stderr io.Writer
		logger *log.Logger

		// Global flag values, bound by NewRootCommand.
		verbose bool
		cfgFile string
		envFile string
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Remote RemoteFactory
		Git    GitFactory
		Clock  batch.Clock
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// RemoteFactory builds the platform client for a loaded configuration.
	RemoteFactory func(cfg *config.Config) batch.Remote

	// GitFactory builds the git adapter for a configuration whose git
	// profile is set.
	GitFactory func(cfg *config.Config) batch.GitSyncer
)

// NewApp creates the CLI composition root.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Remote: deps.Remote,
		Git:    deps.Git,
		Clock:  deps.Clock,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Remote == nil {
		app.Remote = newPlatformRemote
	}
	if app.Git == nil {
		app.Git = newGitSyncer
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	app.logger = log.NewWithOptions(app.stderr, log.Options{
		Prefix: config.AppName,
	})
	return app
}

// installLogger makes the charm logger the slog default handler.
func (a *App) installLogger() {
	a.setVerbose(a.verbose)
	slog.SetDefault(slog.New(a.logger))
}

func (a *App) setVerbose(v bool) {
	if v {
		a.verbose = true
		a.logger.SetLevel(log.DebugLevel)
		return
	}
	a.logger.SetLevel(log.InfoLevel)
}

// loadConfig loads the configuration named by the global flags and applies
// ui.verbose when --verbose was not given.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.cfgFile,
		EnvFilePath:    a.envFile,
	})
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose && !a.verbose {
		a.setVerbose(true)
	}
	return cfg, nil
}

// batchOptions returns the orchestrator options for cfg.
func (a *App) batchOptions(cfg *config.Config) []batch.Option {
	opts := []batch.Option{batch.WithConcurrency(cfg.Batch.Concurrency)}
	if cfg.Git.Configured() {
		opts = append(opts, batch.WithGit(a.Git(cfg)))
	}
	if a.Clock != nil {
		opts = append(opts, batch.WithClock(a.Clock))
	}
	return opts
}

func newPlatformRemote(cfg *config.Config) batch.Remote {
	token := cfg.Platform.Token()
	if token == "" {
		slog.Warn("no platform token found", "env", cfg.Platform.TokenEnv)
	}
	client := platform.NewClient(
		platform.WithBaseURL(cfg.Platform.URL),
		platform.WithToken(token),
		platform.WithUserAgent(config.AppName+"/"+Version),
	)
	slog.Debug("platform client ready", "url", client.BaseURL())
	return client
}

func newGitSyncer(cfg *config.Config) batch.GitSyncer {
	syncer := gitsync.New(gitsync.Options{
		Repository:  cfg.Git.Repository,
		Username:    cfg.Git.Username,
		Token:       cfg.Git.Token(),
		AuthorName:  cfg.Git.AuthorName,
		AuthorEmail: cfg.Git.AuthorEmail,
	})
	slog.Debug("git profile configured", "repository", syncer.Repository())
	return syncer
}
