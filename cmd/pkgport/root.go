// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pkgport.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pkgport",
		Short: "Batch export and import of content packages",
		Long: TitleStyle.Render("pkgport") + SubtitleStyle.Render(" - Batch export and import of content packages") + `

pkgport downloads content packages from a platform team as one archive,
reconciles their variables and studio metadata, and writes the result to
a zip file, an extracted directory or a git branch. Imports reverse the
flow and report the version each package landed on.

` + SubtitleStyle.Render("Examples:") + `
  pkgport package export --packageKeys key-1,key-2
  pkgport package export --keysByVersion key-1_1.0.0 --gitBranch release
  pkgport package import --file export_20250101-120000.zip --overwrite
  pkgport package list --withDependencies
  pkgport config show`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.installLogger()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/pkgport/config.cue)")
	rootCmd.PersistentFlags().StringVar(&app.envFile, "env-file", "", "dotenv file loaded before reading tokens (default is ./.env)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})

	rootCmd.AddCommand(newPackageCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	app := NewApp(Dependencies{})
	return run(context.Background(), app, NewRootCommand(app))
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}

func run(ctx context.Context, app *App, rootCmd *cobra.Command) int {
	// fang prints the error line; renderFailure adds the guidance below it.
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return 0
	}
	if !errors.Is(err, context.Canceled) {
		renderFailure(app.stderr, err, app.verbose, issueRenderStyle)
	}
	return exitCode(err)
}
