// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/invowk/pkgport/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `pkgport config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pkgport configuration",
		Long: `Manage pkgport configuration.

Configuration is stored in:
  - Linux: ~/.config/pkgport/config.cue
  - macOS: ~/Library/Application Support/pkgport/config.cue
  - Windows: %APPDATA%\pkgport\config.cue

A config.cue in the working directory is used when the file above does
not exist. Every key can be overridden with a PKGPORT_<SECTION>_<KEY>
environment variable, for example PKGPORT_PLATFORM_URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Long: `Create the default configuration file.

The file is written to --config when given, otherwise to the platform
config directory. An existing file is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	cfg, source, err := config.LoadWithSource(cmd.Context(), config.LoadOptions{
		ConfigFilePath: app.cfgFile,
		EnvFilePath:    app.envFile,
	})
	if err != nil {
		return err
	}

	if source == "" {
		source = SubtitleStyle.Render("(using defaults)")
	}
	fmt.Fprintf(app.stderr, "%s: %s\n\n", TitleStyle.Render("Config file"), source)
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}

func initConfig(app *App) error {
	var (
		path    = app.cfgFile
		written bool
		err     error
	)
	if path == "" {
		path, err = config.DefaultConfigPath()
		if err != nil {
			return err
		}
	}
	written, err = config.WriteDefault(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	if !written {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), KeyStyle.Render(path))
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), KeyStyle.Render(path))
	return nil
}
