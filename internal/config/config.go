// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/invowk/pkgport/internal/issue"
	"github.com/invowk/pkgport/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "pkgport"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes every environment override, e.g. PKGPORT_PLATFORM_URL.
	EnvPrefix = "PKGPORT"
	// DefaultEnvFile is the dotenv file read from the working directory.
	DefaultEnvFile = ".env"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the pkgport configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfigPath returns the config file path inside ConfigDir.
func DefaultConfigPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. Precedence, lowest first: defaults, config file,
// dotenv file, process environment.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := loadEnvFile(opts.EnvFilePath); err != nil {
		return nil, "", loadError(opts.EnvFilePath, err,
			"Check that the dotenv file uses KEY=value lines",
		)
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("platform.url", defaults.Platform.URL)
	v.SetDefault("platform.token_env", defaults.Platform.TokenEnv)
	v.SetDefault("git.repository", defaults.Git.Repository)
	v.SetDefault("git.username", defaults.Git.Username)
	v.SetDefault("git.token_env", defaults.Git.TokenEnv)
	v.SetDefault("git.author_name", defaults.Git.AuthorName)
	v.SetDefault("git.author_email", defaults.Git.AuthorEmail)
	v.SetDefault("batch.concurrency", defaults.Batch.Concurrency)
	v.SetDefault("batch.output_dir", defaults.Batch.OutputDir)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// An explicit --config path is used exclusively and must exist.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", loadError(opts.ConfigFilePath,
				fmt.Errorf("config file not found: %s", opts.ConfigFilePath),
				"Verify the file path is correct",
				"Run 'pkgport config init' to create a default configuration",
			)
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", schemaError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		for _, candidate := range []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		} {
			if !fileExists(candidate) {
				continue
			}
			if err := loadCUEIntoViper(v, candidate); err != nil {
				return nil, "", schemaError(candidate, err)
			}
			resolvedPath = candidate
			break
		}
		// No config file found: defaults and environment only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Platform.URL = strings.TrimRight(cfg.Platform.URL, "/")

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check PKGPORT_* environment overrides against the config schema").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadEnvFile exports the variables of a dotenv file into the process
// environment. Variables already set are not overridden. A missing default
// file is not an error; a missing explicit file is.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadError(resource string, cause error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(resource).
		WithSuggestions(suggestions...).
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(cause).
		BuildError()
}

func schemaError(resource string, cause error) error {
	return loadError(resource, cause,
		"Check that the file contains valid CUE syntax",
		"Verify the configuration values match the expected schema",
		"Run 'pkgport config show' to see the effective configuration",
	)
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge preserves defaults and still allows env overrides.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration to path unless a file is
// already there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if fileExists(path) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// CreateDefaultConfig creates a default config file in ConfigDir if it doesn't
// exist and returns its path.
func CreateDefaultConfig() (string, error) {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := WriteDefault(cfgPath); err != nil {
		return "", err
	}
	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// pkgport configuration file\n")
	sb.WriteString("// Any key can be overridden with a PKGPORT_<SECTION>_<KEY> environment variable.\n\n")

	sb.WriteString("platform: {\n")
	if cfg.Platform.URL != "" {
		fmt.Fprintf(&sb, "\turl: %q\n", cfg.Platform.URL)
	}
	fmt.Fprintf(&sb, "\ttoken_env: %q\n", cfg.Platform.TokenEnv)
	sb.WriteString("}\n")

	sb.WriteString("\ngit: {\n")
	writeOptionalString(&sb, "repository", cfg.Git.Repository)
	writeOptionalString(&sb, "username", cfg.Git.Username)
	writeOptionalString(&sb, "token_env", cfg.Git.TokenEnv)
	writeOptionalString(&sb, "author_name", cfg.Git.AuthorName)
	writeOptionalString(&sb, "author_email", cfg.Git.AuthorEmail)
	sb.WriteString("}\n")

	sb.WriteString("\nbatch: {\n")
	fmt.Fprintf(&sb, "\tconcurrency: %d\n", cfg.Batch.Concurrency)
	fmt.Fprintf(&sb, "\toutput_dir: %q\n", cfg.Batch.OutputDir)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func writeOptionalString(sb *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "\t%s: %q\n", key, value)
}
