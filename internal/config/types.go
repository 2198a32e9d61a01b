// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// DefaultPlatformTokenEnv is the environment variable read for the API token.
	DefaultPlatformTokenEnv = "PKGPORT_TOKEN"
	// DefaultGitTokenEnv is the environment variable read for the git token.
	DefaultGitTokenEnv = "PKGPORT_GIT_TOKEN"
	// DefaultConcurrency bounds concurrent remote lookups.
	DefaultConcurrency = 8
	// MaxConcurrency is the upper bound accepted for batch.concurrency.
	MaxConcurrency = 64
	// DefaultOutputDir is where archives and reports are written.
	DefaultOutputDir = "."
)

var (
	// ErrInvalidPlatformConfig is the sentinel error wrapped by InvalidPlatformConfigError.
	ErrInvalidPlatformConfig = errors.New("invalid platform config")
	// ErrInvalidBatchConfig is the sentinel error wrapped by InvalidBatchConfigError.
	ErrInvalidBatchConfig = errors.New("invalid batch config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// PlatformConfig locates the hosted platform and its credentials.
	PlatformConfig struct {
		// URL is the team URL.
		URL string `json:"url" mapstructure:"url"`
		// TokenEnv names the environment variable holding the API token.
		TokenEnv string `json:"token_env" mapstructure:"token_env"`
	}

	// GitConfig is the git profile used by --gitBranch.
	GitConfig struct {
		Repository  string `json:"repository" mapstructure:"repository"`
		Username    string `json:"username" mapstructure:"username"`
		TokenEnv    string `json:"token_env" mapstructure:"token_env"`
		AuthorName  string `json:"author_name" mapstructure:"author_name"`
		AuthorEmail string `json:"author_email" mapstructure:"author_email"`
	}

	// BatchConfig tunes the export and import flows.
	BatchConfig struct {
		// Concurrency bounds the number of concurrent remote lookups.
		Concurrency int `json:"concurrency" mapstructure:"concurrency"`
		// OutputDir receives exported archives and import reports.
		OutputDir string `json:"output_dir" mapstructure:"output_dir"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// Config is the root configuration.
	Config struct {
		Platform PlatformConfig `json:"platform" mapstructure:"platform"`
		Git      GitConfig      `json:"git" mapstructure:"git"`
		Batch    BatchConfig    `json:"batch" mapstructure:"batch"`
		UI       UIConfig       `json:"ui" mapstructure:"ui"`
	}

	// InvalidPlatformConfigError is returned when PlatformConfig has invalid fields.
	InvalidPlatformConfigError struct {
		FieldErrors []error
	}

	// InvalidBatchConfigError is returned when BatchConfig has invalid fields.
	InvalidBatchConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when Config has invalid fields.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			URL:      "",
			TokenEnv: DefaultPlatformTokenEnv,
		},
		Git: GitConfig{
			TokenEnv: DefaultGitTokenEnv,
		},
		Batch: BatchConfig{
			Concurrency: DefaultConcurrency,
			OutputDir:   DefaultOutputDir,
		},
		UI: UIConfig{
			Verbose: false,
		},
	}
}

// Token returns the API token from the configured environment variable.
func (c PlatformConfig) Token() string {
	return os.Getenv(c.TokenEnv)
}

// IsValid returns whether the PlatformConfig has valid fields. An empty URL
// is valid; commands that talk to the platform check it themselves.
func (c PlatformConfig) IsValid() (bool, []error) {
	var errs []error
	if c.URL != "" && !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		errs = append(errs, fmt.Errorf("platform.url %q must start with http:// or https://", c.URL))
	}
	if strings.TrimSpace(c.TokenEnv) == "" {
		errs = append(errs, errors.New("platform.token_env must not be empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidPlatformConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Configured reports whether a git profile is configured.
func (c GitConfig) Configured() bool {
	return strings.TrimSpace(c.Repository) != ""
}

// Token returns the git token from the configured environment variable.
func (c GitConfig) Token() string {
	if c.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.TokenEnv)
}

// IsValid returns whether the BatchConfig has valid fields.
func (c BatchConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		errs = append(errs, fmt.Errorf("batch.concurrency %d must be between 1 and %d", c.Concurrency, MaxConcurrency))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("batch.output_dir must not be empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidBatchConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// IsValid returns whether the Config has valid fields. Env overrides bypass
// the CUE schema, so the loaded result is checked again here.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Platform.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Batch.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPlatformConfigError.
func (e *InvalidPlatformConfigError) Error() string {
	return fmt.Sprintf("invalid platform config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidPlatformConfig for errors.Is() compatibility.
func (e *InvalidPlatformConfigError) Unwrap() error { return ErrInvalidPlatformConfig }

// Error implements the error interface for InvalidBatchConfigError.
func (e *InvalidBatchConfigError) Error() string {
	return fmt.Sprintf("invalid batch config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidBatchConfig for errors.Is() compatibility.
func (e *InvalidBatchConfigError) Unwrap() error { return ErrInvalidBatchConfig }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

func joinErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
