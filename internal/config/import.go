package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/model"
	"github.com/Veraticus/roster/internal/service"
	"github.com/Veraticus/roster/internal/transform"
	"github.com/spf13/viper"
)

// ImportConfig holds the settings of the spreadsheet import wizard.
type ImportConfig struct {
	DefaultType        model.EmployeeType
	DateFormats        []string
	Scope              model.Scope
	Retry              service.RetryOptions
	MaxRows            int
	PositionalFallback bool
}

// DefaultDatabasePath returns the database location used when none is configured.
func DefaultDatabasePath() string {
	return ExpandPath("~/.local/share/roster/roster.db")
}

// DatabasePath returns the configured database location.
func DatabasePath() string {
	if v := viper.GetString("database.path"); v != "" {
		return ExpandPath(v)
	}
	return DefaultDatabasePath()
}

// LoadImportConfig reads the import settings from viper, filling defaults.
// A tenant is required: every import runs on behalf of exactly one.
func LoadImportConfig() (*ImportConfig, error) {
	cfg := &ImportConfig{
		DefaultType:        model.EmployeeTypePermanent,
		DateFormats:        transform.DefaultDateFormats(),
		Retry:              service.DefaultRetryOptions(),
		PositionalFallback: true,
		Scope: model.Scope{
			TenantID: strings.TrimSpace(viper.GetString("tenant.id")),
			UserID:   strings.TrimSpace(viper.GetString("tenant.user")),
		},
	}

	if cfg.Scope.UserID == "" {
		cfg.Scope.UserID = os.Getenv("USER")
	}
	if err := cfg.Scope.Validate(); err != nil {
		return nil, fmt.Errorf("%w: tenant.id: %w", common.ErrMissingConfig, err)
	}

	if formats := viper.GetStringSlice("import.date_formats"); len(formats) > 0 {
		cfg.DateFormats = formats
	}
	if v := viper.GetString("import.default_employee_type"); v != "" {
		typ := model.EmployeeType(strings.ToLower(strings.TrimSpace(v)))
		if !typ.IsValid() {
			return nil, fmt.Errorf("%w: import.default_employee_type %q", common.ErrInvalidConfig, v)
		}
		cfg.DefaultType = typ
	}
	if viper.IsSet("import.positional_fallback") {
		cfg.PositionalFallback = viper.GetBool("import.positional_fallback")
	}
	if viper.IsSet("import.max_rows") {
		cfg.MaxRows = viper.GetInt("import.max_rows")
		if cfg.MaxRows < 0 {
			return nil, fmt.Errorf("%w: import.max_rows cannot be negative", common.ErrInvalidConfig)
		}
	}

	if viper.IsSet("import.retry.max_attempts") {
		cfg.Retry.MaxAttempts = viper.GetInt("import.retry.max_attempts")
	}
	if viper.IsSet("import.retry.initial_delay") {
		cfg.Retry.InitialDelay = viper.GetDuration("import.retry.initial_delay")
	}
	if viper.IsSet("import.retry.max_delay") {
		cfg.Retry.MaxDelay = viper.GetDuration("import.retry.max_delay")
	}
	if viper.IsSet("import.retry.multiplier") {
		cfg.Retry.Multiplier = viper.GetFloat64("import.retry.multiplier")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("%w: import.retry.max_attempts must be at least 1", common.ErrInvalidConfig)
	}
	if cfg.Retry.InitialDelay < 0 || cfg.Retry.MaxDelay < cfg.Retry.InitialDelay {
		return nil, fmt.Errorf("%w: import.retry delays are out of order", common.ErrInvalidConfig)
	}

	return cfg, nil
}

// TransformOptions converts the config into transformer options.
func (c *ImportConfig) TransformOptions() transform.Options {
	return transform.Options{
		DateFormats: c.DateFormats,
		DefaultType: c.DefaultType,
		TenantID:    c.Scope.TenantID,
	}
}

// ConfigDir returns the directory holding the config file and OAuth token.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "roster")
	}
	return ExpandPath("~/.config/roster")
}
