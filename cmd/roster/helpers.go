package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/config"
	"github.com/Veraticus/roster/internal/model"
	"github.com/Veraticus/roster/internal/storage"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.DatabasePath()

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadScope returns the tenant every command acts on.
func loadScope() (model.Scope, error) {
	cfg, err := config.LoadImportConfig()
	if err != nil {
		return model.Scope{}, tenantHint(err)
	}
	return cfg.Scope, nil
}

func tenantHint(err error) error {
	if errors.Is(err, common.ErrMissingConfig) {
		return common.NewUserError("no tenant configured; pass --tenant or set tenant.id in the config file", err)
	}
	return err
}

// parseAssignments splits "column=value" flags. The last '=' separates the
// value so headers may contain '='.
func parseAssignments(values []string) ([][2]string, error) {
	out := make([][2]string, 0, len(values))
	for _, v := range values {
		i := strings.LastIndex(v, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid assignment %q: want column=value", v)
		}
		column := strings.TrimSpace(v[:i])
		if column == "" {
			return nil, fmt.Errorf("invalid assignment %q: column is empty", v)
		}
		out = append(out, [2]string{column, strings.TrimSpace(v[i+1:])})
	}
	return out, nil
}

// saveConfig writes the current viper settings to the config file.
func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = filepath.Join(config.ConfigDir(), "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time, now time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		if m := int(d.Minutes()); m != 1 {
			return fmt.Sprintf("%d minutes ago", m)
		}
		return "1 minute ago"
	case d < 24*time.Hour:
		if h := int(d.Hours()); h != 1 {
			return fmt.Sprintf("%d hours ago", h)
		}
		return "1 hour ago"
	case d < 7*24*time.Hour:
		if days := int(d.Hours() / 24); days != 1 {
			return fmt.Sprintf("%d days ago", days)
		}
		return "yesterday"
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}
