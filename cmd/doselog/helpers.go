package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/doselog/internal/config"
	"github.com/at-ishikawa/doselog/internal/database"
)

// IDListFlag accepts a comma separated list of numeric ids. An empty value
// yields an empty, non-nil list so that commands can distinguish clearing a
// set from leaving it unset.
type IDListFlag []int64

// Set implements pflag.Value.
func (f *IDListFlag) Set(v string) error {
	ids := make([]int64, 0)
	if v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	*f = ids
	return nil
}

// String implements pflag.Value.
func (f *IDListFlag) String() string {
	if f == nil {
		return ""
	}
	parts := make([]string, 0, len(*f))
	for _, id := range *f {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

// Type implements pflag.Value.
func (f *IDListFlag) Type() string {
	return "IDListFlag"
}

var (
	_ pflag.Value = (*IDListFlag)(nil)
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

func openDatabase() (*sqlx.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database.Open > %w", err)
	}
	return db, nil
}

// parseDate interprets a --date flag value as a UTC calendar day and returns
// its millisecond timestamp at midnight. An empty value means today.
func parseDate(value string, now time.Time) (int64, error) {
	if value == "" {
		day := now.UTC().Truncate(24 * time.Hour)
		return day.UnixMilli(), nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return day.UnixMilli(), nil
}

// parseIDArg converts a positional id argument.
func parseIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func formatDay(millis int64) string {
	return time.UnixMilli(millis).UTC().Format("2006-01-02")
}
