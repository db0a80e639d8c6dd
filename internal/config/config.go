// Package config loads the bot settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvToken       = "TELEGRAM_BOT_TOKEN"
	EnvAdminIDs    = "ADMIN_IDS"
	EnvMaxFileSize = "MAX_FILE_SIZE_MB"

	// DefaultMaxFileSizeMB is the upload quota for standard users.
	DefaultMaxFileSizeMB int64 = 10
)

var (
	ErrMissingToken       = errors.New(EnvToken + " is not set")
	ErrInvalidAdminIDs    = errors.New(EnvAdminIDs + " contains non-integer values")
	ErrInvalidMaxFileSize = errors.New(EnvMaxFileSize + " must be a positive integer")
)

// Config is read once at start-up and never modified afterwards.
type Config struct {
	Token         string
	AdminIDs      map[int64]struct{}
	MaxFileSizeMB int64
}

// MaxFileSizeBytes returns the quota in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

// IsPrivileged reports whether the user is exempt from the size quota.
func (c *Config) IsPrivileged(userID int64) bool {
	_, ok := c.AdminIDs[userID]
	return ok
}

// Load reads a .env file from envFile when it exists, then builds the
// Config from the process environment. Variables already set in the
// environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{MaxFileSizeMB: DefaultMaxFileSizeMB}

	token, _ := lookup(EnvToken)
	cfg.Token = strings.TrimSpace(token)
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	raw, _ := lookup(EnvAdminIDs)
	ids, err := ParseAdminIDs(raw)
	if err != nil {
		return nil, err
	}
	cfg.AdminIDs = ids

	if v, ok := lookup(EnvMaxFileSize); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMaxFileSize, v)
		}
		cfg.MaxFileSizeMB = n
	}

	return cfg, nil
}

// ParseAdminIDs parses a comma-separated list of user ids. Empty entries are
// ignored.
func ParseAdminIDs(raw string) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAdminIDs, part)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}
