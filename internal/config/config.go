// Package config loads the pulp configuration file.
//
// Values are resolved in priority order: defaults, the TOML config file,
// environment variables, then command line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/h0rv/pulp/internal/domain"
)

// Defaults.
const (
	DefaultAPIURL         = "http://localhost:4000"
	DefaultRequestTimeout = 15 * time.Second
	DefaultLogLevel       = "info"
)

// Environment variables.
const (
	EnvConfig = "PULP_CONFIG"
	EnvAPIURL = "PULP_API_URL"
)

// Config holds the settings of the pulp client.
type Config struct {
	// APIURL is the base URL of the pulpe server.
	APIURL string `toml:"api_url"`
	// WebURL is the base URL of the pulpe web client, used to open cards in
	// a browser. Defaults to APIURL.
	WebURL string `toml:"web_url"`

	Token        string `toml:"token"`
	TokenCommand string `toml:"token_command"`

	// Owner and Board select the board opened on start. Board may also be
	// given as "owner/slug".
	Owner string `toml:"owner"`
	Board string `toml:"board"`

	RequestTimeout time.Duration `toml:"request_timeout"`

	// LogFile receives the logs. The terminal belongs to the UI, so logs are
	// discarded when it is empty.
	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
}

// Default returns a Config holding the defaults.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

// DefaultPath returns the config file location: $PULP_CONFIG, or
// pulp/config.toml under the user config directory ($XDG_CONFIG_HOME on
// Linux). It returns "" when no location can be determined.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pulp", "config.toml")
}

// Load reads the config file at path over the defaults and applies the
// environment. An empty path means DefaultPath, which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	loadFromEnv(cfg)

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile decodes TOML config from path. Unknown keys are rejected
// so that typos do not go unnoticed.
func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
}

// finalize fills derived values and validates the result.
func (c *Config) finalize() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.WebURL == "" {
		c.WebURL = c.APIURL
	}
	c.WebURL = strings.TrimRight(c.WebURL, "/")
	c.LogFile = expandPath(c.LogFile)
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c.Validate()
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"api_url": c.APIURL, "web_url": c.WebURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q: must be an http(s) URL", name, raw)
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request_timeout %s: must be positive", c.RequestTimeout)
	}
	return nil
}

// DefaultBoard returns the board to open on start, or a zero reference.
func (c *Config) DefaultBoard() domain.BoardRef {
	board := strings.TrimSpace(c.Board)
	if board == "" {
		return domain.BoardRef{}
	}
	if strings.Contains(board, "/") || c.Owner == "" {
		return domain.ParseBoardRef(board)
	}
	return domain.BoardRef{Owner: c.Owner, Slug: board}
}

// CardURL returns the web client URL of a card, routed as
// /{owner}/{board}/{list}/{card}.
func (c *Config) CardURL(owner, boardSlug, listSlug, cardSlug string) string {
	segments := []string{owner, boardSlug, listSlug, cardSlug}
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.WebURL + "/" + strings.Join(segments, "/")
}

// expandPath expands a leading ~ to the home directory.
func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
