package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/paularlott/cli"
	"github.com/robfig/cron/v3"

	"github.com/martinsuchenak/edgetag/internal/classify"
)

// Config holds the application configuration
type Config struct {
	DataDir         string
	ListenAddr      string
	APIAuthToken    string
	MCPAuthToken    string
	Schedule        string
	ScheduleTag     string
	ScheduleCommit  bool
	ExcludePrefixes []netip.Prefix
	Workers         int
	QueueSize       int
}

const (
	DefaultDataDir    = "./data"
	DefaultListenAddr = ":8080"
	DefaultTag        = "public-facing"
	DefaultWorkers    = 1
	DefaultQueueSize  = 16
)

// GlobalFlags are shared by every command that touches the store
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Directory holding the SQLite database",
			DefaultValue: DefaultDataDir,
			EnvVars:      []string{"EDGETAG_DATA_DIR"},
			Global:       true,
		},
		&cli.StringFlag{
			Name:    "exclude",
			Usage:   "Extra IPv4 prefixes never treated as public (comma separated)",
			EnvVars: []string{"EDGETAG_EXCLUDE_PREFIXES"},
			Global:  true,
		},
	}
}

// GetFlags returns the flags of the server command
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "listen-addr",
			Usage:        "HTTP listen address",
			DefaultValue: DefaultListenAddr,
			EnvVars:      []string{"EDGETAG_LISTEN_ADDR"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "Bearer token required on /api requests",
			EnvVars: []string{"EDGETAG_API_AUTH_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "mcp-token",
			Usage:   "Bearer token required on /mcp requests",
			EnvVars: []string{"EDGETAG_MCP_AUTH_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "schedule",
			Usage:   "Cron schedule for automatic runs (e.g. @hourly, */30 * * * *)",
			EnvVars: []string{"EDGETAG_SCHEDULE"},
		},
		&cli.StringFlag{
			Name:         "schedule-tag",
			Usage:        "Tag applied by scheduled runs",
			DefaultValue: DefaultTag,
			EnvVars:      []string{"EDGETAG_SCHEDULE_TAG"},
		},
		&cli.BoolFlag{
			Name:         "schedule-commit",
			Usage:        "Commit changes made by scheduled runs",
			DefaultValue: true,
			EnvVars:      []string{"EDGETAG_SCHEDULE_COMMIT"},
		},
		&cli.IntFlag{
			Name:         "workers",
			Usage:        "Number of concurrent job workers",
			DefaultValue: DefaultWorkers,
			EnvVars:      []string{"EDGETAG_WORKERS"},
		},
		&cli.IntFlag{
			Name:         "queue-size",
			Usage:        "Maximum number of queued jobs",
			DefaultValue: DefaultQueueSize,
			EnvVars:      []string{"EDGETAG_QUEUE_SIZE"},
		},
	}
}

// LoadBase reads the global flags shared by every command
func LoadBase(cmd *cli.Command) (*Config, error) {
	cfg := &Config{
		DataDir:    coalesce(cmd.GetString("data-dir"), DefaultDataDir),
		ListenAddr: DefaultListenAddr,
	}

	prefixes, err := classify.ParsePrefixes(parseList(cmd.GetString("exclude")))
	if err != nil {
		return nil, fmt.Errorf("parsing exclude prefixes: %w", err)
	}
	cfg.ExcludePrefixes = prefixes

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the global flags plus the server flags from GetFlags
func Load(cmd *cli.Command) (*Config, error) {
	cfg, err := LoadBase(cmd)
	if err != nil {
		return nil, err
	}

	cfg.ListenAddr = coalesce(cmd.GetString("listen-addr"), DefaultListenAddr)
	cfg.APIAuthToken = cmd.GetString("api-token")
	cfg.MCPAuthToken = cmd.GetString("mcp-token")
	cfg.Schedule = strings.TrimSpace(cmd.GetString("schedule"))
	cfg.ScheduleTag = coalesce(cmd.GetString("schedule-tag"), DefaultTag)
	cfg.ScheduleCommit = cmd.GetBool("schedule-commit")
	cfg.Workers = cmd.GetInt("workers")
	cfg.QueueSize = cmd.GetInt("queue-size")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills numeric defaults and rejects unusable values
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.DataDir == "" {
		return errors.New("data directory is required")
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
		if c.ScheduleTag == "" {
			return errors.New("schedule tag is required when a schedule is set")
		}
	}
	return nil
}

// IsAPIAuthEnabled reports whether API requests need a bearer token
func (c *Config) IsAPIAuthEnabled() bool {
	return c.APIAuthToken != ""
}

// IsMCPEnabled checks if MCP authentication is configured
func (c *Config) IsMCPEnabled() bool {
	return c.MCPAuthToken != ""
}

// Classifier returns a classifier honoring the configured exclusions
func (c *Config) Classifier() *classify.Classifier {
	return classify.New(c.ExcludePrefixes...)
}

// coalesce returns the first non-empty string value
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseList splits a comma or whitespace separated list
func parseList(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
