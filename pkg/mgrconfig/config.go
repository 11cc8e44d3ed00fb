// Package mgrconfig loads phpmgr's own settings. The file uses the same ini
// dialect as php.ini, with dotted names grouped in sections.
package mgrconfig

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/logger"
	"github.com/thesabbir/phpmanager/pkg/util"
)

const (
	// DefaultConfigPath is the default path for phpmgr's own config
	DefaultConfigPath = "/etc/phpmanager/phpmgr.ini"

	// Default values
	DefaultListen          = "127.0.0.1"
	DefaultAPIPort         = 8890
	DefaultEnableSwagger   = false
	DefaultRequireKey      = true
	DefaultDatabasePath    = "/var/lib/phpmanager/phpmanager.db"
	DefaultSnapshotDir     = "/var/lib/phpmanager/snapshots"
	DefaultSnapshotKeep    = 100
	DefaultRetentionDays   = 90
	DefaultGlobalRateLimit = 100
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

// Config represents phpmgr's configuration
type Config struct {
	API       APIConfig
	Host      HostConfig
	Snapshot  SnapshotConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// APIConfig contains API server configuration
type APIConfig struct {
	Listen        string
	Port          int
	EnableSwagger bool

	// RequireKey guards /api with API keys. Keys are required on
	// non-loopback addresses whatever its value.
	RequireKey bool
}

// HostConfig says where the web server configuration lives
type HostConfig struct {
	DatabasePath string
	SitePath     string
}

// SnapshotConfig controls ini file backups
type SnapshotConfig struct {
	Dir  string
	Keep int
}

// AuditConfig contains audit log settings
type AuditConfig struct {
	Enabled       bool
	RetentionDays int
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// LogConfig selects the log level and output format
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No phpmgr config, using defaults", "path", path)
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a configuration, falling back to defaults for absent keys
func Parse(r io.Reader) (*Config, error) {
	doc, err := ini.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := DefaultConfig()
	v := &values{doc: doc}

	cfg.API.Listen = v.getString("api.listen", cfg.API.Listen)
	cfg.API.Port = v.getInt("api.port", cfg.API.Port)
	cfg.API.EnableSwagger = v.getBool("api.enable_swagger", cfg.API.EnableSwagger)
	cfg.API.RequireKey = v.getBool("api.require_key", cfg.API.RequireKey)

	cfg.Host.DatabasePath = v.getString("host.database", cfg.Host.DatabasePath)
	cfg.Host.SitePath = v.getString("host.site_path", cfg.Host.SitePath)

	cfg.Snapshot.Dir = v.getString("snapshot.dir", cfg.Snapshot.Dir)
	cfg.Snapshot.Keep = v.getInt("snapshot.keep", cfg.Snapshot.Keep)

	cfg.Audit.Enabled = v.getBool("audit.enabled", cfg.Audit.Enabled)
	cfg.Audit.RetentionDays = v.getInt("audit.retention_days", cfg.Audit.RetentionDays)

	cfg.RateLimit.RequestsPerMinute = v.getInt("ratelimit.requests_per_minute", cfg.RateLimit.RequestsPerMinute)
	// Default burst = requests per minute
	cfg.RateLimit.Burst = v.getInt("ratelimit.burst", cfg.RateLimit.RequestsPerMinute)

	cfg.Log.Level = strings.ToLower(v.getString("log.level", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(v.getString("log.format", cfg.Log.Format))

	if len(v.errs) > 0 {
		return nil, errors.Join(v.errs...)
	}
	return cfg, nil
}

// values reads typed settings, collecting conversion errors
type values struct {
	doc  *ini.Document
	errs []error
}

func (v *values) getString(name, def string) string {
	s, ok := v.doc.GetSetting(name)
	if !ok {
		return def
	}
	if value := util.Unquote(s.Value); value != "" {
		return value
	}
	return def
}

func (v *values) getInt(name string, def int) int {
	raw := v.getString(name, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.errs = append(v.errs, fmt.Errorf("%s: %q is not a number", name, raw))
		return def
	}
	return n
}

func (v *values) getBool(name string, def bool) bool {
	raw := v.getString(name, "")
	switch strings.ToLower(raw) {
	case "":
		return def
	case "1", "on", "yes", "true":
		return true
	case "0", "off", "no", "false", "none":
		return false
	}
	v.errs = append(v.errs, fmt.Errorf("%s: %q is not a boolean", name, raw))
	return def
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Listen:        DefaultListen,
			Port:          DefaultAPIPort,
			EnableSwagger: DefaultEnableSwagger,
			RequireKey:    DefaultRequireKey,
		},
		Host: HostConfig{
			DatabasePath: DefaultDatabasePath,
			SitePath:     "/",
		},
		Snapshot: SnapshotConfig{
			Dir:  DefaultSnapshotDir,
			Keep: DefaultSnapshotKeep,
		},
		Audit: AuditConfig{
			Enabled:       true,
			RetentionDays: DefaultRetentionDays,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: DefaultGlobalRateLimit,
			Burst:             DefaultGlobalRateLimit,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Address returns the API listen address
func (c *Config) Address() string {
	return c.API.Listen + ":" + strconv.Itoa(c.API.Port)
}

// KeyRequired reports whether API requests must carry an API key
func (c *Config) KeyRequired() bool {
	return c.API.RequireKey || !IsLoopback(c.API.Listen)
}

// IsLoopback reports whether listen only accepts local connections. An empty
// address listens on every interface.
func IsLoopback(listen string) bool {
	if strings.EqualFold(listen, "localhost") {
		return true
	}
	ip := net.ParseIP(strings.Trim(listen, "[]"))
	return ip != nil && ip.IsLoopback()
}

// SlogLevel converts Log.Level for the logger
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// DefaultConfigContent is written by CreateDefaultConfig
const DefaultConfigContent = `; phpmgr configuration

[api]
api.listen = 127.0.0.1
api.port = 8890
api.enable_swagger = Off
api.require_key = On

[host]
host.database = /var/lib/phpmanager/phpmanager.db
host.site_path = /

[snapshot]
snapshot.dir = /var/lib/phpmanager/snapshots
snapshot.keep = 100

[audit]
audit.enabled = On
audit.retention_days = 90

[ratelimit]
ratelimit.requests_per_minute = 100
ratelimit.burst = 100

[log]
log.level = info
log.format = json
`

// CreateDefaultConfig writes a default config file unless one exists
func CreateDefaultConfig(path string) error {
	if path == "" {
		path = DefaultConfigPath
	}
	if util.FileExists(path) {
		return fmt.Errorf("config already exists: %s", path)
	}

	dir, err := util.DirOf(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return util.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := io.WriteString(w, DefaultConfigContent)
		return err
	})
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", c.API.Port)
	}

	if c.Host.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}

	if c.Snapshot.Dir == "" {
		return fmt.Errorf("snapshot directory must not be empty")
	}

	if c.Snapshot.Keep < 1 {
		return fmt.Errorf("snapshot keep must be at least 1")
	}

	if c.Audit.RetentionDays < 1 {
		return fmt.Errorf("audit retention must be at least 1 day")
	}

	if c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per minute")
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}

	return nil
}
