// Package config loads vitalpress settings from an optional YAML file and
// VITALPRESS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

// EnvPrefix is prepended to every environment override, e.g.
// VITALPRESS_BACKEND_URL for backend.url.
const EnvPrefix = "VITALPRESS"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Drafts  DraftsConfig  `mapstructure:"drafts"`
	Warmup  WarmupConfig  `mapstructure:"warmup"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Site    SiteConfig    `mapstructure:"site"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type BackendConfig struct {
	URL       string        `mapstructure:"url"`
	Token     string        `mapstructure:"token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	// GenerateRate is the allowed generate calls per minute.
	GenerateRate  float64 `mapstructure:"generate_rate"`
	GenerateBurst int     `mapstructure:"generate_burst"`
}

type CacheConfig struct {
	// Driver is memory, redis or none.
	Driver        string        `mapstructure:"driver"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// CookieSecret signs the flash and CSRF cookies. Empty generates a
	// secret per process.
	CookieSecret string `mapstructure:"cookie_secret"`
	SecureCookie bool   `mapstructure:"secure_cookie"`
}

type DraftsConfig struct {
	// Path of the SQLite database. Empty disables drafts.
	Path string `mapstructure:"path"`
}

type WarmupConfig struct {
	// Schedule is a cron spec; empty disables the job.
	Schedule  string   `mapstructure:"schedule"`
	Positions []string `mapstructure:"positions"`
	Videos    bool     `mapstructure:"videos"`
}

type ThemeConfig struct {
	Name    string `mapstructure:"name"`
	Variant string `mapstructure:"variant"`
	// Dir holds extra go-theme manifests.
	Dir string `mapstructure:"dir"`
}

type SiteConfig struct {
	Title string `mapstructure:"title"`
	// Sections points to a YAML or JSON sections catalog. Empty uses the
	// embedded one.
	Sections string `mapstructure:"sections"`
	// TemplatesDir serves page templates from disk and reloads them on
	// change.
	TemplatesDir string `mapstructure:"templates_dir"`
}

type LogConfig struct {
	Level      string   `mapstructure:"level"`
	FileLevel  string   `mapstructure:"file_level"`
	File       string   `mapstructure:"file"`
	MaxSizeMB  int      `mapstructure:"max_size_mb"`
	MaxBackups int      `mapstructure:"max_backups"`
	JSON       bool     `mapstructure:"json"`
	Components []string `mapstructure:"components"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			Timeout:       10 * time.Second,
			UserAgent:     "vitalpress",
			GenerateRate:  6,
			GenerateBurst: 2,
		},
		Cache: CacheConfig{Driver: "memory", TTL: 2 * time.Minute, RedisPrefix: "vitalpress:"},
		Admin: AdminConfig{Username: "admin"},
		Warmup: WarmupConfig{
			Positions: []string{
				string(post.PositionHero),
				string(post.PositionFeatured),
				string(post.PositionTrending),
				string(post.PositionLatest),
			},
			Videos: true,
		},
		Theme: ThemeConfig{Name: "vital", Variant: "light"},
		Site:  SiteConfig{Title: "VitalPress"},
		Log:   LogConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
	}
}

// Load reads path when given, otherwise ./vitalpress.yaml if present, then
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vitalpress")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.token", d.Backend.Token)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("backend.user_agent", d.Backend.UserAgent)
	v.SetDefault("backend.generate_rate", d.Backend.GenerateRate)
	v.SetDefault("backend.generate_burst", d.Backend.GenerateBurst)
	v.SetDefault("cache.driver", d.Cache.Driver)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.redis_prefix", d.Cache.RedisPrefix)
	v.SetDefault("admin.username", d.Admin.Username)
	v.SetDefault("admin.password", d.Admin.Password)
	v.SetDefault("admin.cookie_secret", d.Admin.CookieSecret)
	v.SetDefault("admin.secure_cookie", d.Admin.SecureCookie)
	v.SetDefault("drafts.path", d.Drafts.Path)
	v.SetDefault("warmup.schedule", d.Warmup.Schedule)
	v.SetDefault("warmup.positions", d.Warmup.Positions)
	v.SetDefault("warmup.videos", d.Warmup.Videos)
	v.SetDefault("theme.name", d.Theme.Name)
	v.SetDefault("theme.variant", d.Theme.Variant)
	v.SetDefault("theme.dir", d.Theme.Dir)
	v.SetDefault("site.title", d.Site.Title)
	v.SetDefault("site.sections", d.Site.Sections)
	v.SetDefault("site.templates_dir", d.Site.TemplatesDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file_level", d.Log.FileLevel)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.components", d.Log.Components)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Backend.URL != "" {
		if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("backend.url %q is not an absolute URL", c.Backend.URL))
		}
	}
	switch c.Cache.Driver {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver %q must be memory, redis or none", c.Cache.Driver))
	}
	if c.Backend.GenerateRate < 0 {
		errs = append(errs, errors.New("backend.generate_rate must not be negative"))
	}
	for _, raw := range c.Warmup.Positions {
		if _, err := post.ParsePosition(raw); err != nil {
			errs = append(errs, fmt.Errorf("warmup.positions: %w", err))
		}
	}
	if c.Admin.Password == "" && c.Admin.CookieSecret != "" {
		errs = append(errs, errors.New("admin.password is required when admin is configured"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// AdminEnabled reports whether admin routes should be mounted.
func (c Config) AdminEnabled() bool {
	return c.Admin.Username != "" && c.Admin.Password != ""
}
