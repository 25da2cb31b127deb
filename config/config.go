// Package config provides the process-wide scraper configuration. A Config is
// built once at startup and passed by value to every component.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendBrowser = "browser"
	BackendApify   = "apify"
)

// Config holds the scraper configuration
type Config struct {
	Backend  string        `mapstructure:"backend"`
	Server   ServerConfig  `mapstructure:"server"`
	Browser  BrowserConfig `mapstructure:"browser"`
	Timeouts TimeoutConfig `mapstructure:"timeouts"`
	Loader   LoaderConfig  `mapstructure:"loader"`
	Auth     AuthConfig    `mapstructure:"auth"`
	Extract  ExtractConfig `mapstructure:"extract"`
	Scrape   ScrapeConfig  `mapstructure:"scrape"`
	Apify    ApifyConfig   `mapstructure:"apify"`
	CORS     CORSConfig    `mapstructure:"cors"`
	Log      LogConfig     `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          string        `mapstructure:"port"`
	Path          string        `mapstructure:"path"`
	MaxConcurrent int64         `mapstructure:"max_concurrent"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// BrowserConfig holds headless browser launch settings
type BrowserConfig struct {
	Headless       bool   `mapstructure:"headless"`
	NoSandbox      bool   `mapstructure:"no_sandbox"`
	UserAgent      string `mapstructure:"user_agent"`
	ViewportWidth  int    `mapstructure:"viewport_width"`
	ViewportHeight int    `mapstructure:"viewport_height"`
	ExecPath       string `mapstructure:"exec_path"`
}

// TimeoutConfig bounds every blocking step of a scrape
type TimeoutConfig struct {
	Request    time.Duration `mapstructure:"request"`
	Launch     time.Duration `mapstructure:"launch"`
	Navigation time.Duration `mapstructure:"navigation"`
	Ready      time.Duration `mapstructure:"ready"`
	Login      time.Duration `mapstructure:"login"`
}

// LoaderConfig drives progressive content reveal
type LoaderConfig struct {
	MaxRounds        int           `mapstructure:"max_rounds"`
	SettleDelay      time.Duration `mapstructure:"settle_delay"`
	LoadMoreSelector string        `mapstructure:"load_more_selector"`
}

// AuthConfig describes the login surface of the target site
type AuthConfig struct {
	LoginURL         string   `mapstructure:"login_url"`
	EmailSelector    string   `mapstructure:"email_selector"`
	PasswordSelector string   `mapstructure:"password_selector"`
	SubmitSelector   string   `mapstructure:"submit_selector"`
	ConsentSelectors []string `mapstructure:"consent_selectors"`
	RejectPatterns   []string `mapstructure:"reject_patterns"`
}

// ExtractConfig holds the container selector shared by the loader and extractor
type ExtractConfig struct {
	ContainerSelector string `mapstructure:"container_selector"`
	ReadySelector     string `mapstructure:"ready_selector"`
}

// ScrapeConfig holds request defaults
type ScrapeConfig struct {
	DefaultLimit int      `mapstructure:"default_limit"`
	MaxLimit     int      `mapstructure:"max_limit"`
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// ApifyConfig holds the delegated scraping API settings
type ApifyConfig struct {
	Token             string        `mapstructure:"token"`
	BaseURL           string        `mapstructure:"base_url"`
	PostsActor        string        `mapstructure:"posts_actor"`
	CommentsActor     string        `mapstructure:"comments_actor"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// CORSConfig holds the headers attached to every response
type CORSConfig struct {
	AllowOrigin  string `mapstructure:"allow_origin"`
	AllowHeaders string `mapstructure:"allow_headers"`
	AllowMethods string `mapstructure:"allow_methods"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendBrowser)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.path", "/scrape")
	v.SetDefault("server.max_concurrent", 2)
	v.SetDefault("server.shutdown_grace", 10*time.Second)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)
	v.SetDefault("browser.exec_path", "")

	v.SetDefault("timeouts.request", 120*time.Second)
	v.SetDefault("timeouts.launch", 30*time.Second)
	v.SetDefault("timeouts.navigation", 30*time.Second)
	v.SetDefault("timeouts.ready", 15*time.Second)
	v.SetDefault("timeouts.login", 30*time.Second)

	v.SetDefault("loader.max_rounds", 3)
	v.SetDefault("loader.settle_delay", 2*time.Second)
	v.SetDefault("loader.load_more_selector", `div[role="button"][aria-label*="more" i]`)

	v.SetDefault("auth.login_url", "https://www.facebook.com/login")
	v.SetDefault("auth.email_selector", "#email")
	v.SetDefault("auth.password_selector", "#pass")
	v.SetDefault("auth.submit_selector", `button[name="login"]`)
	v.SetDefault("auth.consent_selectors", []string{
		`[data-cookiebanner="accept_button"]`,
		`button[data-testid="cookie-policy-manage-dialog-accept-button"]`,
		`[aria-label="Allow all cookies"]`,
	})
	v.SetDefault("auth.reject_patterns", []string{
		"/login",
		"checkpoint",
		"two_step_verification",
		"captcha",
		"/recover",
	})

	v.SetDefault("extract.container_selector", `[role="article"]`)
	v.SetDefault("extract.ready_selector", "body")

	v.SetDefault("scrape.default_limit", 10)
	v.SetDefault("scrape.max_limit", 200)
	v.SetDefault("scrape.allowed_hosts", []string{})

	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.posts_actor", "apify~facebook-pages-scraper")
	v.SetDefault("apify.comments_actor", "apify~facebook-comment-scraper")
	v.SetDefault("apify.timeout", 5*time.Minute)
	v.SetDefault("apify.requests_per_second", 1.0)

	v.SetDefault("cors.allow_origin", "*")
	v.SetDefault("cors.allow_headers", "authorization, x-client-info, apikey, content-type")
	v.SetDefault("cors.allow_methods", "POST, OPTIONS")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// NewViper returns a viper instance with defaults and environment bindings.
// Environment variables use the SCRAPER_ prefix with "." replaced by "_",
// e.g. SCRAPER_BROWSER_HEADLESS. APIFY_API_TOKEN is also honoured.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("scraper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("apify.token", "SCRAPER_APIFY_TOKEN", "APIFY_API_TOKEN")
	return v
}

// Load reads the optional config file into v and decodes the result. An empty
// path searches for config.yaml in . and ./config; a missing file is not an
// error.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration produced by the defaults alone.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults only contain decodable values.
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	switch c.Backend {
	case BackendBrowser:
	case BackendApify:
		if c.Apify.Token == "" {
			return fmt.Errorf("apify backend requires apify.token (or APIFY_API_TOKEN)")
		}
		if c.Apify.BaseURL == "" {
			return fmt.Errorf("apify.base_url cannot be empty")
		}
		if c.Apify.RequestsPerSecond <= 0 {
			return fmt.Errorf("apify.requests_per_second must be positive")
		}
	default:
		return fmt.Errorf("invalid backend '%s', must be one of: %s, %s", c.Backend, BackendBrowser, BackendApify)
	}

	if c.Scrape.DefaultLimit < 1 {
		return fmt.Errorf("scrape.default_limit must be at least 1")
	}
	if c.Scrape.MaxLimit < c.Scrape.DefaultLimit {
		return fmt.Errorf("scrape.max_limit must be at least scrape.default_limit")
	}

	if c.Loader.MaxRounds < 0 {
		return fmt.Errorf("loader.max_rounds cannot be negative")
	}
	if c.Loader.SettleDelay < 0 {
		return fmt.Errorf("loader.settle_delay cannot be negative")
	}

	if c.Browser.ViewportWidth < 1 || c.Browser.ViewportHeight < 1 {
		return fmt.Errorf("browser viewport must be positive")
	}

	for name, d := range map[string]time.Duration{
		"timeouts.request":    c.Timeouts.Request,
		"timeouts.launch":     c.Timeouts.Launch,
		"timeouts.navigation": c.Timeouts.Navigation,
		"timeouts.ready":      c.Timeouts.Ready,
		"timeouts.login":      c.Timeouts.Login,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.Extract.ContainerSelector == "" {
		return fmt.Errorf("extract.container_selector cannot be empty")
	}
	if c.Server.MaxConcurrent < 1 {
		return fmt.Errorf("server.max_concurrent must be at least 1")
	}
	return nil
}
