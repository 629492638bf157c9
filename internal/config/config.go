// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Input    InputConfig    `mapstructure:"input" yaml:"input"`
	Attempt  AttemptConfig  `mapstructure:"attempt" yaml:"attempt"`
	Popup    PopupConfig    `mapstructure:"popup" yaml:"popup"`
	Locators LocatorsConfig `mapstructure:"locators" yaml:"locators"`
	Run      RunConfig      `mapstructure:"run" yaml:"run"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	// LogFile receives an appended copy of every entry. Empty disables the file core.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
	// FileFormat is "console" (" - " separated text) or "json".
	FileFormat string `mapstructure:"file_format" yaml:"file_format"`
	// TimeLayout is the Go time layout used for timestamps in both cores.
	TimeLayout string      `mapstructure:"time_layout" yaml:"time_layout"`
	MaxSize    int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int         `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool        `mapstructure:"compress" yaml:"compress"`
	Colors     ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the shared browser process.
type BrowserConfig struct {
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache    bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Debug           bool           `mapstructure:"debug" yaml:"debug"`
	ExecPath        string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
	// NavigationTimeout bounds a single page load.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// InputConfig describes where rows are read from and where results go.
type InputConfig struct {
	// Path is the workbook to read. Empty selects the newest match of Pattern in the working directory.
	Path    string `mapstructure:"path" yaml:"path"`
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
	Sheet   string `mapstructure:"sheet" yaml:"sheet"`
	Output  string `mapstructure:"output" yaml:"output"`
}

// AttemptConfig tunes a single login attempt.
type AttemptConfig struct {
	// WaitTimeout bounds every element wait, per candidate locator.
	WaitTimeout time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout"`
	// SettleDelay is the pause between clicking the login control and inspecting the result.
	SettleDelay     time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	SuccessKeywords []string      `mapstructure:"success_keywords" yaml:"success_keywords"`
	FailureKeywords []string      `mapstructure:"failure_keywords" yaml:"failure_keywords"`
	// ExcerptLength is the number of characters kept from a matched failure message.
	ExcerptLength int `mapstructure:"excerpt_length" yaml:"excerpt_length"`
}

// PopupConfig tunes the popup dismissal heuristic.
type PopupConfig struct {
	SearchIframes  bool          `mapstructure:"search_iframes" yaml:"search_iframes"`
	RemoveOverlays bool          `mapstructure:"remove_overlays" yaml:"remove_overlays"`
	ClickPause     time.Duration `mapstructure:"click_pause" yaml:"click_pause"`
	SettleDelay    time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
}

// LocatorsConfig holds the canonical default locator per field.
type LocatorsConfig struct {
	Email    string `mapstructure:"email" yaml:"email"`
	Password string `mapstructure:"password" yaml:"password"`
	Login    string `mapstructure:"login" yaml:"login"`
}

// RunConfig holds settings for the main loop.
type RunConfig struct {
	// MinInterval is the minimum gap between the start of two attempts. Zero disables pacing.
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "bulklogin")
	v.SetDefault("logger.log_file", "login_logs.txt")
	v.SetDefault("logger.file_format", "console")
	v.SetDefault("logger.time_layout", "02-01-2006 15:04:05")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.disable_cache", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.viewport", map[string]int{"width": 1920, "height": 1080})
	v.SetDefault("browser.navigation_timeout", "60s")

	// -- Input --
	v.SetDefault("input.pattern", "*.xlsx")
	v.SetDefault("input.output", "login_results.xlsx")

	// -- Attempt --
	v.SetDefault("attempt.wait_timeout", "12s")
	v.SetDefault("attempt.settle_delay", "2s")
	v.SetDefault("attempt.success_keywords", []string{"anasayfa", "dashboard", "welcome", "hoşgeldiniz", "hosgeldiniz"})
	v.SetDefault("attempt.failure_keywords", []string{"hatalı", "yanlış", "invalid", "incorrect"})
	v.SetDefault("attempt.excerpt_length", 80)

	// -- Popup --
	v.SetDefault("popup.search_iframes", true)
	v.SetDefault("popup.remove_overlays", true)
	v.SetDefault("popup.click_pause", "250ms")
	v.SetDefault("popup.settle_delay", "400ms")

	// -- Locators --
	v.SetDefault("locators.email", "//input[@id='eMkroEmail']")
	v.SetDefault("locators.password", "//input[@id='eMkroPassword']")
	v.SetDefault("locators.login", "//span[contains(.,'Giriş Yap')]")

	// -- Run --
	v.SetDefault("run.min_interval", "0s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Attempt.WaitTimeout <= 0 {
		return fmt.Errorf("attempt.wait_timeout must be a positive duration")
	}
	if c.Attempt.SettleDelay < 0 {
		return fmt.Errorf("attempt.settle_delay must not be negative")
	}
	if c.Attempt.ExcerptLength <= 0 {
		return fmt.Errorf("attempt.excerpt_length must be a positive integer")
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.Input.Output == "" {
		return fmt.Errorf("input.output is a required configuration field")
	}
	if c.Run.MinInterval < 0 {
		return fmt.Errorf("run.min_interval must not be negative")
	}
	if err := c.Popup.Validate(); err != nil {
		return fmt.Errorf("popup configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the popup timings.
func (p *PopupConfig) Validate() error {
	if p.ClickPause < 0 || p.SettleDelay < 0 {
		return fmt.Errorf("click_pause and settle_delay must not be negative")
	}
	return nil
}
