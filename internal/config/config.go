package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kalambet/firmkit/internal/credentials"
)

// Transports accepted by server.transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	Server   ServerConfig
	Firmware FirmwareConfig
	Quota    QuotaConfig
	Gemini   GeminiConfig
	Log      LogConfig
}

type ServerConfig struct {
	Transport string
	Port      int
	Token     string
}

type FirmwareConfig struct {
	BaseURL  string
	Provider string
	AuthFile string
	Timeout  string
}

type QuotaConfig struct {
	Window   string
	TimeZone string
	Width    int
}

type GeminiConfig struct {
	BaseURL string
	Model   string
	Timeout string
	APIKey  string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Transport: TransportStdio,
			Port:      4100,
		},
		Firmware: FirmwareConfig{
			BaseURL:  "https://app.firmware.ai/api/v1",
			Provider: "firmware",
			AuthFile: credentials.DefaultPath(),
			Timeout:  "10s",
		},
		Quota: QuotaConfig{
			Window:   "5h",
			TimeZone: "UTC",
			Width:    26,
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-2.0-flash",
			Timeout: "60s",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend and applies FIRMKIT_*
// environment overrides. Secrets are only read from the environment.
//
// When no Gemini API key is set, the "google" entry of the auth config
// (firmware.auth_file) is consulted as a fallback.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), func(path string) keychain {
		return credentials.NewStore(path)
	})
}

// keychain abstracts the auth config store for testing.
type keychain interface {
	Resolve(provider string) (string, error)
}

func loadWith(b ConfigBackend, openKeychain func(path string) keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Gemini.APIKey == "" && openKeychain != nil {
		if key, err := openKeychain(cfg.Firmware.AuthFile).Resolve("google"); err == nil && key != "" {
			cfg.Gemini.APIKey = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks that every value can be used to build the clients.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Transport, validation.Required, validation.In(TransportStdio, TransportHTTP)),
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(&c.Firmware,
		validation.Field(&c.Firmware.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Firmware.Provider, validation.Required),
		validation.Field(&c.Firmware.AuthFile, validation.Required),
		validation.Field(&c.Firmware.Timeout, validation.Required, validation.By(positiveDuration)),
	); err != nil {
		return fmt.Errorf("firmware: %w", err)
	}
	if err := validation.ValidateStruct(&c.Quota,
		validation.Field(&c.Quota.Window, validation.Required, validation.By(positiveDuration)),
		validation.Field(&c.Quota.TimeZone, validation.Required, validation.By(loadableZone)),
		validation.Field(&c.Quota.Width, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("quota: %w", err)
	}
	if err := validation.ValidateStruct(&c.Gemini,
		validation.Field(&c.Gemini.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Gemini.Model, validation.Required),
		validation.Field(&c.Gemini.Timeout, validation.Required, validation.By(nonNegativeDuration)),
	); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	return validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
	)
}

// TimeoutDuration returns the research API request bound.
func (c FirmwareConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// WindowDuration returns the length of the quota window.
func (c QuotaConfig) WindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.Window)
	return d
}

// Location returns the time zone used to print the reset time.
func (c QuotaConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TimeoutDuration returns the image request bound. Zero disables it.
func (c GeminiConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

func positiveDuration(value any) error {
	s, _ := value.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 10s or 5h")
	}
	if d <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func nonNegativeDuration(value any) error {
	s, _ := value.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 60s")
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func loadableZone(value any) error {
	s, _ := value.(string)
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown time zone %q", s)
	}
	return nil
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "firmkit", "config.json")
}
