package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.transport", typ: kString, env: "FIRMKIT_SERVER_TRANSPORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Transport = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Transport },
	},
	{
		key: "server.port", typ: kInt, env: "FIRMKIT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "FIRMKIT_SERVER_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "firmware.base_url", typ: kString, env: "FIRMKIT_FIRMWARE_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Firmware.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Firmware.BaseURL },
	},
	{
		key: "firmware.provider", typ: kString, env: "FIRMKIT_FIRMWARE_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Firmware.Provider = v.(string) },
		extract: func(cfg Config) any { return cfg.Firmware.Provider },
	},
	{
		key: "firmware.auth_file", typ: kString, env: "FIRMKIT_FIRMWARE_AUTH_FILE",
		apply:   func(cfg *Config, v any) { cfg.Firmware.AuthFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Firmware.AuthFile },
	},
	{
		key: "firmware.timeout", typ: kString, env: "FIRMKIT_FIRMWARE_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Firmware.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Firmware.Timeout },
	},
	{
		key: "quota.window", typ: kString, env: "FIRMKIT_QUOTA_WINDOW",
		apply:   func(cfg *Config, v any) { cfg.Quota.Window = v.(string) },
		extract: func(cfg Config) any { return cfg.Quota.Window },
	},
	{
		key: "quota.time_zone", typ: kString, env: "FIRMKIT_QUOTA_TIME_ZONE",
		apply:   func(cfg *Config, v any) { cfg.Quota.TimeZone = v.(string) },
		extract: func(cfg Config) any { return cfg.Quota.TimeZone },
	},
	{
		key: "quota.width", typ: kInt, env: "FIRMKIT_QUOTA_WIDTH",
		apply:   func(cfg *Config, v any) { cfg.Quota.Width = v.(int) },
		extract: func(cfg Config) any { return cfg.Quota.Width },
	},
	{
		key: "gemini.base_url", typ: kString, env: "FIRMKIT_GEMINI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.BaseURL },
	},
	{
		key: "gemini.model", typ: kString, env: "FIRMKIT_GEMINI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.Model },
	},
	{
		key: "gemini.timeout", typ: kString, env: "FIRMKIT_GEMINI_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Gemini.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.Timeout },
	},
	{
		key: "gemini.api_key", typ: kString, env: "GEMINI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.APIKey },
	},
	{
		key: "log.level", typ: kString, env: "FIRMKIT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				slog.Warn("could not parse integer from env var, using default value", "env", s.env, "value", raw, "error", err)
			}
		}
	}
}
