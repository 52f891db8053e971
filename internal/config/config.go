package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Auth
		OAuth
		Cleanup
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	UI struct {
		TemplatesPath string
		StaticPath    string
	}

	Auth struct {
		SessionLifetime time.Duration
		BcryptCost      int
		HashWorkers     int // concurrent bcrypt operations allowed
		SecureCookies   bool
	}

	OAuth struct {
		GoogleClientID     string
		GoogleClientSecret string
		RedirectBaseURL    string        // e.g. "http://localhost:3000"
		RequestTimeout     time.Duration // bound on provider token/userinfo calls
	}

	Cleanup struct {
		Enabled        bool
		Schedule       string        // cron format: "*/30 * * * *" = every 30 minutes
		FlashRetention time.Duration // drop undelivered flash messages older than this
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./public")

	// Auth defaults
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12) // bcrypt cost factor, 10-13 is the sane range
	v.SetDefault("auth_hash_workers", 4)
	v.SetDefault("auth_secure_cookies", true)

	// OAuth defaults
	v.SetDefault("oauth_redirect_base_url", "http://localhost:3000")
	v.SetDefault("oauth_request_timeout", "10s")

	// Cleanup defaults
	v.SetDefault("cleanup_enabled", true)
	v.SetDefault("cleanup_schedule", "*/30 * * * *")
	v.SetDefault("cleanup_flash_retention", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Auth: Auth{
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			HashWorkers:     v.GetInt("AUTH_HASH_WORKERS"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
		},
		OAuth: OAuth{
			GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectBaseURL:    v.GetString("OAUTH_REDIRECT_BASE_URL"),
			RequestTimeout:     v.GetDuration("OAUTH_REQUEST_TIMEOUT"),
		},
		Cleanup: Cleanup{
			Enabled:        v.GetBool("CLEANUP_ENABLED"),
			Schedule:       v.GetString("CLEANUP_SCHEDULE"),
			FlashRetention: v.GetDuration("CLEANUP_FLASH_RETENTION"),
		},
	}
}
