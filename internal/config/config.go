// Package config loads runtime settings from the environment.
//
// An optional .env file is read first; variables already present in the
// process environment win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	DBPath      string
	DatabaseURL string // Postgres is used if this is set

	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool

	TemplateDir string // empty means the templates embedded in the binary
	LogLevel    slog.Level

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

func Default() Config {
	return Config{
		Port:     8080,
		DBPath:   "data/yatube.db",
		TokenTTL: 24 * time.Hour,
		LogLevel: slog.LevelInfo,
	}
}

// GitHubEnabled reports whether both OAuth credentials are configured.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads envFiles (".env" when none are given) and then the environment.
// Missing files are ignored. Malformed values are errors.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: reading %s: %w", f, err)
		}
	}

	cfg := Default()

	if err := readEnvInt("PORT", &cfg.Port); err != nil {
		return Config{}, err
	}
	readEnvString("DB_PATH", &cfg.DBPath)
	readEnvString("DATABASE_URL", &cfg.DatabaseURL)
	readEnvString("JWT_SECRET", &cfg.JWTSecret)
	if err := readEnvDuration("TOKEN_TTL", &cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if err := readEnvBool("COOKIE_SECURE", &cfg.CookieSecure); err != nil {
		return Config{}, err
	}
	readEnvString("TEMPLATE_DIR", &cfg.TemplateDir)
	if err := readEnvLevel("LOG_LEVEL", &cfg.LogLevel); err != nil {
		return Config{}, err
	}
	readEnvString("GITHUB_CLIENT_ID", &cfg.GitHubClientID)
	readEnvString("GITHUB_CLIENT_SECRET", &cfg.GitHubClientSecret)
	readEnvString("GITHUB_CALLBACK_URL", &cfg.GitHubCallbackURL)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: PORT out of range: %d", cfg.Port)
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("config: TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvInt(name string, value *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	*value = n
	return nil
}

func readEnvBool(name string, value *bool) error {
	switch v := strings.ToLower(os.Getenv(name)); v {
	case "":
	case "true", "1", "yes", "on":
		*value = true
	case "false", "0", "no", "off":
		*value = false
	default:
		return fmt.Errorf("config: invalid %s %q", name, v)
	}
	return nil
}

func readEnvDuration(name string, value *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	*value = d
	return nil
}

func readEnvLevel(name string, value *slog.Level) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	if err := value.UnmarshalText([]byte(v)); err != nil {
		return fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	return nil
}
