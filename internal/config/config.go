package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type LocalConfig struct {
	Dir           string `yaml:"dir"`
	InMemory      bool   `yaml:"in_memory"`
	AnonymousRole string `yaml:"anonymous_role"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AllowedDomains []string      `yaml:"allowed_domains"`
	AdminEmails    []string      `yaml:"admin_emails"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN      string `yaml:"url"`
		KVTable  string `yaml:"kv_table"`
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Auth     AuthConfig     `yaml:"auth"`
	Local    LocalConfig    `yaml:"local"`
	Telegram TelegramConfig `yaml:"telegram"`
	Reports  struct {
		FontPath string `yaml:"font_path"`
	} `yaml:"reports"`
}

// LoadConfig reads the YAML file (missing file is fine), then .env and the
// process environment on top.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	var cfg Config

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is empty: set it in the config file or JWT_SECRET")
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("ALLOWED_EMAIL_DOMAINS"); v != "" {
		c.Auth.AllowedDomains = splitList(v)
	}
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		c.Auth.AdminEmails = splitList(v)
	}
	if v := os.Getenv("LOCAL_STORE_DIR"); v != "" {
		c.Local.Dir = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		c.Email.SMTPUser = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Email.SMTPPassword = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
		c.Telegram.AdminChatID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.KVTable == "" {
		c.Database.KVTable = "kv_store"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = time.Hour
	}
	if len(c.Auth.AllowedDomains) == 0 {
		c.Auth.AllowedDomains = []string{"beyond-wm.com", "beyondgm.com"}
	}
	if len(c.Auth.AdminEmails) == 0 {
		c.Auth.AdminEmails = []string{"admin@beyond-wm.com", "admin@beyondgm.com"}
	}
	if c.Local.Dir == "" {
		c.Local.Dir = "./data/local"
	}
	if c.Local.AnonymousRole == "" {
		c.Local.AnonymousRole = "user"
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
