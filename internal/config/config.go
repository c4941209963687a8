package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Identity  IdentityConfig
	Chat      ChatConfig
	Session   SessionConfig
	SMTP      SMTPConfig
	Emergency EmergencyConfig
	Preview   PreviewConfig
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Env            string   `mapstructure:"env"`
	AllowedOrigins []string `mapstructure:"allowedorigins"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// IdentityConfig points at the external GoTrue-compatible identity provider.
type IdentityConfig struct {
	BaseURL       string `mapstructure:"baseurl"`
	JWTSecret     string `mapstructure:"jwtsecret"`
	WebhookSecret string `mapstructure:"webhooksecret"`
}

// ChatConfig holds the LLM relay configuration.
type ChatConfig struct {
	APIKey  string `mapstructure:"apikey"`
	BaseURL string `mapstructure:"baseurl"`
	Model   string `mapstructure:"model"`
}

// SessionConfig controls verified-session caching and controller eviction.
type SessionConfig struct {
	VerifyTTL time.Duration `mapstructure:"verifyttl"`
	IdleTTL   time.Duration `mapstructure:"idlettl"`
}

type SMTPConfig struct {
	From     string `mapstructure:"from"`
	Password string `mapstructure:"password"`
	Username string `mapstructure:"username"`
	Port     int    `mapstructure:"port"`
	Host     string `mapstructure:"host"`
}

// EmergencyConfig holds the helpline contact for the emergency flow.
type EmergencyConfig struct {
	ContactEmail string `mapstructure:"contactemail"`
}

// PreviewConfig gates the optional staging-only access password.
// An empty hash disables the gate entirely.
type PreviewConfig struct {
	PasswordHash string `mapstructure:"passwordhash"`
}

// Load creates a new Config object from environment variables.
func Load() *Config {
	// --- Set up Viper ---
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env into process environment for BindEnv to work with file-based envs
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ godotenv could not load .env: %v", err)
	}

	// Bind structured keys to environment variables
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.allowedorigins", "SERVER_ALLOWED_ORIGINS")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("redis.url", "REDIS_URL")
	_ = viper.BindEnv("identity.baseurl", "IDENTITY_BASE_URL")
	_ = viper.BindEnv("identity.jwtsecret", "IDENTITY_JWT_SECRET")
	_ = viper.BindEnv("identity.webhooksecret", "IDENTITY_WEBHOOK_SECRET")
	_ = viper.BindEnv("chat.apikey", "OPENAI_API_KEY")
	_ = viper.BindEnv("chat.baseurl", "OPENAI_BASE_URL")
	_ = viper.BindEnv("chat.model", "OPENAI_MODEL")
	_ = viper.BindEnv("session.verifyttl", "SESSION_VERIFY_TTL")
	_ = viper.BindEnv("session.idlettl", "SESSION_IDLE_TTL")
	_ = viper.BindEnv("smtp.from", "SMTP_FROM")
	_ = viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = viper.BindEnv("smtp.username", "SMTP_USERNAME")
	_ = viper.BindEnv("smtp.port", "SMTP_PORT")
	_ = viper.BindEnv("smtp.host", "SMTP_HOST")
	_ = viper.BindEnv("emergency.contactemail", "EMERGENCY_CONTACT_EMAIL")
	_ = viper.BindEnv("preview.passwordhash", "PREVIEW_PASSWORD_HASH")

	// --- Read Configuration ---
	if err := viper.ReadInConfig(); err != nil {
		// Only log a warning if the .env file is not found.
		// We can still proceed if all config is set via environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("❌ Error reading config file: %s", err)
		} else {
			log.Printf("⚠️ .env file not found, relying on environment variables")
		}
	}

	// --- Unmarshal configuration into our struct ---
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	// --- Set default values ---
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Chat.BaseURL == "" {
		cfg.Chat.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "gpt-4o-mini"
	}
	if cfg.Session.VerifyTTL == 0 {
		cfg.Session.VerifyTTL = 5 * time.Minute
	}
	if cfg.Session.IdleTTL == 0 {
		cfg.Session.IdleTTL = 30 * time.Minute
	}

	log.Println("✅ Configuration loaded successfully")
	return &cfg
}
