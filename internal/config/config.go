package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CLINIC"

// Config is the typed view of configs/config.yml plus CLINIC_* env overrides.
type Config struct {
	Port       string           `mapstructure:"port"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Uploads    UploadsConfig    `mapstructure:"uploads"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Session    SessionConfig    `mapstructure:"session"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type UploadsConfig struct {
	Dir       string        `mapstructure:"dir"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
	MaxAge    time.Duration `mapstructure:"max_age"`
	SweepSpec string        `mapstructure:"sweep_spec"` // cron spec, empty disables the sweeper
}

type ClassifierConfig struct {
	Path      string  `mapstructure:"path"`
	Threshold float64 `mapstructure:"threshold"` // 0 keeps the artifact's own threshold
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
	AllowSignUp   bool          `mapstructure:"allow_sign_up"`
}

type SessionConfig struct {
	Name   string `mapstructure:"name"`
	Secret string `mapstructure:"secret"`
	MaxAge int    `mapstructure:"max_age"` // seconds
}

// CORSConfig lists browser origins allowed to call the JSON API. Empty
// disables CORS headers entirely.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "malaria_management.db")
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_bytes", 16<<20)
	v.SetDefault("uploads.max_age", time.Hour)
	v.SetDefault("uploads.sweep_spec", "@every 10m")
	v.SetDefault("classifier.path", "models/classifier.json")
	v.SetDefault("classifier.threshold", 0.0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "admin")
	v.SetDefault("auth.allow_sign_up", false)
	v.SetDefault("session.name", "clinic_session")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.max_age", 86400)
	v.SetDefault("cors.allowed_origins", []string{})
}

// Load reads an optional .env file, then configs/config.yml (searched in dirs),
// then CLINIC_* environment variables, in increasing precedence.
func Load(dirs ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	if len(dirs) == 0 {
		dirs = []string{"configs"}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if t := c.Classifier.Threshold; t != 0 && (t <= 0 || t >= 1) {
		return fmt.Errorf("classifier.threshold must be in (0,1), got %v", c.Classifier.Threshold)
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be positive, got %d", c.Uploads.MaxBytes)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("session.secret is required")
	}
	return nil
}
