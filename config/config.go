package config

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string         `mapstructure:"PORT" validate:"required"`
	InternalAuthHeader string         `mapstructure:"INTERNAL_AUTH_HEADER" validate:"required"`
	Db                 DbConfig       `mapstructure:",squash"`
	Jwt                JwtConfig      `mapstructure:",squash"`
	Nats               NatsConfig     `mapstructure:",squash"`
	Smtp               SmtpConfig     `mapstructure:",squash"`
	Dispatch           DispatchConfig `mapstructure:",squash"`
}

type DbConfig struct {
	Host     string `mapstructure:"DB_HOST" validate:"required"`
	Port     string `mapstructure:"DB_PORT" validate:"required"`
	Username string `mapstructure:"DB_USERNAME" validate:"required"`
	Password string `mapstructure:"DB_PASSWORD" validate:"required"`
	DbName   string `mapstructure:"DB_DBNAME" validate:"required"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

type JwtConfig struct {
	SecretKey string `mapstructure:"JWT_SECRETKEY" validate:"required"`
	Expire    int64  `mapstructure:"JWT_EXPIRE" validate:"required"`
}

type NatsConfig struct {
	Url        string `mapstructure:"NATS_URL" validate:"required"`
	StreamName string `mapstructure:"NATS_STREAM_NAME" validate:"required"`
}

type SmtpConfig struct {
	Host           string `mapstructure:"SMTP_HOST" validate:"required"`
	Port           string `mapstructure:"SMTP_PORT" validate:"required"`
	Username       string `mapstructure:"SMTP_USERNAME"`
	Password       string `mapstructure:"SMTP_PASSWORD"`
	From           string `mapstructure:"SMTP_FROM" validate:"required,email"`
	TimeoutSeconds int64  `mapstructure:"SMTP_TIMEOUT_SECONDS" validate:"gt=0"`
}

// DispatchConfig controls how the dispatcher recovers when a status commit
// fails after the email already went out.
type DispatchConfig struct {
	CommitRetries  int   `mapstructure:"DISPATCH_COMMIT_RETRIES" validate:"gte=0"`
	RetryBackoffMs int64 `mapstructure:"DISPATCH_RETRY_BACKOFF_MS" validate:"gte=0"`
}

var envVars = []string{
	"PORT",
	"DB_HOST",
	"DB_PORT",
	"DB_USERNAME",
	"DB_PASSWORD",
	"DB_DBNAME",
	"DB_SSLMODE",
	"JWT_SECRETKEY",
	"JWT_EXPIRE",
	"INTERNAL_AUTH_HEADER",
	"NATS_URL",
	"NATS_STREAM_NAME",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_USERNAME",
	"SMTP_PASSWORD",
	"SMTP_FROM",
	"SMTP_TIMEOUT_SECONDS",
	"DISPATCH_COMMIT_RETRIES",
	"DISPATCH_RETRY_BACKOFF_MS",
}

func InitConfig(ctx context.Context) (*Config, error) {
	var cfg Config

	// Reset viper to avoid any previous configuration
	viper.Reset()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigType("env")

	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("NATS_STREAM_NAME", "stock")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("SMTP_TIMEOUT_SECONDS", 10)
	viper.SetDefault("DISPATCH_COMMIT_RETRIES", 3)
	viper.SetDefault("DISPATCH_RETRY_BACKOFF_MS", 200)

	// Try to load from .env file if it exists
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	_, err := os.Stat(envFile)
	if !os.IsNotExist(err) {
		viper.SetConfigFile(envFile)

		if err := viper.ReadInConfig(); err != nil {
			slog.WarnContext(ctx, "[InitConfig] ReadInConfig warning, continuing with env vars only", "error", err)
		} else {
			slog.InfoContext(ctx, "[InitConfig] Successfully loaded config file", "file", envFile)
		}
	} else {
		slog.InfoContext(ctx, "[InitConfig] No config file found, using environment variables")
	}

	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they're mapped correctly
	for _, key := range envVars {
		viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.ErrorContext(ctx, "[InitConfig] Unmarshal", "failed bind config", err)
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Configuration after binding",
		"PORT", cfg.Port,
		"DB_HOST", cfg.Db.Host,
		"DB_PORT", cfg.Db.Port,
		"DB_USERNAME", cfg.Db.Username,
		"DB_DBNAME", cfg.Db.DbName,
		"DB_SSLMODE", cfg.Db.SSLMode,
		"JWT_EXPIRE", cfg.Jwt.Expire,
		"NATS_URL", cfg.Nats.Url,
		"NATS_STREAM_NAME", cfg.Nats.StreamName,
		"SMTP_HOST", cfg.Smtp.Host,
		"SMTP_PORT", cfg.Smtp.Port,
		"DISPATCH_COMMIT_RETRIES", cfg.Dispatch.CommitRetries)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if ok {
			for _, validationErr := range validationErrs {
				slog.ErrorContext(ctx, "[InitConfig] Validation error",
					"field", validationErr.Field(),
					"namespace", validationErr.Namespace(),
					"tag", validationErr.Tag(),
					"value", validationErr.Value())
			}
		} else {
			slog.ErrorContext(ctx, "[InitConfig] Validation", "error", err)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Config loaded successfully")
	return &cfg, nil
}
