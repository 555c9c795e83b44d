package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App      AppConfig
	Platform PlatformConfig
	Settings SettingsConfig
	Tickets  TicketConfig
	Appeals  AppealConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Ops      OpsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PlatformConfig selects the chat-platform driver.
type PlatformConfig struct {
	Mode string
}

// SettingsConfig locates the per-workspace settings file.
type SettingsConfig struct {
	Path string
}

// TicketConfig holds lifecycle timing knobs.
type TicketConfig struct {
	CloseGraceSeconds  int
	DeleteDelaySeconds int
	CloseReasonSeconds int
	TryoutStepSeconds  int
	TryoutAbortSeconds int
}

// AppealConfig holds appeal conversation timing knobs.
type AppealConfig struct {
	QuestionTimeoutSeconds int
	ConfirmTimeoutSeconds  int
	MinAnswerLength        int
}

// PostgresConfig holds transcript-archive DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values for the appeal session guard.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// OpsConfig defines the admin API authentication parameters.
type OpsConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	OperatorPasswordHash  string
	BcryptCost            int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-bot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Platform: PlatformConfig{
			Mode: getEnv("PLATFORM_MODE", ""),
		},
		Settings: SettingsConfig{
			Path: getEnv("SETTINGS_PATH", "settings.json"),
		},
		Tickets: TicketConfig{
			CloseGraceSeconds:  getEnvAsInt("TICKET_CLOSE_GRACE_SECONDS", 5),
			DeleteDelaySeconds: getEnvAsInt("TICKET_DELETE_DELAY_SECONDS", 10),
			CloseReasonSeconds: getEnvAsInt("TICKET_CLOSE_REASON_SECONDS", 60),
			TryoutStepSeconds:  getEnvAsInt("TRYOUT_STEP_TIMEOUT_SECONDS", 300),
			TryoutAbortSeconds: getEnvAsInt("TRYOUT_ABORT_DELAY_SECONDS", 10),
		},
		Appeals: AppealConfig{
			QuestionTimeoutSeconds: getEnvAsInt("APPEAL_QUESTION_TIMEOUT_SECONDS", 600),
			ConfirmTimeoutSeconds:  getEnvAsInt("APPEAL_CONFIRM_TIMEOUT_SECONDS", 600),
			MinAnswerLength:        getEnvAsInt("APPEAL_MIN_ANSWER_LENGTH", 5),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Ops: OpsConfig{
			JWTSecret:             getEnv("OPS_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("OPS_ACCESS_TOKEN_TTL_MINUTES", 60),
			OperatorPasswordHash:  os.Getenv("OPS_OPERATOR_PASSWORD_HASH"),
			BcryptCost:            getEnvAsInt("OPS_BCRYPT_COST", 12),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CloseGrace returns the pause between the closure record and archival.
func (t TicketConfig) CloseGrace() time.Duration {
	return time.Duration(t.CloseGraceSeconds) * time.Second
}

// DeleteDelay returns the countdown before a permanent delete.
func (t TicketConfig) DeleteDelay() time.Duration {
	return time.Duration(t.DeleteDelaySeconds) * time.Second
}

// CloseReasonTimeout returns the wait budget of the close-reason prompt.
func (t TicketConfig) CloseReasonTimeout() time.Duration {
	return time.Duration(t.CloseReasonSeconds) * time.Second
}

// TryoutStepTimeout returns the per-step wait budget of the tryout intake.
func (t TicketConfig) TryoutStepTimeout() time.Duration {
	return time.Duration(t.TryoutStepSeconds) * time.Second
}

// TryoutAbortDelay returns the notice-to-deletion pause for inactive tryouts.
func (t TicketConfig) TryoutAbortDelay() time.Duration {
	return time.Duration(t.TryoutAbortSeconds) * time.Second
}

// QuestionTimeout returns the per-question wait budget.
func (a AppealConfig) QuestionTimeout() time.Duration {
	return time.Duration(a.QuestionTimeoutSeconds) * time.Second
}

// ConfirmTimeout returns the confirm-step wait budget.
func (a AppealConfig) ConfirmTimeout() time.Duration {
	return time.Duration(a.ConfirmTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
