package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	App      AppConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host          string `validate:"required"`
	Port          int    `validate:"min=1,max=65535"`
	User          string `validate:"required"`
	Password      string `validate:"required"`
	Name          string `validate:"required"`
	SSLMode       string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MigrationsDir string `validate:"required_if=AutoMigrate true"`
	AutoMigrate   bool
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int    `validate:"min=1,max=65535"`
	Env            string `validate:"oneof=development staging production test"`
	LogLevel       string `validate:"oneof=debug info warn error"`
	AllowedOrigins []string
}

// PayrollConfig holds the tunables of the computation engine
type PayrollConfig struct {
	Timezone string `validate:"required"`

	// Attendance reduction policy
	SplitMinute        int           `validate:"min=0,max=1439"`
	EarlyOutThreshold  int           `validate:"min=0"`
	HalfDayMinHours    float64       `validate:"gte=0"`
	DuplicateWindow    time.Duration `validate:"gte=0"`
	HalfDayEnabled     bool
	TeachingProfile    string
	NonTeachingProfile string
	DefaultProfile     string

	// Batch generation
	Workers     int           `validate:"min=1,max=64"`
	UserTimeout time.Duration `validate:"gt=0"`

	// Scheduler
	CronSpec    string        `validate:"required_if=CronEnabled true"`
	CronTimeout time.Duration `validate:"gt=0"`
	CronEnabled bool

	// Insert default contribution schemes and tax brackets into empty tables on boot
	SeedDefaults bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	autoMigrate, err := strconv.ParseBool(getEnv("DB_AUTO_MIGRATE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:          getEnv("DB_HOST", "localhost"),
		Port:          dbPort,
		User:          getEnv("DB_USER", "postgres"),
		Password:      getEnv("DB_PASSWORD", ""),
		Name:          getEnv("DB_NAME", "payroll_engine"),
		SSLMode:       getEnv("DB_SSL_MODE", "disable"),
		AutoMigrate:   autoMigrate,
		MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "migrations"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS"),
	}
	if len(config.App.AllowedOrigins) == 0 {
		config.App.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// Payroll engine configuration
	splitMinute, err := parseClock(getEnv("PAYROLL_SESSION_SPLIT", "12:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_SESSION_SPLIT: %w", err)
	}
	earlyOut, err := strconv.Atoi(getEnv("PAYROLL_EARLY_OUT_THRESHOLD_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_EARLY_OUT_THRESHOLD_MINUTES: %w", err)
	}
	halfDayEnabled, err := strconv.ParseBool(getEnv("PAYROLL_HALF_DAY_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_HALF_DAY_ENABLED: %w", err)
	}
	halfDayMinHours, err := strconv.ParseFloat(getEnv("PAYROLL_HALF_DAY_MIN_HOURS", "3"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_HALF_DAY_MIN_HOURS: %w", err)
	}
	duplicateWindow, err := time.ParseDuration(getEnv("PAYROLL_DUPLICATE_WINDOW", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_DUPLICATE_WINDOW: %w", err)
	}
	workers, err := strconv.Atoi(getEnv("PAYROLL_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_WORKERS: %w", err)
	}
	userTimeout, err := time.ParseDuration(getEnv("PAYROLL_USER_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_USER_TIMEOUT: %w", err)
	}
	cronEnabled, err := strconv.ParseBool(getEnv("PAYROLL_CRON_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_CRON_ENABLED: %w", err)
	}
	cronTimeout, err := time.ParseDuration(getEnv("PAYROLL_CRON_TIMEOUT", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_CRON_TIMEOUT: %w", err)
	}
	seedDefaults, err := strconv.ParseBool(getEnv("PAYROLL_SEED_DEFAULTS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_SEED_DEFAULTS: %w", err)
	}

	config.Payroll = PayrollConfig{
		Timezone:           getEnv("PAYROLL_TIMEZONE", "Asia/Manila"),
		SplitMinute:        splitMinute,
		EarlyOutThreshold:  earlyOut,
		HalfDayEnabled:     halfDayEnabled,
		HalfDayMinHours:    halfDayMinHours,
		DuplicateWindow:    duplicateWindow,
		TeachingProfile:    getEnv("PAYROLL_PROFILE_TEACHING", ""),
		NonTeachingProfile: getEnv("PAYROLL_PROFILE_NON_TEACHING", ""),
		DefaultProfile:     getEnv("PAYROLL_PROFILE_DEFAULT", ""),
		Workers:            workers,
		UserTimeout:        userTimeout,
		CronEnabled:        cronEnabled,
		CronSpec:           getEnv("PAYROLL_CRON_SPEC", "30 0 * * *"),
		CronTimeout:        cronTimeout,
		SeedDefaults:       seedDefaults,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		errs := make([]error, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			errs = append(errs, fmt.Errorf("%s failed %q validation", fe.Namespace(), fe.Tag()))
		}
		return errors.Join(errs...)
	}
	if _, err := time.LoadLocation(c.Payroll.Timezone); err != nil {
		return fmt.Errorf("PAYROLL_TIMEZONE is invalid: %w", err)
	}
	return nil
}

// LogLevel maps LOG_LEVEL onto slog
func (c *Config) LogLevel() slog.Level {
	switch c.App.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Location returns the civil timezone all attendance math runs in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Payroll.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string = strings.Split(value, ",")
	return result
}

// parseClock turns "HH:MM" into minutes from midnight
func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
