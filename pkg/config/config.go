package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Scheduler     SchedulerConfig
	Notifications NotificationsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig tunes the timetable engine.
type SchedulerConfig struct {
	MaxBlocksPerSession int
	DefaultBlockMinutes int
	CoverageWeight      float64
	SpecialtyBonus      float64
	CollisionPenalty    float64
	LoadPenalty         float64
	LoadCeiling         float64
	RequireSpecialty    bool
	MaxGroupsPerRun     int
	GridCacheTTL        time.Duration
}

// NotificationsConfig sizes the background notification queue.
type NotificationsConfig struct {
	Workers int
	Retries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		MaxBlocksPerSession: positiveInt(v.GetInt("SCHEDULER_MAX_BLOCKS_PER_SESSION"), 2),
		DefaultBlockMinutes: positiveInt(v.GetInt("SCHEDULER_DEFAULT_BLOCK_MINUTES"), 45),
		CoverageWeight:      v.GetFloat64("SCHEDULER_WEIGHT_COVERAGE"),
		SpecialtyBonus:      v.GetFloat64("SCHEDULER_WEIGHT_SPECIALTY"),
		CollisionPenalty:    v.GetFloat64("SCHEDULER_PENALTY_COLLISION"),
		LoadPenalty:         v.GetFloat64("SCHEDULER_PENALTY_LOAD"),
		LoadCeiling:         v.GetFloat64("SCHEDULER_LOAD_CEILING"),
		RequireSpecialty:    v.GetBool("SCHEDULER_REQUIRE_SPECIALTY"),
		MaxGroupsPerRun:     positiveInt(v.GetInt("SCHEDULER_MAX_GROUPS_PER_RUN"), 200),
		GridCacheTTL:        parseDuration(v.GetString("SCHEDULER_GRID_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		Workers: positiveInt(v.GetInt("NOTIFICATIONS_WORKERS"), 2),
		Retries: v.GetInt("NOTIFICATIONS_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_MAX_BLOCKS_PER_SESSION", 2)
	v.SetDefault("SCHEDULER_DEFAULT_BLOCK_MINUTES", 45)
	v.SetDefault("SCHEDULER_WEIGHT_COVERAGE", 0.80)
	v.SetDefault("SCHEDULER_WEIGHT_SPECIALTY", 0.15)
	v.SetDefault("SCHEDULER_PENALTY_COLLISION", 1.0)
	v.SetDefault("SCHEDULER_PENALTY_LOAD", 0.10)
	v.SetDefault("SCHEDULER_LOAD_CEILING", 1.10)
	v.SetDefault("SCHEDULER_REQUIRE_SPECIALTY", false)
	v.SetDefault("SCHEDULER_MAX_GROUPS_PER_RUN", 200)
	v.SetDefault("SCHEDULER_GRID_CACHE_TTL", "10m")

	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
