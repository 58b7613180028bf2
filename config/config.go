package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"treewatch/models"
)

// DefaultJWTSecret is used when JWT_SECRET is not set. Development only.
const DefaultJWTSecret = "development-secret"

var (
	DB        *gorm.DB
	AppConfig Config
	log       = logrus.WithField("component", "config")
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type Config struct {
	Environment     string        `json:"environment"`
	ServerPort      string        `json:"server_port"`
	DBHost          string        `json:"db_host"`
	DBPort          string        `json:"db_port"`
	DBUser          string        `json:"db_user"`
	DBPassword      string        `json:"-"`
	DBName          string        `json:"db_name"`
	DBSSLMode       string        `json:"db_ssl_mode"`
	DBMaxIdleConns  int           `json:"db_max_idle_conns"`
	DBMaxOpenConns  int           `json:"db_max_open_conns"`
	JWTSecret       string        `json:"-"`
	SessionTTL      time.Duration `json:"session_ttl"`
	UploadDir       string        `json:"upload_dir"`
	MaxUploadMB     int           `json:"max_upload_mb"`
	AllowedOrigins  []string      `json:"allowed_origins"`
	AuthEnforce     bool          `json:"auth_enforce"`
	MilestoneSweep  time.Duration `json:"milestone_sweep"`
	RateLimitSubmit int           `json:"rate_limit_submit"`
	Redis           RedisConfig   `json:"redis"`
	SentryDSN       string        `json:"-"`
}

func init() {
	// .env is optional
	_ = godotenv.Load()
}

// IsProduction reports whether cookies must be marked Secure
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		ServerPort:      getEnv("SERVER_PORT", "5000"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "treewatch"),
		DBSSLMode:       getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns:  getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:  getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		JWTSecret:       getEnv("JWT_SECRET", DefaultJWTSecret),
		SessionTTL:      7 * 24 * time.Hour,
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB:     getEnvAsInt("MAX_UPLOAD_MB", 10),
		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		AuthEnforce:     getEnvAsBool("AUTH_ENFORCE", false),
		MilestoneSweep:  getEnvAsDuration("MILESTONE_SWEEP_INTERVAL", 0),
		RateLimitSubmit: getEnvAsInt("RATE_LIMIT_SUBMISSIONS", 30),
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SentryDSN: getEnv("SENTRY_DSN", ""),
	}

	if AppConfig.JWTSecret == "" {
		AppConfig.JWTSecret = DefaultJWTSecret
	}

	if AppConfig.IsProduction() {
		if AppConfig.JWTSecret == DefaultJWTSecret {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if AppConfig.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required in production")
		}
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Info("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.WithField("dsn", maskPassword(dsn)).Debug("Using connection string")

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("Connected to the database")

	if err := MigrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Info("Database migration completed")

	if err := SeedDB(DB); err != nil {
		return fmt.Errorf("database seed failed: %w", err)
	}
	return nil
}

// MigrateDB creates or updates every table the service uses
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Badge{},
		&models.UserBadge{},
		&models.TreeSpecies{},
		&models.Tree{},
	)
}

// SeedDB inserts reference data that must exist before the first request
func SeedDB(db *gorm.DB) error {
	if err := models.CreateDefaultBadges(db); err != nil {
		return fmt.Errorf("failed to seed badges: %w", err)
	}
	if err := models.CreateDefaultSpecies(db); err != nil {
		return fmt.Errorf("failed to seed species: %w", err)
	}
	if err := models.CreatePlaceholderUsers(db); err != nil {
		return fmt.Errorf("failed to seed placeholder users: %w", err)
	}
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warnf("Invalid integer for %s: %q, using %d", key, valueStr, fallback)
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warnf("Invalid duration for %s: %q", key, valueStr)
		return fallback
	}
	return value
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.WithFields(logrus.Fields{
		"environment":  AppConfig.Environment,
		"port":         AppConfig.ServerPort,
		"database":     fmt.Sprintf("%s@%s:%s/%s", AppConfig.DBUser, AppConfig.DBHost, AppConfig.DBPort, AppConfig.DBName),
		"upload_dir":   AppConfig.UploadDir,
		"auth_enforce": AppConfig.AuthEnforce,
		"redis":        AppConfig.Redis.Enabled,
	}).Info("Loaded configuration")
}
