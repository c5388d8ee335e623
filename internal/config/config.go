package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Engine       EngineConfig
	Logging      LoggingConfig
	GeminiAPIKey string
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret     string
	AccessExpiryMin  int
	RefreshExpiryDay int
}

// EngineConfig tunes the mission progression engine.
type EngineConfig struct {
	// RoundDuration is the voting window of a round.
	RoundDuration time.Duration
	// CandidateCount is how many mission options a round offers (2-5).
	CandidateCount int
	// ReopenOnNoVotes re-opens a round once when its deadline elapses with
	// zero votes instead of resolving to a default.
	ReopenOnNoVotes bool
	// ExpiryPollInterval is how often the expiry worker scans for due rounds.
	ExpiryPollInterval time.Duration
}

type LoggingConfig struct {
	Level string
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("JWT_ACCESS_EXPIRY_MIN", 30)
	viper.SetDefault("JWT_REFRESH_EXPIRY_DAY", 30)
	viper.SetDefault("VOTING_ROUND_MINUTES", 1440)
	viper.SetDefault("VOTING_CANDIDATE_COUNT", 3)
	viper.SetDefault("VOTING_REOPEN_ON_NO_VOTES", true)
	viper.SetDefault("VOTING_EXPIRY_POLL_SECONDS", 30)

	config := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("SERVER_HOST"),
			Port:         viper.GetInt("SERVER_PORT"),
			Env:          viper.GetString("ENV"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			AccessSecret:     viper.GetString("JWT_ACCESS_SECRET"),
			AccessExpiryMin:  viper.GetInt("JWT_ACCESS_EXPIRY_MIN"),
			RefreshExpiryDay: viper.GetInt("JWT_REFRESH_EXPIRY_DAY"),
		},
		Engine: EngineConfig{
			RoundDuration:      time.Duration(viper.GetInt("VOTING_ROUND_MINUTES")) * time.Minute,
			CandidateCount:     viper.GetInt("VOTING_CANDIDATE_COUNT"),
			ReopenOnNoVotes:    viper.GetBool("VOTING_REOPEN_ON_NO_VOTES"),
			ExpiryPollInterval: time.Duration(viper.GetInt("VOTING_EXPIRY_POLL_SECONDS")) * time.Second,
		},
		Logging: LoggingConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		GeminiAPIKey: viper.GetString("GEMINI_API_KEY"),
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	if c.Engine.CandidateCount < 2 || c.Engine.CandidateCount > 5 {
		return fmt.Errorf("voting candidate count must be between 2 and 5")
	}
	if c.Engine.RoundDuration <= 0 {
		return fmt.Errorf("voting round duration must be positive")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
