package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// MongoDB Configuration (GridFS image backend)
	MongoDB MongoDBConfig `json:"mongodb"`

	// Storage backends for messages, accounts and images
	Storage StorageConfig `json:"storage"`

	// Chat and notification stream tuning
	Chat ChatConfig `json:"chat"`

	Auth AuthConfig `json:"auth"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port         string `json:"port" validate:"required,numeric"`
	GRPCPort     string `json:"grpc_port" validate:"omitempty,numeric"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout" validate:"gte=0"`
	WriteTimeout int    `json:"write_timeout" validate:"gte=0"`
	Environment  string `json:"environment" validate:"oneof=development staging production"`
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type MongoDBConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

type StorageConfig struct {
	Backend      string `json:"backend" validate:"oneof=memory file badger mysql"`
	DataDir      string `json:"data_dir" validate:"required_if=Backend file,required_if=Backend badger"`
	ImageBackend string `json:"image_backend" validate:"oneof=disk gridfs"`
	UploadDir    string `json:"upload_dir" validate:"required_if=ImageBackend disk"`
}

// ChatConfig sizes the stream mailboxes and the weekly purge boundary.
type ChatConfig struct {
	StreamQueueSize   int     `json:"stream_queue_size" validate:"gt=0"`
	NotifyQueueSize   int     `json:"notify_queue_size" validate:"gt=0"`
	KeepaliveSeconds  int     `json:"keepalive_seconds" validate:"gt=0"`
	MaxImageBytes     int64   `json:"max_image_bytes" validate:"gt=0"`
	SendRatePerSecond float64 `json:"send_rate_per_second" validate:"gte=0"`
	SendBurst         int     `json:"send_burst" validate:"gte=0"`
	PurgeWeekday      int     `json:"purge_weekday" validate:"gte=0,lte=6"`
	PurgeHour         int     `json:"purge_hour" validate:"gte=0,lte=23"`
}

type AuthConfig struct {
	JWTSecret         string `json:"-" validate:"required"`
	SessionTTLHours   int    `json:"session_ttl_hours" validate:"gt=0"`
	AdminUser         string `json:"admin_user"`
	AdminPasswordHash string `json:"-" validate:"required_with=AdminUser"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // json, console
	OutputPath string `json:"output_path"` // stdout, stderr, or file path
}

// LoadConfig builds the configuration from environment variables.
// Callers load any .env file beforehand.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("SERVER_PORT", "5000"),
			GRPCPort:     getEnvOrDefault("GRPC_PORT", "7003"),
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvIntOrDefault("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 30),
			Environment:  getEnvOrDefault("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnvOrDefault("MYSQL_HOST", "localhost"),
			Port:         getEnvOrDefault("MYSQL_PORT", "3306"),
			Username:     getEnvOrDefault("MYSQL_USERNAME", "portal"),
			Password:     getEnvOrDefault("MYSQL_PASSWORD", ""),
			DatabaseName: getEnvOrDefault("MYSQL_DATABASE", "portal"),
			MaxOpenConns: getEnvIntOrDefault("MYSQL_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvIntOrDefault("MYSQL_MAX_IDLE_CONNS", 5),
		},
		MongoDB: MongoDBConfig{
			Host:     getEnvOrDefault("MONGO_HOST", "localhost"),
			Port:     getEnvOrDefault("MONGO_PORT", "27017"),
			Username: getEnvOrDefault("MONGO_USERNAME", ""),
			Password: getEnvOrDefault("MONGO_PASSWORD", ""),
			Database: getEnvOrDefault("MONGO_DATABASE", "portal"),
		},
		Storage: StorageConfig{
			Backend:      getEnvOrDefault("STORAGE_BACKEND", "file"),
			DataDir:      getEnvOrDefault("DATA_DIR", "data"),
			ImageBackend: getEnvOrDefault("IMAGE_BACKEND", "disk"),
			UploadDir:    getEnvOrDefault("UPLOAD_DIR", "chat_uploads"),
		},
		Chat: ChatConfig{
			StreamQueueSize:   getEnvIntOrDefault("CHAT_STREAM_QUEUE_SIZE", 50),
			NotifyQueueSize:   getEnvIntOrDefault("NOTIFY_QUEUE_SIZE", 20),
			KeepaliveSeconds:  getEnvIntOrDefault("STREAM_KEEPALIVE_SECONDS", 20),
			MaxImageBytes:     int64(getEnvIntOrDefault("CHAT_MAX_IMAGE_BYTES", 8<<20)),
			SendRatePerSecond: getEnvFloatOrDefault("CHAT_SEND_RATE", 2),
			SendBurst:         getEnvIntOrDefault("CHAT_SEND_BURST", 5),
			PurgeWeekday:      getEnvIntOrDefault("CHAT_PURGE_WEEKDAY", int(time.Saturday)),
			PurgeHour:         getEnvIntOrDefault("CHAT_PURGE_HOUR", 0),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			SessionTTLHours:   getEnvIntOrDefault("SESSION_TTL_HOURS", 5*24),
			AdminUser:         os.Getenv("ADMIN_USER"),
			AdminPasswordHash: os.Getenv("ADMIN_PASS_HASH"),
		},
		Logging: LoggingConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
		},
	}
}

// Validate checks the configuration for missing or out-of-range values.
func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
			cfg.MongoDB.Username,
			cfg.MongoDB.Password,
			cfg.MongoDB.Host,
			cfg.MongoDB.Port,
			cfg.MongoDB.Database,
		)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s", cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
}

func (cfg *Config) Keepalive() time.Duration {
	return time.Duration(cfg.Chat.KeepaliveSeconds) * time.Second
}

func (cfg *Config) SessionTTL() time.Duration {
	return time.Duration(cfg.Auth.SessionTTLHours) * time.Hour
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
