package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Forum     ForumConfig     `mapstructure:"forum"`

	// 运行时标志（通过命令行参数设置）
	ConfigDir    string `mapstructure:"-"`
	ForceMigrate bool   `mapstructure:"-"`
	MigrateOnly  bool   `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// IsRelease 生产模式下才启用发帖频率限制
func (s ServerConfig) IsRelease() bool {
	return s.Mode == "release"
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// ForumConfig 论坛相关配置，支持热更新
type ForumConfig struct {
	ThreadsPerPage  int             `mapstructure:"threads_per_page"`
	RepliesPerPage  int             `mapstructure:"replies_per_page"`
	Versions        []string        `mapstructure:"versions"`
	ThrottleMinutes int             `mapstructure:"throttle_minutes"`
	RequireCaptcha  bool            `mapstructure:"require_captcha"`
	Sections        []SectionConfig `mapstructure:"sections"`
}

// SectionConfig 侧边栏中的一个论坛分区，由一组标签定义
type SectionConfig struct {
	Title string   `mapstructure:"title"`
	Tags  []string `mapstructure:"tags"`
}

func (f ForumConfig) ThrottleWindow() time.Duration {
	return time.Duration(f.ThrottleMinutes) * time.Minute
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("forum.threads_per_page", 50)
	v.SetDefault("forum.replies_per_page", 20)
	v.SetDefault("forum.throttle_minutes", 10)
	v.SetDefault("forum.require_captcha", true)
	v.SetDefault("forum.versions", []string{"4.x", "5.0", "5.1", "5.2"})
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("FORUM")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	// 生产环境校验 JWT Secret 强度
	if c.Server.IsRelease() && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Forum.ThreadsPerPage <= 0 || c.Forum.RepliesPerPage <= 0 {
		return fmt.Errorf("forum page sizes must be positive (threads=%d, replies=%d)", c.Forum.ThreadsPerPage, c.Forum.RepliesPerPage)
	}
	return nil
}
