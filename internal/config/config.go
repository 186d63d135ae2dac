package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

const (
	defaultEnv        = "development"
	envKey            = "CONTENTCRAFT_ENV"
	envPrefix         = "CONTENTCRAFT"
	defaultConfigName = "default"
	configType        = "yaml"
)

// envOnlyKeys 常通过环境变量注入，即使配置文件未声明也需要绑定。
var envOnlyKeys = []string{
	"auth.accessTokenSecret",
	"backend.baseURL",
	"backend.secret",
	"database.dsn",
	"redis.addr",
	"redis.password",
}

// Config 聚合应用所需的全部配置项。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig 描述应用级别的元信息。
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// ServerConfig 负责 HTTP 服务相关配置。
type ServerConfig struct {
	Host            string                `mapstructure:"host"`
	Port            int                   `mapstructure:"port"`
	ReadTimeout     time.Duration         `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration         `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration         `mapstructure:"shutdownTimeout"`
	MaxRequestBody  int64                 `mapstructure:"maxRequestBody"`
	RateLimit       string                `mapstructure:"rateLimit"`
	CORS            CORSConfig            `mapstructure:"cors"`
	SecurityHeaders SecurityHeadersConfig `mapstructure:"securityHeaders"`
}

// CORSConfig 控制跨域访问白名单及相关选项。
type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allowOrigins"`
	AllowCredentials bool     `mapstructure:"allowCredentials"`
}

// SecurityHeadersConfig 控制通用安全响应头的行为。
type SecurityHeadersConfig struct {
	FrameOptions              string `mapstructure:"frameOptions"`
	ContentTypeNosniff        bool   `mapstructure:"contentTypeNosniff"`
	ReferrerPolicy            string `mapstructure:"referrerPolicy"`
	XSSProtection             string `mapstructure:"xssProtection"`
	ContentSecurityPolicy     string `mapstructure:"contentSecurityPolicy"`
	CrossOriginOpenerPolicy   string `mapstructure:"crossOriginOpenerPolicy"`
	CrossOriginEmbedderPolicy string `mapstructure:"crossOriginEmbedderPolicy"`
	CrossOriginResourcePolicy string `mapstructure:"crossOriginResourcePolicy"`
}

// DatabaseConfig 定义数据库连接选项，兼容 SQLite、PostgreSQL 与 MySQL。
// MySQL 的 DSN 需要带上 parseTime=true。
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpen         int           `mapstructure:"maxOpen"`
	MaxIdle         int           `mapstructure:"maxIdle"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

// RedisConfig 描述 Redis 客户端所需的连接参数，Addr 为空时不启用 Redis。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"poolSize"`
}

// Enabled 表示是否配置了 Redis。
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// AuthConfig 管理 JWT 与 API Key 等认证参数。
type AuthConfig struct {
	AccessTokenSecret string         `mapstructure:"accessTokenSecret"`
	AccessTokenTTL    time.Duration  `mapstructure:"accessTokenTTL"`
	APIKeys           []APIKeyConfig `mapstructure:"apiKeys"`
}

// APIKeyConfig 描述一个程序化调用方，Hash 为 bcrypt 哈希。
// Prefix 为明文开头的非机密部分，用于在比对哈希前筛选条目。
type APIKeyConfig struct {
	Name   string `mapstructure:"name"`
	Prefix string `mapstructure:"prefix"`
	Hash   string `mapstructure:"hash"`
	Role   string `mapstructure:"role"`
	UserID int64  `mapstructure:"userId"`
}

// BackendConfig 描述外部生成服务。BaseURL 与 Secret 仅在首次启动时写入设置。
type BackendConfig struct {
	BaseURL           string        `mapstructure:"baseURL"`
	Secret            string        `mapstructure:"secret"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ProbeTimeout      time.Duration `mapstructure:"probeTimeout"`
	BrandTrainTimeout time.Duration `mapstructure:"brandTrainTimeout"`
	Product           string        `mapstructure:"product"`
	Version           string        `mapstructure:"version"`
}

// MetricsConfig 控制 Prometheus 指标暴露。
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig 控制日志输出级别与可选的滚动文件。
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
}

// Load 从给定路径加载配置；若 env 为空会自动读取环境变量或回退到默认值。
func Load(configDir string, env string) (*Config, error) {
	chosenEnv := determineEnv(env)

	v := viper.New()
	v.SetConfigType(configType)
	v.SetConfigName(defaultConfigName)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read base config: %w", err)
	}

	if chosenEnv != defaultConfigName {
		envConfig := viper.New()
		envConfig.SetConfigType(configType)
		envConfig.SetConfigName(chosenEnv)
		envConfig.AddConfigPath(configDir)

		if err := envConfig.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(envConfig.AllSettings()); err != nil {
				return nil, fmt.Errorf("merge %s config: %w", chosenEnv, err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg, chosenEnv)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// determineEnv 统一处理环境变量回退逻辑。
func determineEnv(env string) string {
	if env != "" {
		return env
	}
	if fromEnv := os.Getenv(envKey); fromEnv != "" {
		return fromEnv
	}
	return defaultEnv
}

// applyDefaults 补齐缺失字段，避免配置不完整导致的崩溃。
func applyDefaults(cfg *Config, env string) {
	if cfg.App.Name == "" {
		cfg.App.Name = "contentcraft"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = env
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	// 品牌训练最长 90s，写超时需要覆盖后端调用时间
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxRequestBody <= 0 {
		cfg.Server.MaxRequestBody = 3 * 1024 * 1024
	}
	if cfg.Server.RateLimit == "" {
		cfg.Server.RateLimit = "60-M"
	}
	if len(cfg.Server.CORS.AllowOrigins) == 0 {
		cfg.Server.CORS.AllowOrigins = []string{"*"}
	}
	if cfg.Server.SecurityHeaders.FrameOptions == "" {
		cfg.Server.SecurityHeaders.FrameOptions = "DENY"
	}
	if !cfg.Server.SecurityHeaders.ContentTypeNosniff {
		cfg.Server.SecurityHeaders.ContentTypeNosniff = true
	}
	if cfg.Server.SecurityHeaders.ReferrerPolicy == "" {
		cfg.Server.SecurityHeaders.ReferrerPolicy = "no-referrer"
	}
	if cfg.Server.SecurityHeaders.XSSProtection == "" {
		cfg.Server.SecurityHeaders.XSSProtection = "0"
	}
	if cfg.Server.SecurityHeaders.CrossOriginOpenerPolicy == "" {
		cfg.Server.SecurityHeaders.CrossOriginOpenerPolicy = "same-origin"
	}
	if cfg.Server.SecurityHeaders.CrossOriginResourcePolicy == "" {
		cfg.Server.SecurityHeaders.CrossOriginResourcePolicy = "same-site"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = filepath.ToSlash("file:./data/contentcraft.db?_time_format=sqlite")
	}
	if cfg.Database.MaxOpen == 0 {
		cfg.Database.MaxOpen = 10
	}
	if cfg.Database.MaxIdle == 0 {
		cfg.Database.MaxIdle = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Auth.AccessTokenTTL == 0 {
		cfg.Auth.AccessTokenTTL = 12 * time.Hour
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:8000"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 60 * time.Second
	}
	if cfg.Backend.ProbeTimeout == 0 {
		cfg.Backend.ProbeTimeout = 10 * time.Second
	}
	if cfg.Backend.BrandTrainTimeout == 0 {
		cfg.Backend.BrandTrainTimeout = 90 * time.Second
	}
	if cfg.Backend.Product == "" {
		cfg.Backend.Product = "ContentCraft-AI"
	}
	if cfg.Backend.Version == "" {
		cfg.Backend.Version = "1.0.0"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 30
	}
}

func validateConfig(cfg *Config) error {
	if err := validateSecret("auth.accessTokenSecret", cfg.Auth.AccessTokenSecret); err != nil {
		return err
	}
	if err := validateAPIKeys(cfg.Auth.APIKeys); err != nil {
		return err
	}
	if err := validateDriver(cfg.Database.Driver); err != nil {
		return err
	}
	if _, err := limiter.NewRateFromFormatted(cfg.Server.RateLimit); err != nil {
		return fmt.Errorf("config server.rateLimit invalid: %w", err)
	}
	if err := validateCORSConfig(cfg.Server.CORS, cfg.App.Env); err != nil {
		return err
	}
	if err := validateSecurityHeaders(cfg.Server.SecurityHeaders); err != nil {
		return err
	}
	return nil
}

func validateSecret(field, secret string) error {
	clean := strings.TrimSpace(secret)
	if len(clean) < 32 {
		return fmt.Errorf("config %s must be at least 32 characters", field)
	}
	if strings.Contains(strings.ToLower(clean), "change-me") {
		return fmt.Errorf("config %s must not use default placeholder", field)
	}
	return nil
}

func validateAPIKeys(keys []APIKeyConfig) error {
	for i, key := range keys {
		if strings.TrimSpace(key.Name) == "" {
			return fmt.Errorf("config auth.apiKeys[%d].name must not be empty", i)
		}
		if !strings.HasPrefix(key.Hash, "$2") {
			return fmt.Errorf("config auth.apiKeys[%d].hash must be a bcrypt hash", i)
		}
		if strings.TrimSpace(key.Role) == "" {
			return fmt.Errorf("config auth.apiKeys[%d].role must not be empty", i)
		}
		if key.UserID <= 0 {
			return fmt.Errorf("config auth.apiKeys[%d].userId must be a positive integer", i)
		}
	}
	return nil
}

func validateDriver(driver string) error {
	switch strings.ToLower(driver) {
	case "sqlite", "postgres", "postgresql", "pgx", "mysql":
		return nil
	default:
		return fmt.Errorf("config database.driver %q is not supported", driver)
	}
}

func validateCORSConfig(corsCfg CORSConfig, env string) error {
	for _, origin := range corsCfg.AllowOrigins {
		clean := strings.TrimSpace(origin)
		if clean == "" {
			return fmt.Errorf("config server.cors.allowOrigins must not contain empty entries")
		}
		if env == "production" && clean == "*" {
			return fmt.Errorf("config server.cors.allowOrigins must not use wildcard '*' in production")
		}
	}
	return nil
}

func validateSecurityHeaders(secCfg SecurityHeadersConfig) error {
	frame := strings.TrimSpace(strings.ToUpper(secCfg.FrameOptions))
	if frame != "" && frame != "DENY" && frame != "SAMEORIGIN" {
		return fmt.Errorf("config server.securityHeaders.frameOptions must be DENY or SAMEORIGIN when set")
	}
	return nil
}

// Addr 返回 HTTP 服务监听地址。
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
