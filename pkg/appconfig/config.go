package appconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Mode         string        `yaml:"mode"` // "development" | "production"
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig 元数据库配置
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // "sqlite" | "postgres" | "mysql"
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	LogLevel        string        `yaml:"log_level"`
}

// IndexConfig 向量索引配置
type IndexConfig struct {
	Kind        string `yaml:"kind"` // "memory" | "pgvector"
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	DSN         string `yaml:"dsn,omitempty"`   // 用于 pgvector
	Table       string `yaml:"table,omitempty"` // 用于 pgvector
	Dimensions  int    `yaml:"dimensions"`
	Metric      string `yaml:"metric"` // "cosine" | "euclidean" | "dot-product"
}

// EmbeddingConfig embedding 服务配置
type EmbeddingConfig struct {
	Provider     string        `yaml:"provider"` // "openai" | "mock"
	BaseURL      string        `yaml:"base_url,omitempty"`
	APIKey       string        `yaml:"api_key,omitempty"`
	DefaultModel string        `yaml:"default_model"`
	Dimensions   int           `yaml:"dimensions"`
	Timeout      time.Duration `yaml:"timeout"`
	// Models 仅对 mock 生效, 为空时接受任意模型
	Models []string `yaml:"models,omitempty"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	APIKey APIKeyConfig `yaml:"api_key"`
	JWT    JWTConfig    `yaml:"jwt"`
}

// APIKeyConfig API Key 认证
type APIKeyConfig struct {
	Enabled    bool     `yaml:"enabled"`
	HeaderName string   `yaml:"header_name"`
	Keys       []string `yaml:"keys"`
}

// JWTConfig JWT 认证
type JWTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// RateLimitConfig 按客户端 IP 的令牌桶限流
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CORSConfig 跨域配置, AllowOrigins 支持 glob 模式, 如 "https://*.example.com"
type CORSConfig struct {
	Enabled      bool     `yaml:"enabled"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Output string `yaml:"output"` // "stdout" 或文件路径
}

// ObservabilityConfig 指标/追踪/健康检查
type ObservabilityConfig struct {
	MetricsEnabled bool    `yaml:"metrics_enabled"`
	TracingEnabled bool    `yaml:"tracing_enabled"`
	ServiceName    string  `yaml:"service_name"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	OTLPInsecure   bool    `yaml:"otlp_insecure"`
	SamplingRate   float64 `yaml:"sampling_rate"`
}

// Config 顶层应用配置。
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Index         IndexConfig         `yaml:"index"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	CORS          CORSConfig          `yaml:"cors"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Default 返回开发环境的默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			Mode:         "development",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             ".data/vectorhub.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			LogLevel:        "warn",
		},
		Index: IndexConfig{
			Kind:       "memory",
			Name:       "vectorhub",
			Dimensions: 1024,
			Metric:     "cosine",
		},
		Embedding: EmbeddingConfig{
			Provider:     "openai",
			DefaultModel: "text-embedding-3-large",
			Dimensions:   1024,
			Timeout:      30 * time.Second,
		},
		Auth: AuthConfig{
			APIKey: APIKeyConfig{HeaderName: "X-API-Key"},
			JWT:    JWTConfig{Issuer: "vectorhub", Audience: "vectorhub-api"},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
		CORS: CORSConfig{
			Enabled:      true,
			AllowOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stdout",
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: true,
			ServiceName:    "vectorhub",
			OTLPEndpoint:   "localhost:4318",
			OTLPInsecure:   true,
			SamplingRate:   1.0,
		},
	}
}

// Load 从指定路径加载 YAML 配置, 未出现的字段保留默认值, 然后应用环境变量覆盖。
// path 为空时只使用默认值和环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv 使用环境变量覆盖配置
//
//	OPENAI_API_KEY                  embedding.api_key
//	EMBEDDING_DIMENSIONALITY        embedding.dimensions 和 index.dimensions
//	DEFAULT_OPENAI_EMBEDDING_MODEL  embedding.default_model
//	DATABASE_DRIVER                 database.driver
//	DATABASE_DSN                    database.dsn
//	PGVECTOR_DSN                    index.dsn, 同时把 index.kind 切换为 pgvector
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.Embedding.APIKey = v
	}
	if v, ok := lookup("EMBEDDING_DIMENSIONALITY"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid EMBEDDING_DIMENSIONALITY: %q", v)
		}
		c.Embedding.Dimensions = n
		c.Index.Dimensions = n
	}
	if v, ok := lookup("DEFAULT_OPENAI_EMBEDDING_MODEL"); ok && v != "" {
		c.Embedding.DefaultModel = v
	}
	if v, ok := lookup("DATABASE_DRIVER"); ok && v != "" {
		c.Database.Driver = v
	}
	if v, ok := lookup("DATABASE_DSN"); ok && v != "" {
		c.Database.DSN = v
	}
	if v, ok := lookup("PGVECTOR_DSN"); ok && v != "" {
		c.Index.DSN = v
		c.Index.Kind = "pgvector"
	}
	return nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	switch c.Index.Kind {
	case "memory":
	case "pgvector":
		if c.Index.DSN == "" {
			return fmt.Errorf("index.dsn is required for pgvector")
		}
	default:
		return fmt.Errorf("unsupported index.kind: %q", c.Index.Kind)
	}
	if c.Index.Dimensions <= 0 {
		return fmt.Errorf("index.dimensions must be > 0")
	}
	switch c.Embedding.Provider {
	case "openai", "mock":
	default:
		return fmt.Errorf("unsupported embedding.provider: %q", c.Embedding.Provider)
	}
	if c.Auth.JWT.Enabled && c.Auth.JWT.Secret == "" {
		return fmt.Errorf("auth.jwt.secret is required when jwt is enabled")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be > 0")
	}
	return nil
}
