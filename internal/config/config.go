package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Elastic  ElasticConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Log      LogConfig
	Pipeline PipelineConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	// MaxUploadMB 原始文档上传大小上限
	MaxUploadMB int
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string // postgres | sqlite
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	Path         string // sqlite 文件路径
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ElasticConfig Elasticsearch配置
type ElasticConfig struct {
	Enabled     bool
	Host        string
	Username    string
	Password    string
	IndexPrefix string
}

// StorageConfig 原始文档存储配置
type StorageConfig struct {
	Type      string // local | minio
	BasePath  string
	URLPrefix string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuthConfig 审核员身份认证配置
type AuthConfig struct {
	JWTSecret string
	// Required 为 false 时允许通过 X-Reviewer-ID 头传入审核员
	Required bool
}

// LogConfig 日志配置
type LogConfig struct {
	Mode  string
	Level string
}

// PipelineConfig 内容质量流水线配置
type PipelineConfig struct {
	// DuplicateThreshold 重复判定阈值（Jaccard）
	DuplicateThreshold float64
	// CorpusMode 语料来源: scan（数据库全量扫描）| elastic（ES 预筛选）
	CorpusMode string
	// CorpusBatchSize 全量扫描时的分批大小
	CorpusBatchSize int
	// CorpusCandidateLimit ES 预筛选返回的候选数量
	CorpusCandidateLimit int
	// BatchReviewLimit 单次批量审核的最大条数
	BatchReviewLimit int
	// CacheTTL 分析结果缓存时间（秒），0 表示不缓存
	CacheTTL int
	// QualityWeights 质量分权重覆盖，未设置时使用默认值
	QualityWeights QualityWeightsConfig
}

// QualityWeightsConfig 质量分权重
type QualityWeightsConfig struct {
	Accuracy      float64
	Clarity       float64
	DifficultyFit float64
	Trust         float64
	Usage         float64
}

// IsZero 是否未配置
func (w QualityWeightsConfig) IsZero() bool {
	return w.Accuracy == 0 && w.Clarity == 0 && w.DifficultyFit == 0 && w.Trust == 0 && w.Usage == 0
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("NEXT_QBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Pipeline.DuplicateThreshold <= 0 || c.Pipeline.DuplicateThreshold > 1 {
		return fmt.Errorf("pipeline.duplicateThreshold must be in (0, 1], got %v", c.Pipeline.DuplicateThreshold)
	}
	switch c.Pipeline.CorpusMode {
	case "scan", "elastic":
	default:
		return fmt.Errorf("unsupported pipeline.corpusMode: %s", c.Pipeline.CorpusMode)
	}
	if c.Pipeline.CorpusMode == "elastic" && !c.Elastic.Enabled {
		return fmt.Errorf("pipeline.corpusMode=elastic requires elastic.enabled")
	}
	return nil
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ProblemIndex ES 题目索引名
func (c *ElasticConfig) ProblemIndex() string {
	return c.IndexPrefix + "_problems"
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "next-qbank")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)
	v.SetDefault("server.maxUploadMB", 20)

	// Database
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "next_qbank")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "./data/qbank.db")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Elastic
	v.SetDefault("elastic.enabled", false)
	v.SetDefault("elastic.host", "http://localhost:9200")
	v.SetDefault("elastic.indexPrefix", "next_qbank")

	// Storage
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.basePath", "./data/documents")
	v.SetDefault("storage.urlPrefix", "/documents")

	// Auth
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.required", false)

	// Log
	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "info")

	// Pipeline
	v.SetDefault("pipeline.duplicateThreshold", 0.7)
	v.SetDefault("pipeline.corpusMode", "scan")
	v.SetDefault("pipeline.corpusBatchSize", 500)
	v.SetDefault("pipeline.corpusCandidateLimit", 50)
	v.SetDefault("pipeline.batchReviewLimit", 100)
	v.SetDefault("pipeline.cacheTTL", 600)
}
