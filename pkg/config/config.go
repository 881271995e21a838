package config

import (
	"log"
	"os"
	"time"

	"HibiscusSOS/pkg/logger"
	"HibiscusSOS/pkg/util"
)

// config/config.go
type Config struct {
	Addr        string `env:"ADDR"`
	Mode        string `env:"MODE"` // gin 运行模式
	APIPrefix   string `env:"API_PREFIX"`
	Log         logger.LogConfig
	LLMApiKey   string `env:"LLM_API_KEY"`
	LLMBaseURL  string `env:"LLM_BASE_URL"`
	LLMModel    string `env:"LLM_MODEL"`
	GeocodeURL  string `env:"GEOCODE_URL"` // 反向地理编码服务地址
	GeoIPDBPath string `env:"GEOIP_DB_PATH"`
	CacheType   string `env:"CACHE_TYPE"` // local | redis
	RedisAddr   string `env:"REDIS_ADDR"`
	RedisPass   string `env:"REDIS_PASSWORD"`
	RedisDB     int    `env:"REDIS_DB"`

	// 证据对象存储（未配置 endpoint 时禁用上传接口）
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL"`
	MinioBaseURL   string `env:"MINIO_PUBLIC_BASE"`

	// 历史告警全文检索
	SearchEnabled bool `env:"SEARCH_ENABLED"`

	// REST 限流（如 "100-M"），为空时不启用
	RateLimit string `env:"RATE_LIMIT"`

	// 静默用户清理：两者都设置时启用
	UserEvictSchedule string        `env:"USER_EVICT_SCHEDULE"` // 纯时长（如 "10m"）或 cron 表达式
	UserEvictAfter    time.Duration `env:"USER_EVICT_AFTER"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnv("MODE"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		LLMApiKey:         util.GetEnv("LLM_API_KEY"),
		LLMBaseURL:        util.GetEnv("LLM_BASE_URL"),
		LLMModel:          util.GetEnvDefault("LLM_MODEL", "gpt-4o-mini"),
		GeocodeURL:        util.GetEnvDefault("GEOCODE_URL", "https://nominatim.openstreetmap.org"),
		GeoIPDBPath:       util.GetEnv("GEOIP_DB_PATH"),
		CacheType:         util.GetEnvDefault("CACHE_TYPE", "local"),
		RedisAddr:         util.GetEnv("REDIS_ADDR"),
		RedisPass:         util.GetEnv("REDIS_PASSWORD"),
		RedisDB:           int(util.GetIntEnv("REDIS_DB")),
		MinioEndpoint:     util.GetEnv("MINIO_ENDPOINT"),
		MinioAccessKey:    util.GetEnv("MINIO_ACCESS_KEY"),
		MinioSecretKey:    util.GetEnv("MINIO_SECRET_KEY"),
		MinioBucket:       util.GetEnvDefault("MINIO_BUCKET", "sos-evidence"),
		MinioUseSSL:       util.GetBoolEnv("MINIO_USE_SSL"),
		MinioBaseURL:      util.GetEnv("MINIO_PUBLIC_BASE"),
		SearchEnabled:     util.GetBoolEnv("SEARCH_ENABLED"),
		RateLimit:         util.GetEnv("RATE_LIMIT"),
		UserEvictSchedule: util.GetEnv("USER_EVICT_SCHEDULE"),
		UserEvictAfter:    util.GetDurationEnv("USER_EVICT_AFTER"),
	}
	return nil
}
