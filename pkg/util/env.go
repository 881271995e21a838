package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// LoadEnv 按环境加载 .env 文件（.env.development / .env.production），
// 已存在的环境变量优先，不被文件覆盖。
func LoadEnv(env string) error {
	filename := ".env." + env
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// GetEnv 读取环境变量
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvDefault 读取环境变量，空时返回默认值
func GetEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetIntEnv 读取整型环境变量，解析失败返回 0
func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

// GetBoolEnv 读取布尔环境变量（"1"/"true"/"yes" 等）
func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

// GetDurationEnv 读取时长环境变量（如 "30s" "5m"），解析失败返回 0
func GetDurationEnv(key string) time.Duration {
	d, err := cast.ToDurationE(os.Getenv(key))
	if err != nil {
		return 0
	}
	return d
}
