package cache

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// New 根据配置创建缓存实例。Redis 连不上时回退到本地缓存，
// 缓存只是旁路加速，不应阻塞启动。
func New(config Config) Cache {
	switch config.Type {
	case "redis":
		c, err := NewRedisCache(config.Redis)
		if err != nil {
			logrus.Warnf("redis缓存不可用，回退到本地缓存: %v", err)
			return NewGoCache(config.Local)
		}
		logrus.Infof("使用redis缓存: %s", config.Redis.Addr)
		return c
	case "local", "":
		return NewGoCache(config.Local)
	default:
		logrus.Warnf("未知的缓存类型 %q，使用本地缓存", config.Type)
		return NewGoCache(config.Local)
	}
}

// MustRedis 创建Redis缓存，失败直接返回错误（用于显式要求分布式缓存的场景）
func MustRedis(config RedisConfig) (Cache, error) {
	c, err := NewRedisCache(config)
	if err != nil {
		return nil, fmt.Errorf("create redis cache: %w", err)
	}
	return c, nil
}
