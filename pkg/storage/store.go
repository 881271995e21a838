package stores

import (
	"context"
	"io"
)

// Store 证据对象存储。告警附带的视频/图像不进内存状态，
// 只在状态里保存对象引用。
type Store interface {
	// Write 写入对象
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read 读取对象及其大小
	Read(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Delete 删除对象
	Delete(ctx context.Context, key string) error

	// Exists 对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// PublicURL 对外访问地址
	PublicURL(key string) string
}
