package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/d60-Lab/yatube/config"
)

// ErrInvalidKey 非法的对象路径（越界、为空）
var ErrInvalidKey = errors.New("invalid storage key")

// Storage 上传文件的存储后端（本地磁盘或 S3）
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// Serve 把对象写回客户端（磁盘直出，S3 跳转到预签名地址）
	Serve(w http.ResponseWriter, r *http.Request, key string)
	// URL 页面中引用对象的地址
	URL(key string) string
}

// New 按配置创建存储后端
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "disk":
		return NewDiskStorage(cfg.Path, cfg.URLPrefix)
	case "s3":
		return NewS3Storage(cfg.S3, cfg.URLPrefix)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// NewKey 生成 dir/<uuid><ext> 形式的对象路径
func NewKey(dir, ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(dir, uuid.New().String()+ext)
}

// CleanKey 规范化对象路径，拒绝越出根目录的路径
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." || strings.HasPrefix(key, "../") {
		return "", ErrInvalidKey
	}
	return key, nil
}

func joinURL(prefix, key string) string {
	if prefix == "" {
		prefix = "/"
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}
