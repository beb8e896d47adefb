package storage

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/config"
	"github.com/rs/zerolog/log"
)

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// ObjectStorage captures the S3-compatible operations used to archive
// price list uploads and landed cost exports.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}

// New returns a MinIO backed store, or an in-memory one when storage is
// disabled.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	if !cfg.Enabled {
		log.Info().Msg("storage: disabled, archiving to memory")
		return NewMemoryStorage(), nil
	}
	return NewMinioStorage(ctx, cfg)
}

// JoinKey joins key parts below prefix, dropping empty parts.
func JoinKey(prefix string, parts ...string) string {
	elems := make([]string, 0, len(parts)+1)
	if p := strings.Trim(prefix, "/"); p != "" {
		elems = append(elems, p)
	}
	for _, part := range parts {
		if p := strings.Trim(part, "/"); p != "" {
			elems = append(elems, p)
		}
	}
	return path.Join(elems...)
}
