package importer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yamdb/backend/service"
)

// DirSource reads fixture files from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, name))
}

// S3Source reads fixture files from an S3 bucket under an optional prefix.
type S3Source struct {
	S3     *service.S3Service
	Prefix string
}

func (s S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := name
	if s.Prefix != "" {
		key = strings.TrimSuffix(s.Prefix, "/") + "/" + name
	}
	return s.S3.GetObject(ctx, key)
}
