package uploads

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Store persists named blobs under a category prefix and reports the public
// URL they are served from.
type Store interface {
	Save(ctx context.Context, category, name string, data []byte, contentType string) error
	URL(category, name string) string
}

// DiskStore writes files under a local directory. The directory is served by
// the HTTP server's static route.
type DiskStore struct {
	dir     string
	baseURL string
}

var _ Store = (*DiskStore)(nil)

func NewDiskStore(dir, baseURL string) *DiskStore {
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskStore) Save(_ context.Context, category, name string, data []byte, _ string) error {
	dir := filepath.Join(s.dir, category)
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func (s *DiskStore) URL(category, name string) string {
	return s.baseURL + "/uploads/" + category + "/" + name
}
