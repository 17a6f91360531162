package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// IsRemote reports whether src names something go-getter must download,
// as opposed to a local file path.
func IsRemote(src string) bool {
	detected, err := getter.Detect(src, "/", getter.Detectors)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(detected, "file://")
}

// Fetcher downloads remote assets into a cache directory.
type Fetcher struct {
	dir string
	log *zap.Logger
}

// NewFetcher creates a fetcher storing downloads under dir.
func NewFetcher(dir string) *Fetcher {
	return &Fetcher{dir: dir, log: logger.Named("fetch")}
}

// Target returns the local path a source is downloaded to.
func (f *Fetcher) Target(src string) string {
	sum := sha256.Sum256([]byte(src))
	name := path.Base(strings.SplitN(src, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		name = "asset"
	}
	return filepath.Join(f.dir, hex.EncodeToString(sum[:8]), name)
}

// Fetch downloads src unless an earlier download exists and returns the local path.
func (f *Fetcher) Fetch(ctx context.Context, src string) (string, error) {
	dst := f.Target(src)
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}

	f.log.Info("fetching asset", zap.String("src", src), zap.String("dst", dst))
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("fetching %s: %w", src, err)
	}
	return dst, nil
}
