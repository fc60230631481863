package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/olivier-w/enchordify/internal/logger"
	"github.com/olivier-w/enchordify/internal/timeline"
)

// Cache is the storage Cached reads and writes.
type Cache interface {
	Lookup(ctx context.Context, hash string) (records []timeline.Record, found bool, err error)
	Put(ctx context.Context, hash, source string, records []timeline.Record) error
}

// Cached serves analyses from a cache keyed by the file's content hash and
// stores whatever Next produces. Cache errors are logged and skipped.
type Cached struct {
	Cache Cache
	Next  Analyzer
}

func (c *Cached) Analyze(ctx context.Context, path string) ([]timeline.Record, error) {
	hash, err := HashFile(path)
	if err != nil {
		return nil, err
	}

	if records, found, err := c.Cache.Lookup(ctx, hash); err != nil {
		logger.Warn("analysis cache read failed", logger.String("path", path), logger.ErrorField(err))
	} else if found {
		logger.Debug("analysis cache hit", logger.String("path", path), logger.String("hash", hash))
		return records, nil
	}

	records, err := c.Next.Analyze(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Put(ctx, hash, filepath.Base(path), records); err != nil {
		logger.Warn("analysis cache write failed", logger.String("path", path), logger.ErrorField(err))
	}
	return records, nil
}

// HashFile returns the hex SHA-256 of the file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
