package pipeline

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pairscout/engine/internal/domain"
)

// BlobPutter uploads one object to blob storage.
type BlobPutter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// SnapshotArchiver writes each full scrape result to object storage as
// gzipped JSON, so historical listings survive the store's latest-wins
// upserts.
type SnapshotArchiver struct {
	blob   BlobPutter
	prefix string
	logger *slog.Logger
}

// NewSnapshotArchiver creates an archiver writing under the given key prefix
// (e.g. "markets").
func NewSnapshotArchiver(blob BlobPutter, prefix string, logger *slog.Logger) *SnapshotArchiver {
	if prefix == "" {
		prefix = "markets"
	}
	return &SnapshotArchiver{
		blob:   blob,
		prefix: prefix,
		logger: logger.With(slog.String("component", "snapshot_archiver")),
	}
}

// ArchiveSnapshot uploads the market list under a date-partitioned key.
func (a *SnapshotArchiver) ArchiveSnapshot(ctx context.Context, markets []domain.Market, ts time.Time) error {
	key := fmt.Sprintf("%s/%s/markets-%s.json.gz",
		a.prefix, ts.Format("2006/01/02"), ts.Format("150405"))

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(markets); err != nil {
		return fmt.Errorf("archiver: encode snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("archiver: compress snapshot: %w", err)
	}

	if err := a.blob.Put(ctx, key, &buf, "application/gzip"); err != nil {
		return fmt.Errorf("archiver: upload snapshot: %w", err)
	}

	a.logger.Info("snapshot archived",
		slog.String("key", key),
		slog.Int("markets", len(markets)),
		slog.Int("bytes", buf.Len()),
	)
	return nil
}
