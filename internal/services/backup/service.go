package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

const (
	keyTimeFormat = "2006-01-02-150405"
	keyStem       = "krishisetu-"

	// The newest backups survive pruning regardless of age.
	minBackupsToKeep = 3
)

// ObjectStore is the slice of the S3 client the service uses.
// Implemented by *S3Client. Used to enable testing with mocks.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	List(ctx context.Context, prefix string) ([]types.Object, error)
	Delete(ctx context.Context, key string) error
}

// Snapshotter writes a consistent copy of the database to a path.
// Implemented by *database.DB.
type Snapshotter interface {
	BackupTo(destPath string) error
}

// Info describes one stored backup.
type Info struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// Service creates, lists and prunes database backups in object storage.
type Service struct {
	store         ObjectStore
	db            Snapshotter
	prefix        string
	retentionDays int
	log           zerolog.Logger
}

// NewService creates a backup service. retentionDays of zero keeps
// everything beyond the minimum.
func NewService(store ObjectStore, db Snapshotter, prefix string, retentionDays int, log zerolog.Logger) *Service {
	return &Service{
		store:         store,
		db:            db,
		prefix:        prefix,
		retentionDays: retentionDays,
		log:           log.With().Str("service", "backup").Logger(),
	}
}

// Backup snapshots the database with VACUUM INTO and uploads the file,
// returning the stored object key.
func (s *Service) Backup(ctx context.Context) (string, error) {
	start := time.Now()

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("krishisetu-backup-%d.db", start.UnixNano()))
	defer os.Remove(tmpPath)

	if err := s.db.BackupTo(tmpPath); err != nil {
		return "", fmt.Errorf("failed to snapshot database: %w", err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat snapshot: %w", err)
	}

	key := s.keyFor(start.UTC())
	if err := s.store.Upload(ctx, key, f); err != nil {
		return "", err
	}

	s.log.Info().
		Str("key", key).
		Int64("size_bytes", info.Size()).
		Dur("duration", time.Since(start)).
		Msg("Backup uploaded")
	return key, nil
}

// ListBackups returns stored backups, newest first. Objects under the prefix
// that do not look like backups are skipped.
func (s *Service) ListBackups(ctx context.Context) ([]Info, error) {
	objects, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	now := time.Now()
	backups := make([]Info, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}
		ts, ok := parseKeyTime(*obj.Key)
		if !ok {
			continue
		}

		var size int64
		if obj.Size != nil {
			size = *obj.Size
		}
		backups = append(backups, Info{
			Key:       *obj.Key,
			Timestamp: ts,
			SizeBytes: size,
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Prune deletes backups older than the retention period, always keeping the
// newest few. Returns how many were deleted.
func (s *Service) Prune(ctx context.Context) (int, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= minBackupsToKeep || s.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted := 0
	for i, b := range backups {
		if i < minBackupsToKeep || !b.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, b.Key); err != nil {
			s.log.Warn().Err(err).Str("key", b.Key).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("key", b.Key).Time("timestamp", b.Timestamp).Msg("Deleted old backup")
		deleted++
	}
	return deleted, nil
}

func (s *Service) keyFor(ts time.Time) string {
	return path.Join(s.prefix, keyStem+ts.Format(keyTimeFormat)+".db")
}

// parseKeyTime recovers the timestamp embedded in a backup key.
func parseKeyTime(key string) (time.Time, bool) {
	base := path.Base(key)
	if !strings.HasPrefix(base, keyStem) || !strings.HasSuffix(base, ".db") {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(base, keyStem), ".db")
	ts, err := time.Parse(keyTimeFormat, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
