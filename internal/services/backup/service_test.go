package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLog = zerolog.New(nil).Level(zerolog.Disabled)

type fakeStore struct {
	uploads   map[string][]byte
	objects   []types.Object
	deleted   []string
	uploadErr error
	listErr   error
	deleteErr error
}

func (f *fakeStore) Upload(ctx context.Context, key string, body io.Reader) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]types.Object, error) {
	return f.objects, f.listErr
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeSnapshotter struct {
	content []byte
	err     error
}

func (f *fakeSnapshotter) BackupTo(destPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(destPath, f.content, 0644)
}

func backupKey(ts time.Time) string {
	return "backups/" + keyStem + ts.UTC().Format(keyTimeFormat) + ".db"
}

func backupObject(ts time.Time, size int64) types.Object {
	return types.Object{Key: aws.String(backupKey(ts)), Size: aws.Int64(size)}
}

func TestBackupUploadsSnapshot(t *testing.T) {
	store := &fakeStore{}
	snap := &fakeSnapshotter{content: []byte("sqlite image bytes")}
	svc := NewService(store, snap, "backups", 30, testLog)

	key, err := svc.Backup(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, `^backups/krishisetu-\d{4}-\d{2}-\d{2}-\d{6}\.db$`, key)
	_, ok := parseKeyTime(key)
	assert.True(t, ok, "the key round-trips through the parser")

	require.Contains(t, store.uploads, key)
	assert.Equal(t, snap.content, store.uploads[key])
}

func TestBackupSnapshotFailure(t *testing.T) {
	store := &fakeStore{}
	snap := &fakeSnapshotter{err: errors.New("disk full")}
	svc := NewService(store, snap, "backups", 30, testLog)

	_, err := svc.Backup(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.uploads)
}

func TestBackupUploadFailure(t *testing.T) {
	store := &fakeStore{uploadErr: errors.New("denied")}
	snap := &fakeSnapshotter{content: []byte("x")}
	svc := NewService(store, snap, "backups", 30, testLog)

	_, err := svc.Backup(context.Background())
	assert.Error(t, err)
}

func TestListBackupsParsesAndSorts(t *testing.T) {
	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)

	store := &fakeStore{objects: []types.Object{
		backupObject(old, 1000),
		{Key: aws.String("backups/readme.txt"), Size: aws.Int64(5)},
		backupObject(now.Add(-time.Hour), 2000),
		{Key: nil},
	}}
	svc := NewService(store, &fakeSnapshotter{}, "backups", 30, testLog)

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2, "non-backup objects are skipped")

	assert.True(t, backups[0].Timestamp.After(backups[1].Timestamp), "newest first")
	assert.EqualValues(t, 2000, backups[0].SizeBytes)
	assert.GreaterOrEqual(t, backups[1].AgeHours, int64(47))
}

func TestPruneDeletesBeyondRetention(t *testing.T) {
	now := time.Now().UTC()
	keepable := []types.Object{
		backupObject(now.Add(-1*time.Hour), 1),
		backupObject(now.Add(-2*time.Hour), 1),
		backupObject(now.Add(-3*time.Hour), 1),
	}
	stale := []types.Object{
		backupObject(now.AddDate(0, 0, -40), 1),
		backupObject(now.AddDate(0, 0, -90), 1),
	}
	store := &fakeStore{objects: append(keepable, stale...)}
	svc := NewService(store, &fakeSnapshotter{}, "backups", 30, testLog)

	deleted, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.ElementsMatch(t, []string{
		backupKey(now.AddDate(0, 0, -40)),
		backupKey(now.AddDate(0, 0, -90)),
	}, store.deleted)
}

func TestPruneKeepsMinimum(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeStore{objects: []types.Object{
		backupObject(now.AddDate(0, 0, -100), 1),
		backupObject(now.AddDate(0, 0, -200), 1),
	}}
	svc := NewService(store, &fakeSnapshotter{}, "backups", 30, testLog)

	deleted, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted, "too few backups to prune")
	assert.Empty(t, store.deleted)
}

func TestPruneZeroRetentionKeepsEverything(t *testing.T) {
	now := time.Now().UTC()
	var objects []types.Object
	for i := 1; i <= 5; i++ {
		objects = append(objects, backupObject(now.AddDate(0, 0, -i*100), 1))
	}
	store := &fakeStore{objects: objects}
	svc := NewService(store, &fakeSnapshotter{}, "backups", 0, testLog)

	deleted, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestPruneDeleteFailuresAreSkipped(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeStore{
		objects: []types.Object{
			backupObject(now.Add(-1*time.Hour), 1),
			backupObject(now.Add(-2*time.Hour), 1),
			backupObject(now.Add(-3*time.Hour), 1),
			backupObject(now.AddDate(0, 0, -40), 1),
		},
		deleteErr: errors.New("denied"),
	}
	svc := NewService(store, &fakeSnapshotter{}, "backups", 30, testLog)

	deleted, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted, "failed deletions are logged, not counted")
}

func TestParseKeyTime(t *testing.T) {
	ts, ok := parseKeyTime("backups/krishisetu-2026-08-25-020000.db")
	require.True(t, ok)
	assert.Equal(t, 2026, ts.Year())
	assert.Equal(t, time.Month(8), ts.Month())

	cases := []string{
		"backups/readme.txt",
		"backups/krishisetu-notatime.db",
		"krishisetu-.db",
		fmt.Sprintf("backups/other-%s.db", time.Now().Format(keyTimeFormat)),
	}
	for _, key := range cases {
		_, ok := parseKeyTime(key)
		assert.False(t, ok, key)
	}
}
