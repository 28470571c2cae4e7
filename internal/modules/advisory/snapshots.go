package advisory

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotRepository persists the last analysis per user and crop. Payloads
// are msgpack blobs, which keeps the stored form compact and lets the
// snapshot schema evolve without table migrations.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a snapshot repository.
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repository", "advisory_snapshots").Logger(),
	}
}

// Save stores a user's latest analysis for a crop, replacing any previous
// snapshot for the same crop.
func (r *SnapshotRepository) Save(userID int64, snap *AnalysisSnapshot) error {
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO advisory_snapshots (user_id, crop, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, crop) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`, userID, snap.Crop, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Latest returns the user's most recent snapshot across all crops, or nil
// when the user has never run an analysis.
func (r *SnapshotRepository) Latest(userID int64) (*AnalysisSnapshot, error) {
	row := r.db.QueryRow(`
		SELECT payload, created_at FROM advisory_snapshots
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID)
	return r.scanSnapshot(row)
}

// ForCrop returns the user's snapshot for one crop, or nil when absent.
func (r *SnapshotRepository) ForCrop(userID int64, crop string) (*AnalysisSnapshot, error) {
	row := r.db.QueryRow(`
		SELECT payload, created_at FROM advisory_snapshots
		WHERE user_id = ? AND crop = ?
	`, userID, crop)
	return r.scanSnapshot(row)
}

func (r *SnapshotRepository) scanSnapshot(row *sql.Row) (*AnalysisSnapshot, error) {
	var payload []byte
	var createdAt int64
	if err := row.Scan(&payload, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap AnalysisSnapshot
	if err := msgpack.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	snap.CreatedAt = createdAt
	return &snap, nil
}
