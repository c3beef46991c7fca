package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
)

// HistoryRepository implements [models.HistoryStore] for download history.
//
// Rows are append-only: no update or delete path exists. One row is written
// per delivered download; a failed write is the caller's problem to log,
// never to retry.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new [HistoryRepository] with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a new [models.HistoryRecord] with generated ID and sequence
func (r *HistoryRepository) Create(record *models.HistoryRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "download_history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	record.ID = shared.GenerateID()
	record.Sequence = sequence
	if record.DownloadedAt.IsZero() {
		record.DownloadedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO download_history (id, sequence, user_id, title, artist, provenance, source_ref, duration, file_size, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var fileSize sql.NullInt64
	if record.FileSize > 0 {
		fileSize = sql.NullInt64{Int64: record.FileSize, Valid: true}
	}

	if _, err := r.db.Exec(query,
		record.ID,
		record.Sequence,
		record.UserID,
		record.Title,
		record.Artist,
		string(record.Provenance),
		record.SourceRef,
		record.Duration,
		fileSize,
		record.DownloadedAt,
	); err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	return nil
}

// RecentByUser retrieves the user's most recent downloads, newest first.
func (r *HistoryRepository) RecentByUser(userID int64, limit int) ([]*models.HistoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, sequence, user_id, title, artist, provenance, source_ref, duration, file_size, downloaded_at
		FROM download_history
		WHERE user_id = ?
		ORDER BY downloaded_at DESC, sequence DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []*models.HistoryRecord
	for rows.Next() {
		record, err := scanHistoryRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// scanHistoryRow scans a row from [sql.Rows] into a [models.HistoryRecord]
func scanHistoryRow(rows *sql.Rows) (*models.HistoryRecord, error) {
	var (
		record     models.HistoryRecord
		artist     sql.NullString
		provenance string
		sourceRef  sql.NullString
		duration   sql.NullInt64
		fileSize   sql.NullInt64
	)

	err := rows.Scan(
		&record.ID,
		&record.Sequence,
		&record.UserID,
		&record.Title,
		&artist,
		&provenance,
		&sourceRef,
		&duration,
		&fileSize,
		&record.DownloadedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan history record: %w", err)
	}

	record.Artist = artist.String
	record.Provenance = models.Provenance(provenance)
	record.SourceRef = sourceRef.String
	record.Duration = int(duration.Int64)
	record.FileSize = fileSize.Int64

	return &record, nil
}
