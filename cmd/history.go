package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunebot/internal/formatter"
	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/repositories"
	"github.com/desertthunder/tunebot/internal/shared"
	"github.com/urfave/cli/v3"
)

// History prints the most recent downloads recorded for a user.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	userID := cmd.Int("user")
	limit := int(cmd.Int("limit"))
	useJSON := cmd.Bool("json")

	config, err := r.loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	history := repositories.NewHistoryRepository(db)
	records, err := history.RecentByUser(int64(userID), limit)
	if err != nil {
		return fmt.Errorf("history query failed: %w", err)
	}

	if useJSON {
		return r.writeJSON(records, true)
	}

	return r.writePlain("%s", formatter.FormatHistory(records))
}

// recordDownload appends a history row for a delivered one-shot download.
//
// Failures are logged and swallowed; the file is already on disk either way.
// When no store was injected, the database is opened just for this write.
func (r *Runner) recordDownload(track models.Track, file *models.MediaFile) {
	store := r.history
	if store == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			r.logger.Warn("skipping history record", "error", err)
			return
		}
		defer db.Close()

		if err := shared.RunMigrations(db); err != nil {
			r.logger.Warn("skipping history record", "error", err)
			return
		}
		store = repositories.NewHistoryRepository(db)
	}

	record := &models.HistoryRecord{
		UserID:     localUserID,
		Title:      track.Title,
		Artist:     track.Artist,
		Provenance: track.Provenance,
		SourceRef:  track.SourceRef,
		Duration:   track.Duration,
	}
	if file != nil {
		record.FileSize = file.Size
	}

	if err := store.Create(record); err != nil {
		r.logger.Error("history write failed", "title", track.Title,
			"error", shared.ErrPersistenceFailed, "cause", err)
	}
}
