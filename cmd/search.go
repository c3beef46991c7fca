package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunebot/internal/formatter"
	"github.com/desertthunder/tunebot/internal/shared"
	"github.com/desertthunder/tunebot/internal/tasks"
	"github.com/urfave/cli/v3"
)

// localUserID tags one-shot CLI downloads in file names.
const localUserID int64 = 1

// Search runs an aggregate search and prints the merged results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if shared.NormalizeQuery(query) == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	filter, err := parseSourceFilter(cmd.String("source"))
	if err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		limit = r.config.Search.ResultLimit
	}

	tracks, err := r.search.Aggregate(ctx, query, limit, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if useJSON {
		return r.writeJSON(tracks, pretty)
	}

	return r.writePlain("%s", formatter.FormatResults(tracks))
}

// Get searches and downloads a single track in one shot.
func (r *Runner) Get(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	index := int(cmd.Int("index"))

	if shared.NormalizeQuery(query) == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if index < 1 {
		return fmt.Errorf("%w: index must be >= 1", shared.ErrInvalidArgument)
	}

	filter, err := parseSourceFilter(cmd.String("source"))
	if err != nil {
		return err
	}

	tracks, err := r.search.Aggregate(ctx, query, r.config.Search.ResultLimit, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w for %q", shared.ErrNoResults, query)
	}
	if index > len(tracks) {
		return fmt.Errorf("%w: only %d results", shared.ErrInvalidArgument, len(tracks))
	}

	track := tracks[index-1]
	r.logger.Info("downloading", "title", track.Title, "artist", track.Artist, "source", track.Provenance)

	file, resolved, err := r.downloads.Retrieve(ctx, track, localUserID)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	r.writePlain("✓ Downloaded %s - %s\n", resolved.Artist, resolved.Title)
	r.writePlain("Saved to: %s (%s)\n", file.Path, shared.FormatSize(file.Size))

	// The recorded row carries the selected track's provenance, not the
	// resolved media track's.
	r.recordDownload(track, file)
	return nil
}

// parseSourceFilter maps the --source flag to a [tasks.SourceFilter].
func parseSourceFilter(source string) (tasks.SourceFilter, error) {
	switch source {
	case "", "all":
		return tasks.AllSources, nil
	case "youtube", "yt":
		return tasks.MediaOnly, nil
	case "spotify", "sp":
		return tasks.CatalogOnly, nil
	default:
		return tasks.AllSources, fmt.Errorf("%w: unknown source %q", shared.ErrInvalidArgument, source)
	}
}
