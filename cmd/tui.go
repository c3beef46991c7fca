package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/repositories"
	"github.com/desertthunder/tunebot/internal/shared"
	"github.com/desertthunder/tunebot/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for search and download.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tunebot-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	// History recording is best-effort in the TUI; skip it when the
	// database has never been set up.
	var history models.HistoryStore
	if db, err := shared.NewDatabase(r.config.Database.Path); err == nil {
		defer db.Close()
		if err := shared.RunMigrations(db); err == nil {
			history = repositories.NewHistoryRepository(db)
		}
	}

	model := ui.NewModel(ctx, r.search, r.downloads, history, r.config.Search.ResultLimit)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
