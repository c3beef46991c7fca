package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/tunebot/internal/services"
	"github.com/desertthunder/tunebot/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	catalog := services.NewSpotifyService(
		config.Credentials.Spotify.ClientID,
		config.Credentials.Spotify.ClientSecret,
	)

	media := services.NewExtractorService(services.ExtractorOpts{
		BaseURL:      config.Extractor.BaseURL,
		DownloadDir:  config.Downloads.Path,
		MaxDuration:  config.Downloads.MaxDurationSeconds,
		MaxBytes:     config.Downloads.MaxFileSizeBytes(),
		Bitrate:      config.Downloads.BitrateKbps,
		RateLimit:    config.Extractor.RateLimit,
		SearchWindow: time.Duration(config.Extractor.SearchTimeoutSeconds) * time.Second,
		FetchWindow:  time.Duration(config.Extractor.FetchTimeoutSeconds) * time.Second,
	})

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalog,
		Media:   media,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "tunebot",
		Usage:    "Search YouTube & Spotify and download songs from chat",
		Version:  "0.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
