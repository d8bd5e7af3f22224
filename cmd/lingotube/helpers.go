package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/knishimura/lingotube/internal/audio"
	"github.com/knishimura/lingotube/internal/config"
	"github.com/knishimura/lingotube/internal/database"
	"github.com/knishimura/lingotube/internal/fetch"
	"github.com/knishimura/lingotube/internal/project"
	"github.com/knishimura/lingotube/internal/speech"
	"github.com/knishimura/lingotube/internal/transcript"
	"github.com/knishimura/lingotube/internal/youtube"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newOrchestrator builds the transcript acquisition cascade from the
// configuration. The official API and job backend layers are skipped when
// their settings are absent.
func newOrchestrator(cfg *config.Config) *transcript.Orchestrator {
	requestTimeout := time.Duration(cfg.Transcript.RequestTimeoutSeconds) * time.Second
	limiter := fetch.NewLimiter(cfg.Transcript.RequestsPerSecond)
	pages := youtube.NewPageClient(requestTimeout, limiter)

	var apiClient *youtube.APIClient
	if cfg.YouTube.APIKey != "" {
		apiClient = youtube.NewAPIClient(cfg.YouTube.APIKey, requestTimeout)
	}

	var jobs *transcript.JobClient
	if cfg.Speech.JobBackendURL != "" {
		jobs = transcript.NewJobClient(cfg.Speech.JobBackendURL, requestTimeout)
	}

	resolver := audio.NewResolver(audio.Config{
		PrimaryMirrors:    cfg.Audio.PrimaryMirrors,
		SecondaryMirrors:  cfg.Audio.SecondaryMirrors,
		RateLimitedMirror: cfg.Audio.RateLimitedMirror,
		MirrorTimeout:     time.Duration(cfg.Audio.MirrorTimeoutSeconds) * time.Second,
	}, pages)

	return transcript.NewOrchestrator(transcript.Options{
		API:           apiClient,
		Locator:       youtube.NewLocator(pages),
		TimedText:     youtube.NewTimedTextClient(requestTimeout, limiter),
		Audio:         resolver,
		Speech:        speech.NewClient(cfg.Speech.BaseURL, cfg.Speech.APIKey, cfg.Audio.MaxDownloadBytes, requestTimeout),
		Jobs:          jobs,
		MinWords:      cfg.Transcript.MinWords,
		LanguageCodes: cfg.Transcript.LanguageCodes,
	})
}

func openRepository(ctx context.Context, cfg *config.Config) (*sqlx.DB, project.Repository, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database.Open() > %w", err)
	}
	return db, project.NewDBRepository(db), nil
}
