package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/knishimura/lingotube/internal/audio"
	"github.com/knishimura/lingotube/internal/config"
	"github.com/knishimura/lingotube/internal/database"
	"github.com/knishimura/lingotube/internal/fetch"
	"github.com/knishimura/lingotube/internal/inference"
	"github.com/knishimura/lingotube/internal/inference/openai"
	"github.com/knishimura/lingotube/internal/lesson"
	"github.com/knishimura/lingotube/internal/project"
	"github.com/knishimura/lingotube/internal/server"
	"github.com/knishimura/lingotube/internal/speech"
	"github.com/knishimura/lingotube/internal/transcript"
	"github.com/knishimura/lingotube/internal/youtube"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, inference.DefaultMaxRetryAttempts)
	defer func() {
		_ = openaiClient.Close()
	}()

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database.Open() > %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := project.NewDBRepository(db)

	var poller *transcript.Poller
	var jobs *transcript.JobClient
	requestTimeout := time.Duration(cfg.Transcript.RequestTimeoutSeconds) * time.Second
	if cfg.Speech.JobBackendURL != "" {
		jobs = transcript.NewJobClient(cfg.Speech.JobBackendURL, requestTimeout)
		poller = transcript.NewPoller(jobs, time.Duration(cfg.Speech.PollIntervalSeconds)*time.Second)
	}

	service := lesson.NewService(lesson.Options{
		Repository:         repo,
		Transcripts:        newOrchestrator(cfg, jobs),
		Poller:             poller,
		AI:                 openaiClient,
		MaxTranscriptChars: cfg.OpenAI.MaxTranscriptChars,
		SentenceCount:      cfg.OpenAI.SentenceCount,
		MinWords:           cfg.Transcript.MinWords,
	})

	// Projects left in processing by a previous run resume their job watches.
	if poller != nil {
		if err := service.ResumeWatching(ctx); err != nil {
			slog.Default().Warn("failed to resume job watches", "error", err)
		}
	}

	handler := server.NewProjectHandler(service, repo)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	slog.Default().Info("starting server", "addr", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, corsMiddleware(cfg.Server.AllowedOrigin, h2c.NewHandler(mux, &http2.Server{})))
}

func loadConfig() (*config.Config, error) {
	configFile := os.Getenv("LINGOTUBE_CONFIG")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.Load() > %w", err)
	}
	return cfg, nil
}

func newOrchestrator(cfg *config.Config, jobs *transcript.JobClient) *transcript.Orchestrator {
	requestTimeout := time.Duration(cfg.Transcript.RequestTimeoutSeconds) * time.Second
	limiter := fetch.NewLimiter(cfg.Transcript.RequestsPerSecond)
	pages := youtube.NewPageClient(requestTimeout, limiter)

	var apiClient *youtube.APIClient
	if cfg.YouTube.APIKey != "" {
		apiClient = youtube.NewAPIClient(cfg.YouTube.APIKey, requestTimeout)
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

func corsMiddleware(allowedOrigin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
