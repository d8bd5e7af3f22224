// Package lesson ties transcript acquisition, AI analysis, and project
// persistence into the pipeline behind a lesson project.
package lesson

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/knishimura/lingotube/internal/inference"
	"github.com/knishimura/lingotube/internal/project"
	"github.com/knishimura/lingotube/internal/transcript"
	"github.com/knishimura/lingotube/internal/youtube"
)

// ErrNotFound is returned when a project id does not exist.
var ErrNotFound = errors.New("lesson project not found")

// ErrNoScript is returned when an operation needs a stored transcript and the
// project has none yet.
var ErrNoScript = errors.New("project has no transcript yet")

// analysisTimeout bounds the AI calls made from a background job completion,
// where no request context exists.
const analysisTimeout = 5 * time.Minute

// TranscriptAcquirer runs the transcript acquisition cascade for a video.
// Satisfied by transcript.Orchestrator.
type TranscriptAcquirer interface {
	Acquire(ctx context.Context, videoID string) (transcript.Result, error)
}

// Service runs the lesson pipeline.
type Service struct {
	repo        project.Repository
	transcripts TranscriptAcquirer
	poller      *transcript.Poller
	ai          inference.Client

	maxTranscriptChars int
	sentenceCount      int
	minWords           int
}

// Options wires the service. Poller may be nil when no async transcription
// backend is configured.
type Options struct {
	Repository         project.Repository
	Transcripts        TranscriptAcquirer
	Poller             *transcript.Poller
	AI                 inference.Client
	MaxTranscriptChars int
	SentenceCount      int
	// MinWords gates transcripts delivered by background jobs, matching the
	// acquisition cascade's minimum.
	MinWords int
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.MaxTranscriptChars <= 0 {
		opts.MaxTranscriptChars = 12000
	}
	if opts.SentenceCount <= 0 {
		opts.SentenceCount = 10
	}
	if opts.MinWords <= 0 {
		opts.MinWords = 50
	}
	return &Service{
		repo:               opts.Repository,
		transcripts:        opts.Transcripts,
		poller:             opts.Poller,
		ai:                 opts.AI,
		maxTranscriptChars: opts.MaxTranscriptChars,
		sentenceCount:      opts.SentenceCount,
		minWords:           opts.MinWords,
	}
}

// CreateFromURL builds a new lesson project from a video URL. The project row
// exists from the start, so every outcome (completed lesson, pending job,
// failure) is visible to the caller through its status.
func (s *Service) CreateFromURL(ctx context.Context, userID, rawURL string) (*project.Project, error) {
	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return nil, fmt.Errorf("youtube.ExtractVideoID() > %w", err)
	}

	p := &project.Project{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     videoID,
		SourceURL: rawURL,
		Status:    project.StatusPending,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("repo.Create() > %w", err)
	}

	result, err := s.transcripts.Acquire(ctx, videoID)
	if err != nil {
		s.recordFailure(ctx, p, err)
		return p, fmt.Errorf("transcripts.Acquire() > %w", err)
	}

	switch result.Status {
	case transcript.StatusPending:
		p.Status = project.StatusProcessing
		p.JobID = sql.NullString{String: result.JobID, Valid: true}
		if err := s.repo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("repo.Update() > %w", err)
		}
		s.watchJob(p.ID, result.JobID)
		return p, nil
	default:
		if result.VideoTitle != "" {
			p.Title = result.VideoTitle
		}
		p.Script = result.Transcript
		if result.JobID != "" {
			p.JobID = sql.NullString{String: result.JobID, Valid: true}
		}
		s.analyze(ctx, p)
		if err := s.repo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("repo.Update() > %w", err)
		}
		return p, nil
	}
}

// Regenerate re-runs analysis and sentence generation on the stored script.
func (s *Service) Regenerate(ctx context.Context, id string) (*project.Project, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Script) == "" {
		return nil, ErrNoScript
	}

	p.Vocabulary = nil
	p.Grammar = nil
	p.Sentences = nil
	p.ErrorMessage = sql.NullString{}
	s.analyze(ctx, p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("repo.Update() > %w", err)
	}
	return p, nil
}

// CorrectLanguage overrides a misdetected language and regenerates the
// practice sentences for it. Vocabulary and grammar stay: they were extracted
// from the transcript, which has not changed.
func (s *Service) CorrectLanguage(ctx context.Context, id, language string) (*project.Project, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	p.DetectedLanguage = language
	s.generateSentences(ctx, p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("repo.Update() > %w", err)
	}
	return p, nil
}

// ResumeWatching restarts polling for projects that were mid-transcription
// when the process last stopped.
func (s *Service) ResumeWatching(ctx context.Context) error {
	if s.poller == nil {
		return nil
	}

	pending, err := s.repo.FindByStatus(ctx, project.StatusProcessing)
	if err != nil {
		return fmt.Errorf("repo.FindByStatus() > %w", err)
	}
	for _, p := range pending {
		if p.JobID.Valid && !strings.HasPrefix(p.JobID.String, "sync-") {
			s.watchJob(p.ID, p.JobID.String)
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*project.Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repo.FindByID() > %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *Service) watchJob(projectID, jobID string) {
	if s.poller == nil {
		return
	}
	s.poller.Start(context.Background(), jobID, func(completion transcript.Completion) {
		s.completeFromJob(projectID, completion)
	})
}

// completeFromJob finishes a project once its background transcription job
// reaches a terminal state.
func (s *Service) completeFromJob(projectID string, completion transcript.Completion) {
	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	p, err := s.load(ctx, projectID)
	if err != nil {
		slog.Default().Error("job completion lost its project", "projectID", projectID, "error", err)
		return
	}

	if completion.Err != nil {
		s.recordFailure(ctx, p, completion.Err)
		return
	}

	if err := transcript.CheckLength(completion.Transcript, s.minWords); err != nil {
		s.recordFailure(ctx, p, err)
		return
	}

	if completion.VideoTitle != "" {
		p.Title = completion.VideoTitle
	}
	p.Script = completion.Transcript
	s.analyze(ctx, p)
	if err := s.repo.Update(ctx, p); err != nil {
		slog.Default().Error("job completion update failed", "projectID", projectID, "error", err)
	}
}

// analyze runs content analysis and sentence generation and marks the project
// completed. An AI failure degrades to an empty section with the error
// recorded in error_message; the transcript itself is still a usable lesson.
func (s *Service) analyze(ctx context.Context, p *project.Project) {
	analysis, err := s.ai.AnalyzeContent(ctx, inference.AnalyzeContentRequest{
		Transcript: truncate(p.Script, s.maxTranscriptChars),
	})
	if err != nil {
		slog.Default().Warn("content analysis failed", "projectID", p.ID, "error", err)
		s.appendError(p, fmt.Errorf("content analysis failed > %w", err))
	} else {
		p.DetectedLanguage = analysis.DetectedLanguage
		p.Vocabulary = analysis.Vocabulary
		p.Grammar = analysis.Grammar
	}
	p.VocabularyCount = len(p.Vocabulary)
	p.GrammarCount = len(p.Grammar)

	s.generateSentences(ctx, p)
	p.Status = project.StatusCompleted
}

func (s *Service) generateSentences(ctx context.Context, p *project.Project) {
	generated, err := s.ai.GenerateSentences(ctx, inference.GenerateSentencesRequest{
		Language:   p.DetectedLanguage,
		Vocabulary: p.Vocabulary,
		Grammar:    p.Grammar,
		Count:      s.sentenceCount,
	})
	if err != nil {
		slog.Default().Warn("sentence generation failed", "projectID", p.ID, "error", err)
		s.appendError(p, fmt.Errorf("sentence generation failed > %w", err))
		return
	}
	p.Sentences = generated.Sentences
}

func (s *Service) recordFailure(ctx context.Context, p *project.Project, cause error) {
	p.Status = project.StatusFailed
	s.appendError(p, cause)
	if err := s.repo.Update(ctx, p); err != nil {
		slog.Default().Error("failure update failed", "projectID", p.ID, "error", err)
	}
}

func (s *Service) appendError(p *project.Project, cause error) {
	message := cause.Error()
	if p.ErrorMessage.Valid && p.ErrorMessage.String != "" {
		message = p.ErrorMessage.String + "; " + message
	}
	p.ErrorMessage = sql.NullString{String: message, Valid: true}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary.
	cut := max
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut]
}
