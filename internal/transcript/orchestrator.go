// Package transcript acquires a plain-text transcript for a video through an
// ordered cascade of best-effort strategies, and observes asynchronous
// transcription jobs.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/knishimura/lingotube/internal/audio"
	"github.com/knishimura/lingotube/internal/fetch"
	"github.com/knishimura/lingotube/internal/speech"
	"github.com/knishimura/lingotube/internal/subtitle"
	"github.com/knishimura/lingotube/internal/youtube"
)

// ErrTooShort marks a transcript under the configured word minimum. This is
// definitive: later strategies would only re-fetch the same thin content.
var ErrTooShort = errors.New("transcript has too little spoken content; try a video with more dialogue or narration")

// ErrExhausted is returned when every strategy failed softly.
var ErrExhausted = errors.New("no transcript strategy succeeded")

// Status of an acquisition attempt.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Result of one acquisition. Pending results carry the job id to poll.
type Result struct {
	Status     Status
	Transcript string
	JobID      string
	VideoTitle string
}

// minTrackChars rejects caption payloads that parse to near-empty text, so a
// stub track does not shadow a usable lower-priority one.
const minTrackChars = 50

// Orchestrator runs the acquisition cascade. Strategies are tried in order;
// a soft failure moves to the next strategy, a hard failure (rate limit,
// cancellation, short transcript) short-circuits.
type Orchestrator struct {
	api       *youtube.APIClient // nil when no API key is configured
	locator   *youtube.Locator
	timedText *youtube.TimedTextClient
	audio     *audio.Resolver
	speech    *speech.Client
	jobs      *JobClient // nil when no async backend is configured

	minWords      int
	languageCodes []string
}

// Options wires the orchestrator's collaborators. API and Jobs may be nil.
type Options struct {
	API           *youtube.APIClient
	Locator       *youtube.Locator
	TimedText     *youtube.TimedTextClient
	Audio         *audio.Resolver
	Speech        *speech.Client
	Jobs          *JobClient
	MinWords      int
	LanguageCodes []string
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.MinWords <= 0 {
		opts.MinWords = 50
	}
	if len(opts.LanguageCodes) == 0 {
		opts.LanguageCodes = []string{"en"}
	}
	return &Orchestrator{
		api:           opts.API,
		locator:       opts.Locator,
		timedText:     opts.TimedText,
		audio:         opts.Audio,
		speech:        opts.Speech,
		jobs:          opts.Jobs,
		minWords:      opts.MinWords,
		languageCodes: opts.LanguageCodes,
	}
}

type strategyFunc func(ctx context.Context, videoID string) (Result, error)

type strategy struct {
	name string
	run  strategyFunc
}

func (o *Orchestrator) strategies() []strategy {
	var list []strategy
	if o.api != nil {
		list = append(list, strategy{"official captions API", o.tryOfficialAPI})
	}
	list = append(list,
		strategy{"scraped caption tracks", o.tryScrapedCaptions},
		strategy{"direct timedtext", o.tryDirectTimedText},
		strategy{"audio pipeline", o.tryAudioPipeline},
	)
	return list
}

// Acquire returns the first successful transcript, a pending job handle, or
// an error once the cascade is exhausted.
func (o *Orchestrator) Acquire(ctx context.Context, videoID string) (Result, error) {
	for _, s := range o.strategies() {
		result, err := s.run(ctx, videoID)
		if err == nil {
			if result.Status == StatusCompleted {
				if err := o.checkLength(result.Transcript); err != nil {
					return Result{Status: StatusFailed}, err
				}
			}
			slog.Default().Info("transcript acquired", "videoID", videoID, "strategy", s.name, "status", result.Status)
			return result, nil
		}
		if isHardFailure(ctx, err) {
			return Result{Status: StatusFailed}, fmt.Errorf("%s > %w", s.name, err)
		}
		slog.Default().Debug("transcript strategy failed", "videoID", videoID, "strategy", s.name, "error", err)
	}
	return Result{Status: StatusFailed}, ErrExhausted
}

// isHardFailure decides whether an error short-circuits the cascade.
// Rate limiting propagates immediately: retrying the same degraded upstream
// through later strategies is wasteful.
func isHardFailure(ctx context.Context, err error) bool {
	if errors.Is(err, fetch.ErrRateLimited) {
		return true
	}
	if errors.Is(err, ErrTooShort) {
		return true
	}
	return ctx.Err() != nil
}

func (o *Orchestrator) checkLength(transcript string) error {
	return CheckLength(transcript, o.minWords)
}

// CheckLength reports ErrTooShort when the transcript falls under minWords.
// Job completions run through it too, so an async transcription cannot slip
// past the gate the synchronous cascade enforces.
func CheckLength(transcript string, minWords int) error {
	words := len(strings.Fields(transcript))
	if words < minWords {
		return fmt.Errorf("%d words < %d minimum: %w", words, minWords, ErrTooShort)
	}
	return nil
}

func (o *Orchestrator) tryOfficialAPI(ctx context.Context, videoID string) (Result, error) {
	payload, err := o.api.FetchCaptions(ctx, videoID)
	if err != nil {
		return Result{}, fmt.Errorf("api.FetchCaptions() > %w", err)
	}

	text := subtitle.Parse(payload)
	if len(text) <= minTrackChars {
		return Result{}, fmt.Errorf("official API captions parsed to %d chars", len(text))
	}

	title, err := o.api.VideoTitle(ctx, videoID)
	if err != nil {
		slog.Default().Debug("video title lookup failed", "videoID", videoID, "error", err)
	}
	return Result{Status: StatusCompleted, Transcript: text, VideoTitle: title}, nil
}

func (o *Orchestrator) tryScrapedCaptions(ctx context.Context, videoID string) (Result, error) {
	info, err := o.locator.Locate(ctx, videoID)
	if err != nil {
		return Result{}, fmt.Errorf("locator.Locate() > %w", err)
	}
	if len(info.Tracks) == 0 {
		return Result{}, fmt.Errorf("no caption tracks on page for %s", videoID)
	}

	// Tracks are already sorted manual-first; the first one that parses to
	// substantive text wins.
	for _, track := range info.Tracks {
		payload, err := o.timedText.FetchTrack(ctx, track)
		if err != nil {
			if errors.Is(err, fetch.ErrRateLimited) || ctx.Err() != nil {
				return Result{}, err
			}
			slog.Default().Debug("caption track fetch failed", "lang", track.LanguageCode, "kind", track.Kind, "error", err)
			continue
		}
		if text := subtitle.Parse(payload); len(text) > minTrackChars {
			return Result{Status: StatusCompleted, Transcript: text, VideoTitle: info.Title}, nil
		}
	}
	return Result{}, fmt.Errorf("no scraped track parsed to usable text for %s", videoID)
}

func (o *Orchestrator) tryDirectTimedText(ctx context.Context, videoID string) (Result, error) {
	payload, err := o.timedText.ProbeDirect(ctx, videoID, o.languageCodes)
	if err != nil {
		return Result{}, fmt.Errorf("timedText.ProbeDirect() > %w", err)
	}

	text := subtitle.Parse(payload)
	if len(text) <= minTrackChars {
		return Result{}, fmt.Errorf("direct timedtext parsed to %d chars", len(text))
	}
	return Result{Status: StatusCompleted, Transcript: text}, nil
}

// tryAudioPipeline falls back to audio extraction plus speech-to-text. With a
// job backend configured the work happens asynchronously and a pending job
// handle is returned; otherwise the transcription runs inline.
func (o *Orchestrator) tryAudioPipeline(ctx context.Context, videoID string) (Result, error) {
	if o.jobs != nil {
		jobID, err := o.jobs.Start(ctx, videoID, "")
		if err != nil {
			return Result{}, fmt.Errorf("jobs.Start() > %w", err)
		}
		return Result{Status: StatusPending, JobID: jobID}, nil
	}

	stream, err := o.audio.Resolve(ctx, videoID)
	if err != nil {
		return Result{}, fmt.Errorf("audio.Resolve() > %w", err)
	}

	blob, err := o.speech.DownloadAudio(ctx, stream.URL)
	if err != nil {
		return Result{}, fmt.Errorf("speech.DownloadAudio() > %w", err)
	}

	text, err := o.speech.Transcribe(ctx, blob, stream.MimeType)
	if err != nil {
		return Result{}, fmt.Errorf("speech.Transcribe() > %w", err)
	}

	// Synchronous transcriptions still get a handle so callers can record
	// provenance uniformly with async jobs.
	return Result{Status: StatusCompleted, Transcript: text, JobID: "sync-" + uuid.NewString()}, nil
}
