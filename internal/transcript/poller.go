package transcript

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Completion is delivered exactly once per job when the backend reports a
// terminal state.
type Completion struct {
	JobID      string
	Transcript string
	VideoTitle string
	Err        error
}

// Poller observes asynchronous transcription jobs on a fixed interval. It
// owns the set of in-flight jobs explicitly, keyed by job id, with start and
// cancel operations; abandoning a job simply stops polling it.
type Poller struct {
	jobs     *JobClient
	interval time.Duration

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// NewPoller creates a Poller over the job backend client.
func NewPoller(jobs *JobClient, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		jobs:     jobs,
		interval: interval,
		inflight: make(map[string]context.CancelFunc),
	}
}

// Start begins polling jobID and invokes onDone exactly once when the job
// reaches a terminal state. Starting an already-polled job id is a no-op, so
// a repeated completed status cannot duplicate downstream side effects.
func (p *Poller) Start(ctx context.Context, jobID string, onDone func(Completion)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.inflight[jobID]; ok {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.inflight[jobID] = cancel

	go p.loop(pollCtx, jobID, onDone)
}

// Cancel stops polling jobID. The backend job itself is not cancelled; it is
// simply no longer observed.
func (p *Poller) Cancel(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.inflight[jobID]; ok {
		cancel()
		delete(p.inflight, jobID)
	}
}

// Active reports whether jobID is currently polled.
func (p *Poller) Active(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inflight[jobID]
	return ok
}

func (p *Poller) loop(ctx context.Context, jobID string, onDone func(Completion)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := p.jobs.Poll(ctx, jobID)
		if err != nil {
			// Transient poll failures are logged and retried on the next
			// tick; the job keeps progressing server side regardless.
			slog.Default().Warn("job poll failed", "jobID", jobID, "error", err)
			continue
		}

		switch status.State {
		case JobQueued, JobActive:
			continue
		case JobCompleted:
			p.finish(jobID, onDone, Completion{
				JobID:      jobID,
				Transcript: status.Transcript,
				VideoTitle: status.VideoTitle,
			})
			return
		case JobFailed:
			p.finish(jobID, onDone, Completion{
				JobID: jobID,
				Err:   &JobError{JobID: jobID, Detail: status.Error},
			})
			return
		default:
			slog.Default().Warn("unknown job state", "jobID", jobID, "state", status.State)
		}
	}
}

// finish removes the job from the in-flight set before invoking the
// callback, so re-entrant Start/Cancel calls see consistent state.
func (p *Poller) finish(jobID string, onDone func(Completion), completion Completion) {
	p.mu.Lock()
	if cancel, ok := p.inflight[jobID]; ok {
		cancel()
		delete(p.inflight, jobID)
	}
	p.mu.Unlock()

	onDone(completion)
}

// JobError is the terminal failure detail of an asynchronous job.
type JobError struct {
	JobID  string
	Detail string
}

func (e *JobError) Error() string {
	if e.Detail == "" {
		return "transcription job " + e.JobID + " failed"
	}
	return "transcription job " + e.JobID + " failed: " + e.Detail
}
