package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobBackend(t *testing.T, handler http.HandlerFunc) *JobClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewJobClient(server.URL, time.Second)
}

func TestPoller_CompletedFiresCallbackOnce(t *testing.T) {
	// The backend keeps reporting completed on every poll; the callback must
	// still fire exactly once.
	var polls atomic.Int64
	jobs := newJobBackend(t, func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"job-1","state":"completed","transcript":"hola mundo","video_title":"Intro"}`)
	})

	poller := NewPoller(jobs, 10*time.Millisecond)
	done := make(chan Completion, 4)
	poller.Start(context.Background(), "job-1", func(c Completion) {
		done <- c
	})

	select {
	case completion := <-done:
		require.NoError(t, completion.Err)
		assert.Equal(t, "job-1", completion.JobID)
		assert.Equal(t, "hola mundo", completion.Transcript)
		assert.Equal(t, "Intro", completion.VideoTitle)
	case <-time.After(2 * time.Second):
		t.Fatal("completion callback never fired")
	}

	// Allow further ticks to prove the job was removed after completion.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, done, 0, "callback fired more than once")
	assert.False(t, poller.Active("job-1"))
}

func TestPoller_FailedJob(t *testing.T) {
	jobs := newJobBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"job-2","state":"failed","error":"audio stream expired"}`)
	})

	poller := NewPoller(jobs, 10*time.Millisecond)
	done := make(chan Completion, 1)
	poller.Start(context.Background(), "job-2", func(c Completion) {
		done <- c
	})

	select {
	case completion := <-done:
		require.Error(t, completion.Err)
		assert.Contains(t, completion.Err.Error(), "audio stream expired")
	case <-time.After(2 * time.Second):
		t.Fatal("completion callback never fired")
	}
}

func TestPoller_StartIsIdempotentPerJobID(t *testing.T) {
	jobs := newJobBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"job-3","state":"active"}`)
	})

	poller := NewPoller(jobs, 10*time.Millisecond)
	var callbacks atomic.Int64
	onDone := func(Completion) { callbacks.Add(1) }

	poller.Start(context.Background(), "job-3", onDone)
	poller.Start(context.Background(), "job-3", onDone)
	assert.True(t, poller.Active("job-3"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), callbacks.Load(), "active job must not complete")

	poller.Cancel("job-3")
	assert.False(t, poller.Active("job-3"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), callbacks.Load(), "cancelled job must not complete")
}

func TestPoller_TransientErrorsKeepPolling(t *testing.T) {
	var polls atomic.Int64
	jobs := newJobBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"job-4","state":"completed","transcript":"recovered after retry"}`)
	})

	poller := NewPoller(jobs, 10*time.Millisecond)
	done := make(chan Completion, 1)
	poller.Start(context.Background(), "job-4", func(c Completion) {
		done <- c
	})

	select {
	case completion := <-done:
		require.NoError(t, completion.Err)
		assert.Equal(t, "recovered after retry", completion.Transcript)
		assert.GreaterOrEqual(t, polls.Load(), int64(2))
	case <-time.After(2 * time.Second):
		t.Fatal("completion callback never fired")
	}
}
