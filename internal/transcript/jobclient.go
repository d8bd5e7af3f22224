package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/knishimura/lingotube/internal/fetch"
)

// JobState is the async backend's view of a transcription job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobActive    JobState = "active"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// JobStatus is one poll's observation of a job.
type JobStatus struct {
	ID         string   `json:"id"`
	State      JobState `json:"state"`
	Transcript string   `json:"transcript,omitempty"`
	VideoTitle string   `json:"video_title,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// JobClient talks to the asynchronous transcription job backend: one POST to
// start a job, repeated GETs to observe it. The backend drives the job; the
// client never retries or cancels it.
type JobClient struct {
	httpClient *resty.Client
	baseURL    string
}

// NewJobClient creates a job backend client rooted at baseURL.
func NewJobClient(baseURL string, timeout time.Duration) *JobClient {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	return &JobClient{httpClient: client, baseURL: baseURL}
}

type startJobRequest struct {
	VideoID   string `json:"video_id"`
	SourceURL string `json:"source_url,omitempty"`
}

type startJobResponse struct {
	ID string `json:"id"`
}

// Start enqueues a transcription job and returns its opaque id.
func (c *JobClient) Start(ctx context.Context, videoID, sourceURL string) (string, error) {
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(startJobRequest{VideoID: videoID, SourceURL: sourceURL}).
		SetResult(&startJobResponse{}).
		Post(c.baseURL + "/jobs")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post(start job) > %w", err)
	}
	if err := fetch.CheckStatus(response); err != nil {
		return "", err
	}

	result := response.Result().(*startJobResponse)
	if result.ID == "" {
		return "", fmt.Errorf("job backend returned no job id")
	}
	return result.ID, nil
}

// Poll performs a single idempotent status check.
func (c *JobClient) Poll(ctx context.Context, jobID string) (JobStatus, error) {
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&JobStatus{}).
		Get(c.baseURL + "/jobs/" + jobID)
	if err != nil {
		return JobStatus{}, fmt.Errorf("httpClient.Get(job status) > %w", err)
	}
	if err := fetch.CheckStatus(response); err != nil {
		return JobStatus{}, err
	}
	return *response.Result().(*JobStatus), nil
}
