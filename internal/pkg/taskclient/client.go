package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/retrier"
	"github.com/voxnotes/meetgo/internal/pkg/utils"
)

// task priorities
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// task statuses reported by the transcription server
const (
	StQueued     = "queued"
	StProcessing = "processing"
	StCompleted  = "completed"
	StFailed     = "failed"
)

//Task is the submission data for one transcription job
type Task struct {
	AudioURL    string `json:"audioUrl,omitempty"`
	AudioData   []byte `json:"audioData,omitempty"`
	Priority    string `json:"priority"`
	DurationMs  int64  `json:"durationMs,omitempty"`
	ChunkIndex  int    `json:"chunkIndex,omitempty"`
	TotalChunks int    `json:"totalChunks,omitempty"`
}

//TaskStatus is the job state reported by the transcription server
type TaskStatus struct {
	Status string      `json:"status"`
	Result *TaskResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

//TaskResult holds the transcribed text
type TaskResult struct {
	Text string `json:"text"`
}

//Client comunicates with the transcription task server
type Client struct {
	httpclient   *http.Client
	statusclient *retryablehttp.Client
	url          string
	policy       retrier.Policy
	settleHigh   time.Duration
	settleNormal time.Duration
	sleep        func(time.Duration)
}

//NewClient creates a transcription task client
func NewClient() (*Client, error) {
	res := Client{}
	var err error
	res.url, err = utils.GetURLFromConfig("transcriber.url")
	if err != nil {
		return nil, err
	}
	res.httpclient = &http.Client{Timeout: time.Minute}
	res.statusclient = retryablehttp.NewClient()
	res.statusclient.RetryMax = 3
	res.statusclient.Logger = nil
	res.policy = retrier.NewPolicy()
	res.settleHigh = time.Second
	res.settleNormal = 5 * time.Second
	res.sleep = time.Sleep
	return &res, nil
}

//Upload submits the task and returns the remote task id.
//After submission it waits a settling delay so the remote job
//does not fetch the audio before storage has propagated it
func (sp *Client) Upload(ctx context.Context, task *Task) (string, error) {
	cmdapp.Log.Infof("Submitting task to: %s", sp.url)
	var id string
	err := retrier.Do(func() error {
		var err error
		id, err = sp.submit(ctx, task)
		return err
	}, sp.policy)
	if err != nil {
		return "", errors.Wrap(err, "Can't submit task")
	}
	sp.sleep(sp.settleWait(task.Priority))
	return id, nil
}

type taskResponse struct {
	TaskID string `json:"taskId"`
}

func (sp *Client) submit(ctx context.Context, task *Task) (string, error) {
	b, err := json.Marshal(task)
	if err != nil {
		return "", retrier.Permanent(errors.Wrap(err, "Can't marshal task"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, utils.URLJoin(sp.url, "api/tasks"), bytes.NewReader(b))
	if err != nil {
		return "", retrier.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
		return "", errors.Wrapf(retrier.ErrUnavailable, "code %d", resp.StatusCode)
	}
	if err := utils.ValidateResponse(resp); err != nil {
		if errors.Is(err, utils.ErrWrongHTTPCall) {
			return "", retrier.Permanent(err)
		}
		return "", err
	}
	var res taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", errors.Wrap(err, "Can't decode response")
	}
	if res.TaskID == "" {
		return "", retrier.Permanent(errors.New("No taskId in response"))
	}
	return res.TaskID, nil
}

//GetStatus gets task status from the server
func (sp *Client) GetStatus(ctx context.Context, id string) (*TaskStatus, error) {
	urlStr := utils.URLJoin(sp.url, "api/tasks", id)
	cmdapp.Log.Infof("Get status: %s", urlStr)
	req, err := retryablehttp.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := sp.statusclient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return nil, errors.Wrap(err, "Can't get status")
	}
	var res TaskStatus
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "Can't decode response")
	}
	return &res, nil
}

func (sp *Client) settleWait(priority string) time.Duration {
	if priority == PriorityHigh {
		return sp.settleHigh
	}
	return sp.settleNormal
}
