package reconciler

import (
	"context"
	"strconv"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"

	"github.com/heptiolabs/healthcheck"

	"github.com/voxnotes/meetgo/internal/pkg/assembler"
	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/messages"
	"github.com/voxnotes/meetgo/internal/pkg/persistence"
	"github.com/voxnotes/meetgo/internal/pkg/status"
	"github.com/voxnotes/meetgo/internal/pkg/taskclient"
)

// MaxTasksPerRun limits how many works one reconciling pass touches
const MaxTasksPerRun = 10

// TaskChecker polls remote transcription task state
type TaskChecker interface {
	GetStatus(ctx context.Context, id string) (*taskclient.TaskStatus, error)
}

// PendingProvider lists works with unfinished chunks
type PendingProvider interface {
	List(limit int) ([]*persistence.ChunkWork, error)
}

// WorkSaver persists chunk task bookkeeping
type WorkSaver interface {
	Get(id string) (*persistence.ChunkWork, error)
	GetByTaskID(taskID string) (*persistence.ChunkWork, error)
	SetChunkResult(id string, chunk persistence.Chunk) error
	SetChunkStatus(id string, index int, st string) error
	IncChecks(id string) error
}

// RecordingSaver updates recording rows
type RecordingSaver interface {
	SetStatus(id string, st status.Status, errMsg string) error
	SetTranscription(id string, text string) error
}

// NoteSaver updates note rows
type NoteSaver interface {
	Update(id string, st status.Status, progress int32) error
	SetTranscript(id string, text string, st status.Status, progress int32) error
	SetChunks(id string, total, current int32) error
	SetError(id string, errMsg string) error
}

// LogSaver appends processing log records
type LogSaver interface {
	Insert(data *persistence.ProcessingLog) error
}

// Summarizer triggers meeting minutes generation
type Summarizer interface {
	Invoke(ctx context.Context, noteID string, transcript string) error
}

type backoffProvider interface {
	Get() backoff.BackOff
}

// ServiceData keeps data required for service work
type ServiceData struct {
	TaskChecker     TaskChecker
	PendingProvider PendingProvider
	WorkSaver       WorkSaver
	RecordingSaver  RecordingSaver
	NoteSaver       NoteSaver
	LogSaver        LogSaver
	Summarizer      Summarizer
	Publisher       messages.Publisher

	MaxTasks int
	bp       backoffProvider

	Port    int
	health  healthcheck.Handler
	metrics serviceMetric
}

//RunOnce polls remote task state for the oldest pending works
func RunOnce(data *ServiceData) {
	limit := data.MaxTasks
	if limit < 1 {
		limit = MaxTasksPerRun
	}
	works, err := data.PendingProvider.List(limit)
	if err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can't list pending works"))
		return
	}
	cmdapp.Log.Infof("Got %d works to check", len(works))
	for _, w := range works {
		checkWork(data, w)
	}
}

func checkWork(data *ServiceData, work *persistence.ChunkWork) {
	ctx := context.Background()
	for i := range work.Chunks {
		ch := &work.Chunks[i]
		if isChunkTerminal(ch.Status) || ch.TaskID == "" {
			continue
		}
		ts, err := data.TaskChecker.GetStatus(ctx, ch.TaskID)
		if err != nil {
			cmdapp.Log.Error(errors.Wrapf(err, "Can't get task %s status", ch.TaskID))
			continue
		}
		if err := applyTaskStatus(data, work, ch.Index, ts); err != nil {
			cmdapp.Log.Error(err)
		}
	}
	cmdapp.LogIf(data.WorkSaver.IncChecks(work.ID))
	work.Checks++
	maybeFinish(data, work.ID)
}

// applyTaskStatus moves one chunk by the reported remote task state.
// Used by both the polling loop and the webhook, repeated calls with
// the same state are no-ops
func applyTaskStatus(data *ServiceData, work *persistence.ChunkWork, index int, ts *taskclient.TaskStatus) error {
	ch := findChunk(work, index)
	if ch == nil {
		return errors.Errorf("No chunk %d in work %s", index, work.ID)
	}
	switch ts.Status {
	case taskclient.StCompleted:
		text := ""
		if ts.Result != nil {
			text = ts.Result.Text
		}
		ch.Status, ch.Text = taskclient.StCompleted, text
		return data.WorkSaver.SetChunkResult(work.ID, *ch)
	case taskclient.StFailed:
		cmdapp.Log.Warnf("Task %s of %s failed: %s", ch.TaskID, work.ID, ts.Error)
		ch.Status, ch.Error = taskclient.StFailed, ts.Error
		logChunk(data, work, index, "Chunk transcription failed: "+ts.Error, persistence.LogWarning)
		return data.WorkSaver.SetChunkResult(work.ID, *ch)
	case taskclient.StProcessing:
		if ch.Status != taskclient.StProcessing {
			ch.Status = taskclient.StProcessing
			return data.WorkSaver.SetChunkStatus(work.ID, index, taskclient.StProcessing)
		}
	}
	return nil
}

// maybeFinish reloads the work and either updates progress or, when
// every chunk settled, assembles the final transcript
func maybeFinish(data *ServiceData, id string) {
	work, err := data.WorkSaver.Get(id)
	if err != nil {
		cmdapp.Log.Error(errors.Wrapf(err, "Can't load work %s", id))
		return
	}
	done, processing := 0, 0
	for _, ch := range work.Chunks {
		if isChunkTerminal(ch.Status) {
			done++
		} else if ch.Status == taskclient.StProcessing {
			processing++
		}
	}
	if len(work.Chunks) > 1 {
		cmdapp.LogIf(data.NoteSaver.SetChunks(work.NoteID, int32(len(work.Chunks)), int32(done)))
	}
	if done < len(work.Chunks) {
		cmdapp.LogIf(data.NoteSaver.Update(work.NoteID, status.Transcribing,
			pollProgress(work.Checks, processing+done > 0)))
		return
	}
	finishWork(data, work)
}

// progress while waiting for the transcriber, kept inside the
// transcribing band so it never jumps over the final states
func pollProgress(checks int32, started bool) int32 {
	if !started {
		return 30
	}
	p := 40 + checks*5
	if p > 70 {
		p = 70
	}
	return p
}

func finishWork(data *ServiceData, work *persistence.ChunkWork) {
	parts := make([]assembler.Part, 0, len(work.Chunks))
	failed := 0
	for _, ch := range work.Chunks {
		parts = append(parts, assembler.Part{Index: ch.Index, Text: ch.Text,
			Success: ch.Status == taskclient.StCompleted})
		if ch.Status != taskclient.StCompleted {
			failed++
		}
	}
	if failed == len(work.Chunks) {
		msg := "Transcription failed"
		if len(work.Chunks) == 1 {
			msg = firstChunkError(work)
		}
		cmdapp.LogIf(retrySave(data, func() error {
			if err := data.RecordingSaver.SetStatus(work.ID, status.Failed, msg); err != nil {
				return err
			}
			return data.NoteSaver.SetError(work.NoteID, msg)
		}))
		logChunk(data, work, -1, msg, persistence.LogError)
		publishStatus(data, work.ID)
		countWork(data, "failed")
		return
	}
	if failed > 0 {
		cmdapp.Log.Warnf("Work %s finished with %d failed chunks", work.ID, failed)
	}

	text := assembler.Assemble(parts)
	noteStatus, noteProgress := status.GeneratingMinutes, int32(80)
	if work.SkipSummary {
		noteStatus, noteProgress = status.Completed, 100
	}
	cmdapp.LogIf(retrySave(data, func() error {
		if err := data.RecordingSaver.SetTranscription(work.ID, text); err != nil {
			return err
		}
		if err := data.RecordingSaver.SetStatus(work.ID, status.Completed, ""); err != nil {
			return err
		}
		return data.NoteSaver.SetTranscript(work.NoteID, text, noteStatus, noteProgress)
	}))
	logChunk(data, work, -1, "Transcription completed", persistence.LogSuccess)
	publishStatus(data, work.ID)
	countWork(data, "completed")
	if !work.SkipSummary {
		go invokeSummarizer(data, work, text)
	}
}

// retrySave keeps final state writes from being lost to a db hiccup
func retrySave(data *ServiceData, op func() error) error {
	if data.bp == nil {
		return op()
	}
	return backoff.Retry(op, data.bp.Get())
}

func countWork(data *ServiceData, result string) {
	if data.metrics.worksTotal != nil {
		data.metrics.worksTotal.WithLabelValues(result).Inc()
	}
}

// invokeSummarizer is fire and forget, a summarizer failure never
// takes the finished transcript away from the user
func invokeSummarizer(data *ServiceData, work *persistence.ChunkWork, text string) {
	err := data.Summarizer.Invoke(context.Background(), work.NoteID, text)
	if err != nil {
		cmdapp.Log.Error(errors.Wrapf(err, "Can't summarize %s", work.NoteID))
		logChunk(data, work, -1, "Minutes generation failed", persistence.LogWarning)
		cmdapp.LogIf(data.NoteSaver.Update(work.NoteID, status.Completed, 100))
		publishStatus(data, work.ID)
	}
}

func findChunk(work *persistence.ChunkWork, index int) *persistence.Chunk {
	for i := range work.Chunks {
		if work.Chunks[i].Index == index {
			return &work.Chunks[i]
		}
	}
	return nil
}

func firstChunkError(work *persistence.ChunkWork) string {
	for _, ch := range work.Chunks {
		if ch.Error != "" {
			return ch.Error
		}
	}
	return "Transcription failed"
}

func isChunkTerminal(st string) bool {
	return st == taskclient.StCompleted || st == taskclient.StFailed
}

func logChunk(data *ServiceData, work *persistence.ChunkWork, index int, msg, st string) {
	details := map[string]string{}
	if index >= 0 {
		details["chunk"] = strconv.Itoa(index + 1)
	}
	cmdapp.LogIf(data.LogSaver.Insert(&persistence.ProcessingLog{RecordingID: work.ID,
		NoteID: work.NoteID, Stage: "transcription", Message: msg, Status: st,
		Details: details}))
}

func publishStatus(data *ServiceData, id string) {
	if data.Publisher != nil {
		cmdapp.LogIf(data.Publisher.Publish(id, messages.TopicStatusChange))
	}
}
