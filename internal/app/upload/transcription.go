package upload

import (
	"context"
	"strconv"
	"sync"

	"github.com/voxnotes/meetgo/internal/pkg/chunker"
	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/messages"
	"github.com/voxnotes/meetgo/internal/pkg/persistence"
	"github.com/voxnotes/meetgo/internal/pkg/progress"
	"github.com/voxnotes/meetgo/internal/pkg/status"
	"github.com/voxnotes/meetgo/internal/pkg/storage"
	"github.com/voxnotes/meetgo/internal/pkg/taskclient"
)

// startTranscription hands the saved audio to the transcriber. Large
// files are cut into chunks and each chunk goes out as its own task.
// Runs in its own goroutine, the upload response does not wait for it
func startTranscription(data *ServiceData, in *uploadData) {
	ctx := context.Background()

	cmdapp.LogIf(data.NoteSaver.Update(in.noteID, status.Processing,
		progress.Convert(status.Name(status.Processing))))
	cmdapp.LogIf(data.RecordingSaver.SetStatus(in.id, status.Processing, ""))
	publishStatus(data, in)

	plan := chunker.PlanFor(int64(len(in.data)))
	if !plan.Chunked {
		startDirect(ctx, data, in)
		return
	}

	chunks, err := chunker.Split(in.data, plan.ChunkDuration)
	if err != nil {
		cmdapp.Log.Warnf("Can't split %s: %s", in.id, err.Error())
		logWork(data, in, "audio_chunking", "Splitting failed, sending as one piece", persistence.LogWarning)
		startDirect(ctx, data, in)
		return
	}
	startChunked(ctx, data, in, chunks)
}

func startDirect(ctx context.Context, data *ServiceData, in *uploadData) {
	work := &persistence.ChunkWork{ID: in.id, NoteID: in.noteID,
		Priority: priorityFor(data, in), SkipSummary: in.skipNotes,
		Chunks: []persistence.Chunk{{Index: 0}}}
	if err := data.WorkSaver.Insert(work); err != nil {
		markError(data, in, "Can't prepare transcription")
		cmdapp.Log.Error(err)
		return
	}

	url, err := data.Storage.SignedURL(ctx, in.filePath, data.SignedURLTTL)
	if err != nil {
		markError(data, in, "Can't prepare audio URL")
		cmdapp.Log.Error(err)
		return
	}
	taskID, err := data.TaskStarter.Upload(ctx, &taskclient.Task{AudioURL: url,
		Priority: work.Priority, DurationMs: in.duration.Milliseconds()})
	if err != nil {
		markError(data, in, "Can't start transcription")
		cmdapp.Log.Error(err)
		return
	}
	cmdapp.LogIf(data.WorkSaver.SetChunkTask(in.id, 0, taskID))
	markTranscribing(data, in)
	logWork(data, in, "transcription", "Transcription task submitted", persistence.LogInfo)
}

func startChunked(ctx context.Context, data *ServiceData, in *uploadData, chunks []chunker.Chunk) {
	cmdapp.Log.Infof("Sending %s as %d chunks", in.id, len(chunks))
	cmdapp.LogIf(data.NoteSaver.SetChunks(in.noteID, int32(len(chunks)), 0))

	work := &persistence.ChunkWork{ID: in.id, NoteID: in.noteID,
		Priority: taskclient.PriorityNormal, SkipSummary: in.skipNotes,
		Chunks: make([]persistence.Chunk, len(chunks))}
	for i := range chunks {
		work.Chunks[i].Index = i
	}
	if err := data.WorkSaver.Insert(work); err != nil {
		markError(data, in, "Can't prepare transcription")
		cmdapp.Log.Error(err)
		return
	}

	workers := data.SubmitWorkers
	if workers < 1 {
		workers = 4
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	for i := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(ch chunker.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := submitChunk(ctx, data, in, ch, len(chunks)); err != nil {
				cmdapp.Log.Error(err)
				cmdapp.LogIf(data.WorkSaver.SetChunkResult(in.id, persistence.Chunk{
					Index: ch.Index, Status: taskclient.StFailed, Error: err.Error()}))
				logWork(data, in, "transcription",
					"Can't submit chunk "+strconv.Itoa(ch.Index+1), persistence.LogError)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(chunks[i])
	}
	wg.Wait()

	if failed == len(chunks) {
		markError(data, in, "Can't start transcription")
		return
	}
	markTranscribing(data, in)
	logWork(data, in, "transcription",
		"Submitted "+strconv.Itoa(len(chunks)-failed)+" of "+strconv.Itoa(len(chunks))+" chunks",
		persistence.LogInfo)
}

func submitChunk(ctx context.Context, data *ServiceData, in *uploadData, ch chunker.Chunk, total int) error {
	path := chunker.Path(in.id, ch.Index)
	err := storage.SaveWithRetry(ctx, data.Storage, path, ch.Data, "audio/mp3", data.RetryPolicy)
	if err != nil {
		return err
	}
	url, err := data.Storage.SignedURL(ctx, path, data.SignedURLTTL)
	if err != nil {
		return err
	}
	taskID, err := data.TaskStarter.Upload(ctx, &taskclient.Task{AudioURL: url,
		Priority: taskclient.PriorityNormal, DurationMs: ch.Duration.Milliseconds(),
		ChunkIndex: ch.Index, TotalChunks: total})
	if err != nil {
		return err
	}
	return data.WorkSaver.SetChunkTask(in.id, ch.Index, taskID)
}

// short recordings go out as high priority so interactive users see
// results fast, long ones queue behind them
func priorityFor(data *ServiceData, in *uploadData) string {
	if in.duration > 0 && in.duration <= data.HighPriorityLimit {
		return taskclient.PriorityHigh
	}
	return taskclient.PriorityNormal
}

func markTranscribing(data *ServiceData, in *uploadData) {
	cmdapp.LogIf(data.RecordingSaver.SetStatus(in.id, status.Transcribing, ""))
	cmdapp.LogIf(data.NoteSaver.Update(in.noteID, status.Transcribing,
		progress.Convert(status.Name(status.Transcribing))))
	publishStatus(data, in)
}

func markError(data *ServiceData, in *uploadData, msg string) {
	cmdapp.LogIf(data.RecordingSaver.SetStatus(in.id, status.Failed, msg))
	cmdapp.LogIf(data.NoteSaver.SetError(in.noteID, msg))
	logWork(data, in, "transcription", msg, persistence.LogError)
	publishStatus(data, in)
}

func publishStatus(data *ServiceData, in *uploadData) {
	if data.Publisher != nil {
		cmdapp.LogIf(data.Publisher.Publish(in.id, messages.TopicStatusChange))
	}
}
