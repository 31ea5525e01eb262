package persistence

import "time"

type (
	// Recording is one captured or uploaded audio asset
	Recording struct {
		ID            string    `bson:"ID"`
		UserID        string    `bson:"userID,omitempty"`
		Title         string    `bson:"title,omitempty"`
		FilePath      string    `bson:"filePath,omitempty"`
		FileSize      int64     `bson:"fileSize,omitempty"`
		DurationMs    int64     `bson:"durationMs,omitempty"`
		Status        string    `bson:"status,omitempty"`
		Transcription string    `bson:"transcription,omitempty"`
		ErrorMessage  string    `bson:"errorMessage,omitempty"`
		Created       time.Time `bson:"created,omitempty"`
		Updated       time.Time `bson:"updated,omitempty"`
	}

	// Note is the user facing artifact derived from a recording.
	// Its status and progress are the contract the UI polls or subscribes to.
	Note struct {
		ID                 string    `bson:"ID"`
		RecordingID        string    `bson:"recordingID"`
		UserID             string    `bson:"userID,omitempty"`
		Title              string    `bson:"title,omitempty"`
		Status             string    `bson:"status,omitempty"`
		Progress           int32     `bson:"progress"`
		OriginalTranscript string    `bson:"originalTranscript,omitempty"`
		ProcessedContent   string    `bson:"processedContent,omitempty"`
		TotalChunks        int32     `bson:"totalChunks,omitempty"`
		CurrentChunk       int32     `bson:"currentChunk,omitempty"`
		ErrorMessage       string    `bson:"errorMessage,omitempty"`
		Created            time.Time `bson:"created,omitempty"`
		Updated            time.Time `bson:"updated,omitempty"`
	}

	// ChunkWork tracks remote transcription tasks of one recording.
	// Single file uploads are works with one chunk.
	ChunkWork struct {
		ID          string    `bson:"ID"` // recording ID
		NoteID      string    `bson:"noteID"`
		Priority    string    `bson:"priority,omitempty"`
		SkipSummary bool      `bson:"skipSummary,omitempty"`
		Checks      int32     `bson:"checks,omitempty"`
		Chunks      []Chunk   `bson:"chunks"`
		Created     time.Time `bson:"created,omitempty"`
		Updated     time.Time `bson:"updated,omitempty"`
	}

	// Chunk is the remote task state of one audio slice
	Chunk struct {
		Index  int    `bson:"index"`
		TaskID string `bson:"taskID,omitempty"`
		Status string `bson:"status,omitempty"`
		Text   string `bson:"text,omitempty"`
		Error  string `bson:"error,omitempty"`
	}

	// ProcessingLog is an append only audit record
	ProcessingLog struct {
		RecordingID string            `bson:"recordingID"`
		NoteID      string            `bson:"noteID,omitempty"`
		Stage       string            `bson:"stage"`
		Message     string            `bson:"message,omitempty"`
		Status      string            `bson:"status,omitempty"`
		Details     map[string]string `bson:"details,omitempty"`
		Created     time.Time         `bson:"created,omitempty"`
	}
)

// log statuses
const (
	LogInfo    = "info"
	LogWarning = "warning"
	LogError   = "error"
	LogSuccess = "success"
)
