package api

// upload form parameters
const (
	PrmFile              = "file"
	PrmTitle             = "title"
	PrmUser              = "user"
	PrmSkipTranscription = "skipTranscription"
	PrmSkipSummary       = "skipSummary"
)

// UploadResult - post method response in JSON
type UploadResult struct {
	ID     string `json:"id"`
	NoteID string `json:"noteId"`
}
