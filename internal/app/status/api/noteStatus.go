package api

// NoteStatus - status method response in JSON
type NoteStatus struct {
	ID               string `json:"id"`
	NoteID           string `json:"noteId"`
	Status           string `json:"status"`
	Progress         int32  `json:"progress"`
	Transcript       string `json:"transcript,omitempty"`
	ProcessedContent string `json:"processedContent,omitempty"`
	TotalChunks      int32  `json:"totalChunks,omitempty"`
	CurrentChunk     int32  `json:"currentChunk,omitempty"`
	Error            string `json:"error,omitempty"`
}
