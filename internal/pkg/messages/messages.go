package messages

//NoteMessage is the event pushed to subscribers on note changes
type NoteMessage struct {
	ID       string `json:"id"`
	NoteID   string `json:"noteId,omitempty"`
	Status   string `json:"status,omitempty"`
	Progress int32  `json:"progress,omitempty"`
	Error    string `json:"error,omitempty"`
}

//NewNoteMessage creates the message with recording id
func NewNoteMessage(id string, noteID string) *NoteMessage {
	return &NoteMessage{ID: id, NoteID: noteID}
}
