package messages

// Publisher publish a note id to some topic
type Publisher interface {
	Publish(id string, topic string) error
}

const (
	// TopicStatusChange event topic for note status changes
	TopicStatusChange string = "NoteStatusChange"
)
