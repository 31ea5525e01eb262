package status

//Status represents a stage of the note processing pipeline
type Status int

const (
	//Pending - created, nothing done yet
	Pending Status = iota + 1
	//Uploaded - audio reached the blob store
	Uploaded
	//Processing - transcription tasks are being prepared/submitted
	Processing
	//Transcribing - remote transcription in progress
	Transcribing
	//GeneratingMinutes - transcript done, summary being generated
	GeneratingMinutes
	//Completed value
	Completed
	//Failed value
	Failed
)

var (
	statusName = map[Status]string{Pending: "pending", Uploaded: "uploaded",
		Processing: "processing", Transcribing: "transcribing",
		GeneratingMinutes: "generating_minutes", Completed: "completed",
		Failed: "error"}
	nameStatus = map[string]Status{"pending": Pending, "uploaded": Uploaded,
		"processing": Processing, "transcribing": Transcribing,
		"generating_minutes": GeneratingMinutes, "completed": Completed,
		"error": Failed}
)

//Name returns string representation of the status
func Name(st Status) string {
	return statusName[st]
}

//From parses status from string
func From(st string) Status {
	return nameStatus[st]
}

//IsTerminal returns true for statuses with no further transitions
func IsTerminal(st Status) bool {
	return st == Completed || st == Failed
}

//Min returns the earlier of two statuses
func Min(st1, st2 Status) Status {
	if st1 < st2 {
		return st1
	}
	return st2
}
