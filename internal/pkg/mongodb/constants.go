package mongodb

const (
	store          = "noteStore"
	recordingTable = "recordings"
	noteTable      = "notes"
	workTable      = "chunkWorks"
	logTable       = "processingLogs"
)

var indexData = []IndexData{
	newIndexData(recordingTable, "ID", true),
	newIndexData(noteTable, "ID", true),
	newIndexData(noteTable, "recordingID", false),
	newIndexData(workTable, "ID", true),
	newIndexData(workTable, "chunks.taskID", false),
	newIndexData(workTable, "chunks.status", false),
	newIndexData(logTable, "recordingID", false)}
