package progress

import (
	"github.com/voxnotes/meetgo/internal/pkg/status"
)

var statusProgressMap = make(map[string]int32)

func init() {
	statusProgressMap[status.Name(status.Pending)] = 5
	statusProgressMap[status.Name(status.Uploaded)] = 10
	statusProgressMap[status.Name(status.Processing)] = 15
	statusProgressMap[status.Name(status.Transcribing)] = 40
	statusProgressMap[status.Name(status.GeneratingMinutes)] = 80
	statusProgressMap[status.Name(status.Completed)] = 100
}

//Convert return percentage value of a progress for status value
func Convert(status string) int32 {
	pr, found := statusProgressMap[status]
	if found {
		return pr
	}
	return 0
}
