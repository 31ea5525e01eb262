package reconciler

import (
	"os"
	"time"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
)

type timerServiceData struct {
	runEvery     time.Duration
	data         *ServiceData
	qChan        <-chan os.Signal
	workWaitChan chan struct{}
}

func startCheckTimer(data *timerServiceData) error {
	cmdapp.Log.Infof("Starting timer service every %v", data.runEvery)
	go serviceLoop(data)
	return nil
}

func serviceLoop(data *timerServiceData) {
	ticker := time.NewTicker(data.runEvery)
	// run on startup
	RunOnce(data.data)
mainloop:
	for {
		select {
		case <-ticker.C:
			RunOnce(data.data)
		case <-data.qChan:
			ticker.Stop()
			break mainloop
		}
	}
	cmdapp.Log.Infof("Stopped timer service")
	close(data.workWaitChan)
}
