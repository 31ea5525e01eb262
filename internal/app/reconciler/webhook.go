package reconciler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxnotes/meetgo/internal/app/reconciler/api"
	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/persistence"
	"github.com/voxnotes/meetgo/internal/pkg/taskclient"
)

type serviceMetric struct {
	callbackResponseDur prometheus.ObserverVec
	worksTotal          *prometheus.CounterVec
}

//StartWebServer starts the webhook HTTP listener
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	ch := http.Handler(callbackHandler{data: data})
	if data.metrics.callbackResponseDur != nil {
		ch = promhttp.InstrumentHandlerDuration(data.metrics.callbackResponseDur, ch)
	}
	router.Methods("POST").Path("/callback").Handler(ch)
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

type callbackHandler struct {
	data *ServiceData
}

func (h callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input api.CallbackData
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&input); err != nil {
		http.Error(w, "Can't decode input", http.StatusBadRequest)
		cmdapp.Log.Error(errors.Wrap(err, "Can't decode input"))
		return
	}
	if input.TaskID == "" {
		http.Error(w, "No task_id", http.StatusBadRequest)
		return
	}
	cmdapp.Log.Infof("Got callback for task %s: %s", input.TaskID, input.Status)

	work, err := h.data.WorkSaver.GetByTaskID(input.TaskID)
	if err != nil {
		http.Error(w, "Unknown task", http.StatusNotFound)
		cmdapp.Log.Error(err)
		return
	}
	chunk := chunkByTask(work, input.TaskID)
	if chunk == nil {
		http.Error(w, "Unknown task", http.StatusNotFound)
		return
	}
	if isChunkTerminal(chunk.Status) {
		// task already settled, repeated delivery
		w.WriteHeader(http.StatusOK)
		return
	}

	ts := &taskclient.TaskStatus{Status: input.Status, Error: input.Error}
	if input.Result != nil {
		ts.Result = &taskclient.TaskResult{Text: input.Result.Text}
	}
	if err := applyTaskStatus(h.data, work, chunk.Index, ts); err != nil {
		http.Error(w, "Can't apply status", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	maybeFinish(h.data, work.ID)
	w.WriteHeader(http.StatusOK)
}

func chunkByTask(work *persistence.ChunkWork, taskID string) *persistence.Chunk {
	for i := range work.Chunks {
		if work.Chunks[i].TaskID == taskID {
			return &work.Chunks[i]
		}
	}
	return nil
}
