package upload

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heptiolabs/healthcheck"

	"github.com/voxnotes/meetgo/internal/app/upload/api"
	"github.com/voxnotes/meetgo/internal/pkg/audio"
	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/messages"
	"github.com/voxnotes/meetgo/internal/pkg/persistence"
	"github.com/voxnotes/meetgo/internal/pkg/progress"
	"github.com/voxnotes/meetgo/internal/pkg/retrier"
	"github.com/voxnotes/meetgo/internal/pkg/status"
	"github.com/voxnotes/meetgo/internal/pkg/storage"
	"github.com/voxnotes/meetgo/internal/pkg/taskclient"
)

type serviceMetric struct {
	uploadResponseDur prometheus.ObserverVec
	uploadRequestSize prometheus.ObserverVec
}

// FileStorage is the blob store used for audio data
type FileStorage interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
	Delete(ctx context.Context, name string) error
	SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error)
}

// Compressor re-encodes uploaded audio
type Compressor interface {
	Compress(ctx context.Context, data []byte) (*audio.Result, error)
}

// TaskStarter submits transcription tasks
type TaskStarter interface {
	Upload(ctx context.Context, task *taskclient.Task) (string, error)
}

// RecordingSaver persists recording rows
type RecordingSaver interface {
	Insert(data *persistence.Recording) error
	SetStatus(id string, st status.Status, errMsg string) error
	Delete(id string) error
}

// NoteSaver persists note rows
type NoteSaver interface {
	Insert(data *persistence.Note) error
	Update(id string, st status.Status, progress int32) error
	SetChunks(id string, total, current int32) error
	SetError(id string, errMsg string) error
	Delete(id string) error
}

// WorkSaver persists chunk task bookkeeping
type WorkSaver interface {
	Insert(data *persistence.ChunkWork) error
	SetChunkTask(id string, index int, taskID string) error
	SetChunkResult(id string, chunk persistence.Chunk) error
}

// LogSaver appends processing log records
type LogSaver interface {
	Insert(data *persistence.ProcessingLog) error
}

// ServiceData keeps data required for service work
type ServiceData struct {
	Storage        FileStorage
	Compressor     Compressor
	TaskStarter    TaskStarter
	RecordingSaver RecordingSaver
	NoteSaver      NoteSaver
	WorkSaver      WorkSaver
	LogSaver       LogSaver
	Publisher      messages.Publisher

	RetryPolicy  retrier.Policy
	SignedURLTTL time.Duration
	// recordings at most this long go out as high priority tasks
	HighPriorityLimit time.Duration
	SubmitWorkers     int

	Port    int
	health  healthcheck.Handler
	metrics serviceMetric
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       180 * time.Second,
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
	uh := http.Handler(uploadHandler{data: data})
	if data.metrics.uploadResponseDur != nil {
		uh = promhttp.InstrumentHandlerDuration(data.metrics.uploadResponseDur,
			promhttp.InstrumentHandlerRequestSize(data.metrics.uploadRequestSize, uh))
	}
	router.Methods("POST").Path("/upload").Handler(uh)
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

type uploadHandler struct {
	data *ServiceData
}

func (h uploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Saving file from %s", r.Host)

	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		http.Error(w, "Can't parse MultipartForm", http.StatusBadRequest)
		cmdapp.Log.Error(errors.Wrap(err, "Can't parse MultipartForm"))
		return
	}
	defer cleanFiles(r.MultipartForm)
	err = validateFormParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}

	file, handler, err := r.FormFile(api.PrmFile)
	if err != nil {
		http.Error(w, "No file", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	if !checkFileExtension(ext) {
		http.Error(w, "Wrong file extension: "+ext, http.StatusBadRequest)
		cmdapp.Log.Errorf("Wrong file extension: " + ext)
		return
	}

	fileData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Can't read file", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}

	in := &uploadData{
		id:         uuid.New().String(),
		noteID:     uuid.New().String(),
		user:       r.FormValue(api.PrmUser),
		title:      r.FormValue(api.PrmTitle),
		fileName:   handler.Filename,
		data:       fileData,
		skipSubmit: r.FormValue(api.PrmSkipTranscription) != "",
		skipNotes:  r.FormValue(api.PrmSkipSummary) != "",
	}
	if in.title == "" {
		in.title = handler.Filename
	}

	err = processUpload(r.Context(), h.data, in)
	if err != nil {
		http.Error(w, "Can't process upload", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}

	result := api.UploadResult{ID: in.id, NoteID: in.noteID}
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err = encoder.Encode(&result)
	if err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
}

type uploadData struct {
	id         string
	noteID     string
	user       string
	title      string
	fileName   string
	data       []byte
	duration   time.Duration
	filePath   string
	skipSubmit bool
	skipNotes  bool
}

// processUpload compresses the audio, saves it to the blob store and
// creates recording/note rows. Rows created before a failed step are
// rolled back so no orphans are left behind
func processUpload(ctx context.Context, data *ServiceData, in *uploadData) error {
	if d, err := audio.Duration(in.data); err == nil {
		in.duration = d
	} else {
		cmdapp.Log.Warnf("Can't estimate duration for %s: %s", in.id, err.Error())
	}

	compressed, err := data.Compressor.Compress(ctx, in.data)
	if err != nil {
		// degrade gracefully, continue with the original data
		cmdapp.Log.Warnf("Can't compress %s: %s", in.id, err.Error())
		logWork(data, in, "audio_extraction", "Compression failed, using original audio", persistence.LogWarning)
	} else {
		in.data = compressed.Data
		in.duration = compressed.Duration
	}

	user := in.user
	if user == "" {
		user = in.id
	}
	in.filePath = user + "/" + strconv.FormatInt(time.Now().UnixMilli(), 10) + ".mp3"

	err = data.RecordingSaver.Insert(&persistence.Recording{ID: in.id, UserID: in.user,
		Title: in.title, FilePath: in.filePath, FileSize: int64(len(in.data)),
		DurationMs: in.duration.Milliseconds(), Status: status.Name(status.Pending)})
	if err != nil {
		return errors.Wrap(err, "Can't save recording")
	}

	err = storage.SaveWithRetry(ctx, data.Storage, in.filePath, in.data, "audio/mp3", data.RetryPolicy)
	if err != nil {
		cmdapp.LogIf(data.RecordingSaver.Delete(in.id))
		return errors.Wrap(err, "Can't save file")
	}
	cmdapp.LogIf(data.RecordingSaver.SetStatus(in.id, status.Uploaded, ""))

	err = data.NoteSaver.Insert(&persistence.Note{ID: in.noteID, RecordingID: in.id,
		UserID: in.user, Title: in.title, Status: status.Name(status.Pending),
		Progress: progress.Convert(status.Name(status.Pending))})
	if err != nil {
		cmdapp.LogIf(data.Storage.Delete(ctx, in.filePath))
		cmdapp.LogIf(data.RecordingSaver.Delete(in.id))
		return errors.Wrap(err, "Can't save note")
	}

	logWork(data, in, "initial_processing", "File uploaded successfully", persistence.LogSuccess)

	if in.skipSubmit {
		cmdapp.Log.Infof("Skipping transcription for %s", in.id)
		return nil
	}
	go startTranscription(data, in)
	return nil
}

func logWork(data *ServiceData, in *uploadData, stage, msg, st string) {
	cmdapp.LogIf(data.LogSaver.Insert(&persistence.ProcessingLog{RecordingID: in.id,
		NoteID: in.noteID, Stage: stage, Message: msg, Status: st,
		Details: map[string]string{"fileName": in.fileName,
			"fileSize": strconv.Itoa(len(in.data))}}))
}

func cleanFiles(f *multipart.Form) {
	if f != nil {
		f.RemoveAll()
	}
}

func checkFileExtension(ext string) bool {
	return ext == ".wav" || ext == ".mp3" || ext == ".mp4" || ext == ".m4a" || ext == ".webm"
}

func validateFormParams(r *http.Request) error {
	form := r.Form
	allowed := map[string]bool{api.PrmTitle: true, api.PrmUser: true,
		api.PrmSkipTranscription: true, api.PrmSkipSummary: true}
	for k := range form {
		_, f := allowed[k]
		if !f {
			return errors.Errorf("Unknown parameter '%s'", k)
		}
	}
	for _, p := range []string{api.PrmTitle, api.PrmUser} {
		if err := validateInjection(r, p); err != nil {
			return err
		}
	}
	return nil
}

func validateInjection(r *http.Request, paramName string) error {
	p := r.FormValue(paramName)
	lp := strings.ToLower(p)
	for _, k := range []string{"$", "(", ")", "eval", "shell", "{", "}"} {
		if strings.Contains(lp, k) {
			return errors.Errorf("Wrong parameter '%s' value '%s'", paramName, p)
		}
	}
	return nil
}
