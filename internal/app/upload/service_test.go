package upload

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"

	"github.com/voxnotes/meetgo/internal/pkg/audio"
	"github.com/voxnotes/meetgo/internal/pkg/chunker"
	"github.com/voxnotes/meetgo/internal/pkg/persistence"
	"github.com/voxnotes/meetgo/internal/pkg/retrier"
	"github.com/voxnotes/meetgo/internal/pkg/status"
	"github.com/voxnotes/meetgo/internal/pkg/taskclient"
)

func TestWrongPath(t *testing.T) {
	Convey("Given a HTTP request for /invalid", t, func() {
		req := httptest.NewRequest("GET", "/invalid", nil)
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(&ServiceData{}).ServeHTTP(resp, req)

			Convey("Then the response should be a 404", func() {
				So(resp.Code, ShouldEqual, 404)
			})
		})
	})
}

func TestNoFile(t *testing.T) {
	Convey("Given a HTTP request for /upload", t, func() {
		req := httptest.NewRequest("POST", "/upload", nil)
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(&ServiceData{}).ServeHTTP(resp, req)

			Convey("Then the response should be a 400", func() {
				So(resp.Code, ShouldEqual, 400)
			})
		})
	})
}

func TestPOST(t *testing.T) {
	data := newTestServiceData()
	Convey("Given a HTTP request for /upload", t, func() {
		req := newUploadRequest("file.wav", "title", "meeting")

		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 200", func() {
				So(resp.Code, ShouldEqual, 200)
			})
			Convey("Then the response body should start with id", func() {
				So(resp.Body.String(), ShouldStartWith, `{"id":"`)
			})
			Convey("Then the response body should contain noteId", func() {
				So(resp.Body.String(), ShouldContainSubstring, `"noteId":"`)
			})
		})
	})
}

func TestPOST_WrongExtension(t *testing.T) {
	Convey("Given a HTTP request with a wrong file", t, func() {
		req := newUploadRequest("file.txt", "", "")
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(newTestServiceData()).ServeHTTP(resp, req)

			Convey("Then the response should be a 400", func() {
				So(resp.Code, ShouldEqual, 400)
			})
		})
	})
}

func TestPOST_UnknownParam(t *testing.T) {
	Convey("Given a HTTP request with an unknown parameter", t, func() {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "file.wav")
		_, _ = io.Copy(part, bytes.NewReader(testWav()))
		writer.WriteField("email", "a@a.a")
		writer.Close()
		req := httptest.NewRequest("POST", "/upload", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(newTestServiceData()).ServeHTTP(resp, req)

			Convey("Then the response should be a 400", func() {
				So(resp.Code, ShouldEqual, 400)
			})
		})
	})
}

func TestPOST_Injection(t *testing.T) {
	Convey("Given a HTTP request with a suspicious title", t, func() {
		req := newUploadRequest("file.wav", "${bad}", "")
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(newTestServiceData()).ServeHTTP(resp, req)

			Convey("Then the response should be a 400", func() {
				So(resp.Code, ShouldEqual, 400)
			})
		})
	})
}

func TestPOST_SaveFails(t *testing.T) {
	data := newTestServiceData()
	data.Storage.(*testStorage).failSave = true
	Convey("Given a broken file storage", t, func() {
		req := newUploadRequest("file.wav", "", "")
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 500", func() {
				So(resp.Code, ShouldEqual, 500)
			})
			Convey("Then the recording row is rolled back", func() {
				So(data.RecordingSaver.(*testRecordings).deleted, ShouldContain,
					data.RecordingSaver.(*testRecordings).inserted[0].ID)
			})
		})
	})
}

func TestProcessUpload_CompressFallback(t *testing.T) {
	data := newTestServiceData()
	data.Compressor.(*testCompressor).err = errors.New("olia")
	in := newTestUpload()
	in.skipSubmit = true

	err := processUpload(context.Background(), data, in)

	assert.Nil(t, err)
	st := data.Storage.(*testStorage)
	assert.Equal(t, testWav(), st.saved[in.filePath])
}

func TestProcessUpload_Compressed(t *testing.T) {
	data := newTestServiceData()
	in := newTestUpload()
	in.skipSubmit = true

	err := processUpload(context.Background(), data, in)

	assert.Nil(t, err)
	st := data.Storage.(*testStorage)
	assert.Equal(t, []byte("mp3"), st.saved[in.filePath])
	rs := data.RecordingSaver.(*testRecordings)
	assert.Equal(t, 1, len(rs.inserted))
	assert.Equal(t, "uploaded", rs.statuses[in.id])
	ns := data.NoteSaver.(*testNotes)
	assert.Equal(t, 1, len(ns.inserted))
}

func TestProcessUpload_NoteFails_RollsBack(t *testing.T) {
	data := newTestServiceData()
	data.NoteSaver.(*testNotes).failInsert = true
	in := newTestUpload()

	err := processUpload(context.Background(), data, in)

	assert.NotNil(t, err)
	assert.Contains(t, data.RecordingSaver.(*testRecordings).deleted, in.id)
	assert.Contains(t, data.Storage.(*testStorage).deleted, in.filePath)
}

func TestStartTranscription_Direct(t *testing.T) {
	data := newTestServiceData()
	in := newTestUpload()
	in.filePath = "u/1.mp3"
	in.duration = 5 * time.Minute

	startTranscription(data, in)

	ts := data.TaskStarter.(*testTasks)
	assert.Equal(t, 1, len(ts.tasks))
	assert.Equal(t, taskclient.PriorityHigh, ts.tasks[0].Priority)
	assert.NotEmpty(t, ts.tasks[0].AudioURL)
	ws := data.WorkSaver.(*testWorks)
	assert.Equal(t, 1, len(ws.inserted))
	assert.Equal(t, 1, len(ws.inserted[0].Chunks))
	assert.Equal(t, "task-1", ws.taskIDs[0])
	assert.Equal(t, "transcribing", data.RecordingSaver.(*testRecordings).statuses[in.id])
}

func TestStartTranscription_LongIsNormalPriority(t *testing.T) {
	data := newTestServiceData()
	in := newTestUpload()
	in.filePath = "u/1.mp3"
	in.duration = 30 * time.Minute

	startTranscription(data, in)

	ts := data.TaskStarter.(*testTasks)
	assert.Equal(t, taskclient.PriorityNormal, ts.tasks[0].Priority)
}

func TestStartTranscription_SubmitFails(t *testing.T) {
	data := newTestServiceData()
	data.TaskStarter.(*testTasks).err = errors.New("olia")
	in := newTestUpload()
	in.filePath = "u/1.mp3"

	startTranscription(data, in)

	assert.Equal(t, "error", data.RecordingSaver.(*testRecordings).statuses[in.id])
	assert.Equal(t, "Can't start transcription", data.NoteSaver.(*testNotes).errMsgs[in.noteID])
}

func TestStartChunked(t *testing.T) {
	data := newTestServiceData()
	in := newTestUpload()
	in.filePath = "u/1.mp3"
	chunks := []chunker.Chunk{
		{Index: 0, Data: []byte("c0"), Duration: 10 * time.Minute},
		{Index: 1, Data: []byte("c1"), Duration: 10 * time.Minute},
		{Index: 2, Data: []byte("c2"), Duration: 5 * time.Minute},
	}

	startChunked(context.Background(), data, in, chunks)

	ts := data.TaskStarter.(*testTasks)
	assert.Equal(t, 3, len(ts.tasks))
	for _, task := range ts.tasks {
		assert.Equal(t, taskclient.PriorityNormal, task.Priority)
		assert.Equal(t, 3, task.TotalChunks)
	}
	ws := data.WorkSaver.(*testWorks)
	assert.Equal(t, 3, len(ws.inserted[0].Chunks))
	assert.Equal(t, 3, len(ws.taskIDs))
	st := data.Storage.(*testStorage)
	assert.Equal(t, []byte("c1"), st.saved[chunker.Path(in.id, 1)])
	assert.Equal(t, "transcribing", data.RecordingSaver.(*testRecordings).statuses[in.id])
}

func TestStartChunked_AllFail(t *testing.T) {
	data := newTestServiceData()
	data.TaskStarter.(*testTasks).err = errors.New("olia")
	in := newTestUpload()
	in.filePath = "u/1.mp3"
	chunks := []chunker.Chunk{{Index: 0, Data: []byte("c0")}, {Index: 1, Data: []byte("c1")}}

	startChunked(context.Background(), data, in, chunks)

	ws := data.WorkSaver.(*testWorks)
	assert.Equal(t, 2, len(ws.results))
	assert.Equal(t, "error", data.RecordingSaver.(*testRecordings).statuses[in.id])
}

func newUploadRequest(fileName, title, user string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", fileName)
	_, _ = io.Copy(part, bytes.NewReader(testWav()))
	if title != "" {
		writer.WriteField("title", title)
	}
	if user != "" {
		writer.WriteField("user", user)
	}
	writer.Close()
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newTestUpload() *uploadData {
	return &uploadData{id: "rec-1", noteID: "note-1", title: "t", fileName: "file.wav",
		data: testWav()}
}

func newTestServiceData() *ServiceData {
	return &ServiceData{
		Storage:        &testStorage{saved: map[string][]byte{}},
		Compressor:     &testCompressor{},
		TaskStarter:    &testTasks{},
		RecordingSaver: &testRecordings{statuses: map[string]string{}},
		NoteSaver:      &testNotes{errMsgs: map[string]string{}},
		WorkSaver:      &testWorks{},
		LogSaver:       &testLogs{},
		Publisher:      &testPublisher{},
		RetryPolicy:       retrier.NewPolicy(),
		SignedURLTTL:      time.Hour,
		HighPriorityLimit: 10 * time.Minute,
		SubmitWorkers:     2,
	}
}

func testWav() []byte {
	return audio.EncodeWAV(&audio.Buffer{SampleRate: 16000, Channels: 1,
		Data: make([]int16, 16000)})
}

type testStorage struct {
	lock     sync.Mutex
	saved    map[string][]byte
	deleted  []string
	failSave bool
}

func (s *testStorage) Save(ctx context.Context, name string, data []byte, contentType string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.failSave {
		return errors.New("olia")
	}
	s.saved[name] = data
	return nil
}

func (s *testStorage) Delete(ctx context.Context, name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *testStorage) SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error) {
	return "https://storage.local/" + name, nil
}

type testCompressor struct {
	err error
}

func (c *testCompressor) Compress(ctx context.Context, data []byte) (*audio.Result, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &audio.Result{Data: []byte("mp3"), Duration: time.Second}, nil
}

type testTasks struct {
	lock  sync.Mutex
	tasks []*taskclient.Task
	err   error
}

func (c *testTasks) Upload(ctx context.Context, task *taskclient.Task) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.tasks = append(c.tasks, task)
	return "task-1", nil
}

type testRecordings struct {
	lock     sync.Mutex
	inserted []*persistence.Recording
	statuses map[string]string
	deleted  []string
}

func (s *testRecordings) Insert(data *persistence.Recording) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inserted = append(s.inserted, data)
	return nil
}

func (s *testRecordings) SetStatus(id string, st status.Status, errMsg string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.statuses[id] = status.Name(st)
	return nil
}

func (s *testRecordings) Delete(id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

type testNotes struct {
	lock       sync.Mutex
	inserted   []*persistence.Note
	errMsgs    map[string]string
	failInsert bool
}

func (s *testNotes) Insert(data *persistence.Note) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.failInsert {
		return errors.New("olia")
	}
	s.inserted = append(s.inserted, data)
	return nil
}

func (s *testNotes) Update(id string, st status.Status, progress int32) error { return nil }

func (s *testNotes) SetChunks(id string, total, current int32) error { return nil }

func (s *testNotes) SetError(id string, errMsg string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.errMsgs[id] = errMsg
	return nil
}

func (s *testNotes) Delete(id string) error { return nil }

type testWorks struct {
	lock     sync.Mutex
	inserted []*persistence.ChunkWork
	taskIDs  map[int]string
	results  []persistence.Chunk
}

func (s *testWorks) Insert(data *persistence.ChunkWork) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inserted = append(s.inserted, data)
	return nil
}

func (s *testWorks) SetChunkTask(id string, index int, taskID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.taskIDs == nil {
		s.taskIDs = map[int]string{}
	}
	s.taskIDs[index] = taskID
	return nil
}

func (s *testWorks) SetChunkResult(id string, chunk persistence.Chunk) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.results = append(s.results, chunk)
	return nil
}

type testLogs struct {
	lock sync.Mutex
	logs []*persistence.ProcessingLog
}

func (s *testLogs) Insert(data *persistence.ProcessingLog) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.logs = append(s.logs, data)
	return nil
}

type testPublisher struct {
	lock   sync.Mutex
	events []string
}

func (s *testPublisher) Publish(id string, topic string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.events = append(s.events, topic+"/"+id)
	return nil
}
