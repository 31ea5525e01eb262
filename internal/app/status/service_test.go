package status

import (
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/voxnotes/meetgo/internal/app/status/api"
	"github.com/voxnotes/meetgo/internal/pkg/persistence"
	"github.com/stretchr/testify/assert"
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

func TestStatus(t *testing.T) {
	Convey("Given a HTTP request for /status/id1", t, func() {
		req := httptest.NewRequest("GET", "/status/id1", nil)
		resp := httptest.NewRecorder()
		data := &ServiceData{StatusProvider: &testProvider{
			result: &api.NoteStatus{ID: "id1", NoteID: "n1", Status: "transcribing", Progress: 40}}}

		Convey("When the request is handled by the Router", func() {
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 200", func() {
				So(resp.Code, ShouldEqual, 200)
			})
			Convey("Then the response contains the status", func() {
				So(resp.Body.String(), ShouldContainSubstring, `"status":"transcribing"`)
				So(resp.Body.String(), ShouldContainSubstring, `"progress":40`)
			})
		})
	})
}

func TestStatus_Unknown(t *testing.T) {
	Convey("Given a HTTP request for an unknown ID", t, func() {
		req := httptest.NewRequest("GET", "/status/olia", nil)
		resp := httptest.NewRecorder()
		data := &ServiceData{StatusProvider: &testProvider{err: errors.New("no note")}}

		Convey("When the request is handled by the Router", func() {
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 404", func() {
				So(resp.Code, ShouldEqual, 404)
			})
		})
	})
}

func TestNoteStatusProvider(t *testing.T) {
	p, err := NewNoteStatusProvider(&testNoteGetter{note: &persistence.Note{ID: "n1",
		RecordingID: "id1", Status: "completed", Progress: 100,
		OriginalTranscript: "Labas.", ProcessedContent: "## Minutes"}})
	assert.Nil(t, err)

	res, err := p.Get("id1")

	assert.Nil(t, err)
	assert.Equal(t, "id1", res.ID)
	assert.Equal(t, "n1", res.NoteID)
	assert.Equal(t, "Labas.", res.Transcript)
	assert.Equal(t, "## Minutes", res.ProcessedContent)
}

func TestNoteStatusProvider_FailsOnNoGetter(t *testing.T) {
	_, err := NewNoteStatusProvider(nil)
	assert.NotNil(t, err)
}

type testNoteGetter struct {
	note *persistence.Note
	err  error
}

func (g *testNoteGetter) GetByRecording(recordingID string) (*persistence.Note, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.note, nil
}
