package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvoke(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	cl := &Client{url: srv.URL, httpclient: &http.Client{Timeout: time.Second}}

	err := cl.Invoke(context.Background(), "n1", "olia transcript")
	assert.Nil(t, err)
	assert.Equal(t, "n1", got.NoteID)
	assert.Equal(t, "olia transcript", got.Transcript)
}

func TestInvoke_Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	cl := &Client{url: srv.URL, httpclient: &http.Client{Timeout: time.Second}}

	err := cl.Invoke(context.Background(), "n1", "olia")
	assert.NotNil(t, err)
}
