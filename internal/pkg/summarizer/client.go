package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/utils"
)

//Client invokes the meeting minutes generation function
type Client struct {
	httpclient *http.Client
	url        string
}

//NewClient creates a summarizer client using summarizer.url setting
func NewClient() (*Client, error) {
	res := Client{}
	var err error
	res.url, err = utils.GetURLFromConfig("summarizer.url")
	if err != nil {
		return nil, err
	}
	res.httpclient = &http.Client{Timeout: 2 * time.Minute}
	return &res, nil
}

type request struct {
	NoteID     string `json:"noteId"`
	Transcript string `json:"transcript"`
}

//Invoke starts summary generation for the note.
//The function writes its result on its own, the call only triggers it
func (sp *Client) Invoke(ctx context.Context, noteID string, transcript string) error {
	cmdapp.Log.Infof("Invoking summarizer for %s", noteID)
	b, err := json.Marshal(request{NoteID: noteID, Transcript: transcript})
	if err != nil {
		return errors.Wrap(err, "Can't marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sp.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return errors.Wrap(err, "Can't invoke summarizer")
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return errors.Wrap(err, "Can't invoke summarizer")
	}
	return nil
}
