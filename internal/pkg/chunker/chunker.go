package chunker

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/pkg/audio"
	"github.com/voxnotes/meetgo/internal/pkg/mp3"
)

const (
	// LargeFileSize triggers chunked transcription
	LargeFileSize = 20 * 1024 * 1024
	// ExtremeFileSize triggers the smaller chunk duration
	ExtremeFileSize = 100 * 1024 * 1024
	// DefaultChunkDuration for large files
	DefaultChunkDuration = 15 * time.Minute
	// SmallChunkDuration for extremely large files
	SmallChunkDuration = 10 * time.Minute
)

//ErrUnsplittable indicates input that can't be cut into playable parts.
//Callers should fall back to direct transcription
var ErrUnsplittable = errors.New("can't split audio")

//Plan tells how to process a file before transcription
type Plan struct {
	Chunked       bool
	ChunkDuration time.Duration
}

//PlanFor selects the chunking strategy by file size
func PlanFor(size int64) Plan {
	if size < LargeFileSize {
		return Plan{}
	}
	if size >= ExtremeFileSize {
		return Plan{Chunked: true, ChunkDuration: SmallChunkDuration}
	}
	return Plan{Chunked: true, ChunkDuration: DefaultChunkDuration}
}

//Chunk is one independently playable slice of the source audio
type Chunk struct {
	Index    int
	Data     []byte
	Duration time.Duration
}

//Split cuts audio into slices of at most d playable duration.
//Index order follows the position in the source
func Split(data []byte, d time.Duration) ([]Chunk, error) {
	if d <= 0 {
		return nil, errors.Wrap(ErrUnsplittable, "no chunk duration")
	}
	if frames, err := mp3.Frames(data); err == nil {
		return splitMPEG(data, frames, d), nil
	}
	if buf, err := audio.DecodeWAV(data); err == nil {
		return splitWAV(buf, d), nil
	}
	return nil, ErrUnsplittable
}

//Path returns the storage path of a chunk
func Path(recordingID string, index int) string {
	return fmt.Sprintf("%s/chunk_%d.mp3", recordingID, index+1)
}

func splitMPEG(data []byte, frames []mp3.Frame, d time.Duration) []Chunk {
	var res []Chunk
	start, from := frames[0].Offset, 0
	dur := time.Duration(0)
	add := func(to int) {
		res = append(res, Chunk{Index: len(res), Data: data[start:to], Duration: dur})
	}
	for i, f := range frames {
		fDur := time.Duration(float64(f.Samples) / float64(f.SampleRate) * float64(time.Second))
		if dur+fDur > d && i > from {
			add(f.Offset)
			start, from, dur = f.Offset, i, 0
		}
		dur += fDur
	}
	last := frames[len(frames)-1]
	add(last.Offset + last.Size)
	return res
}

func splitWAV(buf *audio.Buffer, d time.Duration) []Chunk {
	perChunk := int(float64(buf.SampleRate)*d.Seconds()) * buf.Channels
	if perChunk <= 0 {
		perChunk = len(buf.Data)
	}
	var res []Chunk
	for pos := 0; pos < len(buf.Data); pos += perChunk {
		end := pos + perChunk
		if end > len(buf.Data) {
			end = len(buf.Data)
		}
		part := &audio.Buffer{SampleRate: buf.SampleRate, Channels: buf.Channels, Data: buf.Data[pos:end]}
		res = append(res, Chunk{Index: len(res), Data: audio.EncodeWAV(part), Duration: part.Duration()})
	}
	return res
}
