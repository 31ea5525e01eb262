package chunker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voxnotes/meetgo/internal/pkg/audio"
	"github.com/voxnotes/meetgo/internal/pkg/mp3"
)

func TestPlanFor(t *testing.T) {
	assert.Equal(t, Plan{}, PlanFor(19*1024*1024))
	assert.Equal(t, Plan{Chunked: true, ChunkDuration: DefaultChunkDuration}, PlanFor(21*1024*1024))
	assert.Equal(t, Plan{Chunked: true, ChunkDuration: SmallChunkDuration}, PlanFor(101*1024*1024))
}

func TestPlanFor_Boundaries(t *testing.T) {
	assert.False(t, PlanFor(LargeFileSize-1).Chunked)
	assert.True(t, PlanFor(LargeFileSize).Chunked)
	assert.Equal(t, DefaultChunkDuration, PlanFor(ExtremeFileSize-1).ChunkDuration)
	assert.Equal(t, SmallChunkDuration, PlanFor(ExtremeFileSize).ChunkDuration)
}

func TestSplit_Fails(t *testing.T) {
	_, err := Split([]byte("olia"), time.Minute)
	assert.ErrorIs(t, err, ErrUnsplittable)
	_, err = Split(testMPEG(10), 0)
	assert.ErrorIs(t, err, ErrUnsplittable)
}

func TestSplit_MPEG(t *testing.T) {
	// 100 frames * 36ms, cut at 360ms
	chunks, err := Split(testMPEG(100), 360*time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, 10, len(chunks))
	total := 0
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, 10*144, len(c.Data))
		total += len(c.Data)
	}
	assert.Equal(t, 100*144, total)
}

func TestSplit_MPEGRemainder(t *testing.T) {
	chunks, err := Split(testMPEG(25), 360*time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, 3, len(chunks))
	assert.Equal(t, 5*144, len(chunks[2].Data))
}

func TestSplit_MPEGSingleChunk(t *testing.T) {
	chunks, err := Split(testMPEG(5), time.Minute)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(chunks))
	assert.Equal(t, 5*144, len(chunks[0].Data))
}

func TestSplit_MPEGChunksParsable(t *testing.T) {
	chunks, err := Split(testMPEG(25), 360*time.Millisecond)
	assert.Nil(t, err)
	for _, c := range chunks {
		d, err := mp3.Duration(c.Data)
		assert.Nil(t, err)
		assert.InDelta(t, float64(c.Duration), float64(d), float64(time.Millisecond))
	}
}

func TestSplit_WAV(t *testing.T) {
	in := &audio.Buffer{SampleRate: 16000, Channels: 1, Data: make([]int16, 16000*10)}
	chunks, err := Split(audio.EncodeWAV(in), 4*time.Second)
	assert.Nil(t, err)
	assert.Equal(t, 3, len(chunks))
	assert.Equal(t, 4*time.Second, chunks[0].Duration)
	assert.Equal(t, 2*time.Second, chunks[2].Duration)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		b, err := audio.DecodeWAV(c.Data)
		assert.Nil(t, err)
		assert.Equal(t, 16000, b.SampleRate)
	}
}

func TestPath(t *testing.T) {
	assert.Equal(t, "rID/chunk_1.mp3", Path("rID", 0))
	assert.Equal(t, "rID/chunk_11.mp3", Path("rID", 10))
}

// MPEG2 Layer III 32kbps 16kHz frames, 144 bytes, 36ms each
func testMPEG(frames int) []byte {
	res := make([]byte, 0, frames*144)
	for i := 0; i < frames; i++ {
		frame := make([]byte, 144)
		copy(frame, []byte{0xFF, 0xF3, 0x48, 0x00})
		res = append(res, frame...)
	}
	return res
}
