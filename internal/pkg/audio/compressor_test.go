package audio

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/mp3"
	"github.com/voxnotes/meetgo/internal/pkg/worker"
)

func TestCompress_FailsOnUndecodable(t *testing.T) {
	c := newTestCompressor(t)
	_, err := c.Compress(context.Background(), []byte("olia olia olia"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestCompress_RoundTripDuration(t *testing.T) {
	c := newTestCompressor(t)
	in := testTone(time.Second, 16000, 1)
	res, err := c.Compress(context.Background(), EncodeWAV(in))
	assert.Nil(t, err)

	d, err := mp3.Duration(res.Data)
	assert.Nil(t, err)
	assert.InDelta(t, float64(in.Duration()), float64(d), float64(100*time.Millisecond))
}

func TestCompress_Shrinks(t *testing.T) {
	c := newTestCompressor(t)
	in := testTone(2*time.Second, 44100, 2)
	data := EncodeWAV(in)
	res, err := c.Compress(context.Background(), data)
	assert.Nil(t, err)
	assert.True(t, len(res.Data) < len(data))
	assert.True(t, res.Ratio > 0)
}

func TestNewCompressor_FailsOnNil(t *testing.T) {
	_, err := NewCompressor(nil)
	assert.NotNil(t, err)
}

func TestNewCompressor_FailsOnUnsupportedRate(t *testing.T) {
	cmdapp.Config.Set("compressor.sampleRate", 16000)
	defer cmdapp.Config.Set("compressor.sampleRate", 0)
	pool := worker.NewPool(1)
	defer pool.Close()
	_, err := NewCompressor(pool)
	assert.NotNil(t, err)
}

func newTestCompressor(t *testing.T) *Compressor {
	t.Helper()
	pool := worker.NewPool(1)
	t.Cleanup(pool.Close)
	res, err := NewCompressor(pool)
	assert.Nil(t, err)
	return res
}

func testTone(d time.Duration, rate, channels int) *Buffer {
	n := int(float64(rate)*d.Seconds()) * channels
	data := make([]int16, n)
	for i := range data {
		data[i] = int16(10000 * math.Sin(2*math.Pi*440*float64(i/channels)/float64(rate)))
	}
	return &Buffer{SampleRate: rate, Channels: channels, Data: data}
}
