package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDownmix(t *testing.T) {
	in := &Buffer{SampleRate: 16000, Channels: 2, Data: []int16{100, 200, -100, 100, 0, 0}}
	out := Downmix(in)
	assert.Equal(t, 1, out.Channels)
	assert.Equal(t, []int16{150, 0, 0}, out.Data)
}

func TestDownmix_KeepsMono(t *testing.T) {
	in := &Buffer{SampleRate: 16000, Channels: 1, Data: []int16{100, 200}}
	assert.Equal(t, in, Downmix(in))
}

func TestDownmix_ThreeChannels(t *testing.T) {
	in := &Buffer{SampleRate: 16000, Channels: 3, Data: []int16{90, 120, 150}}
	out := Downmix(in)
	assert.Equal(t, []int16{120}, out.Data)
}

func TestResample_Downsamples(t *testing.T) {
	in := &Buffer{SampleRate: 32000, Channels: 1, Data: make([]int16, 32000)}
	out := Resample(in, 16000)
	assert.Equal(t, 16000, out.SampleRate)
	assert.Equal(t, 16000, len(out.Data))
}

func TestResample_Interpolates(t *testing.T) {
	in := &Buffer{SampleRate: 16000, Channels: 1, Data: []int16{0, 100, 200, 300}}
	out := Resample(in, 32000)
	assert.Equal(t, 8, len(out.Data))
	assert.Equal(t, int16(0), out.Data[0])
	assert.Equal(t, int16(50), out.Data[1])
	assert.Equal(t, int16(100), out.Data[2])
}

func TestResample_KeepsRate(t *testing.T) {
	in := &Buffer{SampleRate: 16000, Channels: 1, Data: []int16{1, 2}}
	assert.Equal(t, in, Resample(in, 16000))
}

func TestDuration(t *testing.T) {
	b := &Buffer{SampleRate: 16000, Channels: 1, Data: make([]int16, 16000)}
	assert.Equal(t, time.Second, b.Duration())
	b = &Buffer{SampleRate: 16000, Channels: 2, Data: make([]int16, 16000)}
	assert.Equal(t, 500*time.Millisecond, b.Duration())
}
