package audio

import "time"

//Buffer holds decoded PCM samples, 16 bit, interleaved by channel
type Buffer struct {
	SampleRate int
	Channels   int
	Data       []int16
}

//FrameCount returns sample count per channel
func (b *Buffer) FrameCount() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

//Duration returns playable duration
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(b.FrameCount()) / float64(b.SampleRate) * float64(time.Second))
}

//Downmix averages all channels into one per output frame
func Downmix(in *Buffer) *Buffer {
	if in.Channels <= 1 {
		return in
	}
	n := in.FrameCount()
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		sum := 0
		for c := 0; c < in.Channels; c++ {
			sum += int(in.Data[i*in.Channels+c])
		}
		out[i] = int16(sum / in.Channels)
	}
	return &Buffer{SampleRate: in.SampleRate, Channels: 1, Data: out}
}

//Resample converts a mono buffer to rate using linear interpolation
func Resample(in *Buffer, rate int) *Buffer {
	if in.SampleRate == rate || in.FrameCount() == 0 {
		return in
	}
	ratio := float64(in.SampleRate) / float64(rate)
	n := int(float64(in.FrameCount()) / ratio)
	out := make([]int16, n)
	last := in.FrameCount() - 1
	for i := range out {
		pos := float64(i) * ratio
		i0 := int(pos)
		i1 := i0 + 1
		if i1 > last {
			i1 = last
		}
		frac := pos - float64(i0)
		v := float64(in.Data[i0])*(1-frac) + float64(in.Data[i1])*frac
		out[i] = int16(v)
	}
	return &Buffer{SampleRate: rate, Channels: 1, Data: out}
}
