package worker

import (
	"bytes"

	shine "github.com/braheezy/shine-mp3/pkg/mp3"
	"github.com/pkg/errors"
)

// frameSamples is the fixed mpeg frame size per channel, encoding
// goes frame by frame to bound memory
const frameSamples = 1152

// header bitrate table for the MPEG-1 family, index 0 is reserved
var mpegBitrates = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}

// ValidConfig tells if the sample rate and bitrate pair is encodable.
// Only the MPEG-1 family (32000, 44100, 48000 Hz) is accepted, the
// library consumes interleaved stereo with an MPEG-1 frame stride and
// produces broken streams on the lower MPEG-2 rates
func ValidConfig(sampleRate, bitrate int) bool {
	return shine.CheckConfig(sampleRate, bitrate) == shine.MPEG_I
}

// encode runs the samples through shine as an MPEG-1 stereo stream.
// Mono input is duplicated into both channels first
func encode(req EncodeRequest) (res []byte, err error) {
	if len(req.Samples) == 0 {
		return nil, errors.New("no samples")
	}
	if req.Channels < 1 || req.Channels > 2 {
		return nil, errors.Errorf("unsupported channel count %d", req.Channels)
	}
	if !ValidConfig(req.SampleRate, req.Bitrate) {
		return nil, errors.Errorf("unsupported encode config %d Hz at %d kbps", req.SampleRate, req.Bitrate)
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("encoder failure: %v", r)
		}
	}()
	samples := req.Samples
	if req.Channels == 1 {
		samples = interleave(samples)
	}
	enc := shine.NewEncoder(req.SampleRate, 2)
	setBitrate(enc, req.Bitrate)
	var buf bytes.Buffer
	step := frameSamples * 2
	for pos := 0; pos < len(samples); pos += step {
		end := pos + step
		if end > len(samples) {
			end = len(samples)
		}
		block := samples[pos:end]
		if len(block) < step {
			padded := make([]int16, step)
			copy(padded, block)
			block = padded
		}
		if err := enc.Write(&buf, block); err != nil {
			return nil, errors.Wrap(err, "Can't encode frame")
		}
	}
	return buf.Bytes(), nil
}

// setBitrate retargets the encoder after construction.
// NewEncoder lays out frame slots for its built-in default, so the
// dependent exported fields have to be recomputed along with the rate
func setBitrate(enc *shine.Encoder, bitrate int) {
	for i, b := range mpegBitrates {
		if b == bitrate {
			enc.Mpeg.BitrateIndex = int64(i)
		}
	}
	enc.Mpeg.Bitrate = int64(bitrate)
	avg := (float64(enc.Mpeg.GranulesPerFrame) * shine.GRANULE_SIZE / float64(enc.Wave.SampleRate)) *
		(float64(enc.Mpeg.Bitrate) * 1000 / float64(enc.Mpeg.BitsPerSlot))
	enc.Mpeg.WholeSlotsPerFrame = int64(avg)
	enc.Mpeg.FracSlotsPerFrame = avg - float64(enc.Mpeg.WholeSlotsPerFrame)
	enc.Mpeg.Slot_lag = -enc.Mpeg.FracSlotsPerFrame
	if enc.Mpeg.FracSlotsPerFrame == 0 {
		enc.Mpeg.Padding = 0
	}
}

func interleave(mono []int16) []int16 {
	res := make([]int16, 2*len(mono))
	for i, s := range mono {
		res[2*i] = s
		res[2*i+1] = s
	}
	return res
}
