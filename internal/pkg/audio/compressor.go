package audio

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/worker"
)

//Encoder encodes PCM samples to mpeg data
type Encoder interface {
	Encode(ctx context.Context, req worker.EncodeRequest) ([]byte, error)
}

//Result is the outcome of one compression
type Result struct {
	Data     []byte
	Duration time.Duration
	Ratio    float64 // 1 - compressed/original
}

//Compressor re-encodes audio to compact mono mpeg data
type Compressor struct {
	encoder    Encoder
	timeout    time.Duration
	sampleRate int
	bitrate    int
}

//NewCompressor creates the compressor.
//Settings are taken from compressor.{sampleRate,bitrate,timeout}
func NewCompressor(encoder Encoder) (*Compressor, error) {
	if encoder == nil {
		return nil, errors.New("no encoder provided")
	}
	res := &Compressor{encoder: encoder}
	res.sampleRate = cmdapp.Config.GetInt("compressor.sampleRate")
	if res.sampleRate <= 0 {
		res.sampleRate = 32000
	}
	res.bitrate = cmdapp.Config.GetInt("compressor.bitrate")
	if res.bitrate <= 0 {
		res.bitrate = 32
	}
	if !worker.ValidConfig(res.sampleRate, res.bitrate) {
		return nil, errors.Errorf("unsupported compressor config %d Hz at %d kbps", res.sampleRate, res.bitrate)
	}
	res.timeout = cmdapp.Config.GetDuration("compressor.timeout")
	if res.timeout <= 0 {
		res.timeout = 60 * time.Second
	}
	return res, nil
}

//Compress decodes data, downmixes to mono, resamples and encodes to mpeg.
//On undecodable input it fails with ErrDecode, the caller is expected
//to continue with the original data
func (c *Compressor) Compress(ctx context.Context, data []byte) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	buf, err := Decode(data)
	if err != nil {
		return nil, err
	}
	buf = Resample(Downmix(buf), c.sampleRate)
	encoded, err := c.encoder.Encode(ctx, worker.EncodeRequest{Samples: buf.Data,
		Channels: 1, SampleRate: buf.SampleRate, Bitrate: c.bitrate})
	if err != nil {
		return nil, errors.Wrap(err, "Can't encode audio")
	}
	ratio := 0.0
	if len(data) > 0 {
		ratio = 1 - float64(len(encoded))/float64(len(data))
	}
	cmdapp.Log.Infof("Compressed %d -> %d bytes (ratio %.2f)", len(data), len(encoded), ratio)
	return &Result{Data: encoded, Duration: buf.Duration(), Ratio: ratio}, nil
}
