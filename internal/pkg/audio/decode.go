package audio

import (
	"bytes"
	"encoding/binary"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
)

//ErrDecode indicates an undecodable input
var ErrDecode = errors.New("can't decode audio")

//Decode parses wav or mpeg data into PCM samples
func Decode(data []byte) (*Buffer, error) {
	if res, err := DecodeWAV(data); err == nil {
		return res, nil
	}
	if res, err := decodeMP3(data); err == nil {
		return res, nil
	}
	return nil, ErrDecode
}

func decodeMP3(data []byte) (*Buffer, error) {
	dec, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "Can't init mpeg decoder")
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(err, "Can't decode mpeg data")
	}
	// decoder always outputs 16 bit stereo
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
	}
	return &Buffer{SampleRate: dec.SampleRate(), Channels: 2, Data: samples}, nil
}
