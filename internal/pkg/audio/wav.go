package audio

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

//ErrNotWAV indicates data is not a parsable PCM wav file
var ErrNotWAV = errors.New("not a wav file")

//DecodeWAV parses a 16 bit PCM wav file
func DecodeWAV(data []byte) (*Buffer, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}
	var channels, sampleRate, bits int
	var pcm []byte
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, ErrNotWAV
			}
			format := int(binary.LittleEndian.Uint16(data[body : body+2]))
			if format != 1 { // PCM only
				return nil, errors.Wrapf(ErrNotWAV, "unsupported wav format %d", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}
	if channels == 0 || sampleRate == 0 || pcm == nil {
		return nil, ErrNotWAV
	}
	if bits != 16 {
		return nil, errors.Wrapf(ErrNotWAV, "unsupported bit depth %d", bits)
	}
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
	}
	return &Buffer{SampleRate: sampleRate, Channels: channels, Data: samples}, nil
}

//EncodeWAV writes buffer as a 16 bit PCM wav file
func EncodeWAV(b *Buffer) []byte {
	dataLen := len(b.Data) * 2
	res := make([]byte, 44+dataLen)
	copy(res[0:4], "RIFF")
	binary.LittleEndian.PutUint32(res[4:8], uint32(36+dataLen))
	copy(res[8:12], "WAVE")
	copy(res[12:16], "fmt ")
	binary.LittleEndian.PutUint32(res[16:20], 16)
	binary.LittleEndian.PutUint16(res[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(res[22:24], uint16(b.Channels))
	binary.LittleEndian.PutUint32(res[24:28], uint32(b.SampleRate))
	binary.LittleEndian.PutUint32(res[28:32], uint32(b.SampleRate*b.Channels*2))
	binary.LittleEndian.PutUint16(res[32:34], uint16(b.Channels*2))
	binary.LittleEndian.PutUint16(res[34:36], 16)
	copy(res[36:40], "data")
	binary.LittleEndian.PutUint32(res[40:44], uint32(dataLen))
	for i, s := range b.Data {
		binary.LittleEndian.PutUint16(res[44+i*2:46+i*2], uint16(s))
	}
	return res
}
