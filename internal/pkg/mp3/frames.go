package mp3

import (
	"time"

	"github.com/pkg/errors"
)

//Frame describes one MPEG Layer III audio frame
type Frame struct {
	Offset     int
	Size       int
	Samples    int
	SampleRate int
}

//ErrNoFrames indicates data holds no parsable mpeg frames
var ErrNoFrames = errors.New("no mpeg frames")

var (
	bitratesV1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}
	bitratesV2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160}
	ratesV1    = [4]int{44100, 48000, 32000, 0}
	ratesV2    = [4]int{22050, 24000, 16000, 0}
	ratesV25   = [4]int{11025, 12000, 8000, 0}
)

//Frames walks all Layer III frames in data.
//Bytes before the first frame header (ID3 tags, junk) are skipped,
//parsing stops at the first unparsable position after a valid frame
func Frames(data []byte) ([]Frame, error) {
	pos := skipID3(data)
	var res []Frame
	for pos+4 <= len(data) {
		f, ok := parseHeader(data[pos:])
		if !ok {
			if len(res) == 0 {
				pos++
				continue
			}
			break
		}
		if pos+f.Size > len(data) {
			break
		}
		f.Offset = pos
		res = append(res, f)
		pos += f.Size
	}
	if len(res) == 0 {
		return nil, ErrNoFrames
	}
	return res, nil
}

//Duration sums playable duration of all frames in data
func Duration(data []byte) (time.Duration, error) {
	frames, err := Frames(data)
	if err != nil {
		return 0, err
	}
	res := float64(0)
	for _, f := range frames {
		res += float64(f.Samples) / float64(f.SampleRate)
	}
	return time.Duration(res * float64(time.Second)), nil
}

func parseHeader(data []byte) (Frame, bool) {
	var res Frame
	if data[0] != 0xFF || data[1]&0xE0 != 0xE0 {
		return res, false
	}
	version := (data[1] >> 3) & 0x3 // 0 - MPEG2.5, 2 - MPEG2, 3 - MPEG1
	layer := (data[1] >> 1) & 0x3   // 1 - Layer III
	if version == 1 || layer != 1 {
		return res, false
	}
	brIndex := data[2] >> 4
	rateIndex := (data[2] >> 2) & 0x3
	padding := int((data[2] >> 1) & 0x1)
	if brIndex == 0 || brIndex == 15 || rateIndex == 3 {
		return res, false
	}
	if version == 3 {
		res.SampleRate = ratesV1[rateIndex]
		res.Samples = 1152
		res.Size = 144000*bitratesV1[brIndex]/res.SampleRate + padding
	} else {
		if version == 2 {
			res.SampleRate = ratesV2[rateIndex]
		} else {
			res.SampleRate = ratesV25[rateIndex]
		}
		res.Samples = 576
		res.Size = 72000*bitratesV2[brIndex]/res.SampleRate + padding
	}
	return res, true
}

func skipID3(data []byte) int {
	if len(data) < 10 || data[0] != 'I' || data[1] != 'D' || data[2] != '3' {
		return 0
	}
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 |
		int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	return 10 + size
}
