package audio

import (
	"time"

	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/pkg/mp3"
)

//Duration estimates playable duration of wav or mpeg data
//without decoding the full stream
func Duration(data []byte) (time.Duration, error) {
	if res, err := wavDuration(data); err == nil {
		return res, nil
	}
	if res, err := mp3.Duration(data); err == nil {
		return res, nil
	}
	return 0, errors.Wrap(ErrDecode, "can't estimate duration")
}

func wavDuration(data []byte) (time.Duration, error) {
	b, err := DecodeWAV(data)
	if err != nil {
		return 0, err
	}
	return b.Duration(), nil
}
