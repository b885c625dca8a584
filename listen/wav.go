package listen

import (
	"encoding/binary"
	"io"

	concatwav "github.com/moutend/go-wav"
)

const wavHeaderSize = 44

// ThresholdSilence is the mean absolute amplitude below which a chunk counts
// as silence.
var ThresholdSilence = 50

func checkHeader(data []byte) error {
	if len(data) < wavHeaderSize {
		return ErrNotEnoughDataToParseWav
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return ErrInvalidWav
	}
	if binary.LittleEndian.Uint16(data[20:22]) != 1 {
		return ErrFileIsNotPCM
	}
	return nil
}

// WavSilence returns the mean absolute amplitude of 16-bit pcm samples.
func WavSilence(data []byte) (int, error) {
	if err := checkHeader(data); err != nil {
		return 0, err
	}
	samples := data[wavHeaderSize:]
	n := len(samples) / 2
	if n == 0 {
		return 0, nil
	}
	sum := 0
	for i := 0; i+1 < len(samples); i += 2 {
		sum += abs(int(int16(binary.LittleEndian.Uint16(samples[i:]))))
	}
	return sum / n, nil
}

func IsWavSilent(data []byte) (bool, error) {
	level, err := WavSilence(data)
	if err != nil {
		return false, err
	}
	return level < ThresholdSilence, nil
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// ConcatWav joins wav chunks that share the format of the first one.
func ConcatWav(chunks ...[]byte) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, ErrNotEnoughDataToParseWav
	}
	first := &concatwav.File{}
	if err := concatwav.Unmarshal(chunks[0], first); err != nil {
		return nil, err
	}
	out, err := concatwav.New(first.SamplesPerSec(), first.BitsPerSample(), first.Channels())
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, first); err != nil {
		return nil, err
	}
	for _, b := range chunks[1:] {
		f := &concatwav.File{}
		if err := concatwav.Unmarshal(b, f); err != nil {
			return nil, err
		}
		if _, err := io.Copy(out, f); err != nil {
			return nil, err
		}
	}
	return concatwav.Marshal(out)
}
