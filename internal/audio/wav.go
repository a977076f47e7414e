package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const wavHeaderSize = 44

// wavHeader is the canonical 44-byte header of a PCM WAV file
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV encodes mono PCM-16 samples into a self-contained WAV file
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, errors.New("cannot encode empty audio samples")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+int(dataSize)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV parses a 16-bit mono PCM WAV file. Unknown subchunks such as
// LIST are skipped, so files written by ffmpeg or sox decode as well.
func DecodeWAV(data []byte) (PCM, error) {
	if len(data) < 12 {
		return PCM{}, fmt.Errorf("WAV data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return PCM{}, errors.New("invalid WAV file: missing RIFF/WAVE header")
	}

	var (
		haveFmt       bool
		audioFormat   uint16
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			// Streams piped through ffmpeg may carry a bogus data size; take what is there.
			if id == "data" {
				size = len(data) - body
			} else {
				return PCM{}, fmt.Errorf("invalid WAV file: %q chunk overruns file", id)
			}
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return PCM{}, errors.New("invalid WAV file: short fmt chunk")
			}
			audioFormat = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return PCM{}, errors.New("invalid WAV file: data chunk before fmt chunk")
			}
			if audioFormat != 1 {
				return PCM{}, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", audioFormat)
			}
			if bitsPerSample != 16 {
				return PCM{}, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", bitsPerSample)
			}
			if channels != 1 {
				return PCM{}, fmt.Errorf("unsupported channel count: %d (only mono is supported)", channels)
			}
			if sampleRate == 0 {
				return PCM{}, errors.New("invalid sample rate: 0")
			}
			samples := samplesFromBytes(data[body : body+size])
			if len(samples) == 0 {
				return PCM{}, errors.New("no audio data found")
			}
			return PCM{Samples: samples, SampleRate: int(sampleRate)}, nil
		}

		// Subchunks are word aligned.
		pos = body + size + size%2
	}

	return PCM{}, errors.New("invalid WAV file: missing data chunk")
}

// samplesFromBytes converts little-endian PCM-16 bytes to samples.
// A trailing odd byte is dropped.
func samplesFromBytes(raw []byte) []int16 {
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return samples
}
