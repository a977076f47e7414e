package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

func sine(n, sampleRate int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(16383 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}
	return samples
}

func TestEncodeDecodeWAV(t *testing.T) {
	samples := sine(800, 8000)

	data, err := EncodeWAV(samples, 8000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	if len(data) != wavHeaderSize+len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", wavHeaderSize+len(samples)*2, len(data))
	}

	pcm, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if pcm.SampleRate != 8000 {
		t.Fatalf("expected sample rate 8000, got %d", pcm.SampleRate)
	}
	if len(pcm.Samples) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(pcm.Samples))
	}
	for i := range samples {
		if pcm.Samples[i] != samples[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, samples[i], pcm.Samples[i])
		}
	}
}

func TestDecodeWAVSkipsUnknownChunks(t *testing.T) {
	data, err := EncodeWAV([]int16{7, 8, 9}, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// Insert an odd-sized LIST chunk (padded to 4 bytes) between fmt and data.
	list := []byte{'L', 'I', 'S', 'T', 3, 0, 0, 0, 'a', 'b', 'c', 0}
	withList := append([]byte{}, data[:36]...)
	withList = append(withList, list...)
	withList = append(withList, data[36:]...)
	binary.LittleEndian.PutUint32(withList[4:8], uint32(len(withList)-8))

	pcm, err := DecodeWAV(withList)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if len(pcm.Samples) != 3 || pcm.Samples[2] != 9 {
		t.Fatalf("unexpected samples: %v", pcm.Samples)
	}
}

func TestDecodeWAVRejectsUnsupported(t *testing.T) {
	data, err := EncodeWAV([]int16{1, 2}, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	stereo := append([]byte{}, data...)
	binary.LittleEndian.PutUint16(stereo[22:24], 2)

	tests := map[string][]byte{
		"too short":    data[:8],
		"not riff":     append([]byte("RIFX"), data[4:]...),
		"stereo":       stereo,
		"missing data": data[:36],
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeWAV(input); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEncodeWAVInvalidInput(t *testing.T) {
	if _, err := EncodeWAV(nil, 8000); err == nil {
		t.Fatal("expected error for empty samples")
	}
	if _, err := EncodeWAV([]int16{1}, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestWAVDecoder(t *testing.T) {
	dir := t.TempDir()

	data, err := EncodeWAV(sine(1600, 16000), 16000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	good := filepath.Join(dir, "good.wav")
	if err := os.WriteFile(good, data, 0644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.mp3")
	if err := os.WriteFile(bad, []byte("definitely not audio"), 0644); err != nil {
		t.Fatal(err)
	}

	pcm, err := WAVDecoder{}.Decode(context.Background(), good)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if pcm.Duration().Milliseconds() != 100 {
		t.Fatalf("expected 100ms, got %s", pcm.Duration())
	}

	if _, err := (WAVDecoder{}).Decode(context.Background(), bad); !errors.Is(err, types.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if _, err := (WAVDecoder{}).Decode(context.Background(), filepath.Join(dir, "missing.wav")); !errors.Is(err, types.ErrDecode) {
		t.Fatalf("expected ErrDecode for missing file, got %v", err)
	}
}

func TestNewDecoder(t *testing.T) {
	d, err := NewDecoder("", "", 0)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	ff, ok := d.(*FFmpegDecoder)
	if !ok {
		t.Fatalf("expected *FFmpegDecoder, got %T", d)
	}
	if ff.Binary != "ffmpeg" || ff.SampleRate != DefaultSampleRate {
		t.Fatalf("unexpected defaults: %+v", ff)
	}

	if d, _ := NewDecoder("WAV", "", 0); d == nil {
		t.Fatal("expected wav decoder")
	}
	if _, err := NewDecoder("mp3", "", 0); err == nil {
		t.Fatal("expected error for unknown decoder")
	}
}

func TestFFmpegDecoderMissingBinary(t *testing.T) {
	d := NewFFmpegDecoder(filepath.Join(t.TempDir(), "no-such-ffmpeg"), 16000)
	if _, err := d.Decode(context.Background(), "input.mp3"); !errors.Is(err, types.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
