package recorder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	resampling "github.com/tphakala/go-audio-resampling"
)

// wavHeaderSize is the size of a canonical PCM WAV header (RIFF + fmt + data chunk headers).
const wavHeaderSize = 44

// Resample converts PCM int16 samples from inputRate to outputRate using
// polyphase FIR filtering with Kaiser window (via go-audio-resampling).
// QualityLow gives 16-bit precision, which is all a 16-bit clip can carry.
func Resample(samples []int16, inputRate, outputRate float64) ([]int16, error) {
	if inputRate == outputRate || len(samples) == 0 {
		return samples, nil
	}

	floats := make([]float64, len(samples))
	for i, s := range samples {
		floats[i] = float64(s) / 32768.0
	}

	resampled, err := resampling.ResampleMono(floats, inputRate, outputRate, resampling.QualityLow)
	if err != nil {
		return nil, fmt.Errorf("resample mono: %w", err)
	}

	out := make([]int16, len(resampled))
	for i, f := range resampled {
		out[i] = clampSample(f * 32768.0)
	}
	return out, nil
}

func clampSample(v float64) int16 {
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(math.Round(v))
}

// DownmixStereoToMono converts interleaved stereo int16 samples to mono
// by averaging left and right channels.
func DownmixStereoToMono(stereo []int16) []int16 {
	mono := make([]int16, len(stereo)/2)
	for i := 0; i+1 < len(stereo); i += 2 {
		mono[i/2] = int16((int32(stereo[i]) + int32(stereo[i+1])) / 2)
	}
	return mono
}

// writeWAV encodes mono int16 samples as 16-bit PCM into ws and finalizes the header.
func writeWAV(ws io.WriteSeeker, samples []int16, sampleRate int) error {
	intBuf := &audio.IntBuffer{
		Data: make([]int, len(samples)),
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		intBuf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(ws, sampleRate, 16, 1, 1)
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// memWriteSeeker is an in-memory io.WriteSeeker for WAV encoding.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (ws *memWriteSeeker) Write(p []byte) (int, error) {
	end := ws.pos + len(p)
	if end > len(ws.buf) {
		ws.buf = append(ws.buf, make([]byte, end-len(ws.buf))...)
	}
	copy(ws.buf[ws.pos:], p)
	ws.pos = end
	return len(p), nil
}

func (ws *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = ws.pos + int(offset)
	case io.SeekEnd:
		newPos = len(ws.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if newPos < 0 || newPos > len(ws.buf) {
		return 0, fmt.Errorf("seek position %d out of bounds [0, %d]", newPos, len(ws.buf))
	}
	ws.pos = newPos
	return int64(ws.pos), nil
}

// EncodeWAV encodes mono int16 PCM samples to WAV format in memory.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	ws := &memWriteSeeker{}
	if err := writeWAV(ws, samples, sampleRate); err != nil {
		return nil, err
	}
	return ws.buf, nil
}

// DecodeWAV reads a WAV file from bytes and returns the samples and sample rate.
func DecodeWAV(data []byte) ([]int16, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file")
	}

	pcmBuf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}

	samples := make([]int16, len(pcmBuf.Data))
	for i, v := range pcmBuf.Data {
		samples[i] = int16(v)
	}
	return samples, int(dec.SampleRate), nil
}

// ReadWAVHeader parses the RIFF/fmt header at the start of data.
func ReadWAVHeader(data []byte) (Format, error) {
	if len(data) < wavHeaderSize {
		return Format{}, fmt.Errorf("data too short for WAV header")
	}

	r := bytes.NewReader(data)

	// read wraps binary.Read to capture the first error.
	var firstErr error
	read := func(v interface{}) {
		if firstErr != nil {
			return
		}
		firstErr = binary.Read(r, binary.LittleEndian, v)
	}

	var riffID [4]byte
	read(&riffID)
	if firstErr != nil {
		return Format{}, fmt.Errorf("read RIFF header: %w", firstErr)
	}
	bigEndian := false
	switch string(riffID[:]) {
	case "RIFF":
	case "RIFX":
		bigEndian = true
	default:
		return Format{}, fmt.Errorf("not a RIFF file")
	}

	var fileSize uint32
	read(&fileSize)

	var waveID [4]byte
	read(&waveID)
	if firstErr != nil {
		return Format{}, fmt.Errorf("read WAVE header: %w", firstErr)
	}
	if string(waveID[:]) != "WAVE" {
		return Format{}, fmt.Errorf("not a WAVE file")
	}

	var fmtID [4]byte
	read(&fmtID)
	var fmtSize uint32
	read(&fmtSize)
	if firstErr == nil && string(fmtID[:]) != "fmt " {
		return Format{}, fmt.Errorf("missing fmt chunk")
	}

	var audioFormat, numChannels uint16
	var sr, byteRate uint32
	var blockAlign, bitsPerSample uint16
	read(&audioFormat)
	read(&numChannels)
	read(&sr)
	read(&byteRate)
	read(&blockAlign)
	read(&bitsPerSample)
	if firstErr != nil {
		return Format{}, fmt.Errorf("read WAV format: %w", firstErr)
	}

	return Format{
		SampleRate: int(sr),
		Channels:   int(numChannels),
		BitDepth:   int(bitsPerSample),
		Float:      audioFormat == 3,
		BigEndian:  bigEndian,
	}, nil
}

// VerifyWAVFile checks that path is a readable WAV file in the given format
// with at least one sample of audio.
func VerifyWAVFile(path string, want Format) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() <= wavHeaderSize {
		return fmt.Errorf("file holds no audio (%d bytes)", info.Size())
	}

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	got, err := ReadWAVHeader(header)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("unexpected format %s, want %s", got, want)
	}
	return nil
}
