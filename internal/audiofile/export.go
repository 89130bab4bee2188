package audiofile

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/satindergrewal/virtuoso/internal/synth"
)

// Formats lists the compressed output formats Export accepts.
func Formats() []string {
	return []string{"flac", "mp3", "ogg"}
}

// Export encodes a buffer to a compressed format by piping raw float64 PCM
// into an FFmpeg subprocess. Supported formats: flac, mp3, ogg.
func Export(ctx context.Context, path string, buf *synth.Buffer, format string) error {
	switch format {
	case "flac", "mp3", "ogg":
	default:
		return fmt.Errorf("unsupported export format %q (want flac, mp3 or ogg)", format)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "f64le",
		"-ar", strconv.Itoa(buf.SampleRate),
		"-ac", "2",
		"-i", "pipe:0",
		"-loglevel", "error",
		"-y", path,
	)
	cmd.Stdin = bytes.NewReader(pcmBytes(buf))

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg encode %s: %w: %s", path, err, msg)
		}
		return fmt.Errorf("ffmpeg encode %s: %w", path, err)
	}
	return nil
}

// pcmBytes converts buffer samples to little-endian float64 bytes.
func pcmBytes(buf *synth.Buffer) []byte {
	out := make([]byte, len(buf.Samples)*8)
	for i, s := range buf.Samples {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(s))
	}
	return out
}
