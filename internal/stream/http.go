package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strconv"
)

// HTTPHandler serves a chunked MP3 stream of the live recital via HTTP.
// Each connection spawns an FFmpeg process to encode PCM -> MP3 in real time.
type HTTPHandler struct {
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// NewHTTPHandler creates an HTTP stream handler.
func NewHTTPHandler(b *Broadcaster, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{broadcaster: b, logger: logger}
}

// mp3EncoderCmd builds the FFmpeg pipeline: raw interleaved PCM on stdin,
// 192k MP3 on stdout, flushing each packet as soon as it is encoded.
func mp3EncoderCmd(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, "ffmpeg",
		"-f", "s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", "192k",
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	)
}

// flushWriter pushes every write through to the client immediately so the
// encoded stream is never held back by response buffering.
type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if n > 0 {
		fw.f.Flush()
	}
	return n, err
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", "virtuoso recital")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cmd := mp3EncoderCmd(ctx)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		h.logger.Error("mp3 stream stdin pipe failed", "error", err)
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		h.logger.Error("mp3 stream stdout pipe failed", "error", err)
		return
	}
	if err := cmd.Start(); err != nil {
		h.logger.Error("mp3 stream ffmpeg start failed", "error", err)
		return
	}

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	h.logger.Info("mp3 listener connected", "total", h.broadcaster.ListenerCount())
	defer func() {
		h.logger.Info("mp3 listener disconnected", "lagged", listener.Lagged())
	}()

	go h.feedEncoder(ctx, listener, stdin)

	// Relay encoded MP3 to the client until it hangs up or FFmpeg exits.
	if _, err := io.Copy(flushWriter{w, flusher}, stdout); err != nil {
		h.logger.Debug("mp3 stream closed", "error", err)
	}
	cmd.Wait()
}

// feedEncoder writes raw PCM frames to FFmpeg's stdin until the listener
// detaches or the connection closes.
func (h *HTTPHandler) feedEncoder(ctx context.Context, listener *Listener, stdin io.WriteCloser) {
	defer stdin.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-listener.done:
			return
		case frame, ok := <-listener.C:
			if !ok {
				return
			}
			if _, err := stdin.Write(SamplesToBytes(frame)); err != nil {
				return
			}
		}
	}
}
