package stream

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// Rendition is one fully rendered interpretation queued for the stream.
type Rendition struct {
	ID      string
	Title   string
	Style   string
	Samples []int16 // interleaved stereo at SampleRate
}

// Info returns the rendition's identity without the PCM payload.
func (r Rendition) Info() RenditionInfo {
	return RenditionInfo{ID: r.ID, Title: r.Title, Style: r.Style}
}

// RenditionInfo identifies a rendition in status reports.
type RenditionInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Style string `json:"style"`
}
