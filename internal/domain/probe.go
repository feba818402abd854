package domain

import (
	"math"
	"strconv"
)

type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	NbStreams  int    `json:"nb_streams"`
}

type ProbeStream struct {
	Index      int    `json:"index"`
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// ProbeResult is the subset of `ffprobe -show_format -show_streams` output we use.
type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

func (p *ProbeResult) AudioStream() *ProbeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return &p.Streams[i]
		}
	}
	return nil
}

func (p *ProbeResult) HasAudio() bool {
	return p.AudioStream() != nil
}

// DurationMs returns the container duration, falling back to the audio stream.
func (p *ProbeResult) DurationMs() int64 {
	seconds := ParseDuration(p.Format.Duration)
	if seconds <= 0 {
		if as := p.AudioStream(); as != nil {
			seconds = ParseDuration(as.Duration)
		}
	}
	if seconds <= 0 {
		return 0
	}
	return int64(math.Round(seconds * 1000))
}

func ParseDuration(durationStr string) float64 {
	if durationStr == "" || durationStr == "N/A" {
		return 0
	}
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0
	}
	return duration
}
