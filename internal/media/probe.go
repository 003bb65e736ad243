package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrNoSource is returned when a video item has no media URL.
var ErrNoSource = errors.New("no media source")

// Prober discovers the duration of a media source.
type Prober interface {
	Probe(ctx context.Context, src string) (float64, error)
}

// FFProbe reads durations with ffprobe. Both local paths and URLs work.
type FFProbe struct{}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

func (FFProbe) Probe(ctx context.Context, src string) (float64, error) {
	if src == "" {
		return 0, ErrNoSource
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := ffmpeg.Probe(src)
		done <- result{out, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r = <-done:
	}
	if r.err != nil {
		return 0, fmt.Errorf("probe %s: %w", src, r.err)
	}
	return parseProbe(r.out)
}

func parseProbe(out string) (float64, error) {
	var p probeOutput
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		return 0, fmt.Errorf("parse probe output: %w", err)
	}
	if d, err := strconv.ParseFloat(p.Format.Duration, 64); err == nil && d > 0 {
		return d, nil
	}
	for _, s := range p.Streams {
		if s.CodecType != "video" {
			continue
		}
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > 0 {
			return d, nil
		}
	}
	return 0, errors.New("probe output has no duration")
}

// Resolve returns the declared duration when it parses, otherwise probes src.
func Resolve(ctx context.Context, p Prober, src, declared string) (float64, error) {
	if src == "" {
		return 0, ErrNoSource
	}
	if d, ok := ParseDuration(declared); ok && d > 0 {
		return d, nil
	}
	if p == nil {
		return 0, errors.New("duration unknown and no prober configured")
	}
	return p.Probe(ctx, src)
}
