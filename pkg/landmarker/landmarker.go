// Package landmarker is the boundary to the external face landmarker. Frames go
// out as timestamped JPEG images and expression scores come back later through
// a callback, so submitting a frame never waits on the model.
package landmarker

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-facenav/pkg/expression"
)

// Sentinel errors.
var (
	// ErrClosed is returned when submitting to a closed landmarker.
	ErrClosed = errors.New("landmarker: closed")

	// ErrNotConnected is returned while the sidecar connection is down.
	// The frame is dropped.
	ErrNotConnected = errors.New("landmarker: not connected")
)

// Landmarker accepts frames for asynchronous detection.
type Landmarker interface {
	// DetectAsync queues a JPEG frame. It never blocks on the model; a frame
	// still waiting when the next one arrives is replaced.
	DetectAsync(jpeg []byte, at time.Time) error

	Close() error
}

// ResultHandler receives detection results. It is called from the
// landmarker's own goroutine.
type ResultHandler func(Result)

// Face is the per-face portion of a result.
type Face struct {
	Blendshapes []expression.Score `json:"blendshapes"`
}

// Result is one detection result as sent by the sidecar, pushed to
// /ws/scores, or stored one per line in a replay file.
type Result struct {
	TimestampMS int64  `json:"timestamp_ms"`
	Faces       []Face `json:"faces"`
}

// Scores returns the filtered scores of the first face, or nil when no
// face was found.
func (r Result) Scores() expression.Scores {
	if len(r.Faces) == 0 {
		return nil
	}
	return expression.FromList(r.Faces[0].Blendshapes)
}

// Time returns the frame timestamp as wall-clock time, or fallback when the
// result carries none. It is meant for recordings; live sessions map
// TimestampMS onto the monotonic clock instead.
func (r Result) Time(fallback time.Time) time.Time {
	if r.TimestampMS <= 0 {
		return fallback
	}
	return time.UnixMilli(r.TimestampMS)
}

// DecodeResult parses a JSON result message.
func DecodeResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("decode result: %w", err)
	}
	return r, nil
}

// frameHeaderSize is the big-endian millisecond timestamp prefix.
const frameHeaderSize = 8

// EncodeFrame builds the binary frame message: timestamp then JPEG bytes.
func EncodeFrame(at time.Time, jpeg []byte) []byte {
	buf := make([]byte, frameHeaderSize+len(jpeg))
	binary.BigEndian.PutUint64(buf, uint64(at.UnixMilli()))
	copy(buf[frameHeaderSize:], jpeg)
	return buf
}

// DecodeFrame splits a binary frame message.
func DecodeFrame(msg []byte) (time.Time, []byte, error) {
	if len(msg) < frameHeaderSize {
		return time.Time{}, nil, fmt.Errorf("frame too short: %d bytes", len(msg))
	}
	ms := int64(binary.BigEndian.Uint64(msg[:frameHeaderSize]))
	return time.UnixMilli(ms), msg[frameHeaderSize:], nil
}
