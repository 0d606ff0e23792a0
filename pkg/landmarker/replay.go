package landmarker

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// maxLineSize bounds one JSONL record.
const maxLineSize = 1 << 20

// ReadResults parses a JSONL recording, one Result per line. Blank lines are
// skipped.
func ReadResults(r io.Reader) ([]Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	var out []Result
	line := 0
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		res, err := DecodeResult(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, res)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return out, nil
}

// Replay feeds recorded results to a handler as if a landmarker had
// produced them.
type Replay struct {
	Results []Result

	// Realtime waits between results according to their timestamps.
	Realtime bool
}

// Run delivers every result in order. It returns ctx.Err() if cancelled.
func (p *Replay) Run(ctx context.Context, handle ResultHandler) error {
	var prev int64
	for i, r := range p.Results {
		if p.Realtime && i > 0 && r.TimestampMS > prev {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(r.TimestampMS-prev) * time.Millisecond):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		prev = r.TimestampMS
		handle(r)
	}
	return nil
}
