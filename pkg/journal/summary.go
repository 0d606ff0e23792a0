package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNotFound is returned when a session has no events.
var ErrNotFound = errors.New("journal: session not found")

// Summary aggregates one session's events.
type Summary struct {
	SessionID string       `json:"session_id"`
	Start     time.Time    `json:"start"`
	End       time.Time    `json:"end"`
	Counts    map[Kind]int `json:"counts"`

	lastID int64
}

// Duration is the time between the first and last event.
func (s Summary) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Summary returns the aggregate for session, or for the most recent
// session when session is empty.
func (s *Store) Summary(ctx context.Context, session string) (Summary, error) {
	if session == "" {
		err := s.db.QueryRowContext(ctx,
			"SELECT session_id FROM events ORDER BY id DESC LIMIT 1").Scan(&session)
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, ErrNotFound
		}
		if err != nil {
			return Summary{}, fmt.Errorf("latest session: %w", err)
		}
	}

	out, err := s.summaries(ctx, "WHERE session_id = ?", session)
	if err != nil {
		return Summary{}, err
	}
	if len(out) == 0 {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotFound, session)
	}
	return out[0], nil
}

// Sessions returns summaries of the most recent sessions, newest first.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Summary, error) {
	out, err := s.summaries(ctx, "")
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) summaries(ctx context.Context, where string, args ...any) ([]Summary, error) {
	query := `SELECT session_id, kind, COUNT(*), MIN(at), MAX(at), MAX(id)
		FROM events ` + where + ` GROUP BY session_id, kind`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	bySession := make(map[string]*Summary)
	for rows.Next() {
		var (
			session, kind, minAt, maxAt string
			count                       int
			maxID                       int64
		)
		if err := rows.Scan(&session, &kind, &count, &minAt, &maxAt, &maxID); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}

		sum, ok := bySession[session]
		if !ok {
			sum = &Summary{SessionID: session, Counts: make(map[Kind]int)}
			bySession[session] = sum
		}
		sum.Counts[Kind(kind)] = count
		if start := parseTime(minAt); sum.Start.IsZero() || start.Before(sum.Start) {
			sum.Start = start
		}
		if end := parseTime(maxAt); end.After(sum.End) {
			sum.End = end
		}
		sum.lastID = max(sum.lastID, maxID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(bySession))
	for _, sum := range bySession {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].lastID > out[j].lastID })
	return out, nil
}
