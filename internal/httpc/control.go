package httpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"

	"github.com/teslashibe/go-facenav/pkg/session"
)

// ErrNotRunning is returned when nothing answers at the control address.
var ErrNotRunning = errors.New("facenav is not running (or its web server is disabled)")

// Control talks to the /api routes of a running facenav.
type Control struct {
	base   string
	client *http.Client
}

// NewControl creates a control client for addr (host:port or a URL).
func NewControl(addr string) *Control {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Control{base: strings.TrimRight(base, "/"), client: Client}
}

// Status returns the running session snapshot.
func (c *Control) Status(ctx context.Context) (session.Status, error) {
	var st session.Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &st)
	return st, err
}

// SetPaused pauses or resumes the running session.
func (c *Control) SetPaused(ctx context.Context, paused bool) (bool, error) {
	body, _ := json.Marshal(map[string]bool{"paused": paused})
	var resp struct {
		Paused bool `json:"paused"`
	}
	err := c.do(ctx, http.MethodPut, "/api/pause?source=cli", body, &resp)
	return resp.Paused, err
}

// Toggle flips the pause state and returns the new value.
func (c *Control) Toggle(ctx context.Context) (bool, error) {
	var resp struct {
		Paused bool `json:"paused"`
	}
	err := c.do(ctx, http.MethodPost, "/api/pause/toggle?source=cli", nil, &resp)
	return resp.Paused, err
}

func (c *Control) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return fmt.Errorf("%w: %v", ErrNotRunning, err)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, e.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
