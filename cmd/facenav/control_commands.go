package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facenav/internal/httpc"
	"github.com/teslashibe/go-facenav/pkg/session"
)

// newControlCommands returns commands that talk to a running instance over
// its control surface.
func newControlCommands(ctx *commandContext) []*cobra.Command {
	control := func() (*httpc.Control, error) {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return nil, err
		}
		if !cfg.Web.Enabled {
			return nil, fmt.Errorf("web server is disabled in the configuration")
		}
		return httpc.NewControl(cfg.Web.Addr), nil
	}

	setPaused := func(paused bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, err := control()
			if err != nil {
				return err
			}
			got, err := c.SetPaused(cmd.Context(), paused)
			if err != nil {
				return err
			}
			printPaused(cmd.OutOrStdout(), got)
			return nil
		}
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := control()
			if err != nil {
				return err
			}
			st, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(st))
			return nil
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle",
		Short: "Toggle pause on the running session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := control()
			if err != nil {
				return err
			}
			got, err := c.Toggle(cmd.Context())
			if err != nil {
				return err
			}
			printPaused(cmd.OutOrStdout(), got)
			return nil
		},
	}

	return []*cobra.Command{
		statusCmd,
		{Use: "pause", Short: "Pause the running session", RunE: setPaused(true)},
		{Use: "resume", Short: "Resume the running session", RunE: setPaused(false)},
		toggleCmd,
	}
}

func printPaused(w io.Writer, paused bool) {
	if paused {
		fmt.Fprintln(w, "paused")
	} else {
		fmt.Fprintln(w, "active")
	}
}

func renderStatus(st session.Status) string {
	state := "active"
	if st.Paused {
		state = "paused"
	}
	rows := [][]string{
		{"Session", shortID(st.SessionID)},
		{"State", state},
		{"Uptime", time.Since(st.Started).Round(time.Second).String()},
		{"Frames", fmt.Sprintf("%d (%d without a face, %d superseded)", st.Frames, st.Misses, st.DroppedFrames)},
		{"Moves", fmt.Sprint(st.Actuator.Moves)},
		{"Clicks", fmt.Sprint(st.Actuator.Clicks)},
		{"Failures", fmt.Sprint(st.Actuator.Failures)},
		{"Speed", fmt.Sprintf("%.1fx", st.Actuator.SpeedMultiplier)},
	}
	return renderTable([]string{"", ""}, rows, nil)
}
