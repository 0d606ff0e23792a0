package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facenav/internal/config"
	"github.com/teslashibe/go-facenav/internal/log"
	"github.com/teslashibe/go-facenav/pkg/landmarker"
	"github.com/teslashibe/go-facenav/pkg/pause"
	"github.com/teslashibe/go-facenav/pkg/pointer"
	"github.com/teslashibe/go-facenav/pkg/session"
)

func newReplayCommand(ctx *commandContext) *cobra.Command {
	var realtime bool
	var preset string

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Run a recorded JSONL result stream through the gesture pipeline on a virtual pointer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if preset != "" {
				if err := cfg.ApplyPreset(preset); err != nil {
					return err
				}
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open recording: %w", err)
			}
			defer f.Close()
			results, err := landmarker.ReadResults(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			return replay(runCtx, cmd.OutOrStdout(), *cfg, results, realtime)
		},
	}

	cmd.Flags().BoolVar(&realtime, "realtime", false, "Wait between results according to recorded timestamps")
	cmd.Flags().StringVar(&preset, "preset", "", "Gesture preset: default, sensitive, relaxed")
	return cmd
}

type replayRow struct {
	offset time.Duration
	event  session.Event
	x, y   int
}

// replay evaluates every result synchronously: one classifier step and one
// actuator tick per frame, with the actuator clock pinned to the frame time.
func replay(ctx context.Context, out io.Writer, cfg config.Config, results []landmarker.Result, realtime bool) error {
	gcfg, err := cfg.GestureConfig()
	if err != nil {
		return err
	}
	acfg, err := cfg.ActuatorConfig()
	if err != nil {
		return err
	}

	dev := pointer.NewVirtual(1920, 1080)
	dev.Warp(960, 540)
	sess := session.New(gcfg, acfg, dev, pause.New(false), log.L())

	var (
		rows  []replayRow
		start time.Time
		clock time.Time
	)
	sess.Actuator().SetClock(func() time.Time { return clock })
	sess.Observe(func(ev session.Event) {
		if ev.Kind == session.EventStart || ev.Kind == session.EventEnd {
			return
		}
		x, y, _ := dev.Position()
		rows = append(rows, replayRow{offset: clock.Sub(start), event: ev, x: x, y: y})
	})

	base := time.Now()
	player := &landmarker.Replay{Results: results, Realtime: realtime}
	err = player.Run(ctx, func(r landmarker.Result) {
		at := r.Time(base)
		if start.IsZero() {
			start = at
		}
		clock = at
		sess.Evaluate(r.Scores(), at)
		sess.Actuator().Tick()
	})
	if err != nil {
		return err
	}

	rendered := make([][]string, 0, len(rows))
	for _, row := range rows {
		rendered = append(rendered, []string{
			fmt.Sprintf("%.3fs", row.offset.Seconds()),
			string(row.event.Kind),
			row.event.Detail(),
			strconv.Itoa(row.x) + "," + strconv.Itoa(row.y),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"T", "Event", "Detail", "Pointer"},
		rendered,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	))

	st := sess.Status()
	fmt.Fprintf(out, "%d frames (%d without a face), %d moves, %d clicks, %d failures\n",
		st.Frames, st.Misses, st.Actuator.Moves, st.Actuator.Clicks, st.Actuator.Failures)
	return nil
}
