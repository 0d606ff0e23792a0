// Command facenav drives the mouse pointer from facial expressions.
//
// Usage:
//
//	facenav run                       # camera + landmarker sidecar
//	facenav run --source push         # results pushed to /ws/scores
//	facenav replay session.jsonl      # dry run a recording on a virtual pointer
//	facenav config show
//	facenav config init
//	facenav stats
//	facenav pause | resume | toggle | status   # talk to a running instance
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
