// Package spinner draws a one-line progress indicator on a terminal.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Interval is the delay between frames.
var Interval = 80 * time.Millisecond

// Start animates a spinner on w followed by the text returned by status,
// which is re-evaluated on every frame. Call the returned function to stop
// the spinner and clear the line; it is safe to call more than once.
func Start(w io.Writer, status func() string) (stop func()) {
	done := make(chan struct{})
	cleared := make(chan struct{})
	var stopOnce sync.Once
	go func() {
		ticker := time.NewTicker(Interval)
		defer ticker.Stop()

		widest := 0
		for i := 0; ; i++ {
			select {
			case <-done:
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", widest)) //nolint:errcheck
				close(cleared)
				return
			case <-ticker.C:
				line := frames[i%len(frames)] + " " + status()
				// pad over the remains of a longer previous line
				width := runewidth.StringWidth(line)
				widest = max(widest, width)
				fmt.Fprintf(w, "\r%s%s", line, strings.Repeat(" ", widest-width)) //nolint:errcheck
			}
		}
	}()
	return func() {
		stopOnce.Do(func() {
			close(done)
		})
		<-cleared
	}
}
