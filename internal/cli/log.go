package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// timed starts a clock and returns a function that logs msg at info level
// with the elapsed time appended as "took".
func (c *CLI) timed(msg string) func(kv ...any) {
	start := time.Now()
	return func(kv ...any) {
		c.Logger.Info(msg, append(kv, "took", time.Since(start).Round(time.Millisecond))...)
	}
}
