package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/logtail"
)

// logRecord is the structured form of a parsed log line.
type logRecord struct {
	Time      *time.Time        `json:"time,omitempty"`
	Level     string            `json:"level"`
	Component string            `json:"component,omitempty"`
	Message   string            `json:"msg,omitempty"`
	Error     string            `json:"error,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Raw       string            `json:"raw,omitempty"`
}

func newLogsCmd(g *globalOptions) *cobra.Command {
	var lines int
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the shelf log",
		Example: `  shelf logs --lines 200 --level warn
  shelf logs -o json`,
		Args: cobra.NoArgs,
		RunE: g.runAnonymous(func(_ context.Context, rt *runtime, _ []string) error {
			minLevel, err := logrus.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("invalid level %q", level)
			}
			raw, err := logtail.Read(rt.env.Config.LogFile, lines)
			if err != nil {
				return err
			}
			entries := logtail.ParseLines(raw, minLevel)

			records := make([]logRecord, 0, len(entries))
			for _, e := range entries {
				rec := logRecord{
					Level:     e.Level.String(),
					Component: e.Component,
					Message:   e.Message,
					Error:     e.Error,
					Raw:       e.Raw,
				}
				if len(e.Fields) > 0 {
					rec.Fields = e.Fields
				}
				if !e.Time.IsZero() {
					ts := e.Time
					rec.Time = &ts
				}
				records = append(records, rec)
			}
			return rt.out.emit(records, func(w io.Writer) error {
				if len(entries) == 0 {
					_, err := fmt.Fprintf(rt.stderr, "No log entries in %s\n", rt.env.Config.LogFile)
					return err
				}
				for _, e := range entries {
					if _, err := fmt.Fprintln(w, e.String()); err != nil {
						return err
					}
				}
				return nil
			})
		}),
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of trailing lines to read, 0 for all")
	cmd.Flags().StringVarP(&level, "level", "l", "info", "lowest level shown: debug, info, warn or error")
	return cmd
}
