package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mschirtzinger/ragsync/internal/orchestrator"
	"github.com/mschirtzinger/ragsync/internal/ui"
)

// printSummary writes the end-of-run report. It is printed for every run,
// including failed and interrupted ones.
func printSummary(w io.Writer, s *orchestrator.Summary, logPath string) {
	fmt.Fprintln(w)

	if s.NoFiles {
		fmt.Fprintf(w, "%s No supported files found in %s, nothing to upload\n", ui.RenderWarn("!"), s.Dir)
		fmt.Fprintf(w, "%s\n", ui.RenderMuted("Log: "+logPath))
		return
	}

	st := s.Upload
	rows := []ui.Row{
		{Label: "Collection", Value: s.Collection},
		{Label: "Directory", Value: s.Dir},
		{Label: "Total files", Value: strconv.Itoa(st.Total)},
		{Label: "Skipped", Value: strconv.Itoa(st.Skipped)},
		{Label: "Uploaded", Value: ui.RenderPass(strconv.Itoa(st.Succeeded))},
		{Label: "Failed", Value: failedValue(st.Failed())},
		{Label: "Batches", Value: strconv.Itoa(st.Batches)},
		{Label: "Parsing", Value: parseValue(s)},
		{Label: "Elapsed", Value: s.Duration().Round(time.Millisecond).String()},
	}
	if st.Attempted > 0 {
		rows = append(rows, ui.Row{Label: "Avg per file", Value: st.AveragePerFile().Round(time.Millisecond).String()})
	}
	rows = append(rows, ui.Row{Label: "Log file", Value: ui.RenderMuted(logPath)})

	fmt.Fprintln(w, ui.RenderBox("Sync summary", rows))

	if len(st.FailedFiles) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.RenderFail("Failed files:"))
		items := make([]string, 0, len(st.FailedFiles))
		for _, f := range st.FailedFiles {
			items = append(items, fmt.Sprintf("%s (%s)", f.Name, f.Reason))
		}
		ui.List(w, items)
	}

	if s.Error != "" {
		fmt.Fprintf(w, "\n%s %s\n", ui.RenderFail("✗"), s.Error)
	} else if s.OK() {
		fmt.Fprintf(w, "\n%s Sync complete\n", ui.RenderPass("✓"))
	} else {
		fmt.Fprintf(w, "\n%s Sync complete with failures\n", ui.RenderWarn("!"))
	}
}

func failedValue(n int) string {
	if n == 0 {
		return "0"
	}
	return ui.RenderFail(strconv.Itoa(n))
}

func parseValue(s *orchestrator.Summary) string {
	switch {
	case s.ParseSkipped:
		return ui.RenderMuted("disabled")
	case s.ParseError != "":
		return ui.RenderFail("failed: " + s.ParseError)
	case s.Parse == nil:
		return ui.RenderMuted("not started")
	case s.Parse.NothingToParse:
		return "nothing to parse"
	default:
		return fmt.Sprintf("started for %d documents", s.Parse.Submitted)
	}
}
