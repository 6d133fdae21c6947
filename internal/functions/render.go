package functions

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

func RenderListing(w io.Writer, l *Listing) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "FUNCTIONS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Generated at: %s\n", l.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Region: %s\n", l.Region)
	if l.Filters != nil {
		fmt.Fprintf(w, "Filters: %+v\n", *l.Filters)
		fmt.Fprintf(w, "Matched %d of %d functions\n", len(l.Functions), l.OriginalCount)
	}

	s := l.Statistics
	fmt.Fprintf(w, "\nTotal functions: %d\n", s.TotalFunctions)
	fmt.Fprintf(w, "Total code size: %.2f MB\n", s.TotalCodeSizeMB)
	if s.AverageTimeout > 0 {
		fmt.Fprintf(w, "Average timeout: %.1fs\n", s.AverageTimeout)
		fmt.Fprintf(w, "Average memory: %.1f MB\n", s.AverageMemory)
	}
	renderCounts(w, "BY RUNTIME", s.ByRuntime)
	renderCounts(w, "BY ARCHITECTURE", s.ByArchitecture)
	renderCounts(w, "BY STATE", s.ByState)

	fmt.Fprintln(w, "\nFUNCTIONS:")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, fn := range l.Functions {
		fmt.Fprintf(w, "%-50s %-14s %-8s %s\n", fn.Name, fn.Runtime, fn.Architecture, fn.State)
	}
}

func renderCounts(w io.Writer, title string, counts map[string]int) {
	fmt.Fprintf(w, "\n%s:\n", title)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

// RenderReport prints executing functions first, then idle active ones, then
// the missing or failed ones.
func RenderReport(w io.Writer, r Report) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "FUNCTION MONITOR")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Updated: %s\n", r.Timestamp.Local().Format("15:04:05"))
	fmt.Fprintf(w, "Metric period: %d minutes\n\n", r.PeriodMinutes)

	s := r.Summary
	fmt.Fprintf(w, "Active: %d/%d\n", s.ActiveFunctions, r.TotalFunctions)
	fmt.Fprintf(w, "Executing now: %d\n", s.ExecutingFunctions)
	fmt.Fprintf(w, "Invocations: %d\n", s.TotalInvocations)
	fmt.Fprintf(w, "Errors: %d\n", s.TotalErrors)
	fmt.Fprintf(w, "Functions with errors: %d\n", s.FunctionsWithErrors)
	fmt.Fprintf(w, "Functions with throttles: %d\n", s.FunctionsWithThrottles)

	var executing, active, inactive []int
	for i, m := range r.Functions {
		switch {
		case m.IsExecuting:
			executing = append(executing, i)
		case m.Status == StatusActive:
			active = append(active, i)
		default:
			inactive = append(inactive, i)
		}
	}

	if len(executing) > 0 {
		fmt.Fprintln(w, "\nEXECUTING:")
		for _, i := range executing {
			m := r.Functions[i]
			fmt.Fprintf(w, "  %s  concurrent=%d duration_avg=%.2fms invocations=%d errors=%d success_rate=%.1f%%\n",
				m.FunctionName, m.ConcurrentExecutions, m.DurationAvg, m.Invocations, m.Errors, m.SuccessRate)
		}
	}
	if len(active) > 0 {
		fmt.Fprintln(w, "\nACTIVE:")
		for _, i := range active {
			m := r.Functions[i]
			fmt.Fprintf(w, "  %s  invocations=%d errors=%d throttles=%d", m.FunctionName, m.Invocations, m.Errors, m.Throttles)
			if m.Invocations > 0 {
				fmt.Fprintf(w, " success_rate=%.1f%% duration_avg=%.2fms", m.SuccessRate, m.DurationAvg)
			}
			fmt.Fprintln(w)
		}
	}
	if len(inactive) > 0 {
		fmt.Fprintln(w, "\nINACTIVE/ERROR:")
		for _, i := range inactive {
			m := r.Functions[i]
			if m.ErrorMessage != "" {
				fmt.Fprintf(w, "  %s  %s: %s\n", m.FunctionName, m.Status, m.ErrorMessage)
			} else {
				fmt.Fprintf(w, "  %s  %s\n", m.FunctionName, m.Status)
			}
		}
	}
}

// RenderLogs prints the run summary and per-function statistics followed by
// up to tail of each function's newest entries. tail <= 0 prints no entries.
func RenderLogs(w io.Writer, r LogReport, tail int) {
	rule := strings.Repeat("=", 80)
	s := r.Metadata.Summary
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "FUNCTION LOGS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Generated at: %s\n", r.Metadata.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Window: last %dh, errors only: %t\n", r.Metadata.QueryParameters.HoursBack, r.Metadata.QueryParameters.ErrorsOnly)
	fmt.Fprintf(w, "Functions: %d (ok %d, failed %d)\n", s.TotalFunctions, s.SuccessfulFunctions, s.FailedFunctions)
	fmt.Fprintf(w, "Events: %d, errors: %d\n", s.TotalEvents, s.TotalErrors)

	for _, name := range r.Metadata.QueryParameters.FunctionNames {
		fl, ok := r.Functions[name]
		if !ok {
			continue
		}
		fmt.Fprintln(w, strings.Repeat("-", 80))
		if fl.Status != LogStatusSuccess {
			fmt.Fprintf(w, "[ERROR] %s: %s\n", name, fl.ErrorMessage)
			continue
		}
		st := fl.Statistics
		fmt.Fprintf(w, "[OK] %s: %d events, %d shown, %d errors, %d info\n",
			name, st.TotalEvents, st.DisplayedEvents, st.ErrorCount, st.InfoCount)
		for i, e := range fl.Logs {
			if i >= tail {
				break
			}
			fmt.Fprintf(w, "  %s %-5s %s\n", e.Timestamp.Format(time.RFC3339), e.Level, e.Message)
		}
	}
}
