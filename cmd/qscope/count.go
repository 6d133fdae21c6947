package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qscope/internal/inspection"
	"qscope/internal/report"
)

func countCmd() *cobra.Command {
	var (
		field       string
		value       string
		queue       string
		maxMessages int
		save        bool
		toMongo     bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count messages whose JSON body field equals a value",
		Long: "Count messages on one queue (--queue, friendly name or URL) or on every DLQ. Values compare tolerantly: " +
			"\"10\" equals 10, \"true\" equals true.\n\n" + visibilityNote,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer log.Sync()

			app := NewApp(cmd.CommandPath(), cfg, log)
			defer app.Close()
			if err := app.initTracing(); err != nil {
				return err
			}
			if err := app.initTransport(ctx); err != nil {
				return err
			}
			if save && (toMongo || cfg.Export.ToMongo) {
				if err := app.initStorage(ctx, false, true); err != nil {
					return err
				}
			}

			retriever := inspection.NewRetriever(app.transport, cfg.Inspection, log)
			counter := inspection.NewCounter(retriever, cfg.Inspection, log)
			counter.OnProgress(func(processed, matched int) {
				fmt.Fprintf(os.Stderr, "  processed %d messages, %d matched\n", processed, matched)
			})
			inspector := inspection.NewInspector(cfg, retriever, counter, log)

			var refs []string
			if queue != "" {
				refs = []string{queue}
			}
			summary := inspector.CountAll(ctx, refs, field, value, maxMessages)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(summary); err != nil {
					return err
				}
			} else {
				renderCountSummary(out, summary)
			}

			if save {
				exp := report.NewCountExport(summary, time.Now())
				for _, e := range app.exporters(toMongo) {
					ref, err := e.ExportCount(ctx, exp)
					if err != nil {
						log.ErrorwCtx(ctx, "Export failed", "exporter", e.Name(), "error", err)
						continue
					}
					fmt.Fprintf(os.Stderr, "Count results saved to %s\n", ref)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "Top-level JSON body field to compare")
	cmd.Flags().StringVar(&value, "value", "", "Value to compare against")
	cmd.Flags().StringVar(&queue, "queue", "", "Queue friendly name or URL (default every DLQ)")
	cmd.Flags().IntVar(&maxMessages, "max-messages", 0, "Stop after this many messages per queue; 0 reads until the queue is empty")
	cmd.Flags().BoolVar(&save, "save", false, "Export the counts to a JSON file")
	cmd.Flags().BoolVar(&toMongo, "to-mongo", false, "Also store the export in MongoDB")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.MarkFlagRequired("field")
	cmd.MarkFlagRequired("value")
	return cmd
}

func renderCountSummary(w io.Writer, s inspection.CountSummary) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "COUNT %s = %s\n", s.Field, s.Value)
	fmt.Fprintln(w, rule)
	for _, r := range s.Results {
		fmt.Fprintf(w, "\n%s\n", r.Queue)
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
		}
		fmt.Fprintf(w, "  processed:     %d\n", r.Processed)
		fmt.Fprintf(w, "  matched:       %d\n", r.Matched)
		fmt.Fprintf(w, "  mismatched:    %d\n", r.Mismatched)
		fmt.Fprintf(w, "  missing field: %d\n", r.MissingField)
		fmt.Fprintf(w, "  json errors:   %d\n", r.JSONErrors)
	}
	fmt.Fprintf(w, "\nTOTAL MATCHED: %d\n", s.Total)
}
