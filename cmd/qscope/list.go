package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qscope/internal/config"
	"qscope/internal/constants"
	"qscope/internal/filtering"
	"qscope/internal/inspection"
	"qscope/internal/report"
	"qscope/pkg/cel"
)

type filterFlags struct {
	emptyDescription bool
	id               string
	fields           []string
	start            string
	end              string
	cel              []string
}

// celExamples renders the sample --filter-cel expressions for command help.
func celExamples() string {
	names := make([]string, 0, len(cel.FilterExpressionExamples))
	for name := range cel.FilterExpressionExamples {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Example --filter-cel expressions:")
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %-18s %s", name, cel.FilterExpressionExamples[name])
	}
	return b.String()
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.emptyDescription, "filter-empty-description", false, "Keep messages whose body has an empty 'description' field")
	cmd.Flags().StringVar(&f.id, "filter-id", "", "Keep messages whose body id, messageId, requestId, userId or itemId equals this value")
	cmd.Flags().StringArrayVar(&f.fields, "filter-field", nil, "Keep messages whose body field equals a value, as name:value (repeatable)")
	cmd.Flags().StringVar(&f.start, "filter-start", "", "Keep messages sent at or after this time (YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVar(&f.end, "filter-end", "", "Keep messages sent at or before this time (YYYY-MM-DD HH:MM)")
	cmd.Flags().StringArrayVar(&f.cel, "filter-cel", nil, "Keep messages matching a CEL expression over body, attributes, message_attributes, message_id, queue_name (repeatable)")
}

// specs appends the flag filters after the ones from configuration.
func (f *filterFlags) specs(cfg *config.Config) ([]filtering.Spec, error) {
	specs := filtering.SpecsFromConfig(cfg.Filters)
	if f.emptyDescription {
		specs = append(specs, filtering.Spec{Kind: filtering.KindEmptyDescription})
	}
	if f.id != "" {
		specs = append(specs, filtering.Spec{Kind: filtering.KindID, Target: f.id})
	}
	for _, raw := range f.fields {
		s, err := filtering.ParseFieldFlag(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	if f.start != "" || f.end != "" {
		specs = append(specs, filtering.Spec{Kind: filtering.KindTimeWindow, Start: f.start, End: f.end})
	}
	for _, expr := range f.cel {
		specs = append(specs, filtering.Spec{Kind: filtering.KindCEL, Expression: expr})
	}
	return specs, nil
}

func listCmd() *cobra.Command {
	var (
		queues       []string
		maxMessages  int
		saveFiltered bool
		toMongo      bool
		asJSON       bool
		filters      filterFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List and filter messages from dead-letter queues",
		Long: "List messages from the selected dead-letter queues (all by default), apply the configured and flag filters, and optionally export the survivors.\n\n" +
			visibilityNote + "\n\n" + celExamples(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer log.Sync()

			specs, err := filters.specs(cfg)
			if err != nil {
				return err
			}
			chain, err := filtering.Build(log, specs)
			if err != nil {
				return err
			}

			app := NewApp(cmd.CommandPath(), cfg, log)
			defer app.Close()
			if err := app.initTracing(); err != nil {
				return err
			}
			if err := app.initTransport(ctx); err != nil {
				return err
			}
			if saveFiltered && (toMongo || cfg.Export.ToMongo) {
				if err := app.initStorage(ctx, false, true); err != nil {
					return err
				}
			}

			if !cmd.Flags().Changed("max-messages") {
				maxMessages = cfg.Inspection.MaxMessagesPerQueue
			}
			result := app.inspector().List(ctx, inspection.ListOptions{
				Queues:              queues,
				MaxMessagesPerQueue: maxMessages,
				Chain:               chain,
			})

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report.NewFilteredExport(result, time.Now())); err != nil {
					return err
				}
			} else {
				renderListResult(out, result)
			}

			if saveFiltered {
				exp := report.NewFilteredExport(result, time.Now())
				if exp.Empty() {
					fmt.Fprintln(os.Stderr, "No filtered results to save")
					return nil
				}
				for _, e := range app.exporters(toMongo) {
					ref, err := e.ExportFiltered(ctx, exp)
					if err != nil {
						log.ErrorwCtx(ctx, "Export failed", "exporter", e.Name(), "error", err)
						continue
					}
					fmt.Fprintf(os.Stderr, "Filtered results saved to %s\n", ref)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&queues, "queues", nil, "DLQ friendly names to inspect (default all DLQs)")
	cmd.Flags().IntVar(&maxMessages, "max-messages", 10, "Messages to read per queue, clamped to 1..100")
	cmd.Flags().BoolVar(&saveFiltered, "save-filtered", false, "Export filtered messages to a JSON file")
	cmd.Flags().BoolVar(&toMongo, "to-mongo", false, "Also store the export in MongoDB")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	filters.register(cmd)
	return cmd
}

func renderListResult(w io.Writer, r *inspection.ListResult) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "DLQ LISTING")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	if len(r.Filters) > 0 {
		fmt.Fprintln(w, "Filters:")
		for _, f := range r.Filters {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	for _, name := range r.Unknown {
		fmt.Fprintf(w, "Unknown queue skipped: %s\n", name)
	}

	for _, q := range r.Queues {
		fmt.Fprintf(w, "\n%s: %d retrieved, %d after filters\n", q.Queue, q.Retrieved, q.AfterFilter)
		if q.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", q.Error)
		}
		for i, m := range q.Messages {
			body, err := json.MarshalIndent(m.Body, "    ", "  ")
			if err != nil {
				body = []byte(fmt.Sprint(m.Body))
			}
			fmt.Fprintf(w, "  [%d] %s\n", i+1, m.MessageID)
			if sent, ok := m.Attributes[constants.SentTimestampAttribute]; ok {
				fmt.Fprintf(w, "    sent: %s\n", sent)
			}
			fmt.Fprintf(w, "    receipt: %s\n", m.ReceiptToken)
			fmt.Fprintf(w, "    body: %s\n", body)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d retrieved, %d after filters across %d queues\n", r.Retrieved, r.AfterFilter, len(r.Queues))
}
