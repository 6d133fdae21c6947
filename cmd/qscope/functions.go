package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"qscope/internal/constants"
	"qscope/internal/functions"
)

func functionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "Inspect Lambda functions",
	}
	cmd.AddCommand(functionsListCmd())
	cmd.AddCommand(functionsMetricsCmd())
	cmd.AddCommand(functionsLogsCmd())
	return cmd
}

func functionsListCmd() *cobra.Command {
	var (
		filter functions.ListFilter
		save   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every function in the account with runtime statistics",
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
			if err := app.InitAWS(ctx); err != nil {
				return err
			}
			lambdaClient, _ := app.functionClients()

			listing, err := functions.NewLister(lambdaClient, cfg.AWS.Region, log).List(ctx, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(listing); err != nil {
					return err
				}
			} else {
				functions.RenderListing(out, listing)
			}

			if save {
				data, err := json.MarshalIndent(listing, "", "  ")
				if err != nil {
					return err
				}
				path := filepath.Join(cfg.Export.Directory, "lambda_functions_"+time.Now().Format("20060102_150405")+".json")
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Function list saved to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Runtime, "runtime", "", "Keep functions whose runtime contains this text")
	cmd.Flags().StringVar(&filter.Name, "name", "", "Keep functions whose name contains this text")
	cmd.Flags().StringVar(&filter.State, "state", "", "Keep functions in this state")
	cmd.Flags().StringVar(&filter.Architecture, "arch", "", "Keep functions with this architecture")
	cmd.Flags().BoolVar(&save, "save", false, "Save the listing to a JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the listing as JSON")
	return cmd
}

func functionsMetricsCmd() *cobra.Command {
	var (
		extra     []string
		watch     bool
		saveToLog bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Report invocations, errors, throttles and concurrency for configured functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer log.Sync()

			cfg.Functions.Additional = append(cfg.Functions.Additional, extra...)
			if cmd.Flags().Changed("save-log") {
				cfg.Functions.SaveToLog = saveToLog
			}
			names := cfg.FunctionNames()
			if len(names) == 0 {
				return fmt.Errorf("no functions configured")
			}

			app := NewApp(cmd.CommandPath(), cfg, log)
			defer app.Close()
			if err := app.initTracing(); err != nil {
				return err
			}
			if err := app.InitAWS(ctx); err != nil {
				return err
			}
			lambdaClient, cwClient := app.functionClients()
			period := time.Duration(cfg.Functions.MetricPeriodMinutes) * time.Minute
			collector := functions.NewCollector(lambdaClient, cwClient, period, log)

			var metricsLog *functions.MetricsLog
			if cfg.Functions.SaveToLog {
				metricsLog = functions.NewMetricsLog(cfg.Functions.LogFilePath)
			}

			out := cmd.OutOrStdout()
			if watch {
				return functions.Watch(ctx, collector, names, time.Duration(cfg.Functions.IntervalSeconds)*time.Second, out, metricsLog, log)
			}

			report := collector.CollectAll(ctx, names)
			if metricsLog != nil {
				if err := metricsLog.Append(report); err != nil {
					log.WarnwCtx(ctx, "Failed to append function metrics log", "error", err)
				}
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			functions.RenderReport(out, report)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&extra, "functions", nil, "Additional function names to include")
	cmd.Flags().BoolVar(&watch, "watch", false, "Refresh every functions.interval_seconds until interrupted")
	cmd.Flags().BoolVar(&saveToLog, "save-log", false, "Append each report to the functions log file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func functionsLogsCmd() *cobra.Command {
	var (
		names   []string
		hours   int
		allLogs bool
		tail    int
		save    bool
		toMongo bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Read recent CloudWatch Logs events for configured functions",
		Long: "Read every log event of the trailing window from /aws/lambda/<function> and report error counts.\n" +
			"Only error lines are kept unless --all-logs is given; statistics always cover every event.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer log.Sync()

			if len(names) == 0 {
				names = cfg.FunctionNames()
			}
			if len(names) == 0 {
				return fmt.Errorf("no functions configured")
			}

			app := NewApp(cmd.CommandPath(), cfg, log)
			defer app.Close()
			if err := app.initTracing(); err != nil {
				return err
			}
			if err := app.InitAWS(ctx); err != nil {
				return err
			}
			if save && (toMongo || cfg.Export.ToMongo) {
				if err := app.initStorage(ctx, false, true); err != nil {
					return err
				}
			}

			reader := functions.NewLogReader(app.logsClient(), cfg.AWS.Region, log)
			logReport := reader.ReadAll(ctx, names, hours, !allLogs)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(logReport); err != nil {
					return err
				}
			} else {
				functions.RenderLogs(out, logReport, tail)
			}

			if save {
				for _, e := range app.exporters(toMongo) {
					ref, err := e.ExportLogs(ctx, logReport)
					if err != nil {
						log.ErrorwCtx(ctx, "Export failed", "exporter", e.Name(), "error", err)
						continue
					}
					fmt.Fprintf(os.Stderr, "Function logs saved to %s\n", ref)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&names, "functions", nil, "Function names to read (default the configured functions)")
	cmd.Flags().IntVar(&hours, "hours", constants.DefaultLogsHoursBack, "Hours of logs to read")
	cmd.Flags().BoolVar(&allLogs, "all-logs", false, "Keep every event, not only error lines")
	cmd.Flags().IntVar(&tail, "tail", 20, "Events to print per function")
	cmd.Flags().BoolVar(&save, "save", false, "Export the report to a JSON file")
	cmd.Flags().BoolVar(&toMongo, "to-mongo", false, "Also store the report in MongoDB")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
