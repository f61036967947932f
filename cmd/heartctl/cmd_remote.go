package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"heart-predictor/internal/client"
	"heart-predictor/internal/collector"
	"heart-predictor/internal/features"
	"heart-predictor/internal/web"

	"github.com/spf13/cobra"
)

const defaultServer = "http://127.0.0.1:8501"

func addServerFlags(cmd *cobra.Command, server *string, timeout *time.Duration) {
	cmd.Flags().StringVar(server, "server", defaultServer, "heartd base URL")
	cmd.Flags().DurationVar(timeout, "timeout", 5*time.Second, "Request timeout")
}

func newPredictCmd(stdout io.Writer) *cobra.Command {
	var (
		server    string
		timeout   time.Duration
		sets      []string
		requestID string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one vector on a running heartd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.New(server, timeout)
			fr, err := c.Features(cmd.Context())
			if err != nil {
				return err
			}
			v, err := collector.ParseAssignments(sets, fr.Features, features.FeatureVector(fr.Defaults))
			if err != nil {
				return err
			}
			resp, err := c.Predict(cmd.Context(), web.PredictRequest{Features: v, RequestID: requestID})
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "label=%d model=%s latency_ms=%.3f\n", resp.Label, resp.ModelVersion, resp.LatencyMs)
			fmt.Fprintln(stdout, resp.Message)
			return nil
		},
	}
	addServerFlags(cmd, &server, &timeout)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Feature override as name=value (repeatable)")
	cmd.Flags().StringVar(&requestID, "request-id", "", "Request ID echoed back and stored with the outcome")
	return cmd
}

func newInfoCmd(stdout io.Writer) *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the model loaded by a running heartd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := client.New(server, timeout).ModelInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(stdout, info)
		},
	}
	addServerFlags(cmd, &server, &timeout)
	return cmd
}

func newHealthCmd(stdout io.Writer) *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that a heartd is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := client.New(server, timeout).Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "status=%s model=%s features=%d storage=%t uptime=%s\n",
				h.Status, h.ModelVersion, h.Features, h.Storage,
				(time.Duration(h.UptimeSeconds * float64(time.Second))).Round(time.Second))
			return nil
		},
	}
	addServerFlags(cmd, &server, &timeout)
	return cmd
}

func newStatsCmd(stdout io.Writer) *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print stored outcome counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			counts, err := client.New(server, timeout).Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(stdout, counts)
		},
	}
	addServerFlags(cmd, &server, &timeout)
	return cmd
}

func newOutcomesCmd(stdout io.Writer) *cobra.Command {
	var (
		server     string
		timeout    time.Duration
		version    string
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "outcomes",
		Short: "List stored outcomes of a model version",
		Long: `List stored outcomes of a model version.

--start and --end take RFC3339 times. Without them the server returns the
last 24 hours; without --version it uses the loaded model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseTimeFlag("start", start)
			if err != nil {
				return err
			}
			to, err := parseTimeFlag("end", end)
			if err != nil {
				return err
			}
			out, err := client.New(server, timeout).Outcomes(cmd.Context(), version, from, to)
			if err != nil {
				return err
			}
			return printJSON(stdout, out)
		},
	}
	addServerFlags(cmd, &server, &timeout)
	cmd.Flags().StringVar(&version, "version", "", "Model version (default: the loaded model)")
	cmd.Flags().StringVar(&start, "start", "", "Window start, RFC3339")
	cmd.Flags().StringVar(&end, "end", "", "Window end, RFC3339")
	return cmd
}

func parseTimeFlag(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return t, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
