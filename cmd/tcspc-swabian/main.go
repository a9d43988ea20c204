// Command tcspc-swabian reads a Swabian Instruments Tag file and prints
// a per-Kind event count summary, mirroring
// original_source/examples/summarize_swabian.cpp. As a §6 external
// collaborator its flag surface sits outside the core specification.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/tcspc/internal/config"
	"github.com/crimson-sun/tcspc/internal/decode"
	"github.com/crimson-sun/tcspc/internal/logging"
	"github.com/crimson-sun/tcspc/internal/stats"
	"github.com/crimson-sun/tcspc/internal/stream"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var granularity int
	var logLevel string

	cmd := &cobra.Command{
		Use:   "tcspc-swabian <file>",
		Short: "Summarize a Swabian Instruments Tag file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(false, logging.ParseLevel(logLevel))
			return summarize(args[0], granularity)
		},
	}

	cmd.Flags().IntVar(&granularity, "granularity", stream.DefaultReadGranularity, "bytes read per chunk")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cmd
}

func summarize(path string, granularity int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("tcspc-swabian: %w", err)
	}
	defer f.Close()

	_ = config.Load() // bucket/buffer sizing is not needed for this single-pass summary

	summary := stats.New()
	decoder := decode.NewSwabianTag(summary)
	src := stream.NewReaderStream(f)

	if err := stream.ReadBinaryStream(src, decoder, granularity); err != nil {
		return fmt.Errorf("tcspc-swabian: %w", err)
	}

	if err := summary.Fprint(os.Stdout); err != nil {
		return fmt.Errorf("tcspc-swabian: %w", err)
	}
	slog.Info("summarized file", "path", path)
	return nil
}
