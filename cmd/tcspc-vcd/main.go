// Command tcspc-vcd converts a raw Swabian Instruments Tag dump into a
// Value Change Dump (VCD) trace viewable with tools such as GTKWave,
// grounded on original_source/examples/swabian2vcd.cpp. Positive and
// negative channel numbers are treated as the rising and falling edge
// of the same signal. As a §6 external collaborator its flag surface
// sits outside the core specification.
package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/tcspc/internal/decode"
	"github.com/crimson-sun/tcspc/internal/events"
	"github.com/crimson-sun/tcspc/internal/stream"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "tcspc-vcd <input_file> [output_file]",
		Short: "Convert a raw Swabian Tag dump to a VCD trace",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputPath
			if len(args) == 2 {
				out = args[1]
			}
			return convert(args[0], out)
		},
	}
	cmd.Flags().StringVar(&outputPath, "output", "", "output file (default stdout)")
	return cmd
}

// detectionTag is one observed rising or falling edge: a signed channel
// (positive = rising, negative = falling) at an absolute picosecond
// time.
type detectionTag struct {
	channel int32
	abstime int64
}

type tagCollector struct {
	tags []detectionTag
}

func (c *tagCollector) Handle(ev events.Event) error {
	if ev.Kind == events.KindDetection {
		c.tags = append(c.tags, detectionTag{channel: ev.Channel, abstime: ev.AbsTime})
	}
	return nil
}

func (c *tagCollector) Flush() error { return nil }

func convert(inputPath, outputPath string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("tcspc-vcd: %w", err)
	}
	defer f.Close()

	collector := &tagCollector{}
	decoder := decode.NewSwabianTag(collector)
	if err := stream.ReadBinaryStream(stream.NewReaderStream(f), decoder, stream.DefaultReadGranularity); err != nil {
		return fmt.Errorf("tcspc-vcd: %w", err)
	}

	out := os.Stdout
	if outputPath != "" {
		w, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("tcspc-vcd: %w", err)
		}
		defer w.Close()
		out = w
	}

	bw := bufio.NewWriter(out)
	if err := writeVCD(bw, collector.tags); err != nil {
		return fmt.Errorf("tcspc-vcd: %w", err)
	}
	return bw.Flush()
}

// writeVCD emits a VCD trace for tags (which need not be pre-sorted).
// Negative abstime values are rejected: the VCD format has no notion
// of negative time.
func writeVCD(w *bufio.Writer, tags []detectionTag) error {
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].abstime < tags[j].abstime })

	channels := absChannelSet(tags)
	symbol := make(map[int32]byte, len(channels))
	for i, ch := range channels {
		symbol[ch] = byte('!' + i)
	}

	fmt.Fprintf(w, "$timescale 1 ps $end\n")
	fmt.Fprintf(w, "$scope module tcspc $end\n")
	for _, ch := range channels {
		fmt.Fprintf(w, "$var wire 1 %c ch%d $end\n", symbol[ch], ch)
	}
	fmt.Fprintf(w, "$upscope $end\n$enddefinitions $end\n")
	fmt.Fprintf(w, "#0\n")
	for _, ch := range channels {
		fmt.Fprintf(w, "0%c\n", symbol[ch])
	}

	lastAbs := int64(-1)
	for _, tag := range tags {
		if tag.abstime < 0 {
			return fmt.Errorf("negative abstime %d is not representable in VCD", tag.abstime)
		}
		if tag.abstime != lastAbs {
			fmt.Fprintf(w, "#%d\n", tag.abstime)
			lastAbs = tag.abstime
		}
		ch := absChannel(tag.channel)
		value := byte('1')
		if tag.channel < 0 {
			value = '0'
		}
		fmt.Fprintf(w, "%c%c\n", value, symbol[ch])
	}
	return nil
}

func absChannel(ch int32) int32 {
	if ch < 0 {
		return -ch
	}
	return ch
}

func absChannelSet(tags []detectionTag) []int32 {
	seen := make(map[int32]bool)
	for _, tag := range tags {
		seen[absChannel(tag.channel)] = true
	}
	out := make([]int32, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
