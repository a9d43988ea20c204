// Command tcspc-graph renders the processor graph of a representative
// decode -> histogram -> stats pipeline as Graphviz "dot", grounded on
// original_source/include/libtcspc/introspect.hpp's documented
// graphviz_from_processor_graph. As a §6 external collaborator, this
// driver is a visualization/debugging aid outside the core
// specification's invariants; none of the core processors implement
// introspect.Introspectable (doing so would require every processor
// constructor to thread a context-tracked node id through its whole
// downstream chain, which spec.md's Non-goals place outside core
// scope), so the graph below is built by hand from the same stage
// names a real pipeline would wire up.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/tcspc/internal/introspect"
	"github.com/crimson-sun/tcspc/internal/introspect/graphviz"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tcspc-graph",
		Short: "Print the processor graph of a representative decode pipeline as Graphviz dot",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := exampleGraph()
			if err != nil {
				return fmt.Errorf("tcspc-graph: %w", err)
			}
			fmt.Print(graphviz.Render(g))
			return nil
		},
	}
}

// stage is a placeholder processor identity used purely so that each
// named stage below gets a distinct, stable pointer-identity NodeID.
type stage struct{ name string }

func exampleGraph() (introspect.Graph, error) {
	decoder := &stage{"decode.Swabian"}
	mapToDatapoints := &stage{"histogram.MapToDatapoints"}
	mapToBins := &stage{"histogram.MapToBins"}
	hist := &stage{"histogram.Histogram"}
	sink := &stage{"stats.Summary"}

	var g introspect.Graph
	if err := g.PushEntryPoint(sink, introspect.NewInfo(sink, sink.name)); err != nil {
		return introspect.Graph{}, err
	}
	if err := g.PushEntryPoint(hist, introspect.NewInfo(hist, hist.name)); err != nil {
		return introspect.Graph{}, err
	}
	if err := g.PushEntryPoint(mapToBins, introspect.NewInfo(mapToBins, mapToBins.name)); err != nil {
		return introspect.Graph{}, err
	}
	if err := g.PushEntryPoint(mapToDatapoints, introspect.NewInfo(mapToDatapoints, mapToDatapoints.name)); err != nil {
		return introspect.Graph{}, err
	}
	if err := g.PushSource(decoder, introspect.NewInfo(decoder, decoder.name)); err != nil {
		return introspect.Graph{}, err
	}
	return g, nil
}
