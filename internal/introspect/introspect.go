// Package introspect models a processing graph for visualization,
// debugging, and testing, grounded on
// original_source/include/libtcspc/introspect.hpp's processor_info/
// processor_node_id/processor_graph triad.
//
// A Go pointer already gives the bijective (identity, type) pairing the
// C++ side builds out of an address plus a std::type_index, so a Node
// is identified directly by the pointer to the processor that produced
// it (stored as an any), rather than reconstructing an address/typeid
// pair by hand.
package introspect

import (
	"fmt"
	"reflect"
	"sort"
)

// NodeID identifies a single processor instance within a Graph. Two
// NodeIDs are equal iff they hold the same pointer value of the same
// concrete type, which holds for as long as the processor they were
// obtained from is not moved or destroyed (i.e., for Go, never, since
// Go values referenced by pointer don't move under the program's feet).
type NodeID = any

// Info is metadata describing a single processor node: its identity,
// the Go type that implements it, and the short conventional name
// under which it should appear in diagrams.
type Info struct {
	ID       NodeID
	TypeName string
	Name     string
}

// NewInfo constructs an Info for id (by convention, a pointer to the
// processor), deriving TypeName via reflection and using name as the
// short display name (by convention the unqualified struct name).
func NewInfo(id NodeID, name string) Info {
	return Info{ID: id, TypeName: reflect.TypeOf(id).String(), Name: name}
}

// Introspectable is implemented by anything that can report its own
// node metadata and the graph of everything downstream of it.
type Introspectable interface {
	IntrospectNode() Info
	IntrospectGraph() Graph
}

// Edge is a directed edge from an upstream node to a downstream node.
type Edge struct {
	From, To NodeID
}

type node struct {
	id   NodeID
	info Info
}

// Graph is a directed acyclic graph of processor nodes, plus the
// notion of "entry points": the upstream-most nodes represented in the
// graph. Graph and its nodes/edges are pure data, remaining valid even
// after the processors they describe are gone. The zero value is an
// empty, usable graph.
type Graph struct {
	nodes       []node
	edges       []Edge
	entryPoints []NodeID
}

// PushEntryPoint adds a node to the graph upstream of the current entry
// point (if any), making it the new (sole) entry point. It is an error
// to call this when the graph already has more than one entry point, or
// when id is already present in the graph.
func (g *Graph) PushEntryPoint(id NodeID, info Info) error {
	if len(g.entryPoints) > 1 {
		return fmt.Errorf("introspect: cannot push entry point onto a graph with more than one entry point")
	}
	if g.hasNode(id) {
		return fmt.Errorf("introspect: node already present in graph")
	}
	g.nodes = append(g.nodes, node{id: id, info: info})
	sort.Slice(g.nodes, func(i, j int) bool { return nodeLess(g.nodes[i].id, g.nodes[j].id) })

	if len(g.entryPoints) == 0 {
		g.entryPoints = []NodeID{id}
		return nil
	}
	prev := g.entryPoints[0]
	g.edges = append(g.edges, Edge{From: id, To: prev})
	sort.Slice(g.edges, func(i, j int) bool { return edgeLess(g.edges[i], g.edges[j]) })
	g.entryPoints[0] = id
	return nil
}

// PushSource adds a source node upstream of the current entry point (if
// any), then clears the entry point list entirely: a source has no
// further upstream, so the resulting graph has no entry points.
func (g *Graph) PushSource(id NodeID, info Info) error {
	if err := g.PushEntryPoint(id, info); err != nil {
		return err
	}
	g.entryPoints = nil
	return nil
}

// Nodes returns every node id in the graph, sorted in a stable order.
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.id
	}
	return ids
}

// Edges returns every edge in the graph, sorted in a stable order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// EntryPoints returns the graph's entry point node ids.
func (g *Graph) EntryPoints() []NodeID {
	return append([]NodeID(nil), g.entryPoints...)
}

// IsEntryPoint reports whether id is one of the graph's entry points.
func (g *Graph) IsEntryPoint(id NodeID) bool {
	for _, e := range g.entryPoints {
		if e == id {
			return true
		}
	}
	return false
}

// NodeIndex returns the position of id within Nodes(), stable so long
// as the graph is not modified afterward.
func (g *Graph) NodeIndex(id NodeID) (int, error) {
	for i, n := range g.nodes {
		if n.id == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("introspect: no such node id in graph")
}

// NodeInfo returns the metadata recorded for id.
func (g *Graph) NodeInfo(id NodeID) (Info, error) {
	for _, n := range g.nodes {
		if n.id == id {
			return n.info, nil
		}
	}
	return Info{}, fmt.Errorf("introspect: no such node id in graph")
}

func (g *Graph) hasNode(id NodeID) bool {
	for _, n := range g.nodes {
		if n.id == id {
			return true
		}
	}
	return false
}

// MergeGraphs returns a new graph combining every node, edge, and entry
// point of a and b. It is an error for a and b to share a node id.
func MergeGraphs(a, b Graph) (Graph, error) {
	var merged Graph
	for _, n := range a.nodes {
		if err := merged.PushEntryPoint(n.id, n.info); err != nil {
			return Graph{}, err
		}
	}
	merged.entryPoints = append([]NodeID(nil), a.entryPoints...)
	merged.edges = append([]Edge(nil), a.edges...)

	for _, n := range b.nodes {
		if merged.hasNode(n.id) {
			return Graph{}, fmt.Errorf("introspect: cannot merge graphs sharing node id %v", n.id)
		}
		merged.nodes = append(merged.nodes, n)
	}
	sort.Slice(merged.nodes, func(i, j int) bool { return nodeLess(merged.nodes[i].id, merged.nodes[j].id) })
	merged.edges = append(merged.edges, b.edges...)
	sort.Slice(merged.edges, func(i, j int) bool { return edgeLess(merged.edges[i], merged.edges[j]) })
	merged.entryPoints = append(merged.entryPoints, b.entryPoints...)
	return merged, nil
}

func nodeLess(a, b NodeID) bool {
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func edgeLess(a, b Edge) bool {
	af, bf := fmt.Sprintf("%v", a.From), fmt.Sprintf("%v", b.From)
	if af != bf {
		return af < bf
	}
	return fmt.Sprintf("%v", a.To) < fmt.Sprintf("%v", b.To)
}
