// Package graphviz renders an introspect.Graph as a Graphviz "dot"
// description, grounded on
// original_source/include/libtcspc/introspect.hpp's doxygen-documented
// graphviz_from_processor_graph (renamed to this domain home as part
// of the introspect/graphviz split).
package graphviz

import (
	"fmt"

	"github.com/crimson-sun/tcspc/internal/introspect"
)

// Render renders g as "digraph G { ... }": one node per line labeled
// with its Info.Name and Info.TypeName, entry point nodes drawn with a
// bold outline, followed by one line per directed edge.
func Render(g introspect.Graph) string {
	ids := g.Nodes()
	index := make(map[introspect.NodeID]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	out := "digraph G {\n"
	for i, id := range ids {
		info, _ := g.NodeInfo(id)
		style := "solid"
		if g.IsEntryPoint(id) {
			style = "bold"
		}
		out += fmt.Sprintf("  n%d [label=\"%s\\n%s\" style=%s];\n", i, escapeLabel(info.Name), escapeLabel(info.TypeName), style)
	}
	for _, e := range g.Edges() {
		from, ok1 := index[e.From]
		to, ok2 := index[e.To]
		if !ok1 || !ok2 {
			continue
		}
		out += fmt.Sprintf("  n%d -> n%d;\n", from, to)
	}
	out += "}\n"
	return out
}

func escapeLabel(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
