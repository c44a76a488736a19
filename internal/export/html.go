// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package export

import (
	"html/template"
	"io"
	"strings"

	"github.com/sigil-dev/propgraph/internal/store"
)

// visNetworkURL is the standalone vis-network bundle the page loads.
const visNetworkURL = "https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Title string `json:"title"`
}

type visEdge struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	Title string `json:"title"`
}

type htmlData struct {
	Title     string
	Script    string
	NodeCount int
	EdgeCount int
	Nodes     []visNode
	Edges     []visEdge
}

var htmlTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Script}}"></script>
<style>
  html, body { margin: 0; height: 100%; font-family: sans-serif; }
  header { padding: 8px 12px; border-bottom: 1px solid #ddd; }
  #graph { position: absolute; top: 42px; bottom: 0; left: 0; right: 0; }
</style>
</head>
<body>
<header>{{.Title}}: {{.NodeCount}} nodes, {{.EdgeCount}} relations</header>
<div id="graph"></div>
<script>
  const nodes = new vis.DataSet({{.Nodes}});
  const edges = new vis.DataSet({{.Edges}});
  new vis.Network(document.getElementById("graph"), { nodes: nodes, edges: edges }, {
    edges: { arrows: "to", font: { align: "middle" } },
    physics: { stabilization: true }
  });
</script>
</body>
</html>
`))

func writeHTML(w io.Writer, g *Graph) error {
	data := htmlData{
		Title:  "propgraph",
		Script: visNetworkURL,
		Nodes:  make([]visNode, 0, len(g.Nodes)),
		Edges:  []visEdge{},
	}
	for _, n := range g.Nodes {
		data.Nodes = append(data.Nodes, visNode{
			ID:    n.ID,
			Label: n.Name,
			Group: n.Label,
			Title: describe(n.Label, n.Properties),
		})
	}
	for _, r := range g.resolved() {
		data.Edges = append(data.Edges, visEdge{
			ID:    r.ID,
			From:  r.SourceID,
			To:    r.TargetID,
			Label: r.Label,
			Title: describe(r.Label, r.Properties),
		})
	}
	data.NodeCount = len(data.Nodes)
	data.EdgeCount = len(data.Edges)

	return htmlTemplate.Execute(w, data)
}

// describe renders the hover text: the label then one "key: value" line
// per property.
func describe(label string, props store.Properties) string {
	var b strings.Builder
	b.WriteString(label)
	for _, k := range props.Keys() {
		b.WriteString("\n")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(props[k].String())
	}
	return b.String()
}
