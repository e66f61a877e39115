// Package graph renders workflow graphs as Mermaid flowcharts for docs and
// the validate command.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Overlay contains dynamic run data to visualize on top of the static graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart from a graph definition.
// The entry point renders as a circle, every other node as a rectangle.
// Conditional edges get a labeled arrow; unconditional edges a plain one.
// An overlay highlights visited and current nodes.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entry := g.EntryPoint()
	for _, node := range g.Nodes() {
		safeID := sanitizeMermaidID(node.Name)

		opener, closer := "[", "]"
		if node.Name == entry {
			opener, closer = "((", "))"
		}

		label := node.Name
		if node.Description != "" {
			label = fmt.Sprintf("%s <br/> %s", node.Name, strings.ReplaceAll(node.Description, "\"", "'"))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, edge := range g.Edges() {
		safeFrom := sanitizeMermaidID(edge.From)
		safeTo := sanitizeMermaidID(edge.To)

		arrow := "-->"
		if edge.Condition != nil {
			label := edge.Description
			if label == "" {
				label = "conditional"
			}
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(label, "\"", "'"))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeFrom, arrow, safeTo))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, name := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(name)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
