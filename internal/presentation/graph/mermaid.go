package graph

import (
	"fmt"
	"strings"

	"github.com/pbarbosa/espalier/pkg/domain"
)

// ResultOverlay contains per-node terminal statuses to visualize on the graph.
type ResultOverlay struct {
	Statuses map[string]domain.NodeStatus
}

// OverlayFromResult builds an overlay from a finished run.
func OverlayFromResult(result *domain.ExecutionResult) *ResultOverlay {
	if result == nil {
		return nil
	}
	statuses := make(map[string]domain.NodeStatus, len(result.Outcomes))
	for id, outcome := range result.Outcomes {
		statuses[id] = outcome.Status
	}
	return &ResultOverlay{Statuses: statuses}
}

// GenerateMermaid produces a Mermaid flowchart syntax string for the graph.
// It applies semantic styling:
// - Roots (no dependencies): ((Circle))
// - Sinks (no dependents): [[Subroutine]]
// - Default: [Rectangle]
// It also applies overlay styles (succeeded/failed/skipped) if provided.
func GenerateMermaid(g *domain.Graph, overlay *ResultOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		// Sanitize ID for Mermaid
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case len(g.Predecessors(node.ID)) == 0:
			opener, closer = "((", "))" // Circle
		case len(g.Successors(node.ID)) == 0:
			opener, closer = "[[", "]]" // Subroutine
		}

		label := fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, node.ID, closer)
		if node.Config != nil && node.Config.Timeout != nil {
			// Annotate node with its timeout budget
			label = fmt.Sprintf("    %s%s\"%s <br/> ⏱️ %s\"%s\n", safeID, opener, node.ID, node.Config.Timeout, closer)
		}
		sb.WriteString(label)
	}

	for _, edge := range g.Edges() {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(edge.Source), sanitizeMermaidID(edge.Target)))
	}

	// Apply Overlay Styles
	if overlay != nil && len(overlay.Statuses) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef succeeded fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#eceff1,stroke:#607d8b,stroke-width:2px,stroke-dasharray: 5 5,color:#000;\n")

		// Iterate in registration order so the output is deterministic.
		for _, node := range g.Nodes() {
			status, ok := overlay.Statuses[node.ID]
			if !ok || !status.Terminal() {
				continue
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", sanitizeMermaidID(node.ID), status))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
