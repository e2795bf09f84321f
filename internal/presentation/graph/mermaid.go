package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	// ActivePath lists the states on the active branch, root first.
	ActivePath []string
	// ActiveState is the active leaf, drawn with the strongest style.
	ActiveState string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a tree
// description. It applies semantic styling:
// - Composite states: [Rectangle]
// - Leaf states: ([Stadium])
// - Main state: (("Circle"))
// It also applies overlay styles (active branch/leaf) if provided.
func GenerateMermaid(desc *domain.TreeDescription, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, state := range desc.States {
		safeID := sanitizeMermaidID(state.Name)

		opener, closer := "([", "])"
		switch {
		case state.Name == desc.Main:
			opener, closer = "((", "))"
		case len(state.Children) > 0:
			opener, closer = "[", "]"
		}

		label := state.Name
		if n := len(state.Systems); n > 0 {
			label = fmt.Sprintf("%s <br/> %d system(s)", state.Name, n)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for _, child := range state.Children {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(child)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef leaf fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.ActivePath {
			safeID := sanitizeMermaidID(name)
			if safeID == "" || seen[safeID] || name == overlay.ActiveState {
				continue
			}
			seen[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s active;\n", safeID))
		}

		if overlay.ActiveState != "" {
			sb.WriteString(fmt.Sprintf("    class %s leaf;\n", sanitizeMermaidID(overlay.ActiveState)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
