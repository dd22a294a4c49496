package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
)

// Overlay marks editing state on the graph.
type Overlay struct {
	// Media names the media element; its pending and resized instances are styled.
	Media string
	// Selection highlights the element holding the selection focus.
	Selection *domain.Selection
}

const maxTextLabel = 24

// GenerateMermaid produces a Mermaid flowchart of the tree under root.
// Shapes follow the node kind:
// - Root: ((Circle))
// - Media: [[Subroutine]], [/Parallelogram/] while an upload is pending
// - Text: >Flag]
// - Other elements: [Rectangle]
func GenerateMermaid(root *domain.Element, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	media := domain.NameImage
	if overlay != nil && overlay.Media != "" {
		media = overlay.Media
	}

	var pending, resized []string
	var walk func(el *domain.Element, id string)
	walk = func(el *domain.Element, id string) {
		for i, child := range el.Children() {
			childID := id + "_" + strconv.Itoa(i)
			switch n := child.(type) {
			case *domain.Text:
				sb.WriteString(fmt.Sprintf("    %s>\"%s\"]\n", childID, textLabel(n.Data)))
			case *domain.Element:
				sb.WriteString("    " + childID + elementShape(n, media) + "\n")
				if n.Name() == media {
					if n.HasAttribute(domain.AttrUploadID) {
						pending = append(pending, childID)
					}
					if n.HasAttribute(domain.AttrWidth) {
						resized = append(resized, childID)
					}
				}
				walk(n, childID)
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", id, childID))
		}
	}
	sb.WriteString(fmt.Sprintf("    n((\"%s\"))\n", root.Name()))
	walk(root, "n")

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light and dark themes.
		sb.WriteString("    classDef pending fill:#fff3e0,stroke:#e65100,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef resized fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range pending {
			sb.WriteString(fmt.Sprintf("    class %s pending;\n", id))
		}
		for _, id := range resized {
			sb.WriteString(fmt.Sprintf("    class %s resized;\n", id))
		}
		if overlay.Selection != nil && overlay.Selection.Focus.Parent != nil {
			if id, ok := nodeID(root, overlay.Selection.Focus.Parent); ok {
				sb.WriteString(fmt.Sprintf("    class %s current;\n", id))
			}
		}
	}

	return sb.String()
}

func elementShape(el *domain.Element, media string) string {
	if el.Name() != media {
		return fmt.Sprintf("[\"%s\"]", el.Name())
	}
	if id := el.StringAttribute(domain.AttrUploadID); id != "" {
		return fmt.Sprintf("[/\"%s <br/> ⏳ %s\"/]", el.Name(), sanitize(id))
	}
	label := el.Name()
	if w := el.StringAttribute(domain.AttrWidth); w != "" {
		label += " <br/> ↔ " + w
	}
	return fmt.Sprintf("[[\"%s\"]]", label)
}

// nodeID rebuilds the path id of el, or false when el is not under root.
func nodeID(root, el *domain.Element) (string, bool) {
	if el == root {
		return "n", true
	}
	if !el.IsDescendantOf(root) {
		return "", false
	}
	var idx []string
	for cur := el; cur != root; cur = cur.Parent() {
		idx = append(idx, strconv.Itoa(cur.Parent().IndexOf(cur)))
	}
	var sb strings.Builder
	sb.WriteString("n")
	for i := len(idx) - 1; i >= 0; i-- {
		sb.WriteString("_" + idx[i])
	}
	return sb.String(), true
}

func textLabel(s string) string {
	if r := []rune(s); len(r) > maxTextLabel {
		s = string(r[:maxTextLabel-1]) + "…"
	}
	return sanitize(s)
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
