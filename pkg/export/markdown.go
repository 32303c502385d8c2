package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/treeview/pkg/loader"
	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/tree"
)

// maxGraphLabel bounds node labels in the mermaid graph.
const maxGraphLabel = 30

// GenerateMarkdown creates a markdown report of the loaded tree: a summary,
// an outline and a mermaid graph of parent/child links. Children that were
// never loaded are not included.
func GenerateMarkdown(tr *tree.Tree, title string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	var total, expanded, selected, checked int
	tr.DepthFirst(func(m *meta.Model) bool {
		total++
		if m.State.Expanded {
			expanded++
		}
		if m.State.Selected {
			selected++
		}
		if tr.IsChecked(m) {
			checked++
		}
		return true
	})
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Nodes**: %d\n", total))
	sb.WriteString(fmt.Sprintf("- **Expanded**: %d\n", expanded))
	sb.WriteString(fmt.Sprintf("- **Selected**: %d\n", selected))
	sb.WriteString(fmt.Sprintf("- **Checked**: %d\n\n", checked))

	sb.WriteString("## Outline\n\n")
	if total == 0 {
		sb.WriteString("_Empty tree._\n\n")
	}
	writeOutline(&sb, tr, tr.Roots(), 0)
	sb.WriteString("\n---\n\n")

	sb.WriteString("## Structure\n\n")
	sb.WriteString("```mermaid\ngraph TD\n")
	ids := map[*meta.Model]string{}
	hasLinks := false
	tr.DepthFirst(func(m *meta.Model) bool {
		id := fmt.Sprintf("n%d", len(ids))
		ids[m] = id
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, graphLabel(m.Label())))
		return true
	})
	tr.DepthFirst(func(m *meta.Model) bool {
		for _, c := range m.Children {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", ids[m], ids[c]))
			hasLinks = true
		}
		return true
	})
	if !hasLinks && total == 0 {
		sb.WriteString("    Empty[Empty tree]\n")
	}
	sb.WriteString("```\n")

	return sb.String()
}

func writeOutline(sb *strings.Builder, tr *tree.Tree, nodes []*meta.Model, depth int) {
	for _, m := range nodes {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("- ")
		if m.Input != nil && m.Input.Type == meta.InputCheckbox {
			if tr.IsChecked(m) {
				sb.WriteString("[x] ")
			} else {
				sb.WriteString("[ ] ")
			}
		}
		sb.WriteString(m.Label())
		if id := m.ID(); id != "" && id != m.Label() {
			sb.WriteString(fmt.Sprintf(" `%s`", id))
		}
		sb.WriteString("\n")
		writeOutline(sb, tr, m.Children, depth+1)
	}
}

// graphLabel strips characters mermaid treats as syntax.
func graphLabel(label string) string {
	label = strings.ReplaceAll(label, "\"", "'")
	label = strings.NewReplacer("[", "", "]", "", "(", "", ")", "").Replace(label)
	if r := []rune(label); len(r) > maxGraphLabel {
		label = string(r[:maxGraphLabel-3]) + "..."
	}
	return label
}

// SaveMarkdownToFile writes the generated markdown to a file
func SaveMarkdownToFile(tr *tree.Tree, title, filename string) error {
	return loader.WriteAtomic(filename, []byte(GenerateMarkdown(tr, title)))
}
