package ui

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treeview/pkg/tree"
)

// commandHelp describes each tree command in the help overlay.
var commandHelp = map[tree.Command]string{
	tree.CmdActivateItem:        "Toggle checkbox / pick radio",
	tree.CmdSelectItem:          "Toggle selection",
	tree.CmdFocusFirstItem:      "First node",
	tree.CmdFocusLastItem:       "Last visible node",
	tree.CmdCollapseFocusedItem: "Collapse, or go to parent",
	tree.CmdExpandFocusedItem:   "Expand, or go to first child",
	tree.CmdFocusPreviousItem:   "Previous node",
	tree.CmdFocusNextItem:       "Next node",
	tree.CmdInsertItem:          "Add child",
	tree.CmdDeleteItem:          "Delete node",
}

const helpViewKeys = `
**Drag and drop**

| Key | Action |
|---|---|
| x | Cut focused node |
| c | Copy focused node |
| p / P | Paste after / before focus |
| > | Paste into focus |
| Esc | Cancel |

**View**

| Key | Action |
|---|---|
| / | Filter by label |
| E / C | Expand / collapse all |
| y | Copy node id |
| Ctrl+S | Save data file |
| q | Quit |
`

// HelpMarkdown lists the active bindings as markdown.
func HelpMarkdown(keys tree.KeyMap) string {
	var b strings.Builder
	b.WriteString("## Tree\n\n| Key | Action |\n|---|---|\n")
	for _, cmd := range tree.Commands() {
		bound := keys[cmd]
		if len(bound) == 0 {
			continue
		}
		names := make([]string, len(bound))
		for i, k := range bound {
			names[i] = keyName(k)
		}
		fmt.Fprintf(&b, "| %s | %s |\n", strings.Join(names, " / "), commandHelp[cmd])
	}
	b.WriteString(helpViewKeys)
	return b.String()
}

func keyName(k string) string {
	if k == " " {
		return "Space"
	}
	return k
}

// RenderHelp renders the help modal for the given width.
func RenderHelp(theme Theme, keys tree.KeyMap, width int) string {
	r := theme.Renderer

	modalWidth := 64
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 20 {
		modalWidth = 20
	}

	content := HelpMarkdown(keys)
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(modalWidth-6),
	)
	if err == nil {
		if out, rerr := md.Render(content); rerr == nil {
			content = strings.TrimSpace(out)
		} else {
			log.Printf("warning: failed to render help: %v", rerr)
		}
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)

	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Esc or ? to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return modalStyle.Render(b.String())
}
