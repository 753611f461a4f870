package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/djklmr2025/cosmos-den/internal/filestore"
)

type styleConfig struct {
	Title   lipgloss.Style
	Subtle  lipgloss.Style
	Err     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Dir     lipgloss.Style
	Border  lipgloss.Style
}

var styles = styleConfig{
	Title:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Err:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	Dir:     lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	Border:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

func (s styleConfig) error(text string) string { return s.Err.Render(text) }

// header renders a section title over a rule.
func header(w io.Writer, title string) {
	fmt.Fprintln(w, styles.Title.Render(title))
	fmt.Fprintln(w, styles.Border.Render(strings.Repeat("─", 56)))
}

// section renders a sub-heading padded with a rule to a fixed width.
func section(w io.Writer, title string) {
	rule := 52 - lipgloss.Width(title)
	if rule < 3 {
		rule = 3
	}
	fmt.Fprintln(w, styles.Border.Render("─── ")+title+" "+styles.Border.Render(strings.Repeat("─", rule)))
}

func decisionBadge(decision string) string {
	label := fmt.Sprintf("%-5s", decision)
	switch decision {
	case "BLOCK":
		return styles.Err.Render(label)
	case "AUDIT":
		return styles.Warning.Render(label)
	case "ALLOW":
		return styles.Success.Render(label)
	default:
		return styles.Subtle.Render(label)
	}
}

func okBadge(ok bool) string {
	if ok {
		return styles.Success.Render("ok  ")
	}
	return styles.Err.Render("FAIL")
}

// renderTree draws node with box-drawing connectors.
func renderTree(w io.Writer, node *filestore.TreeNode) {
	fmt.Fprintln(w, styles.Dir.Render(node.Name))
	renderChildren(w, node.Children, "")
}

func renderChildren(w io.Writer, children []*filestore.TreeNode, prefix string) {
	for i, child := range children {
		last := i == len(children)-1
		connector, next := "├── ", "│   "
		if last {
			connector, next = "└── ", "    "
		}
		name := child.Name
		switch child.Type {
		case filestore.TypeDirectory:
			name = styles.Dir.Render(name + "/")
		case filestore.TypeMore, filestore.TypeSymlink:
			name = styles.Subtle.Render(name)
		}
		fmt.Fprintln(w, styles.Border.Render(prefix+connector)+name)
		renderChildren(w, child.Children, prefix+next)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
