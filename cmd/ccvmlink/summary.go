package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	ccvmlink "github.com/wippyai/ccvm-link"
	"github.com/wippyai/ccvm-link/ir"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	regionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	symbolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	removedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// printer renders the layout summary, styled or plain.
type printer struct {
	w     io.Writer
	color bool
}

func (p printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p printer) summary(file string, res *ccvmlink.Result, showRemoved bool) {
	tab := res.Program.Symbols
	l := res.Layout

	fmt.Fprintln(p.w, p.style(titleStyle, "ccvm layout: "+file))
	fmt.Fprintln(p.w)

	for _, r := range l.Regions {
		var size uint32
		for _, id := range r.Symbols {
			if obj, ok := tab.Object(id); ok {
				size += obj.Size
			}
		}
		fmt.Fprintf(p.w, "%s %s\n",
			p.style(regionStyle, fmt.Sprintf("%-10s", r.Name)),
			p.style(helpStyle, fmt.Sprintf("%d symbols, %d bytes", len(r.Symbols), size)))
		for _, id := range r.Symbols {
			obj, _ := tab.Object(id)
			fmt.Fprintf(p.w, "    %s %s\n",
				p.style(symbolStyle, obj.Name),
				p.style(helpStyle, fmt.Sprintf("(%s, %s, %d bytes)", ir.KindName(tab.Get(id)), obj.Section.Name, obj.Size)))
		}
	}

	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "stack %d bytes, heap %d bytes, %d exports\n", l.StackSize, l.HeapSize, len(res.Program.Exports))
	fmt.Fprintf(p.w, "%d removed symbols\n", len(l.Removed))
	if showRemoved && len(l.Removed) > 0 {
		names := make([]string, len(l.Removed))
		for i, id := range l.Removed {
			names[i] = tab.Name(id)
		}
		fmt.Fprintln(p.w, "    "+p.style(removedStyle, strings.Join(names, ", ")))
	}
	if w := res.Warnings(); len(w) > 0 {
		fmt.Fprintf(p.w, "%s\n", p.style(removedStyle, fmt.Sprintf("%d warnings", len(w))))
	}
	fmt.Fprintf(p.w, "fingerprint %016x\n", res.Fingerprint())
}
