// Package report renders replay results for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/comalice/focusx"
)

const (
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorLavender lipgloss.Color = "#b4befe"
	colorTeal     lipgloss.Color = "#94e2d5"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSubtext0)
	dimStyle    = lipgloss.NewStyle().Foreground(colorOverlay1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorOverlay1).Padding(0, 1)

	kindColors = map[focusx.EventKind]lipgloss.Color{
		focusx.KindGained:    colorGreen,
		focusx.KindLost:      colorRed,
		focusx.KindSustained: colorOverlay1,
		focusx.KindActivated: colorPeach,
		focusx.KindGesture:   colorTeal,
		focusx.KindButton:    colorTeal,
		focusx.KindMiss:      colorRed,
	}
)

// Options controls what Render includes.
type Options struct {
	// Timeline lists every event, not only the per-entity summary.
	Timeline bool
	// Sustained includes sustained events in the timeline.
	Sustained bool
}

// Row summarizes one entity's events.
type Row struct {
	Name      string
	Focused   bool
	Dwell     int
	Gained    int
	Lost      int
	Activated int
	Inputs    int
}

// Summarize groups events by entity, in snapshot order. Entities that only
// appear in events (because they were unregistered) are appended.
func Summarize(events []focusx.FocusEvent, snap focusx.Snapshot) []Row {
	var rows []Row
	index := map[focusx.Handle]int{}
	for _, e := range snap.Entities {
		index[e.Handle] = len(rows)
		rows = append(rows, Row{Name: e.Name, Focused: e.Focused, Dwell: e.Dwell})
	}
	for _, ev := range events {
		if ev.Kind == focusx.KindMiss {
			continue
		}
		i, ok := index[ev.Handle]
		if !ok {
			i = len(rows)
			index[ev.Handle] = i
			rows = append(rows, Row{Name: ev.Name})
		}
		switch ev.Kind {
		case focusx.KindGained:
			rows[i].Gained++
		case focusx.KindLost:
			rows[i].Lost++
		case focusx.KindActivated:
			rows[i].Activated++
		case focusx.KindGesture, focusx.KindButton:
			rows[i].Inputs++
		}
	}
	return rows
}

// Render draws a summary box for a replay.
func Render(title string, events []focusx.FocusEvent, snap focusx.Snapshot, opts Options) string {
	var b strings.Builder

	misses := 0
	for _, ev := range events {
		if ev.Kind == focusx.KindMiss {
			misses++
		}
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("frames %d · threshold %d · events %d · misses %d",
		snap.Frame, snap.Threshold, len(events), misses)))
	b.WriteString("\n\n")

	rows := Summarize(events, snap)
	cols := []string{"entity", "focus", "dwell", "gained", "lost", "activated", "inputs"}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		focus := "-"
		if r.Focused {
			focus = "yes"
		}
		table = append(table, []string{
			r.Name, focus,
			fmt.Sprint(r.Dwell), fmt.Sprint(r.Gained), fmt.Sprint(r.Lost),
			fmt.Sprint(r.Activated), fmt.Sprint(r.Inputs),
		})
	}
	b.WriteString(renderTable(cols, table))

	if opts.Timeline {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("timeline"))
		b.WriteString("\n")
		for _, ev := range events {
			if ev.Kind == focusx.KindSustained && !opts.Sustained {
				continue
			}
			b.WriteString(timelineLine(ev))
			b.WriteString("\n")
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderTable(cols []string, rows [][]string) string {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range rows {
		for i, cell := range r {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	line := func(cells []string, style lipgloss.Style) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(style.Width(widths[i]).Render(cell))
		}
		b.WriteString("\n")
	}
	line(cols, headerStyle)
	text := lipgloss.NewStyle().Foreground(colorText)
	for _, r := range rows {
		line(r, text)
	}
	return b.String()
}

func timelineLine(ev focusx.FocusEvent) string {
	kind := lipgloss.NewStyle().Foreground(kindColors[ev.Kind]).Width(9).Render(string(ev.Kind))
	detail := ev.Name
	switch ev.Kind {
	case focusx.KindGesture:
		detail += " " + ev.Gesture.String()
	case focusx.KindButton:
		detail += fmt.Sprintf(" %s %s", ev.Button.Button, ev.Button.Phase)
	case focusx.KindMiss:
		detail = dimStyle.Render("(nothing focused)")
	}
	return fmt.Sprintf("%s %s %s", dimStyle.Render(fmt.Sprintf("%5d", ev.Frame)), kind, detail)
}
