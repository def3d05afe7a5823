package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
)

var (
	stylePanel   = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	styleDwell   = tcell.StyleDefault.Background(tcell.ColorDarkGoldenrod).Foreground(tcell.ColorBlack)
	styleFocused = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorWhite).Bold(true)
	styleStatus  = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleLog     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleCursor  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

const (
	cursorIdle        = '+'
	cursorInteractive = '◎'
)

// draw renders the scene, the cursor, the event log and the status line.
func (m *Demo) draw() {
	v := m.snapshot()
	w, h := m.screen.Size()
	if w <= 0 || h <= 1 {
		return
	}
	vh := h - 1 // last row is the status line

	m.screen.Clear()

	for _, p := range m.scene.Panels() {
		x0, y0, x1, y1 := w, vh, -1, -1
		visible := true
		for _, c := range p.Corners() {
			x, y, ok := m.cam.Project(c, w, vh)
			if !ok {
				visible = false
				break
			}
			x0, x1 = min(x0, x), max(x1, x)
			y0, y1 = min(y0, y), max(y1, y)
		}
		if !visible {
			continue
		}

		style := stylePanel
		if _, ok := v.focused[p.Name]; ok {
			style = styleFocused
		} else if v.dwell[p.Name] > 0 {
			style = styleDwell
		}
		fill(m.screen, x0, y0, x1, y1, vh, w, style)

		label := p.Name
		if d := v.dwell[p.Name]; d > 0 {
			label = fmt.Sprintf("%s %d", p.Name, d)
		}
		putString(m.screen, (x0+x1)/2-len(label)/2, (y0+y1)/2, label, style, w)
	}

	for i, line := range v.recent {
		putString(m.screen, 1, i, line, styleLog, w)
	}

	cursor := cursorIdle
	if v.cursorOn {
		cursor = cursorInteractive
	}
	if m.mouseX >= 0 && m.mouseX < w && m.mouseY >= 0 && m.mouseY < vh {
		m.screen.SetContent(m.mouseX, m.mouseY, cursor, nil, styleCursor)
	}

	names := make([]string, 0, len(v.focused))
	for n := range v.focused {
		names = append(names, n)
	}
	sort.Strings(names)
	focus := "none"
	if len(names) > 0 {
		focus = strings.Join(names, ",")
	}
	status := fmt.Sprintf(" frame %d  focus: %s  misses: %d  | click/enter activate  arrows swipe  a/b/x/y buttons  q quit", v.frame, focus, v.misses)
	fill(m.screen, 0, h-1, w-1, h-1, h, w, styleStatus)
	putString(m.screen, 0, h-1, status, styleStatus, w)

	m.screen.Show()
}

func fill(s tcell.Screen, x0, y0, x1, y1, maxY, maxX int, style tcell.Style) {
	for y := max(y0, 0); y <= y1 && y < maxY; y++ {
		for x := max(x0, 0); x <= x1 && x < maxX; x++ {
			s.SetContent(x, y, ' ', nil, style)
		}
	}
}

func putString(s tcell.Screen, x, y int, str string, style tcell.Style, maxX int) {
	for _, r := range str {
		if x >= maxX {
			return
		}
		if x >= 0 {
			s.SetContent(x, y, r, nil, style)
		}
		x++
	}
}
