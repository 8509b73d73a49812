// Package shell tracks which panes of the application are visible and how the
// user moves between them.
package shell

import (
	"golang.org/x/term"
)

// DesktopMinWidth is the narrowest terminal, in columns, that shows all panes side by side.
const DesktopMinWidth = 100

// Layout selects how panes are arranged.
type Layout int

const (
	// Desktop shows subjects, notes and editor at once.
	Desktop Layout = iota
	// Mobile shows one pane at a time and navigates between them.
	Mobile
)

func (l Layout) String() string {
	switch l {
	case Desktop:
		return "desktop"
	case Mobile:
		return "mobile"
	}
	return "unknown"
}

// LayoutForWidth picks the layout for a terminal width in columns.
func LayoutForWidth(cols int) Layout {
	if cols >= DesktopMinWidth {
		return Desktop
	}
	return Mobile
}

// DetectLayout inspects the terminal behind fd. Anything that is not a
// terminal, or whose size cannot be read, gets Desktop.
func DetectLayout(fd int) Layout {
	if !term.IsTerminal(fd) {
		return Desktop
	}
	cols, _, err := term.GetSize(fd)
	if err != nil {
		return Desktop
	}
	return LayoutForWidth(cols)
}
