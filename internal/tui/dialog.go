package tui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DialogKind selects the title and colour of a dialog.
type DialogKind int

// Supported dialog kinds.
const (
	DialogInfo DialogKind = iota
	DialogSuccess
	DialogWarning
	DialogError
)

var dialogTitles = map[DialogKind]string{
	DialogInfo:    "INFO",
	DialogSuccess: "SUCCESS",
	DialogWarning: "WARNING",
	DialogError:   "ERROR",
}

var dialogColors = map[DialogKind]lipgloss.Color{
	DialogInfo:    lipgloss.Color("6"),
	DialogSuccess: lipgloss.Color("2"),
	DialogWarning: lipgloss.Color("3"),
	DialogError:   lipgloss.Color("1"),
}

// String returns the dialog title.
func (k DialogKind) String() string {
	title, ok := dialogTitles[k]
	if !ok {
		return dialogTitles[DialogInfo]
	}

	return title
}

// Dialog writes a bordered box with a title line followed by lines.
func Dialog(w io.Writer, kind DialogKind, lines ...string) error {
	r := lipgloss.NewRenderer(w)

	color, ok := dialogColors[kind]
	if !ok {
		color = dialogColors[DialogInfo]
	}

	title := r.NewStyle().Bold(true).Foreground(color).Render(kind.String())

	body := title
	if len(lines) > 0 {
		body += "\n\n" + strings.Join(lines, "\n")
	}

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(body)

	_, err := io.WriteString(w, box+"\n")

	return err
}
