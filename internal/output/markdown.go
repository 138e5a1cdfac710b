package output

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// minDocumentWidth keeps the conventions tables readable in narrow panes
const minDocumentWidth = 40

// Width reports the columns to format for: the terminal size, then
// $COLUMNS, then fallback.
func Width(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return fallback
}

// Document renders markdown for the terminal. Piped output gets the source
// unchanged, as does anything glamour fails on.
func Document(md string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return md
	}
	out, err := renderDocument(md, Width(100))
	if err != nil {
		return md
	}
	return out
}

func renderDocument(md string, width int) (string, error) {
	if strings.TrimSpace(md) == "" {
		return "", nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width, minDocumentWidth)),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n") + "\n", nil
}
