// Package header parses the header markers in titles and flags items as
// headers. A header item is never actionable.
package header

import "strings"

// Title markers
const (
	HeaderMarker   = "** " // flag this node and what is beneath it
	UnheaderMarker = "!* " // remove the flag beneath this node
	Flag           = "* "
)

// Effect is the request carried by a title marker
type Effect int

const (
	None Effect = iota
	HeaderAll
	UnheaderAll
)

// Parse strips a leading marker from title and reports its effect
func Parse(title string) (string, Effect) {
	switch {
	case strings.HasPrefix(title, HeaderMarker):
		return title[len(HeaderMarker):], HeaderAll
	case strings.HasPrefix(title, UnheaderMarker):
		return title[len(UnheaderMarker):], UnheaderAll
	}
	return title, None
}

// IsFlagged reports whether the title marks a header
func IsFlagged(title string) bool {
	return strings.HasPrefix(title, "*")
}

// AddFlag prefixes the header flag unless already present
func AddFlag(title string) string {
	if IsFlagged(title) {
		return title
	}
	return Flag + title
}

// StripFlag removes the header flag if present
func StripFlag(title string) string {
	if !IsFlagged(title) {
		return title
	}
	title = strings.TrimPrefix(title, "*")
	return strings.TrimPrefix(title, " ")
}

// Scope accumulates the effects of the enclosing project and section
type Scope struct {
	HeaderAll   bool
	UnheaderAll bool
}

// With returns the scope extended by e
func (s Scope) With(e Effect) Scope {
	switch e {
	case HeaderAll:
		s.HeaderAll = true
	case UnheaderAll:
		s.UnheaderAll = true
	}
	return s
}
