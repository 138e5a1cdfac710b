// Package dateparse handles the date strings found on items: due dates and
// the start annotations embedded in item titles.
//
// Supported annotations:
//   - Absolute: "start=01-03-2026" (parsed with a strftime format)
//   - Relative to the due date: "start=due-3d", "start=due-2w"
package dateparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// DefaultFormat is the strftime format of absolute start dates
const DefaultFormat = "%d-%m-%Y"

const (
	dueLayout      = "2006-01-02"
	startPrefix    = "start="
	relativePrefix = "due-"
)

// ErrNoDueDate is returned when a relative start needs a due date that is missing
var ErrNoDueDate = errors.New("no due date")

var relativePattern = regexp.MustCompile(`^due-(\d+)([dw])$`)

// StartToken returns the text following the first "start=" in a title, up to
// the next space or the end of the title.
func StartToken(title string) (string, bool) {
	i := strings.Index(title, startPrefix)
	if i < 0 {
		return "", false
	}
	token := title[i+len(startPrefix):]
	if end := strings.IndexByte(token, ' '); end >= 0 {
		token = token[:end]
	}
	return token, true
}

// IsRelative reports whether a start token is relative to the due date
func IsRelative(token string) bool {
	return strings.HasPrefix(token, relativePrefix)
}

// ParseOffset parses a relative token ("due-3d", "due-2w") into days
func ParseOffset(token string) (int, error) {
	m := relativePattern.FindStringSubmatch(token)
	if m == nil {
		return 0, fmt.Errorf("invalid relative start %q (use due-<N>d or due-<N>w)", token)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid relative start %q: %w", token, err)
	}
	if m[2] == "w" {
		n *= 7
	}
	return n, nil
}

// ParseAbsolute parses an absolute start token with a strftime format
func ParseAbsolute(token, format string, loc *time.Location) (time.Time, error) {
	if format == "" {
		format = DefaultFormat
	}
	if err := ValidateFormat(format); err != nil {
		return time.Time{}, err
	}
	t, err := strftime.Parse(format, token)
	if err != nil {
		return time.Time{}, fmt.Errorf("start date %q does not match %q", token, format)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}

// ValidateFormat checks that a strftime format can be used for start dates
func ValidateFormat(format string) error {
	if _, err := strftime.Layout(format); err != nil {
		return fmt.Errorf("date format %q: %w", format, err)
	}
	return nil
}

// ParseDue parses a due date. Datetimes are reduced to their date.
func ParseDue(date string, loc *time.Location) (time.Time, error) {
	if date == "" {
		return time.Time{}, ErrNoDueDate
	}
	if len(date) > len(dueLayout) {
		date = date[:len(dueLayout)]
	}
	t, err := time.ParseInLocation(dueLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("due date %q: %w", date, err)
	}
	return t, nil
}

// RelativeStart computes the start date of a relative token from a due date
func RelativeStart(token, due string, loc *time.Location) (time.Time, error) {
	days, err := ParseOffset(token)
	if err != nil {
		return time.Time{}, err
	}
	d, err := ParseDue(due, loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.AddDate(0, 0, -days), nil
}

// Day truncates t to midnight in its own location
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b (negative when b is earlier)
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	// UTC midnights avoid DST-length days
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// FormatDate formats t as a due date
func FormatDate(t time.Time) string {
	return t.Format(dueLayout)
}
