package dateparse

import (
	"errors"
	"testing"
	"time"
)

// Fixed reference time: Wednesday, 2026-02-18 12:00:00 UTC
var testNow = time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)

func TestStartToken(t *testing.T) {
	tests := []struct {
		title string
		want  string
		found bool
	}{
		{"Buy milk start=01-01-2099", "01-01-2099", true},
		{"start=01-01-2099 Buy milk", "01-01-2099", true},
		{"Pay rent start=due-3d now", "due-3d", true},
		{"Buy milk", "", false},
		{"Buy milk start=", "", true},
	}
	for _, tt := range tests {
		got, ok := StartToken(tt.title)
		if ok != tt.found || got != tt.want {
			t.Errorf("StartToken(%q) = %q, %v; want %q, %v", tt.title, got, ok, tt.want, tt.found)
		}
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		token   string
		want    int
		wantErr bool
	}{
		{"due-3d", 3, false},
		{"due-0d", 0, false},
		{"due-2w", 14, false},
		{"due-10d", 10, false},
		{"due-d", 0, true},
		{"due-3m", 0, true},
		{"due-3", 0, true},
		{"due-3dx", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOffset(tt.token)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseOffset(%q): expected error, got %d", tt.token, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOffset(%q): unexpected error: %v", tt.token, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOffset(%q) = %d, want %d", tt.token, got, tt.want)
		}
	}
}

func TestParseAbsolute(t *testing.T) {
	tests := []struct {
		token  string
		format string
		want   string
	}{
		{"01-01-2099", "%d-%m-%Y", "2099-01-01"},
		{"01-01-2099", "", "2099-01-01"},
		{"2026-03-05", "%Y-%m-%d", "2026-03-05"},
		{"03/05/26", "%m/%d/%y", "2026-03-05"},
	}
	for _, tt := range tests {
		got, err := ParseAbsolute(tt.token, tt.format, time.UTC)
		if err != nil {
			t.Errorf("ParseAbsolute(%q, %q): unexpected error: %v", tt.token, tt.format, err)
			continue
		}
		if FormatDate(got) != tt.want {
			t.Errorf("ParseAbsolute(%q, %q) = %s, want %s", tt.token, tt.format, FormatDate(got), tt.want)
		}
	}
}

func TestParseAbsoluteMismatch(t *testing.T) {
	if _, err := ParseAbsolute("2099-01-01", DefaultFormat, time.UTC); err == nil {
		t.Error("expected error for date not matching format")
	}
	if _, err := ParseAbsolute("", DefaultFormat, time.UTC); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestParseDue(t *testing.T) {
	got, err := ParseDue("2026-02-20T09:30:00", time.UTC)
	if err != nil {
		t.Fatalf("ParseDue: unexpected error: %v", err)
	}
	if FormatDate(got) != "2026-02-20" {
		t.Errorf("ParseDue datetime = %s, want 2026-02-20", FormatDate(got))
	}

	if _, err := ParseDue("", time.UTC); !errors.Is(err, ErrNoDueDate) {
		t.Errorf("ParseDue empty: got %v, want ErrNoDueDate", err)
	}
	if _, err := ParseDue("tomorrow", time.UTC); err == nil {
		t.Error("ParseDue: expected error for non-date")
	}
}

func TestRelativeStart(t *testing.T) {
	got, err := RelativeStart("due-1w", "2026-02-25", time.UTC)
	if err != nil {
		t.Fatalf("RelativeStart: unexpected error: %v", err)
	}
	if FormatDate(got) != "2026-02-18" {
		t.Errorf("RelativeStart = %s, want 2026-02-18", FormatDate(got))
	}

	if _, err := RelativeStart("due-1w", "", time.UTC); !errors.Is(err, ErrNoDueDate) {
		t.Errorf("RelativeStart without due: got %v, want ErrNoDueDate", err)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		to   time.Time
		want int
	}{
		{testNow, 0},
		{time.Date(2026, 2, 18, 23, 59, 0, 0, time.UTC), 0},
		{time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 10},
		{time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 11},
		{time.Date(2026, 2, 17, 23, 0, 0, 0, time.UTC), -1},
	}
	for _, tt := range tests {
		if got := DaysBetween(testNow, tt.to); got != tt.want {
			t.Errorf("DaysBetween(now, %s) = %d, want %d", tt.to, got, tt.want)
		}
	}
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat(DefaultFormat); err != nil {
		t.Errorf("ValidateFormat(default): %v", err)
	}
}
