package classify

import (
	"testing"

	"github.com/marcus/autodoist/internal/models"
)

func TestNameDefaultSuffixes(t *testing.T) {
	c := New(DefaultSuffixes(), DefaultInboxName, models.TypeNone)

	tests := []struct {
		title string
		want  models.Type
	}{
		{"Task//", models.TypeParallel},
		{"Task--", models.TypeSequential},
		{"Task/-", models.TypeParallelSequential},
		{"Task-/", models.TypeSequentialParallel},
		{"  Task//  ", models.TypeParallel},
		{"Task", models.TypeNone},
		{"", models.TypeNone},
		{"Task/", models.TypeNone},
		{"Task-", models.TypeNone},

		// Section-friendly spellings
		{"Errands_-", models.TypeParallelSequential},
		{"Errands-_", models.TypeSequentialParallel},
		{"Errands_", models.TypeParallel},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := c.Name(tt.title); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNameLongestSuffixWins(t *testing.T) {
	c := New(Suffixes{
		Parallel:           "!",
		Sequential:         "!!",
		ParallelSequential: "",
		SequentialParallel: "",
	}, DefaultInboxName, models.TypeNone)

	if got := c.Name("Plan!!"); got != models.TypeSequential {
		t.Errorf("Name(Plan!!) = %q, want sequential", got)
	}
	if got := c.Name("Plan!"); got != models.TypeParallel {
		t.Errorf("Name(Plan!) = %q, want parallel", got)
	}
}

func TestNameTieKeepsDeclarationOrder(t *testing.T) {
	// Same suffix declared twice: the first declared type wins
	c := New(Suffixes{
		Parallel:           "++",
		Sequential:         "++",
		ParallelSequential: "/-",
		SequentialParallel: "-/",
	}, DefaultInboxName, models.TypeNone)

	if got := c.Name("Plan++"); got != models.TypeParallel {
		t.Errorf("Name(Plan++) = %q, want parallel", got)
	}
}

func TestNameCustomSuffixesDisableFallbacks(t *testing.T) {
	c := New(Suffixes{
		Parallel:           "#p",
		Sequential:         "#s",
		ParallelSequential: "#ps",
		SequentialParallel: "#sp",
	}, DefaultInboxName, models.TypeNone)

	if got := c.Name("Errands_"); got != models.TypeNone {
		t.Errorf("Name(Errands_) = %q, want none with custom suffixes", got)
	}
	if got := c.Name("Errands #ps"); got != models.TypeParallelSequential {
		t.Errorf("Name(Errands #ps) = %q, want p-s", got)
	}
}

func TestProjectInboxOverride(t *testing.T) {
	c := New(DefaultSuffixes(), DefaultInboxName, models.TypeSequential)

	tests := []struct {
		name    string
		project models.Project
		want    models.Type
	}{
		{"by name", models.Project{Name: "Inbox"}, models.TypeSequential},
		{"by flag", models.Project{Name: "Eingang", IsInbox: true}, models.TypeSequential},
		{"regular project", models.Project{Name: "Home//"}, models.TypeParallel},
		{"inbox-like name", models.Project{Name: "Inbox 2"}, models.TypeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Project(tt.project); got != tt.want {
				t.Errorf("Project(%q) = %q, want %q", tt.project.Name, got, tt.want)
			}
		})
	}
}

func TestSectionAndItem(t *testing.T) {
	c := New(DefaultSuffixes(), DefaultInboxName, models.TypeParallel)

	// The inbox override only applies to projects
	if got := c.Section(models.Section{Name: "Inbox"}); got != models.TypeNone {
		t.Errorf("Section(Inbox) = %q, want none", got)
	}
	if got := c.Section(models.Section{}); got != models.TypeNone {
		t.Errorf("Section(no-section) = %q, want none", got)
	}
	if got := c.Item(&models.Item{Content: "Pack bags--"}); got != models.TypeSequential {
		t.Errorf("Item(Pack bags--) = %q, want sequential", got)
	}
}
