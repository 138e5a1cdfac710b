// Package classify derives the activation type of projects, sections and
// items from the suffix of their title.
package classify

import (
	"sort"
	"strings"

	"github.com/marcus/autodoist/internal/models"
)

// Default suffixes
const (
	DefaultParallel           = "//"
	DefaultSequential         = "--"
	DefaultParallelSequential = "/-"
	DefaultSequentialParallel = "-/"
	DefaultInboxName          = "Inbox"
)

// Suffixes holds the title suffixes that mark each type
type Suffixes struct {
	Parallel           string `yaml:"parallel"`
	Sequential         string `yaml:"sequential"`
	ParallelSequential string `yaml:"parallel_sequential"`
	SequentialParallel string `yaml:"sequential_parallel"`
}

// DefaultSuffixes returns the stock suffix set
func DefaultSuffixes() Suffixes {
	return Suffixes{
		Parallel:           DefaultParallel,
		Sequential:         DefaultSequential,
		ParallelSequential: DefaultParallelSequential,
		SequentialParallel: DefaultSequentialParallel,
	}
}

type rule struct {
	suffix string
	typ    models.Type
}

// Classifier maps titles to types. It holds no state besides configuration.
type Classifier struct {
	rules     []rule
	fallbacks []rule
	inboxName string
	inboxType models.Type
}

// New creates a classifier. inboxType applies to the inbox project (matched
// by inboxName or the service's inbox flag).
func New(s Suffixes, inboxName string, inboxType models.Type) *Classifier {
	declared := []rule{
		{s.Parallel, models.TypeParallel},
		{s.Sequential, models.TypeSequential},
		{s.ParallelSequential, models.TypeParallelSequential},
		{s.SequentialParallel, models.TypeSequentialParallel},
	}

	var rules []rule
	for _, r := range declared {
		if r.suffix != "" {
			rules = append(rules, r)
		}
	}
	// Longest first; stable keeps declaration order on ties
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].suffix) > len(rules[j].suffix)
	})

	// Section names can't contain "/", so the stock suffixes get
	// an underscore spelling
	var fallbacks []rule
	if s.ParallelSequential == DefaultParallelSequential {
		fallbacks = append(fallbacks, rule{"_-", models.TypeParallelSequential})
	}
	if s.SequentialParallel == DefaultSequentialParallel {
		fallbacks = append(fallbacks, rule{"-_", models.TypeSequentialParallel})
	}
	if s.Parallel == DefaultParallel {
		fallbacks = append(fallbacks, rule{"_", models.TypeParallel})
	}

	return &Classifier{
		rules:     rules,
		fallbacks: fallbacks,
		inboxName: inboxName,
		inboxType: inboxType,
	}
}

// Name returns the type encoded in a title suffix
func (c *Classifier) Name(title string) models.Type {
	title = strings.TrimSpace(title)
	for _, r := range c.rules {
		if strings.HasSuffix(title, r.suffix) {
			return r.typ
		}
	}
	for _, r := range c.fallbacks {
		if strings.HasSuffix(title, r.suffix) {
			return r.typ
		}
	}
	return models.TypeNone
}

// Project returns the type of a project, honouring the inbox override
func (c *Classifier) Project(p models.Project) models.Type {
	name := strings.TrimSpace(p.Name)
	if p.IsInbox || (c.inboxName != "" && name == c.inboxName) {
		return c.inboxType
	}
	return c.Name(name)
}

// Section returns the type of a section. The synthetic no-section bucket
// has no name and so no type.
func (c *Classifier) Section(s models.Section) models.Type {
	return c.Name(s.Name)
}

// Item returns the type encoded in an item's own content
func (c *Classifier) Item(i *models.Item) models.Type {
	return c.Name(i.Content)
}
