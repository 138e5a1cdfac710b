// Package engine computes one cycle: it walks a snapshot of the task
// hierarchy and returns the batch of mutations that keeps next-action labels
// and recurring sub-items up to date.
package engine

import (
	"cmp"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/marcus/autodoist/internal/classify"
	"github.com/marcus/autodoist/internal/dateparse"
	"github.com/marcus/autodoist/internal/header"
	"github.com/marcus/autodoist/internal/hierarchy"
	"github.com/marcus/autodoist/internal/models"
)

// Options configures a pass
type Options struct {
	// Label is the next-action label. Empty disables labelling.
	Label string
	// Regeneration is the global regeneration mode. Nil disables regeneration.
	Regeneration *models.RegenMode
	// RegenLabels override the global mode per item; index is the mode.
	RegenLabels [3]string
	// EndHour is the alternate end of day (1-24). Zero disables it.
	EndHour int
	// HideFuture removes the label from items due this many days out or more
	HideFuture int
	// DateFormat is the strftime format of absolute start dates
	DateFormat string
}

// TracksWatermarks reports whether recurring roots need a due-date watermark
func (o Options) TracksWatermarks() bool {
	return o.Regeneration != nil || o.EndHour > 0
}

// Enabled reports whether any functionality is turned on
func (o Options) Enabled() bool {
	return o.Label != "" || o.TracksWatermarks()
}

// Engine runs passes. It keeps no state between passes.
type Engine struct {
	opts       Options
	classifier *classify.Classifier
	logger     *slog.Logger
}

// New creates an engine
func New(opts Options, c *classify.Classifier, logger *slog.Logger) *Engine {
	if opts.DateFormat == "" {
		opts.DateFormat = dateparse.DefaultFormat
	}
	if opts.RegenLabels == [3]string{} {
		opts.RegenLabels = models.DefaultRegenLabels
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, classifier: c, logger: logger}
}

// Options returns the effective options
func (e *Engine) Options() Options {
	return e.opts
}

// Result is the outcome of a pass
type Result struct {
	Batch models.Batch
	// Final is the snapshot as it will look once Batch is applied
	Final *models.Snapshot
	// Labeled lists the items holding the label at the end of the pass
	Labeled []string
	// Skipped maps isolated items to the reason they were left out
	Skipped map[string]error
}

// accumulator tracks "first root labeled" for a project or section
type accumulator struct {
	typ        models.Type
	firstFound bool
}

type pass struct {
	e     *Engine
	now   time.Time
	today time.Time
	regen map[string]bool
	// activated holds the sub-items handed the label during this pass
	activated map[string]bool
	result    *Result
}

// Plan runs one pass over snap as of now. snap is not modified.
func (e *Engine) Plan(snap *models.Snapshot, now time.Time) *Result {
	work := snap.Clone()
	p := &pass{
		e:         e,
		now:       now,
		today:     dateparse.Day(now),
		regen:     make(map[string]bool),
		activated: make(map[string]bool),
		result:    &Result{Final: work, Skipped: make(map[string]error)},
	}

	p.run(work)

	p.result.Batch = diff(snap, work)
	if e.opts.Label != "" {
		for _, it := range work.Items {
			if it.HasLabel(e.opts.Label) {
				p.result.Labeled = append(p.result.Labeled, it.ID)
			}
		}
	}
	return p.result
}

func (p *pass) run(work *models.Snapshot) {
	projects := make([]*models.Project, len(work.Projects))
	for i := range work.Projects {
		projects[i] = &work.Projects[i]
	}
	slices.SortStableFunc(projects, func(a, b *models.Project) int {
		return cmp.Compare(a.Order, b.Order)
	})

	sections := make(map[string][]*models.Section)
	for i := range work.Sections {
		s := &work.Sections[i]
		sections[s.ProjectID] = append(sections[s.ProjectID], s)
	}
	for id := range sections {
		slices.SortStableFunc(sections[id], func(a, b *models.Section) int {
			return cmp.Compare(a.Order, b.Order)
		})
	}

	type bucket struct{ project, section string }
	items := make(map[bucket][]*models.Item)
	for i := range work.Items {
		it := &work.Items[i]
		items[bucket{it.ProjectID, it.SectionID}] = append(items[bucket{it.ProjectID, it.SectionID}], it)
	}

	for _, proj := range projects {
		scope := header.Scope{}
		if name, effect := header.Parse(proj.Name); effect != header.None {
			proj.Name = name
			scope = scope.With(effect)
		}
		pacc := &accumulator{typ: p.e.classifier.Project(*proj)}
		if pacc.typ != models.TypeNone {
			p.e.logger.Debug("identified project type", "project", proj.Name, "type", pacc.typ)
		}

		// The no-section bucket comes first
		p.section(items[bucket{proj.ID, ""}], scope, pacc, &accumulator{})
		for _, sec := range sections[proj.ID] {
			sscope := scope
			if name, effect := header.Parse(sec.Name); effect != header.None {
				sec.Name = name
				sscope = sscope.With(effect)
			}
			sacc := &accumulator{typ: p.e.classifier.Section(*sec)}
			if sacc.typ != models.TypeNone {
				p.e.logger.Debug("identified section type", "section", sec.Name, "type", sacc.typ)
			}
			p.section(items[bucket{proj.ID, sec.ID}], sscope, pacc, sacc)
			delete(items, bucket{proj.ID, sec.ID})
		}
		delete(items, bucket{proj.ID, ""})
	}

	// Whatever is left belongs to no known project or section
	for b, orphans := range items {
		for _, it := range orphans {
			p.e.logger.Debug("skipping item outside known sections",
				"item", it.ID, "project", b.project, "section", b.section)
		}
	}
}

func (p *pass) section(items []*models.Item, scope header.Scope, proj, sec *accumulator) {
	if len(items) == 0 {
		return
	}
	idx := hierarchy.Build(items)

	broken := make([]string, 0, len(idx.Broken()))
	for id := range idx.Broken() {
		broken = append(broken, id)
	}
	sort.Strings(broken)
	for _, id := range broken {
		err := idx.Broken()[id]
		it, _ := idx.Item(id)
		p.isolate(it, err)
	}

	for _, it := range idx.Order() {
		p.visit(idx, it, scope, proj, sec)
	}
}

func (p *pass) visit(idx *hierarchy.Index, it *models.Item, scope header.Scope, proj, sec *accumulator) {
	p.applyHeaders(idx, it, scope)

	if p.e.opts.TracksWatermarks() {
		p.regenerate(idx, it)
	}

	if p.e.opts.Label == "" {
		return
	}
	if p.propagate(idx, it, proj, sec) {
		p.gate(idx, it)
	}
}

func (p *pass) applyHeaders(idx *hierarchy.Index, it *models.Item, scope header.Scope) {
	content, effect := header.Parse(it.Content)
	it.Content = content

	if scope.HeaderAll || effect == header.HeaderAll {
		it.Content = header.AddFlag(it.Content)
		for _, c := range idx.IncompleteChildren(it.ID) {
			c.Content = header.AddFlag(c.Content)
		}
	}
	if scope.UnheaderAll {
		it.Content = header.StripFlag(it.Content)
	}
	if effect == header.UnheaderAll {
		for _, c := range idx.IncompleteChildren(it.ID) {
			c.Content = header.StripFlag(c.Content)
		}
	}
}

// isolate records a per-item data error; the rest of the pass continues
func (p *pass) isolate(it *models.Item, err error) {
	p.result.Skipped[it.ID] = err
	p.e.logger.Warn("skipping item", "item", it.ID, "content", it.Content, "err", err)
}

func (p *pass) addLabel(it *models.Item) {
	if it.HasLabel(p.e.opts.Label) {
		return
	}
	p.e.logger.Debug("adding label", "item", it.ID, "content", it.Content)
	it.Labels = append(it.Labels, p.e.opts.Label)
}

func (p *pass) removeLabel(it *models.Item) {
	if !it.HasLabel(p.e.opts.Label) {
		return
	}
	p.e.logger.Debug("removing label", "item", it.ID, "content", it.Content)
	it.Labels = slices.DeleteFunc(it.Labels, func(l string) bool {
		return l == p.e.opts.Label
	})
}
