package engine

import (
	"github.com/marcus/autodoist/internal/dateparse"
	"github.com/marcus/autodoist/internal/hierarchy"
	"github.com/marcus/autodoist/internal/models"
)

// regenerate tracks the due-date watermark of recurring roots and reopens
// the sub-items of a root that rolled over, one level per visit.
func (p *pass) regenerate(idx *hierarchy.Index, it *models.Item) {
	root := isRoot(idx, it)
	if root && it.IsRecurring() {
		p.rollover(idx, it)
	}

	if p.e.opts.Regeneration == nil || root || !p.regen[it.ID] {
		return
	}
	delete(p.regen, it.ID)
	for _, c := range idx.Children(it.ID) {
		p.markRegen(c)
	}
}

func (p *pass) rollover(idx *hierarchy.Index, it *models.Item) {
	due := it.Due.Date
	if it.Watermark == "" {
		p.e.logger.Debug("new recurring item", "item", it.ID, "content", it.Content, "due", due)
		it.Watermark = due
		return
	}
	if it.Watermark == due {
		return
	}

	previous := it.Watermark
	it.Watermark = due

	if p.e.opts.Regeneration != nil {
		mode := p.regenMode(it)
		regen := mode == models.RegenAll ||
			(mode == models.RegenAllIfCompleted && len(idx.IncompleteChildren(it.ID)) == 0)
		if regen {
			p.e.logger.Debug("regenerating sub-items", "item", it.ID, "content", it.Content, "mode", mode.String())
			for _, c := range idx.Children(it.ID) {
				p.markRegen(c)
			}
		}
	}

	if p.e.opts.EndHour > 0 {
		p.snapToToday(it, previous)
	}
}

// markRegen flags an item for regeneration and reopens it. The flag is
// handed down to its children when the item is visited.
func (p *pass) markRegen(it *models.Item) {
	p.regen[it.ID] = true
	if it.Completed {
		p.e.logger.Debug("reopening item", "item", it.ID, "content", it.Content)
		it.Completed = false
	}
}

// regenMode resolves the mode of a root: a single override label wins over
// the global mode.
func (p *pass) regenMode(it *models.Item) models.RegenMode {
	var found []models.RegenMode
	for i, name := range p.e.opts.RegenLabels {
		if name != "" && it.HasLabel(name) {
			found = append(found, models.RegenMode(i))
		}
	}
	switch len(found) {
	case 0:
		return *p.e.opts.Regeneration
	case 1:
		return found[0]
	}
	p.e.logger.Warn("multiple regeneration labels, using the global mode", "item", it.ID, "content", it.Content)
	return *p.e.opts.Regeneration
}

// snapToToday moves a daily recurrence back to today when it rolled over
// before the alternate end of day while already overdue.
func (p *pass) snapToToday(it *models.Item, previous string) {
	if p.now.Hour() >= p.e.opts.EndHour {
		return
	}
	loc := p.now.Location()
	next, err := dateparse.ParseDue(it.Due.Date, loc)
	if err != nil {
		p.e.logger.Warn("invalid due date", "item", it.ID, "content", it.Content, "err", err)
		return
	}
	old, err := dateparse.ParseDue(previous, loc)
	if err != nil {
		p.e.logger.Warn("invalid watermark", "item", it.ID, "watermark", previous, "err", err)
		return
	}

	if dateparse.DaysBetween(p.today, next) != 1 || dateparse.DaysBetween(old, p.today) < 1 {
		return
	}
	today := dateparse.FormatDate(p.today)
	p.e.logger.Debug("moving due date to today", "item", it.ID, "content", it.Content, "from", it.Due.Date, "to", today)
	it.Due.Date = today
	it.Watermark = today
}
