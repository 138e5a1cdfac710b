package engine

import (
	"errors"
	"time"

	"github.com/marcus/autodoist/internal/dateparse"
	"github.com/marcus/autodoist/internal/hierarchy"
	"github.com/marcus/autodoist/internal/models"
)

// gate removes the label from items that should not be visible yet.
// Malformed annotations are reported and leave the label state untouched.
func (p *pass) gate(idx *hierarchy.Index, it *models.Item) {
	loc := p.now.Location()

	if p.e.opts.HideFuture > 0 && it.Due != nil && it.Due.Date != "" {
		due, err := dateparse.ParseDue(it.Due.Date, loc)
		if err != nil {
			p.e.logger.Warn("invalid due date", "item", it.ID, "content", it.Content, "err", err)
		} else if dateparse.DaysBetween(p.today, due) >= p.e.opts.HideFuture {
			p.removeLabel(it)
			return
		}
	}

	token, ok := dateparse.StartToken(it.Content)
	if !ok {
		return
	}

	var start time.Time
	var err error
	if dateparse.IsRelative(token) {
		var due string
		if it.Due != nil {
			due = it.Due.Date
		}
		start, err = dateparse.RelativeStart(token, due, loc)
		if errors.Is(err, dateparse.ErrNoDueDate) {
			p.e.logger.Warn("no due date to determine start date", "item", it.ID, "content", it.Content)
			return
		}
	} else {
		start, err = dateparse.ParseAbsolute(token, p.e.opts.DateFormat, loc)
	}
	if err != nil {
		p.e.logger.Warn("invalid start date", "item", it.ID, "content", it.Content, "err", err)
		return
	}

	if p.today.Before(start) {
		p.removeLabel(it)
		for _, c := range idx.IncompleteChildren(it.ID) {
			p.removeLabel(c)
		}
	}
}
