package engine

import (
	"github.com/marcus/autodoist/internal/header"
	"github.com/marcus/autodoist/internal/hierarchy"
	"github.com/marcus/autodoist/internal/models"
)

// propagate applies the next-action rules to one item and its direct
// children. It returns false when the item is not actionable.
func (p *pass) propagate(idx *hierarchy.Index, it *models.Item, proj, sec *accumulator) bool {
	if it.Completed || header.IsFlagged(it.Content) {
		p.removeLabel(it)
		return false
	}
	underHeader, err := idx.AnyAncestor(it, isHeader)
	if err != nil {
		p.isolate(it, err)
		return false
	}
	if underHeader {
		p.removeLabel(it)
		return false
	}

	itemType, err := idx.ResolveType(it, p.e.classifier.Item)
	if err != nil {
		p.isolate(it, err)
		return false
	}
	if itemType != models.TypeNone {
		p.e.logger.Debug("identified item type", "item", it.ID, "content", it.Content, "type", itemType)
	}

	root := isRoot(idx, it)
	if root {
		p.labelRoot(it, itemType, proj, sec)
	}

	// Nearest scope wins
	active := firstType(itemType, sec.typ, proj.typ)
	label := p.e.opts.Label

	// A sub-item only holds the label when its parent handed it down
	// during this pass; anything else is left over from earlier state.
	live := it.HasLabel(label) && (root || p.activated[it.ID])
	if !live && active != models.TypeNone {
		p.removeLabel(it)
	}

	children := idx.IncompleteChildren(it.ID)
	if len(children) == 0 {
		return true
	}

	switch {
	case active == models.TypeSequential || active == models.TypeParallelSequential:
		holds := live
		for _, c := range children {
			if isHeader(c) {
				continue
			}
			if holds {
				p.activate(c)
				p.removeLabel(it)
				holds = false
			} else {
				p.removeLabel(c)
			}
		}

	case active == models.TypeParallel || (active == models.TypeSequentialParallel && live):
		p.removeLabel(it)
		for _, c := range children {
			if isHeader(c) {
				continue
			}
			p.activate(c)
		}
	}
	return true
}

// labelRoot decides whether a root item holds the label
func (p *pass) labelRoot(it *models.Item, itemType models.Type, proj, sec *accumulator) {
	switch {
	case itemType != models.TypeNone:
		p.addLabel(it)
	case sec.typ != models.TypeNone:
		p.labelGated(it, sec)
	case proj.typ != models.TypeNone:
		p.labelGated(it, proj)
	}

	if sec.typ != models.TypeNone {
		sec.firstFound = true
	}
	if proj.typ != models.TypeNone {
		proj.firstFound = true
	}
}

// labelGated labels the first root of a sequential scope and every root of a
// parallel one
func (p *pass) labelGated(it *models.Item, acc *accumulator) {
	if !acc.typ.IsSequential() {
		p.addLabel(it)
		return
	}
	if acc.firstFound {
		p.removeLabel(it)
		return
	}
	p.addLabel(it)
	acc.firstFound = true
}

// activate hands the label down to a child
func (p *pass) activate(c *models.Item) {
	p.addLabel(c)
	p.activated[c.ID] = true
}

// isRoot reports whether it starts a tree in idx. Items whose parent is
// missing from the snapshot count as roots.
func isRoot(idx *hierarchy.Index, it *models.Item) bool {
	_, hasParent := idx.Parent(it)
	return !hasParent
}

func isHeader(it *models.Item) bool {
	return header.IsFlagged(it.Content)
}

func firstType(types ...models.Type) models.Type {
	for _, t := range types {
		if t != models.TypeNone {
			return t
		}
	}
	return models.TypeNone
}
