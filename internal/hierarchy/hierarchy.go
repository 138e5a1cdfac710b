// Package hierarchy indexes the items of one section as a forest and
// provides the traversal order used by the engine.
package hierarchy

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/marcus/autodoist/internal/models"
)

// ErrCycle is returned when parent links loop back on themselves
var ErrCycle = errors.New("parent links form a cycle")

// Index is a read view over the items of one section. Items are held by
// pointer so that changes made during traversal are visible to later lookups.
type Index struct {
	byID     map[string]*models.Item
	children map[string][]*models.Item
	depth    map[string]int
	order    []*models.Item
	broken   map[string]error
}

// Build indexes items. Items caught in a parent cycle are reported by Broken
// and left out of Order.
func Build(items []*models.Item) *Index {
	x := &Index{
		byID:     make(map[string]*models.Item, len(items)),
		children: make(map[string][]*models.Item),
		depth:    make(map[string]int, len(items)),
		broken:   make(map[string]error),
	}
	for _, it := range items {
		x.byID[it.ID] = it
	}
	for _, it := range items {
		if it.ParentID != "" {
			x.children[it.ParentID] = append(x.children[it.ParentID], it)
		}
	}
	for id := range x.children {
		slices.SortStableFunc(x.children[id], bySiblingOrder)
	}

	for _, it := range items {
		d, err := x.walkDepth(it)
		if err != nil {
			x.broken[it.ID] = err
			continue
		}
		x.depth[it.ID] = d
		x.order = append(x.order, it)
	}

	// Depth first keeps every parent ahead of its children; within a level
	// the order is (parent id, sibling order)
	slices.SortStableFunc(x.order, func(a, b *models.Item) int {
		if c := cmp.Compare(x.depth[a.ID], x.depth[b.ID]); c != 0 {
			return c
		}
		if c := compareIDs(a.ParentID, b.ParentID); c != 0 {
			return c
		}
		return bySiblingOrder(a, b)
	})

	return x
}

func bySiblingOrder(a, b *models.Item) int {
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	return compareIDs(a.ID, b.ID)
}

// compareIDs orders numeric ids numerically (empty counts as zero) and
// everything else lexically after them.
func compareIDs(a, b string) int {
	na, okA := numericID(a)
	nb, okB := numericID(b)
	switch {
	case okA && okB:
		return cmp.Compare(na, nb)
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

func numericID(id string) (int64, bool) {
	if id == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil
}

// walkDepth counts ancestors present in the index
func (x *Index) walkDepth(it *models.Item) (int, error) {
	depth := 0
	visited := map[string]bool{it.ID: true}
	for cur := it; cur.ParentID != ""; {
		parent, ok := x.byID[cur.ParentID]
		if !ok {
			break
		}
		if visited[parent.ID] {
			return 0, fmt.Errorf("item %s: %w", it.ID, ErrCycle)
		}
		visited[parent.ID] = true
		depth++
		cur = parent
	}
	return depth, nil
}

// Order returns the traversal order: roots first, parents before children,
// siblings in their defined order.
func (x *Index) Order() []*models.Item {
	return x.order
}

// Broken returns the items excluded from traversal and why
func (x *Index) Broken() map[string]error {
	return x.broken
}

// Item looks up an item by id
func (x *Index) Item(id string) (*models.Item, bool) {
	it, ok := x.byID[id]
	return it, ok
}

// Parent returns the indexed parent of an item
func (x *Index) Parent(it *models.Item) (*models.Item, bool) {
	if it.ParentID == "" {
		return nil, false
	}
	return x.Item(it.ParentID)
}

// Children returns all direct children regardless of completion
func (x *Index) Children(id string) []*models.Item {
	return x.children[id]
}

// IncompleteChildren returns the direct children that are not completed,
// evaluated against the current item state.
func (x *Index) IncompleteChildren(id string) []*models.Item {
	var out []*models.Item
	for _, c := range x.children[id] {
		if !c.Completed {
			out = append(out, c)
		}
	}
	return out
}

// ResolveType returns the first non-none type found on the item or its
// ancestors. typeOf must be pure.
func (x *Index) ResolveType(it *models.Item, typeOf func(*models.Item) models.Type) (models.Type, error) {
	var found models.Type
	err := x.walkUp(it, func(cur *models.Item) bool {
		found = typeOf(cur)
		return found != models.TypeNone
	})
	return found, err
}

// AnyAncestor reports whether pred holds for a strict ancestor of the item
func (x *Index) AnyAncestor(it *models.Item, pred func(*models.Item) bool) (bool, error) {
	var hit bool
	parent, ok := x.Parent(it)
	if !ok {
		return false, nil
	}
	err := x.walkUp(parent, func(cur *models.Item) bool {
		hit = pred(cur)
		return hit
	})
	return hit, err
}

// walkUp visits the item and then each ancestor until stop returns true or
// the top of the indexed forest is reached.
func (x *Index) walkUp(it *models.Item, stop func(*models.Item) bool) error {
	visited := make(map[string]bool)
	for cur := it; ; {
		if visited[cur.ID] {
			return fmt.Errorf("item %s: %w", it.ID, ErrCycle)
		}
		visited[cur.ID] = true
		if stop(cur) {
			return nil
		}
		parent, ok := x.Parent(cur)
		if !ok {
			return nil
		}
		cur = parent
	}
}
