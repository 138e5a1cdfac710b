package hierarchy

import (
	"errors"
	"testing"

	"github.com/marcus/autodoist/internal/models"
)

func ids(items []*models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOrderParentsBeforeChildren(t *testing.T) {
	// Deliberately scrambled input
	items := []*models.Item{
		{ID: "30", ParentID: "20", Order: 1},
		{ID: "11", ParentID: "10", Order: 2},
		{ID: "20", Order: 2},
		{ID: "12", ParentID: "10", Order: 1},
		{ID: "10", Order: 1},
	}

	x := Build(items)
	got := ids(x.Order())
	want := []string{"10", "20", "12", "11", "30"}
	if !equal(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}

	seen := make(map[string]bool)
	for _, it := range x.Order() {
		if it.ParentID != "" && !seen[it.ParentID] {
			t.Errorf("item %s visited before its parent %s", it.ID, it.ParentID)
		}
		seen[it.ID] = true
	}
}

func TestOrderNonNumericIDs(t *testing.T) {
	items := []*models.Item{
		{ID: "b", ParentID: "x", Order: 1},
		{ID: "a", ParentID: "7", Order: 1},
		{ID: "x", Order: 2},
		{ID: "7", Order: 1},
	}

	got := ids(Build(items).Order())
	want := []string{"7", "x", "a", "b"}
	if !equal(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}
}

func TestChildren(t *testing.T) {
	items := []*models.Item{
		{ID: "1"},
		{ID: "2", ParentID: "1", Order: 2},
		{ID: "3", ParentID: "1", Order: 1, Completed: true},
		{ID: "4", ParentID: "1", Order: 3},
	}
	x := Build(items)

	if got := ids(x.Children("1")); !equal(got, []string{"3", "2", "4"}) {
		t.Errorf("Children(1) = %v", got)
	}
	if got := ids(x.IncompleteChildren("1")); !equal(got, []string{"2", "4"}) {
		t.Errorf("IncompleteChildren(1) = %v", got)
	}

	// Completion is read live
	items[1].Completed = true
	if got := ids(x.IncompleteChildren("1")); !equal(got, []string{"4"}) {
		t.Errorf("IncompleteChildren(1) after completion = %v", got)
	}

	if len(x.Children("4")) != 0 {
		t.Error("leaf should have no children")
	}
}

func TestOrphanTreatedAsRoot(t *testing.T) {
	// Parent lives in another section
	items := []*models.Item{{ID: "5", ParentID: "99"}}
	x := Build(items)

	if len(x.Order()) != 1 {
		t.Fatalf("expected orphan in order, got %v", ids(x.Order()))
	}
	if _, ok := x.Parent(items[0]); ok {
		t.Error("orphan should have no indexed parent")
	}
}

func TestCycleIsolated(t *testing.T) {
	items := []*models.Item{
		{ID: "1", ParentID: "2"},
		{ID: "2", ParentID: "1"},
		{ID: "3", ParentID: "1"},
		{ID: "4"},
	}
	x := Build(items)

	if got := ids(x.Order()); !equal(got, []string{"4"}) {
		t.Errorf("Order() = %v, want only the healthy item", got)
	}
	for _, id := range []string{"1", "2", "3"} {
		err, ok := x.Broken()[id]
		if !ok {
			t.Errorf("item %s should be reported broken", id)
			continue
		}
		if !errors.Is(err, ErrCycle) {
			t.Errorf("item %s: error = %v, want ErrCycle", id, err)
		}
	}
}

func TestResolveType(t *testing.T) {
	items := []*models.Item{
		{ID: "1", Content: "Trip--"},
		{ID: "2", ParentID: "1", Content: "Pack"},
		{ID: "3", ParentID: "2", Content: "Shirts//"},
		{ID: "4", ParentID: "3", Content: "Blue"},
	}
	x := Build(items)

	typeOf := func(it *models.Item) models.Type {
		switch it.Content {
		case "Trip--":
			return models.TypeSequential
		case "Shirts//":
			return models.TypeParallel
		}
		return models.TypeNone
	}

	tests := []struct {
		id   string
		want models.Type
	}{
		{"1", models.TypeSequential},
		{"2", models.TypeSequential},
		{"3", models.TypeParallel},
		{"4", models.TypeParallel},
	}
	for _, tt := range tests {
		it, _ := x.Item(tt.id)
		got, err := x.ResolveType(it, typeOf)
		if err != nil {
			t.Fatalf("ResolveType(%s): %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("ResolveType(%s) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestAnyAncestor(t *testing.T) {
	items := []*models.Item{
		{ID: "1", Content: "* Header"},
		{ID: "2", ParentID: "1"},
		{ID: "3", ParentID: "2"},
	}
	x := Build(items)
	isHeader := func(it *models.Item) bool { return it.Content == "* Header" }

	if hit, _ := x.AnyAncestor(items[0], isHeader); hit {
		t.Error("item is not its own ancestor")
	}
	if hit, _ := x.AnyAncestor(items[2], isHeader); !hit {
		t.Error("grandchild of header should match")
	}
}
