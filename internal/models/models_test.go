package models

import "testing"

func TestBatchApplyTo(t *testing.T) {
	snap := &Snapshot{
		Projects: []Project{{ID: "p1", Name: "Home"}},
		Sections: []Section{{ID: "s1", Name: "Garden"}},
		Items: []Item{
			{ID: "1", Content: "Mow", Labels: []string{"next_action"}},
			{ID: "2", Content: "Water", Completed: true},
		},
	}
	title := "* Mow"
	mark := "2026-02-18"
	b := Batch{
		Items: []ItemUpdate{
			{ItemID: "1", Content: &title, Labels: []string{}, SetLabels: true},
			{ItemID: "2", Reopen: true, Due: &Due{Date: "2026-02-19"}, Watermark: &mark},
			{ItemID: "missing", Reopen: true},
		},
		Projects: []Rename{{ID: "p1", Name: "Home--"}},
		Sections: []Rename{{ID: "s1", Name: "Garden//"}},
	}

	b.ApplyTo(snap)

	if snap.Items[0].Content != "* Mow" || len(snap.Items[0].Labels) != 0 {
		t.Errorf("item 1 = %+v", snap.Items[0])
	}
	it := snap.Items[1]
	if it.Completed || it.Due == nil || it.Due.Date != "2026-02-19" || it.Watermark != mark {
		t.Errorf("item 2 = %+v", it)
	}
	if snap.Projects[0].Name != "Home--" || snap.Sections[0].Name != "Garden//" {
		t.Errorf("renames not applied: %+v %+v", snap.Projects, snap.Sections)
	}
}

func TestBatchWatermarksAndEmpty(t *testing.T) {
	var b Batch
	if !b.Empty() {
		t.Error("zero batch should be empty")
	}

	mark := "2026-03-01"
	b.Items = []ItemUpdate{{ItemID: "1", Watermark: &mark}, {ItemID: "2", SetLabels: true}}
	if b.Empty() {
		t.Error("batch with items is not empty")
	}
	marks := b.Watermarks()
	if len(marks) != 1 || marks["1"] != mark {
		t.Errorf("Watermarks = %v", marks)
	}
}

func TestItemUpdateNeeds(t *testing.T) {
	mark := "2026-03-01"
	tests := []struct {
		name       string
		u          ItemUpdate
		task, save bool
	}{
		{"watermark only", ItemUpdate{Watermark: &mark}, false, false},
		{"reopen only", ItemUpdate{Reopen: true}, false, true},
		{"labels", ItemUpdate{SetLabels: true}, true, true},
		{"due", ItemUpdate{Due: &Due{Date: "2026-03-01"}}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.NeedsTaskUpdate(); got != tt.task {
				t.Errorf("NeedsTaskUpdate = %v", got)
			}
			if got := tt.u.NeedsRemoteWrite(); got != tt.save {
				t.Errorf("NeedsRemoteWrite = %v", got)
			}
		})
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := &Snapshot{Items: []Item{{ID: "1", Labels: []string{"a"}, Due: &Due{Date: "2026-02-18"}}}}
	c := s.Clone()
	c.Items[0].Labels[0] = "b"
	c.Items[0].Due.Date = "2026-02-19"

	if s.Items[0].Labels[0] != "a" || s.Items[0].Due.Date != "2026-02-18" {
		t.Errorf("clone shares memory with original: %+v", s.Items[0])
	}
}

func TestParseRegenMode(t *testing.T) {
	tests := []struct {
		in   string
		want RegenMode
		ok   bool
	}{
		{"off", RegenOff, true},
		{"0", RegenOff, true},
		{"all", RegenAll, true},
		{"2", RegenAllIfCompleted, true},
		{"if-completed", RegenAllIfCompleted, true},
		{"3", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseRegenMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRegenMode(%q) = %v, %v", tt.in, got, ok)
		}
	}
	if RegenAll.String() != "all" || RegenMode(9).String() != "unknown" {
		t.Error("unexpected String()")
	}
}

func TestTypeHelpers(t *testing.T) {
	if !TypeSequentialParallel.IsSequential() || TypeParallelSequential.IsSequential() {
		t.Error("IsSequential wrong for mixed types")
	}
	if IsValidType("random") || !IsValidType(TypeNone) {
		t.Error("IsValidType wrong")
	}
}
