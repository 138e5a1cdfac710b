package models

import (
	"slices"
)

// Type represents how the children of a project, section or item are activated
type Type string

const (
	TypeNone               Type = ""
	TypeParallel           Type = "parallel"
	TypeSequential         Type = "sequential"
	TypeParallelSequential Type = "p-s" // parallel among siblings, sequential below
	TypeSequentialParallel Type = "s-p" // sequential among siblings, parallel below
)

// RegenMode represents how a recurring item regenerates its sub-items
type RegenMode int

const (
	RegenOff            RegenMode = 0
	RegenAll            RegenMode = 1
	RegenAllIfCompleted RegenMode = 2
)

// Default label names that override the global regeneration mode per item.
// The index of each name is the RegenMode it selects.
var DefaultRegenLabels = [3]string{"Regen_off", "Regen_all", "Regen_all_if_completed"}

// Project represents a top-level project
type Project struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Order   int    `json:"order"`
	IsInbox bool   `json:"is_inbox_project,omitempty"`
}

// Section groups items within a project. The zero ID is the synthetic
// "no section" bucket.
type Section struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
}

// Due holds the due date of an item
type Due struct {
	Date        string `json:"date"` // YYYY-MM-DD
	IsRecurring bool   `json:"is_recurring"`
	String      string `json:"string,omitempty"`
	Lang        string `json:"lang,omitempty"`
}

// Item represents a task, possibly nested under another item
type Item struct {
	ID        string   `json:"id"`
	ParentID  string   `json:"parent_id,omitempty"`
	SectionID string   `json:"section_id,omitempty"`
	ProjectID string   `json:"project_id"`
	Content   string   `json:"content"`
	Order     int      `json:"order"`
	Completed bool     `json:"is_completed"`
	Due       *Due     `json:"due,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Watermark string   `json:"watermark,omitempty"` // last seen due date of a recurring item
}

// IsRecurring returns true when the item has a recurring due date
func (i *Item) IsRecurring() bool {
	return i.Due != nil && i.Due.IsRecurring
}

// HasLabel checks label membership
func (i *Item) HasLabel(label string) bool {
	return slices.Contains(i.Labels, label)
}

// Clone returns a deep copy of the item
func (i Item) Clone() Item {
	c := i
	c.Labels = slices.Clone(i.Labels)
	if i.Due != nil {
		d := *i.Due
		c.Due = &d
	}
	return c
}

// Snapshot is the full hierarchy as of a single point in time
type Snapshot struct {
	Projects []Project `json:"projects"`
	Sections []Section `json:"sections"`
	Items    []Item    `json:"items"`
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Projects: slices.Clone(s.Projects),
		Sections: slices.Clone(s.Sections),
		Items:    make([]Item, len(s.Items)),
	}
	for i := range s.Items {
		c.Items[i] = s.Items[i].Clone()
	}
	return c
}

// ItemUpdate is the single write issued for a changed item.
// Nil fields are left untouched.
type ItemUpdate struct {
	ItemID    string   `json:"item_id"`
	Content   *string  `json:"content,omitempty"`
	Due       *Due     `json:"due,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	SetLabels bool     `json:"set_labels,omitempty"`
	Reopen    bool     `json:"reopen,omitempty"`
	Watermark *string  `json:"watermark,omitempty"`
}

// NeedsRemoteWrite returns true when the update changes anything on the
// service side (watermarks are stored locally)
func (u *ItemUpdate) NeedsRemoteWrite() bool {
	return u.NeedsTaskUpdate() || u.Reopen
}

// NeedsTaskUpdate returns true when the task fields themselves change
func (u *ItemUpdate) NeedsTaskUpdate() bool {
	return u.Content != nil || u.Due != nil || u.SetLabels
}

// Rename replaces the name of a project or section
type Rename struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Batch is the set of mutations produced by one cycle
type Batch struct {
	Items    []ItemUpdate `json:"items,omitempty"`
	Projects []Rename     `json:"projects,omitempty"`
	Sections []Rename     `json:"sections,omitempty"`
}

// Empty returns true when the batch carries no mutation
func (b *Batch) Empty() bool {
	return len(b.Items) == 0 && len(b.Projects) == 0 && len(b.Sections) == 0
}

// Watermarks returns the watermark writes in the batch keyed by item ID
func (b *Batch) Watermarks() map[string]string {
	marks := make(map[string]string)
	for _, u := range b.Items {
		if u.Watermark != nil {
			marks[u.ItemID] = *u.Watermark
		}
	}
	return marks
}

// ApplyTo applies the batch to a snapshot in place, the way the remote
// service would after a successful flush
func (b *Batch) ApplyTo(s *Snapshot) {
	byID := make(map[string]*Item, len(s.Items))
	for i := range s.Items {
		byID[s.Items[i].ID] = &s.Items[i]
	}
	for _, u := range b.Items {
		item, ok := byID[u.ItemID]
		if !ok {
			continue
		}
		if u.Content != nil {
			item.Content = *u.Content
		}
		if u.Due != nil {
			d := *u.Due
			item.Due = &d
		}
		if u.SetLabels {
			item.Labels = slices.Clone(u.Labels)
		}
		if u.Reopen {
			item.Completed = false
		}
		if u.Watermark != nil {
			item.Watermark = *u.Watermark
		}
	}
	for _, r := range b.Projects {
		for i := range s.Projects {
			if s.Projects[i].ID == r.ID {
				s.Projects[i].Name = r.Name
			}
		}
	}
	for _, r := range b.Sections {
		for i := range s.Sections {
			if s.Sections[i].ID == r.ID {
				s.Sections[i].Name = r.Name
			}
		}
	}
}

// IsValidType checks if a type is valid
func IsValidType(t Type) bool {
	switch t {
	case TypeNone, TypeParallel, TypeSequential, TypeParallelSequential, TypeSequentialParallel:
		return true
	}
	return false
}

// IsSequential returns true for types that activate one child at a time
// at their own level
func (t Type) IsSequential() bool {
	return t == TypeSequential || t == TypeSequentialParallel
}

// IsValidRegenMode checks if a regeneration mode is valid
func IsValidRegenMode(m RegenMode) bool {
	return m >= RegenOff && m <= RegenAllIfCompleted
}

// String returns the config name of the mode
func (m RegenMode) String() string {
	switch m {
	case RegenOff:
		return "off"
	case RegenAll:
		return "all"
	case RegenAllIfCompleted:
		return "if-completed"
	}
	return "unknown"
}

// ParseRegenMode accepts either the config name or the numeric mode
func ParseRegenMode(s string) (RegenMode, bool) {
	switch s {
	case "off", "0":
		return RegenOff, true
	case "all", "1":
		return RegenAll, true
	case "if-completed", "2":
		return RegenAllIfCompleted, true
	}
	return 0, false
}
