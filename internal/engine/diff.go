package engine

import (
	"slices"

	"github.com/marcus/autodoist/internal/models"
)

// diff coalesces everything a pass changed into one update per item
func diff(before, after *models.Snapshot) models.Batch {
	var b models.Batch

	for i := range after.Items {
		old, cur := &before.Items[i], &after.Items[i]
		u := models.ItemUpdate{ItemID: cur.ID}
		changed := false

		if cur.Content != old.Content {
			content := cur.Content
			u.Content = &content
			changed = true
		}
		if dueDate(cur) != dueDate(old) {
			d := *cur.Due
			u.Due = &d
			changed = true
		}
		if !sameLabels(cur.Labels, old.Labels) {
			u.Labels = slices.Clone(cur.Labels)
			if u.Labels == nil {
				u.Labels = []string{}
			}
			u.SetLabels = true
			changed = true
		}
		if old.Completed && !cur.Completed {
			u.Reopen = true
			changed = true
		}
		if cur.Watermark != old.Watermark {
			w := cur.Watermark
			u.Watermark = &w
			changed = true
		}

		if changed {
			b.Items = append(b.Items, u)
		}
	}

	for i := range after.Projects {
		if after.Projects[i].Name != before.Projects[i].Name {
			b.Projects = append(b.Projects, models.Rename{ID: after.Projects[i].ID, Name: after.Projects[i].Name})
		}
	}
	for i := range after.Sections {
		if after.Sections[i].Name != before.Sections[i].Name {
			b.Sections = append(b.Sections, models.Rename{ID: after.Sections[i].ID, Name: after.Sections[i].Name})
		}
	}
	return b
}

func dueDate(it *models.Item) string {
	if it.Due == nil {
		return ""
	}
	return it.Due.Date
}

// sameLabels compares label sets, ignoring order
func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
