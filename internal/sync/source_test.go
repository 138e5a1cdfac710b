package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/marcus/autodoist/internal/models"
	"github.com/marcus/autodoist/internal/todoist"
)

type fakeAPI struct {
	projects []models.Project
	sections []models.Section
	items    []models.Item
	done     []models.Item
	labels   []todoist.Label

	fetchErr  error
	failItems map[string]error // item ID -> error on update/reopen

	updates  []models.ItemUpdate
	reopened []string
	renamed  []string
	created  []string
	since    []time.Time
}

func (f *fakeAPI) Projects(ctx context.Context) ([]models.Project, error) {
	return f.projects, f.fetchErr
}

func (f *fakeAPI) Sections(ctx context.Context) ([]models.Section, error) {
	return f.sections, nil
}

func (f *fakeAPI) Tasks(ctx context.Context) ([]models.Item, error) {
	out := make([]models.Item, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeAPI) CompletedTasks(ctx context.Context, since time.Time) ([]models.Item, error) {
	f.since = append(f.since, since)
	out := make([]models.Item, len(f.done))
	copy(out, f.done)
	return out, nil
}

func (f *fakeAPI) Labels(ctx context.Context) ([]todoist.Label, error) {
	return f.labels, nil
}

func (f *fakeAPI) CreateLabel(ctx context.Context, name string) (*todoist.Label, error) {
	f.created = append(f.created, name)
	l := todoist.Label{ID: fmt.Sprint(len(f.labels) + 1), Name: name}
	f.labels = append(f.labels, l)
	return &l, nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, u models.ItemUpdate) error {
	if err := f.failItems[u.ItemID]; err != nil {
		return err
	}
	f.updates = append(f.updates, u)
	return nil
}

func (f *fakeAPI) ReopenTask(ctx context.Context, id string) error {
	if err := f.failItems[id]; err != nil {
		return err
	}
	f.reopened = append(f.reopened, id)
	return nil
}

func (f *fakeAPI) RenameProject(ctx context.Context, id, name string) error {
	f.renamed = append(f.renamed, "project:"+id+":"+name)
	return nil
}

func (f *fakeAPI) RenameSection(ctx context.Context, id, name string) error {
	f.renamed = append(f.renamed, "section:"+id+":"+name)
	return nil
}

type fakeStore struct {
	marks map[string]string
}

func (s *fakeStore) Watermarks() (map[string]string, error) {
	out := make(map[string]string, len(s.marks))
	for k, v := range s.marks {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) SetWatermarks(marks map[string]string) error {
	for k, v := range marks {
		s.marks[k] = v
	}
	return nil
}

func (s *fakeStore) PruneWatermarks(keep map[string]bool) (int, error) {
	n := 0
	for k := range s.marks {
		if !keep[k] {
			delete(s.marks, k)
			n++
		}
	}
	return n, nil
}

func newTestSource(api *fakeAPI, store *fakeStore) *Source {
	return New(api, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchMergesWatermarks(t *testing.T) {
	api := &fakeAPI{
		projects: []models.Project{{ID: "1", Name: "Routines"}},
		items: []models.Item{
			{ID: "10", ProjectID: "1", Content: "Daily", Due: &models.Due{Date: "2026-02-18", IsRecurring: true}},
			{ID: "11", ParentID: "10", ProjectID: "1", Content: "Stretch"},
			{ID: "12", ProjectID: "1", Content: "One-off", Due: &models.Due{Date: "2026-02-18"}},
		},
	}
	store := &fakeStore{marks: map[string]string{"10": "2026-02-17", "99": "2025-01-01", "12": "2026-01-01"}}

	snap, err := newTestSource(api, store).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if snap.Items[0].Watermark != "2026-02-17" {
		t.Errorf("watermark not merged: %q", snap.Items[0].Watermark)
	}
	if snap.Items[2].Watermark != "" {
		t.Errorf("non-recurring item should carry no watermark, got %q", snap.Items[2].Watermark)
	}
	if _, ok := store.marks["99"]; ok {
		t.Error("watermark of vanished item should be pruned")
	}
	if _, ok := store.marks["12"]; ok {
		t.Error("watermark of non-recurring item should be pruned")
	}
}

func TestFetchMergesCompletedSubItemsOnRollover(t *testing.T) {
	api := &fakeAPI{
		projects: []models.Project{{ID: "1", Name: "Routines"}},
		items: []models.Item{
			{ID: "10", ProjectID: "1", Content: "Daily", Due: &models.Due{Date: "2026-02-18", IsRecurring: true}},
			{ID: "11", ParentID: "10", ProjectID: "1", Content: "Stretch"},
		},
		done: []models.Item{
			// grandchild listed ahead of its parent
			{ID: "13", ParentID: "12", ProjectID: "1", Content: "Mat"},
			{ID: "12", ParentID: "10", ProjectID: "1", Content: "Yoga"},
			{ID: "11", ParentID: "10", ProjectID: "1", Content: "Stretch"},
			{ID: "20", ProjectID: "1", Content: "One-off root"},
			{ID: "30", ParentID: "99", ProjectID: "1", Content: "Under a gone parent"},
		},
	}
	store := &fakeStore{marks: map[string]string{"10": "2026-02-17"}}
	src := newTestSource(api, store)
	now := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return now }

	snap, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(api.since) != 1 || !api.since[0].Equal(now.Add(-DefaultCompletedLookback)) {
		t.Errorf("history read with since = %v", api.since)
	}
	got := map[string]models.Item{}
	for _, it := range snap.Items {
		got[it.ID] = it
	}
	if len(got) != 4 || len(snap.Items) != 4 {
		t.Fatalf("items = %+v", snap.Items)
	}
	for _, id := range []string{"12", "13"} {
		if !got[id].Completed {
			t.Errorf("item %s should be merged as completed", id)
		}
	}
	if got["11"].Completed {
		t.Error("active item must not be overridden by history")
	}
}

func TestFetchSkipsHistoryWithoutRollover(t *testing.T) {
	api := &fakeAPI{
		items: []models.Item{
			{ID: "10", ProjectID: "1", Content: "Daily", Due: &models.Due{Date: "2026-02-18", IsRecurring: true}},
			// recurring sub-items carry watermarks too
			{ID: "11", ParentID: "10", ProjectID: "1", Content: "Weekly", Due: &models.Due{Date: "2026-02-20", IsRecurring: true}},
		},
		done: []models.Item{{ID: "12", ParentID: "10", ProjectID: "1"}},
	}
	store := &fakeStore{marks: map[string]string{"10": "2026-02-18", "11": "2026-02-20"}}

	snap, err := newTestSource(api, store).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(api.since) != 0 || len(snap.Items) != 2 {
		t.Errorf("history read without rollover: since=%v items=%d", api.since, len(snap.Items))
	}
	if snap.Items[1].Watermark != "2026-02-20" {
		t.Errorf("sub-item watermark not merged: %q", snap.Items[1].Watermark)
	}
	if _, ok := store.marks["11"]; !ok {
		t.Error("sub-item watermark should be kept")
	}
}

func TestFetchError(t *testing.T) {
	api := &fakeAPI{fetchErr: todoist.ErrUnauthorized}
	_, err := newTestSource(api, &fakeStore{marks: map[string]string{}}).Fetch(context.Background())
	if !errors.Is(err, todoist.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

func TestApplyWritesAndStoresWatermarks(t *testing.T) {
	api := &fakeAPI{}
	store := &fakeStore{marks: map[string]string{}}
	mark := "2026-02-18"

	b := models.Batch{
		Items: []models.ItemUpdate{
			{ItemID: "10", Watermark: &mark},
			{ItemID: "11", Reopen: true},
			{ItemID: "12", Labels: []string{"next_action"}, SetLabels: true},
		},
		Projects: []models.Rename{{ID: "1", Name: "Someday"}},
		Sections: []models.Rename{{ID: "7", Name: "Garden"}},
	}

	if err := newTestSource(api, store).Apply(context.Background(), b); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(api.reopened) != 1 || api.reopened[0] != "11" {
		t.Errorf("reopened = %v", api.reopened)
	}
	if len(api.updates) != 1 || api.updates[0].ItemID != "12" {
		t.Errorf("updates = %v", api.updates)
	}
	if len(api.renamed) != 2 {
		t.Errorf("renamed = %v", api.renamed)
	}
	if store.marks["10"] != mark {
		t.Errorf("watermark not stored: %v", store.marks)
	}
}

func TestApplyFailureKeepsWatermarks(t *testing.T) {
	api := &fakeAPI{failItems: map[string]error{"11": errors.New("HTTP 500: boom")}}
	store := &fakeStore{marks: map[string]string{"10": "2026-02-17"}}
	mark := "2026-02-18"

	b := models.Batch{Items: []models.ItemUpdate{
		{ItemID: "10", Watermark: &mark},
		{ItemID: "11", Reopen: true},
		{ItemID: "12", SetLabels: true},
	}}

	err := newTestSource(api, store).Apply(context.Background(), b)
	if err == nil {
		t.Fatal("expected error")
	}
	// Other items are still written
	if len(api.updates) != 1 || api.updates[0].ItemID != "12" {
		t.Errorf("updates = %v", api.updates)
	}
	if store.marks["10"] != "2026-02-17" {
		t.Errorf("watermark should not advance after a failed flush, got %q", store.marks["10"])
	}
}

func TestApplyStopsOnAuthError(t *testing.T) {
	api := &fakeAPI{failItems: map[string]error{"11": fmt.Errorf("update task 11: %w", todoist.ErrUnauthorized)}}
	b := models.Batch{Items: []models.ItemUpdate{
		{ItemID: "11", SetLabels: true},
		{ItemID: "12", SetLabels: true},
	}}

	err := newTestSource(api, &fakeStore{marks: map[string]string{}}).Apply(context.Background(), b)
	if !errors.Is(err, todoist.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if len(api.updates) != 0 {
		t.Errorf("no further writes expected after auth failure, got %v", api.updates)
	}
}

func TestEnsureLabels(t *testing.T) {
	api := &fakeAPI{labels: []todoist.Label{{ID: "1", Name: "next_action"}}}
	src := newTestSource(api, &fakeStore{marks: map[string]string{}})

	created, err := src.EnsureLabels(context.Background(), []string{"next_action", "Regen_all", ""}, nil)
	if err != nil {
		t.Fatalf("EnsureLabels: %v", err)
	}
	if len(created) != 1 || created[0] != "Regen_all" {
		t.Errorf("created = %v, want [Regen_all]", created)
	}

	// Second run finds everything
	created, _ = src.EnsureLabels(context.Background(), []string{"next_action", "Regen_all"}, nil)
	if len(created) != 0 {
		t.Errorf("created on second run = %v", created)
	}
}

func TestEnsureLabelsDeclined(t *testing.T) {
	api := &fakeAPI{}
	src := newTestSource(api, &fakeStore{marks: map[string]string{}})

	var asked []string
	_, err := src.EnsureLabels(context.Background(), []string{"next_action"}, func(name string) bool {
		asked = append(asked, name)
		return false
	})
	if !errors.Is(err, ErrLabelDeclined) {
		t.Errorf("error = %v, want ErrLabelDeclined", err)
	}
	if len(asked) != 1 || len(api.created) != 0 {
		t.Errorf("asked = %v, created = %v", asked, api.created)
	}
}
