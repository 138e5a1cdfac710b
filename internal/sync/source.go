// Package sync moves data between the service and the engine: it fetches
// snapshots (with local watermarks merged in) and flushes batches.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/autodoist/internal/models"
	"github.com/marcus/autodoist/internal/todoist"
)

// ErrLabelDeclined is returned when the user refuses to create a label
var ErrLabelDeclined = errors.New("label creation declined")

// API is the part of the Todoist client the source needs
type API interface {
	Projects(ctx context.Context) ([]models.Project, error)
	Sections(ctx context.Context) ([]models.Section, error)
	Tasks(ctx context.Context) ([]models.Item, error)
	CompletedTasks(ctx context.Context, since time.Time) ([]models.Item, error)
	Labels(ctx context.Context) ([]todoist.Label, error)
	CreateLabel(ctx context.Context, name string) (*todoist.Label, error)
	UpdateTask(ctx context.Context, u models.ItemUpdate) error
	ReopenTask(ctx context.Context, id string) error
	RenameProject(ctx context.Context, id, name string) error
	RenameSection(ctx context.Context, id, name string) error
}

// Store persists watermarks between cycles
type Store interface {
	Watermarks() (map[string]string, error)
	SetWatermarks(marks map[string]string) error
	PruneWatermarks(keep map[string]bool) (int, error)
}

// DefaultCompletedLookback is how far back completed sub-items are read when
// a recurring item rolls over
const DefaultCompletedLookback = 180 * 24 * time.Hour

// Source fetches snapshots and applies batches
type Source struct {
	api    API
	store  Store
	logger *slog.Logger

	// CompletedLookback bounds the completed-task history read on rollover
	CompletedLookback time.Duration
	now               func() time.Time
}

// New creates a source
func New(api API, store Store, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		api:               api,
		store:             store,
		logger:            logger,
		CompletedLookback: DefaultCompletedLookback,
		now:               time.Now,
	}
}

// Fetch returns the current hierarchy with watermarks merged into the items
func (s *Source) Fetch(ctx context.Context) (*models.Snapshot, error) {
	projects, err := s.api.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	sections, err := s.api.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	items, err := s.api.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	marks, err := s.store.Watermarks()
	if err != nil {
		return nil, fmt.Errorf("load watermarks: %w", err)
	}

	live := make(map[string]bool)
	rolled := false
	for i := range items {
		it := &items[i]
		if it.IsRecurring() {
			it.Watermark = marks[it.ID]
			live[it.ID] = true
			if it.Watermark != "" && it.Watermark != it.Due.Date {
				rolled = true
			}
		}
	}

	// Only active tasks are listed, so the completed sub-items a rollover
	// reopens have to come from the history
	if rolled {
		done, err := s.api.CompletedTasks(ctx, s.now().Add(-s.CompletedLookback))
		if err != nil {
			return nil, fmt.Errorf("fetch snapshot: %w", err)
		}
		before := len(items)
		items = withCompleted(items, done)
		s.logger.Debug("merged completed items", "count", len(items)-before)
	}

	// Completed or deleted recurring items never come back
	if n, err := s.store.PruneWatermarks(live); err != nil {
		s.logger.Warn("prune watermarks", "err", err)
	} else if n > 0 {
		s.logger.Debug("pruned watermarks", "count", n)
	}

	return &models.Snapshot{Projects: projects, Sections: sections, Items: items}, nil
}

// withCompleted appends the completed items that hang below a listed item.
// Completed roots and tasks that are active again are left out.
func withCompleted(items, done []models.Item) []models.Item {
	present := make(map[string]bool, len(items)+len(done))
	for _, it := range items {
		present[it.ID] = true
	}
	for grew := true; grew; {
		grew = false
		for _, it := range done {
			if present[it.ID] || it.ParentID == "" || !present[it.ParentID] {
				continue
			}
			it.Completed = true
			items = append(items, it)
			present[it.ID] = true
			grew = true
		}
	}
	return items
}

// Apply flushes a batch. Item writes are attempted independently; watermarks
// are stored only when every remote write succeeded.
func (s *Source) Apply(ctx context.Context, b models.Batch) error {
	var errs []error
	fatal := func(err error) bool {
		return errors.Is(err, todoist.ErrUnauthorized) ||
			errors.Is(err, todoist.ErrForbidden) ||
			errors.Is(err, todoist.ErrRateLimited) ||
			ctx.Err() != nil
	}

	for _, u := range b.Items {
		if u.Reopen {
			if err := s.api.ReopenTask(ctx, u.ItemID); err != nil {
				errs = append(errs, err)
				if fatal(err) {
					return errors.Join(errs...)
				}
				continue
			}
		}
		if u.NeedsTaskUpdate() {
			if err := s.api.UpdateTask(ctx, u); err != nil {
				errs = append(errs, err)
				if fatal(err) {
					return errors.Join(errs...)
				}
				continue
			}
		}
		if u.NeedsRemoteWrite() {
			s.logger.Debug("updated item", "item", u.ItemID)
		}
	}

	for _, r := range b.Projects {
		if err := s.api.RenameProject(ctx, r.ID, r.Name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, r := range b.Sections {
		if err := s.api.RenameSection(ctx, r.ID, r.Name); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if err := s.store.SetWatermarks(b.Watermarks()); err != nil {
		return fmt.Errorf("store watermarks: %w", err)
	}
	return nil
}

// ConfirmFunc asks whether a missing label should be created
type ConfirmFunc func(name string) bool

// EnsureLabels creates the named labels when missing. A nil confirm creates
// without asking. Returns the labels that were created.
func (s *Source) EnsureLabels(ctx context.Context, names []string, confirm ConfirmFunc) ([]string, error) {
	existing, err := s.LabelNames(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var created []string
	for _, name := range names {
		if name == "" || have[name] {
			continue
		}
		if confirm != nil && !confirm(name) {
			return created, fmt.Errorf("%w: %s", ErrLabelDeclined, name)
		}
		if _, err := s.api.CreateLabel(ctx, name); err != nil {
			return created, err
		}
		s.logger.Info("created label", "label", name)
		have[name] = true
		created = append(created, name)
	}
	return created, nil
}

// LabelNames lists the names of existing labels
func (s *Source) LabelNames(ctx context.Context) ([]string, error) {
	labels, err := s.api.Labels(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names, nil
}
