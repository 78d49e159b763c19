// Package memory provides a process-local saved-view store.  It backs the
// "memory" views driver and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/pkg/errors"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

// SavedViewRepo implements savedview.Repository over nested maps guarded by
// a RWMutex.  Returned records are copies.
type SavedViewRepo struct {
	mu       sync.RWMutex
	projects map[common.ProjectID]map[string]*savedview.SavedView
}

// NewSavedViewRepo returns an empty store.
func NewSavedViewRepo() *SavedViewRepo {
	return &SavedViewRepo{projects: make(map[common.ProjectID]map[string]*savedview.SavedView)}
}

var _ savedview.Repository = (*SavedViewRepo)(nil)

func (r *SavedViewRepo) Create(ctx context.Context, view *savedview.SavedView) error {
	if err := view.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	views, ok := r.projects[view.ProjectID]
	if !ok {
		views = make(map[string]*savedview.SavedView)
		r.projects[view.ProjectID] = views
	}
	if _, exists := views[view.ID]; exists {
		return errors.New(errors.ErrCodeViewConflict, "saved view already exists").WithDetail(view.ID)
	}
	views[view.ID] = view.Clone()
	return nil
}

func (r *SavedViewRepo) Get(ctx context.Context, projectID common.ProjectID, id string) (*savedview.SavedView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.projects[projectID][id]
	if !ok {
		return nil, notFound(id)
	}
	return v.Clone(), nil
}

func (r *SavedViewRepo) List(ctx context.Context, projectID common.ProjectID) ([]*savedview.SavedView, error) {
	r.mu.RLock()
	views := r.projects[projectID]
	out := make([]*savedview.SavedView, 0, len(views))
	for _, v := range views {
		out = append(out, v.Clone())
	}
	r.mu.RUnlock()
	savedview.SortByCreated(out)
	return out, nil
}

func (r *SavedViewRepo) Update(ctx context.Context, view *savedview.SavedView) error {
	if err := view.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	views := r.projects[view.ProjectID]
	if _, ok := views[view.ID]; !ok {
		return notFound(view.ID)
	}
	views[view.ID] = view.Clone()
	return nil
}

func (r *SavedViewRepo) Delete(ctx context.Context, projectID common.ProjectID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := r.projects[projectID]
	if _, ok := views[id]; !ok {
		return notFound(id)
	}
	delete(views, id)
	return nil
}

func (r *SavedViewRepo) Count(ctx context.Context, projectID common.ProjectID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.projects[projectID]), nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeViewNotFound, "saved view not found").WithDetail(id)
}

//Personal.AI order the ending
