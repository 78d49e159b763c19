package savedview

import (
	"context"
	"sort"

	"github.com/turtacn/ExpTrack/pkg/types/common"
)

// Repository persists saved views keyed by project.  Implementations return
// an AppError with ErrCodeViewNotFound for missing records.
type Repository interface {
	Create(ctx context.Context, view *SavedView) error
	Get(ctx context.Context, projectID common.ProjectID, id string) (*SavedView, error)
	List(ctx context.Context, projectID common.ProjectID) ([]*SavedView, error)
	Update(ctx context.Context, view *SavedView) error
	Delete(ctx context.Context, projectID common.ProjectID, id string) error
	Count(ctx context.Context, projectID common.ProjectID) (int, error)
}

// SortByCreated orders views oldest first, breaking ties by id.
func SortByCreated(views []*SavedView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID < views[j].ID
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
}
