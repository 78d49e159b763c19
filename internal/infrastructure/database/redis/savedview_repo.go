package redis

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

const savedViewKeyPrefix = "views:"

// SavedViewRepo stores each project's views in one hash, field = view id,
// value = JSON record.
type SavedViewRepo struct {
	client *Client
	prefix string
	logger logging.Logger
}

func NewSavedViewRepo(client *Client, log logging.Logger) *SavedViewRepo {
	return &SavedViewRepo{client: client, prefix: savedViewKeyPrefix, logger: log}
}

var _ savedview.Repository = (*SavedViewRepo)(nil)

func (r *SavedViewRepo) key(projectID common.ProjectID) string {
	return r.prefix + string(projectID)
}

func (r *SavedViewRepo) Create(ctx context.Context, view *savedview.SavedView) error {
	if err := view.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(view)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode saved view")
	}
	ok, err := r.client.HSetNX(ctx, r.key(view.ProjectID), view.ID, string(data)).Result()
	if err != nil {
		return storeErr(err, "failed to create saved view")
	}
	if !ok {
		return errors.New(errors.ErrCodeViewConflict, "saved view already exists").WithDetail(view.ID)
	}
	return nil
}

func (r *SavedViewRepo) Get(ctx context.Context, projectID common.ProjectID, id string) (*savedview.SavedView, error) {
	raw, err := r.client.HGet(ctx, r.key(projectID), id).Result()
	if err == redis.Nil {
		return nil, errors.New(errors.ErrCodeViewNotFound, "saved view not found").WithDetail(id)
	}
	if err != nil {
		return nil, storeErr(err, "failed to get saved view")
	}
	return decodeView(raw)
}

// List skips records that fail to decode and logs them.
func (r *SavedViewRepo) List(ctx context.Context, projectID common.ProjectID) ([]*savedview.SavedView, error) {
	all, err := r.client.HGetAll(ctx, r.key(projectID)).Result()
	if err != nil {
		return nil, storeErr(err, "failed to list saved views")
	}
	out := make([]*savedview.SavedView, 0, len(all))
	for id, raw := range all {
		v, err := decodeView(raw)
		if err != nil {
			r.logger.Warn("Skipping corrupt saved view",
				logging.String("project_id", string(projectID)),
				logging.String("view_id", id),
				logging.Err(err),
			)
			continue
		}
		out = append(out, v)
	}
	savedview.SortByCreated(out)
	return out, nil
}

func (r *SavedViewRepo) Update(ctx context.Context, view *savedview.SavedView) error {
	if err := view.Validate(); err != nil {
		return err
	}
	key := r.key(view.ProjectID)
	exists, err := r.client.HExists(ctx, key, view.ID).Result()
	if err != nil {
		return storeErr(err, "failed to update saved view")
	}
	if !exists {
		return errors.New(errors.ErrCodeViewNotFound, "saved view not found").WithDetail(view.ID)
	}
	data, err := json.Marshal(view)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode saved view")
	}
	if err := r.client.HSet(ctx, key, view.ID, string(data)).Err(); err != nil {
		return storeErr(err, "failed to update saved view")
	}
	return nil
}

func (r *SavedViewRepo) Delete(ctx context.Context, projectID common.ProjectID, id string) error {
	n, err := r.client.HDel(ctx, r.key(projectID), id).Result()
	if err != nil {
		return storeErr(err, "failed to delete saved view")
	}
	if n == 0 {
		return errors.New(errors.ErrCodeViewNotFound, "saved view not found").WithDetail(id)
	}
	return nil
}

func (r *SavedViewRepo) Count(ctx context.Context, projectID common.ProjectID) (int, error) {
	n, err := r.client.HLen(ctx, r.key(projectID)).Result()
	if err != nil {
		return 0, storeErr(err, "failed to count saved views")
	}
	return int(n), nil
}

func decodeView(raw string) (*savedview.SavedView, error) {
	var v savedview.SavedView
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode saved view")
	}
	return &v, nil
}

func storeErr(err error, msg string) error {
	return errors.Wrap(err, errors.ErrCodeViewStoreFailed, msg)
}

//Personal.AI order the ending
