// Package savedview provides the saved-view registry application service:
// named snapshots of the shareable dashboard query, scoped to a project.
package savedview

import (
	"context"

	domain "github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

// Restorer receives the stored query of a restored view.  Both
// scalar.Synchronizer and scalar.Dashboard satisfy it.
type Restorer interface {
	RestoreView(query string) bool
}

// Service is the registry contract used by the HTTP handlers, the session
// service and the CLI.
type Service interface {
	Save(ctx context.Context, input *SaveInput) (*domain.SavedView, error)
	Rename(ctx context.Context, projectID common.ProjectID, id, name string) (*domain.SavedView, error)
	Delete(ctx context.Context, projectID common.ProjectID, id string) error
	List(ctx context.Context, projectID common.ProjectID) ([]*domain.SavedView, error)
	Get(ctx context.Context, projectID common.ProjectID, id string) (*domain.SavedView, error)
	Restore(ctx context.Context, projectID common.ProjectID, id string, target Restorer) (*domain.SavedView, error)
}

// SaveInput carries a new snapshot.  Name is optional; an empty name gets
// the generated "View N".
type SaveInput struct {
	ProjectID common.ProjectID
	Query     string
	Name      string
}

// Options tunes the service.
type Options struct {
	DefaultNamePrefix string
}

type serviceImpl struct {
	repo      domain.Repository
	publisher domain.EventPublisher
	logger    logging.Logger
	opts      Options
}

// NewService creates the registry.  A nil publisher disables events.
func NewService(repo domain.Repository, publisher domain.EventPublisher, logger logging.Logger, opts Options) Service {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("savedview"),
		opts:      opts,
	}
}

func (s *serviceImpl) Save(ctx context.Context, input *SaveInput) (*domain.SavedView, error) {
	if input == nil {
		return nil, errors.NewValidationError("save input is required")
	}
	name := input.Name
	if name == "" {
		n, err := s.repo.Count(ctx, input.ProjectID)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeViewStoreFailed, "count saved views")
		}
		name = domain.DefaultName(s.opts.DefaultNamePrefix, n+1)
	}

	view, err := domain.NewSavedView(input.ProjectID, name, input.Query)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, view); err != nil {
		s.logger.Error("failed to save view", logging.String("project_id", string(input.ProjectID)), logging.Err(err))
		return nil, err
	}

	s.logger.Info("view saved",
		logging.String("project_id", string(view.ProjectID)),
		logging.String("view_id", view.ID),
		logging.String("name", view.Name))
	s.publish(ctx, domain.EventCreated, view)
	return view, nil
}

func (s *serviceImpl) Rename(ctx context.Context, projectID common.ProjectID, id, name string) (*domain.SavedView, error) {
	view, err := s.repo.Get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if err := view.Rename(name); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, view); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventRenamed, view)
	return view, nil
}

func (s *serviceImpl) Delete(ctx context.Context, projectID common.ProjectID, id string) error {
	view, err := s.repo.Get(ctx, projectID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, projectID, id); err != nil {
		return err
	}
	s.publish(ctx, domain.EventDeleted, view)
	return nil
}

func (s *serviceImpl) List(ctx context.Context, projectID common.ProjectID) ([]*domain.SavedView, error) {
	if err := projectID.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return s.repo.List(ctx, projectID)
}

func (s *serviceImpl) Get(ctx context.Context, projectID common.ProjectID, id string) (*domain.SavedView, error) {
	return s.repo.Get(ctx, projectID, id)
}

// Restore hands the stored query to target untouched.
func (s *serviceImpl) Restore(ctx context.Context, projectID common.ProjectID, id string, target Restorer) (*domain.SavedView, error) {
	view, err := s.repo.Get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if target != nil && !target.RestoreView(view.Query) {
		s.logger.Warn("restore target not ready", logging.String("view_id", id))
	}
	s.publish(ctx, domain.EventRestored, view)
	return view, nil
}

func (s *serviceImpl) publish(ctx context.Context, typ domain.EventType, view *domain.SavedView) {
	if err := s.publisher.PublishViewEvent(ctx, domain.NewEvent(typ, view)); err != nil {
		s.logger.Warn("failed to publish view event",
			logging.String("type", string(typ)),
			logging.String("view_id", view.ID),
			logging.Err(err))
	}
}

//Personal.AI order the ending
