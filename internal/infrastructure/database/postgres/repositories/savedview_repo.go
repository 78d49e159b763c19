package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/internal/infrastructure/database/postgres"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

const uniqueViolation = "23505"

type postgresSavedViewRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

func NewPostgresSavedViewRepo(conn *postgres.Connection, log logging.Logger) savedview.Repository {
	return &postgresSavedViewRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

func (r *postgresSavedViewRepo) Create(ctx context.Context, v *savedview.SavedView) error {
	if err := v.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO saved_views (id, project_id, name, query, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.executor.ExecContext(ctx, query,
		v.ID, string(v.ProjectID), v.Name, v.Query, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.Wrap(err, errors.ErrCodeViewConflict, "saved view already exists")
		}
		return errors.Wrap(err, errors.ErrCodeViewStoreFailed, "failed to create saved view")
	}
	return nil
}

func (r *postgresSavedViewRepo) Get(ctx context.Context, projectID common.ProjectID, id string) (*savedview.SavedView, error) {
	query := `
		SELECT id, project_id, name, query, created_at, updated_at
		FROM saved_views WHERE project_id = $1 AND id = $2
	`
	v, err := scanSavedView(r.executor.QueryRowContext(ctx, query, string(projectID), id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeViewNotFound, "saved view not found").WithDetail(id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeViewStoreFailed, "failed to get saved view")
	}
	return v, nil
}

func (r *postgresSavedViewRepo) List(ctx context.Context, projectID common.ProjectID) ([]*savedview.SavedView, error) {
	query := `
		SELECT id, project_id, name, query, created_at, updated_at
		FROM saved_views WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.executor.QueryContext(ctx, query, string(projectID))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeViewStoreFailed, "failed to list saved views")
	}
	defer rows.Close()

	views := make([]*savedview.SavedView, 0)
	for rows.Next() {
		v, err := scanSavedView(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeViewStoreFailed, "failed to scan saved view")
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeViewStoreFailed, "failed to iterate saved views")
	}
	return views, nil
}

func (r *postgresSavedViewRepo) Update(ctx context.Context, v *savedview.SavedView) error {
	if err := v.Validate(); err != nil {
		return err
	}
	query := `
		UPDATE saved_views SET name = $3, query = $4, updated_at = $5
		WHERE project_id = $1 AND id = $2
	`
	res, err := r.executor.ExecContext(ctx, query, string(v.ProjectID), v.ID, v.Name, v.Query, v.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeViewStoreFailed, "failed to update saved view")
	}
	return requireAffected(res, v.ID)
}

func (r *postgresSavedViewRepo) Delete(ctx context.Context, projectID common.ProjectID, id string) error {
	res, err := r.executor.ExecContext(ctx,
		`DELETE FROM saved_views WHERE project_id = $1 AND id = $2`, string(projectID), id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeViewStoreFailed, "failed to delete saved view")
	}
	return requireAffected(res, id)
}

func (r *postgresSavedViewRepo) Count(ctx context.Context, projectID common.ProjectID) (int, error) {
	var n int
	err := r.executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saved_views WHERE project_id = $1`, string(projectID)).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeViewStoreFailed, "failed to count saved views")
	}
	return n, nil
}

func scanSavedView(row scanner) (*savedview.SavedView, error) {
	var (
		v         savedview.SavedView
		projectID string
	)
	if err := row.Scan(&v.ID, &projectID, &v.Name, &v.Query, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.ProjectID = common.ProjectID(projectID)
	return &v, nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeViewStoreFailed, "failed to read affected rows")
	}
	if n == 0 {
		return errors.New(errors.ErrCodeViewNotFound, "saved view not found").WithDetail(id)
	}
	return nil
}

//Personal.AI order the ending
