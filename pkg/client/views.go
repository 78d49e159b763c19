package client

import (
	"context"
	"net/url"
	"time"
)

// View is a saved dashboard query.
type View struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateViewRequest saves query under name.  An empty name is generated by
// the server ("View N").
type CreateViewRequest struct {
	Name  string `json:"name,omitempty"`
	Query string `json:"query"`
}

type renameViewRequest struct {
	Name string `json:"name"`
}

type listViewsResponse struct {
	Views []View `json:"views"`
	Total int    `json:"total"`
}

// ViewsClient manages the saved views of a project.
type ViewsClient struct {
	client *Client
}

func viewsPath(projectID string) string {
	return "/api/v1/projects/" + url.PathEscape(projectID) + "/views"
}

func viewPath(projectID, viewID string) string {
	return viewsPath(projectID) + "/" + url.PathEscape(viewID)
}

// List returns the views of projectID in creation order.
func (v *ViewsClient) List(ctx context.Context, projectID string) ([]View, error) {
	if projectID == "" {
		return nil, ErrInvalidConfig.WithDetail("projectID is required")
	}
	var resp listViewsResponse
	if err := v.client.get(ctx, viewsPath(projectID), &resp); err != nil {
		return nil, err
	}
	return resp.Views, nil
}

// Create saves a new view.
func (v *ViewsClient) Create(ctx context.Context, projectID string, req *CreateViewRequest) (*View, error) {
	if projectID == "" {
		return nil, ErrInvalidConfig.WithDetail("projectID is required")
	}
	if req == nil {
		req = &CreateViewRequest{}
	}
	var view View
	if err := v.client.post(ctx, viewsPath(projectID), req, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Get fetches one view.
func (v *ViewsClient) Get(ctx context.Context, projectID, viewID string) (*View, error) {
	var view View
	if err := v.client.get(ctx, viewPath(projectID, viewID), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Rename changes the display name of a view.  Its query is untouched.
func (v *ViewsClient) Rename(ctx context.Context, projectID, viewID, name string) (*View, error) {
	var view View
	if err := v.client.patch(ctx, viewPath(projectID, viewID), renameViewRequest{Name: name}, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Delete removes a view.
func (v *ViewsClient) Delete(ctx context.Context, projectID, viewID string) error {
	return v.client.delete(ctx, viewPath(projectID, viewID))
}

//Personal.AI order the ending
