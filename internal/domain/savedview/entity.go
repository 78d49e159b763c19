// Package savedview models named, persisted snapshots of the shareable
// dashboard query.  The query is an opaque blob: nothing in this package
// parses it.
package savedview

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/turtacn/ExpTrack/pkg/errors"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

// MaxNameLength bounds view names in runes.
const MaxNameLength = 128

// DefaultNamePrefix is the prefix of generated names ("View 3").
const DefaultNamePrefix = "View"

// SavedView is one persisted query snapshot scoped to a project.
type SavedView struct {
	ID        string           `json:"id"`
	ProjectID common.ProjectID `json:"project_id"`
	Name      string           `json:"name"`
	Query     string           `json:"query"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewSavedView creates a view with a fresh id.  An empty query is valid: it
// is the all-defaults view.
func NewSavedView(projectID common.ProjectID, name, query string) (*SavedView, error) {
	if err := projectID.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	now := time.Time(common.NewTimestamp())
	return &SavedView{
		ID:        string(common.NewID()),
		ProjectID: projectID,
		Name:      name,
		Query:     query,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DefaultName returns the generated name for the n-th view of a project.
func DefaultName(prefix string, n int) string {
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return fmt.Sprintf("%s %d", prefix, n)
}

// NormalizeName trims name and checks its length.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New(errors.ErrCodeViewNameInvalid, "view name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", errors.New(errors.ErrCodeViewNameInvalid, "view name is too long").
			WithDetail(fmt.Sprintf("max %d characters", MaxNameLength))
	}
	return name, nil
}

// Rename changes the name and bumps UpdatedAt.
func (v *SavedView) Rename(name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	v.Name = name
	v.UpdatedAt = time.Time(common.NewTimestamp())
	return nil
}

// Validate checks the invariants enforced before persistence.
func (v *SavedView) Validate() error {
	if v.ID == "" {
		return errors.NewValidationError("ID cannot be empty")
	}
	if err := v.ProjectID.Validate(); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if _, err := NormalizeName(v.Name); err != nil {
		return err
	}
	return nil
}

// Clone returns a copy safe to hand out of a store.
func (v *SavedView) Clone() *SavedView {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

//Personal.AI order the ending
