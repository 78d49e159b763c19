package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_Validate_ValidUUID(t *testing.T) {
	id := ID("550e8400-e29b-41d4-a716-446655440000")
	assert.NoError(t, id.Validate())
}

func TestID_Validate_EmptyString(t *testing.T) {
	err := ID("").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestID_Validate_InvalidFormat(t *testing.T) {
	err := ID("not-a-uuid").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ID format")
}

func TestNewID_GeneratesValidUUID(t *testing.T) {
	assert.NoError(t, NewID().Validate())
}

func TestProjectID_Validate(t *testing.T) {
	assert.Error(t, ProjectID("").Validate())
	assert.NoError(t, ProjectID("proj-1").Validate())
}

func TestNewTimestamp_IsUTC(t *testing.T) {
	ts := time.Time(NewTimestamp())
	assert.Equal(t, time.UTC, ts.Location())
	assert.WithinDuration(t, time.Now(), ts, time.Second)
}

func TestNewBaseEvent(t *testing.T) {
	ev := NewBaseEvent("view-1")
	assert.Equal(t, "view-1", ev.AggregateID())
	assert.NoError(t, ID(ev.EventID()).Validate())
	assert.False(t, ev.OccurredAt().IsZero())

	other := NewBaseEvent("view-1")
	assert.NotEqual(t, ev.EventID(), other.EventID())
}

//Personal.AI order the ending
