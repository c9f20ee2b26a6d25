package incidents

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalString_DistinguishesAbsentAndNull(t *testing.T) {
	var req UpdateIncidentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"owner":null,"title":"New title"}`), &req))

	// Explicit null: present, clears the value.
	assert.True(t, req.Owner.Set)
	assert.Nil(t, req.Owner.Value)

	// Absent: untouched.
	assert.False(t, req.Summary.Set)

	require.NotNil(t, req.Title)
	assert.Equal(t, "New title", *req.Title)
}

func TestOptionalString_Value(t *testing.T) {
	var req UpdateIncidentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"summary":"root cause found"}`), &req))

	assert.True(t, req.Summary.Set)
	require.NotNil(t, req.Summary.Value)
	assert.Equal(t, "root cause found", *req.Summary.Value)
}

func TestPatch_IsZero(t *testing.T) {
	assert.True(t, Patch{}.IsZero())

	title := "x"
	assert.False(t, Patch{Title: &title}.IsZero())
	assert.False(t, Patch{Owner: OptionalString{Set: true}}.IsZero())
}
