package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCircleIDFromString(t *testing.T) {
	id := NewCircleID()

	parsed, err := NewCircleIDFromString(id.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equals(id))

	_, err = NewCircleIDFromString("")
	assert.EqualError(t, err, "circle ID cannot be empty")

	_, err = NewCircleIDFromString("not-a-uuid")
	assert.EqualError(t, err, "circle ID must be a valid UUID")
}

func TestMessageIDJSON(t *testing.T) {
	id := NewMessageID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var decoded MessageID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equals(id))

	var empty MessageID
	require.NoError(t, json.Unmarshal([]byte("null"), &empty))
	assert.True(t, empty.IsZero())

	assert.Error(t, json.Unmarshal([]byte("42"), &empty))
}
