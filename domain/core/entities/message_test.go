package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-backend/domain/events"
	pkgerrors "aura-backend/pkg/errors"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("circle-1", "author-1", 3, "https://cdn/a.m4a", 4200)
	require.NoError(t, err)

	assert.False(t, msg.ID().IsZero())
	assert.Equal(t, "circle-1", msg.CircleID())
	assert.Equal(t, "author-1", msg.AuthorID())
	assert.Equal(t, 3, msg.SegmentIndex())
	assert.Equal(t, "https://cdn/a.m4a", msg.AudioURL())
	assert.Equal(t, int64(4200), msg.DurationMs())
	assert.Nil(t, msg.Transcript())
	assert.Nil(t, msg.EmotionalTags())

	evts := msg.GetUncommittedEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, events.TypeMessageRecorded, evts[0].GetEventType())
}

func TestNewMessage_Validation(t *testing.T) {
	tests := []struct {
		name     string
		circleID string
		authorID string
		duration int64
	}{
		{"empty circle", "", "author", 0},
		{"empty author", "circle", "", 0},
		{"negative duration", "circle", "author", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMessage(tt.circleID, tt.authorID, 0, "", tt.duration)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestNewMessage_AllowsEmptyAudioAndAnySegment(t *testing.T) {
	msg, err := NewMessage("circle", "author", -4, "", 0)
	require.NoError(t, err)
	assert.Equal(t, -4, msg.SegmentIndex())
}

func TestReconstructMessage_OptionalAttributes(t *testing.T) {
	transcript := "hello"
	tags := map[string]interface{}{"tone": "calm", "intensity": 0.7}

	msg, err := ReconstructMessage(
		"0c5f9d0e-8a34-4d63-9b1a-3f7b0c2a9e10", "circle", "author", 1,
		"url", 10, time.Unix(5, 0), &transcript, tags,
	)
	require.NoError(t, err)
	require.NotNil(t, msg.Transcript())
	assert.Equal(t, "hello", *msg.Transcript())

	got := msg.EmotionalTags()
	got["tone"] = "tense"
	assert.Equal(t, "calm", msg.EmotionalTags()["tone"])
	assert.Equal(t, 0.7, msg.EmotionalTags()["intensity"])
}
