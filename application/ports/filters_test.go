package ports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-backend/domain/core/entities"
)

func TestCircleFilter_Matches(t *testing.T) {
	circle, err := entities.ReconstructCircle(
		"2b8e0b7c-52d1-4b3e-8f3b-6d1c2f0e9a77", 1, entities.CircleStatusActive,
		[]string{"a", "b", "c"}, 7, time.Now(),
	)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter CircleFilter
		want   bool
	}{
		{"empty filter", CircleFilter{}, true},
		{"by id", CircleFilter{CircleID: circle.ID().String()}, true},
		{"other id", CircleFilter{CircleID: "other"}, false},
		{"active", CircleFilter{Status: entities.CircleStatusActive}, true},
		{"inactive", CircleFilter{Status: entities.CircleStatusInactive}, false},
		{"member", CircleFilter{Participant: "b"}, true},
		{"non member", CircleFilter{Participant: "z"}, false},
		{"not participant ok", CircleFilter{NotParticipant: "z"}, true},
		{"not participant violated", CircleFilter{NotParticipant: "a"}, false},
		{"below capacity", CircleFilter{ParticipantsBelow: 4}, true},
		{"at capacity", CircleFilter{ParticipantsBelow: 3}, false},
		{"excluded", CircleFilter{ExcludeIDs: []string{"x", circle.ID().String()}}, false},
		{"exclusion of others", CircleFilter{ExcludeIDs: []string{"x"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(circle))
		})
	}

	assert.False(t, CircleFilter{}.Matches(nil))
}
