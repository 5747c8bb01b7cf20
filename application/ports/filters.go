package ports

import "aura-backend/domain/core/entities"

// CircleFilter selects circle documents. Zero-valued fields do not constrain.
type CircleFilter struct {
	CircleID string
	Status   entities.CircleStatus

	// Participant requires the user to be listed among participants
	Participant string

	// NotParticipant requires the user to be absent from participants
	NotParticipant string

	// ParticipantsBelow requires len(participants) < ParticipantsBelow
	ParticipantsBelow int

	// ExcludeIDs skips circles already known to be unusable
	ExcludeIDs []string
}

// Matches evaluates the filter against a circle. Backends that cannot push a
// predicate down to storage use it to finish the evaluation.
func (f CircleFilter) Matches(c *entities.Circle) bool {
	if c == nil {
		return false
	}
	if f.CircleID != "" && c.ID().String() != f.CircleID {
		return false
	}
	if f.Status != "" && c.Status() != f.Status {
		return false
	}
	if f.Participant != "" && !c.HasParticipant(f.Participant) {
		return false
	}
	if f.NotParticipant != "" && c.HasParticipant(f.NotParticipant) {
		return false
	}
	if f.ParticipantsBelow > 0 && c.ParticipantCount() >= f.ParticipantsBelow {
		return false
	}
	for _, id := range f.ExcludeIDs {
		if c.ID().String() == id {
			return false
		}
	}
	return true
}

// CircleUpdate describes a mutation of a single circle document
type CircleUpdate struct {
	// AppendParticipant is pushed onto the end of the participant list
	AppendParticipant string
}

// IsEmpty reports whether the update changes nothing
func (u CircleUpdate) IsEmpty() bool {
	return u.AppendParticipant == ""
}
