package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// CircleID is a value object representing a unique circle identifier
type CircleID struct {
	value string
}

// NewCircleID creates a new random CircleID
func NewCircleID() CircleID {
	return CircleID{value: uuid.New().String()}
}

// NewCircleIDFromString creates a CircleID from an existing string
func NewCircleIDFromString(id string) (CircleID, error) {
	if err := validateID(id); err != nil {
		return CircleID{}, errors.New("circle " + err.Error())
	}
	return CircleID{value: id}, nil
}

// String returns the string representation of the CircleID
func (id CircleID) String() string {
	return id.value
}

// Equals checks if two CircleIDs are equal
func (id CircleID) Equals(other CircleID) bool {
	return id.value == other.value
}

// IsZero checks if the CircleID is the zero value
func (id CircleID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id CircleID) MarshalJSON() ([]byte, error) {
	return marshalID(id.value), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *CircleID) UnmarshalJSON(data []byte) error {
	v, err := unmarshalID(data)
	if err != nil {
		return err
	}
	id.value = v
	return nil
}

// MessageID is a value object representing a unique voice message identifier
type MessageID struct {
	value string
}

// NewMessageID creates a new random MessageID
func NewMessageID() MessageID {
	return MessageID{value: uuid.New().String()}
}

// NewMessageIDFromString creates a MessageID from an existing string
func NewMessageIDFromString(id string) (MessageID, error) {
	if err := validateID(id); err != nil {
		return MessageID{}, errors.New("message " + err.Error())
	}
	return MessageID{value: id}, nil
}

// String returns the string representation of the MessageID
func (id MessageID) String() string {
	return id.value
}

// Equals checks if two MessageIDs are equal
func (id MessageID) Equals(other MessageID) bool {
	return id.value == other.value
}

// IsZero checks if the MessageID is the zero value
func (id MessageID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id MessageID) MarshalJSON() ([]byte, error) {
	return marshalID(id.value), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *MessageID) UnmarshalJSON(data []byte) error {
	v, err := unmarshalID(data)
	if err != nil {
		return err
	}
	id.value = v
	return nil
}

func validateID(id string) error {
	if id == "" {
		return errors.New("ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("ID must be a valid UUID")
	}
	return nil
}

func marshalID(v string) []byte {
	return []byte(`"` + v + `"`)
}

func unmarshalID(data []byte) (string, error) {
	if string(data) == "null" {
		return "", nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", errors.New("ID must be a string")
	}
	return string(data[1 : len(data)-1]), nil
}
