package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"kakeibo/internal/core"
)

// MutationKind tags what a mutation message carries.
type MutationKind string

const (
	KindRecordUpdate    MutationKind = "record_update"
	KindCategoryReplace MutationKind = "category_replace"
)

// MutationMessage mirrors one optimistic local mutation so a worker can
// replay it against another store. Record updates carry the partial
// field update; category replacements carry the full label list, because
// the store has no partial primitive for it.
type MutationMessage struct {
	Kind      MutationKind       `json:"kind"`
	Update    *core.RecordUpdate `json:"update,omitempty"`
	Labels    []string           `json:"labels,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewRecordUpdateMessage wraps a record update.
func NewRecordUpdateMessage(u core.RecordUpdate) *MutationMessage {
	return &MutationMessage{
		Kind:      KindRecordUpdate,
		Update:    &u,
		Timestamp: time.Now(),
	}
}

// NewCategoryReplaceMessage wraps a full category list replacement.
func NewCategoryReplaceMessage(labels []string) *MutationMessage {
	return &MutationMessage{
		Kind:      KindCategoryReplace,
		Labels:    append([]string(nil), labels...),
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationMessageFromJSON parses a message and checks its shape.
func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case KindRecordUpdate:
		if msg.Update == nil {
			return nil, errors.New("record_update message without update payload")
		}
	case KindCategoryReplace:
		// An empty label list is valid: it clears the persisted list.
	default:
		return nil, errors.New("unknown mutation kind: " + string(msg.Kind))
	}
	return &msg, nil
}
