package navigation

import (
	"encoding/json"
	"fmt"

	"github.com/mbolis/quest-editor/model"
	"github.com/mbolis/quest-editor/validation"
)

type snapshot struct {
	ID      string            `json:"id"`
	Survey  *model.Survey     `json:"survey"`
	Answers model.Answers     `json:"answers"`
	State   State             `json:"state"`
	Index   int               `json:"index"`
	Errors  validation.Errors `json:"errors,omitempty"`
	Seed    uint64            `json:"seed"`
}

// MarshalJSON encodes the full session so it can be stored between
// requests. Observers are not part of it.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		ID:      s.id,
		Survey:  s.survey,
		Answers: s.answers,
		State:   s.state,
		Index:   s.index,
		Errors:  s.errors,
		Seed:    s.seed,
	})
}

// Restore decodes a session written by MarshalJSON.
func Restore(data []byte, opts ...Option) (*Session, error) {
	snap := snapshot{}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if snap.Survey == nil {
		return nil, fmt.Errorf("decode session: %w: missing survey", model.ErrInvalidDocument)
	}
	if err := snap.Survey.Check(); err != nil {
		return nil, err
	}
	if snap.Index < 0 || snap.Index >= len(snap.Survey.Sections) {
		return nil, fmt.Errorf("decode session: section index %d out of range", snap.Index)
	}
	switch snap.State {
	case StateInSection, StateError, StateComplete:
	default:
		return nil, fmt.Errorf("decode session: unexpected state %q", snap.State)
	}

	s := &Session{
		id:      snap.ID,
		survey:  snap.Survey,
		answers: snap.Answers,
		state:   snap.State,
		index:   snap.Index,
		errors:  snap.Errors,
		seed:    snap.Seed,
	}
	if s.answers == nil {
		s.answers = model.Answers{}
	}
	if s.errors == nil {
		s.errors = validation.Errors{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
