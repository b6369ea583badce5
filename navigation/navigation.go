// Package navigation drives a respondent through the sections of a survey.
//
// A Session holds a private snapshot of the survey and the respondent's
// answers. Advancing validates the current section, then asks the branching
// resolver where to go:
//
//	InSection -> Validating -> Error                  (stays on the section)
//	InSection -> Validating -> Resolving -> InSection (next or branched-to section)
//	InSection -> Validating -> Resolving -> Complete
//
// Back only steps to the previous section in declared order. It does not
// retrace the path taken, so after a forward jump it lands on a section the
// respondent skipped.
//
// A Session is not safe for concurrent use.
package navigation

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/mbolis/quest-editor/branching"
	"github.com/mbolis/quest-editor/log"
	"github.com/mbolis/quest-editor/model"
	"github.com/mbolis/quest-editor/validation"
)

var (
	ErrSessionComplete = errors.New("session is complete")
	ErrFirstSection    = errors.New("already on the first section")
)

type State string

const (
	StateInSection  State = "in_section"
	StateValidating State = "validating"
	StateError      State = "error"
	StateResolving  State = "resolving"
	StateComplete   State = "complete"
)

// View is what the presentation layer renders after each transition.
type View struct {
	State        State             `json:"state"`
	SectionIndex int               `json:"sectionIndex"`
	SectionID    string            `json:"sectionId"`
	Answers      model.Answers     `json:"answers"`
	Errors       validation.Errors `json:"errors"`
}

type Transition struct {
	From State
	View
}

// Observer is notified of every state change, transient ones included.
type Observer func(Transition)

type Option func(*Session)

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// WithSeed fixes the seed used to shuffle randomized options.
func WithSeed(seed uint64) Option {
	return func(s *Session) { s.seed = seed }
}

type Session struct {
	id        string
	survey    *model.Survey
	answers   model.Answers
	state     State
	index     int
	errors    validation.Errors
	seed      uint64
	observers []Observer
}

// New starts a session on the first section of a copy of survey.
func New(id string, survey *model.Survey, opts ...Option) (*Session, error) {
	if err := survey.Check(); err != nil {
		return nil, err
	}
	s := &Session{
		id:      id,
		survey:  survey.Clone(),
		answers: model.Answers{},
		state:   StateInSection,
		errors:  validation.Errors{},
		seed:    rand.Uint64(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Seed() uint64 { return s.seed }

// Survey returns the session's snapshot. Callers must not modify it.
func (s *Session) Survey() *model.Survey { return s.survey }

func (s *Session) State() State { return s.state }

func (s *Session) Index() int { return s.index }

func (s *Session) Complete() bool { return s.state == StateComplete }

func (s *Session) CurrentSection() *model.Section { return s.survey.Sections[s.index] }

func (s *Session) Answers() model.Answers { return s.answers.Clone() }

func (s *Session) View() View {
	return View{
		State:        s.state,
		SectionIndex: s.index,
		SectionID:    s.CurrentSection().ID,
		Answers:      s.answers.Clone(),
		Errors:       s.errors.Clone(),
	}
}

func (s *Session) transition(to State) {
	from := s.state
	s.state = to
	if len(s.observers) == 0 {
		return
	}
	t := Transition{From: from, View: s.View()}
	for _, o := range s.observers {
		o(t)
	}
}

// SetAnswer records the answer to a question and clears its error. Clearing
// the last error returns the session from Error to InSection.
func (s *Session) SetAnswer(questionID string, value any) error {
	if s.state == StateComplete {
		return ErrSessionComplete
	}
	if s.survey.Question(questionID) == nil {
		return fmt.Errorf("%w: %s", model.ErrQuestionNotFound, questionID)
	}
	s.answers[questionID] = value
	delete(s.errors, questionID)
	if s.state == StateError && len(s.errors) == 0 {
		s.transition(StateInSection)
	}
	return nil
}

// Advance validates the current section and moves on. Validation failures
// are not errors: the session enters StateError and the view lists them.
func (s *Session) Advance() (View, error) {
	if s.state == StateComplete {
		return s.View(), ErrSessionComplete
	}

	sec := s.CurrentSection()
	s.transition(StateValidating)
	errs := validation.ValidateSection(s.survey, sec, s.answers)
	if len(errs) > 0 {
		s.errors = errs
		log.Debugf("navigation.advance: session %s section %s has %d errors", s.id, sec.ID, len(errs))
		s.transition(StateError)
		return s.View(), nil
	}
	s.errors = validation.Errors{}

	s.transition(StateResolving)
	d := branching.ResolveNext(s.survey, sec.ID, s.answers)
	switch d.Kind {
	case branching.KindEnd:
		s.transition(StateComplete)
		return s.View(), nil
	case branching.KindSection:
		if next := s.survey.SectionIndex(d.SectionID); next > s.index {
			s.index = next
			s.transition(StateInSection)
			return s.View(), nil
		}
		log.Warnf("navigation.advance: session %s ignoring rule to %s, not a later section", s.id, d.SectionID)
	}

	if s.index == len(s.survey.Sections)-1 {
		s.transition(StateComplete)
		return s.View(), nil
	}
	s.index++
	s.transition(StateInSection)
	return s.View(), nil
}

// Back moves to the previous section in declared order and drops any
// pending errors.
func (s *Session) Back() (View, error) {
	switch {
	case s.state == StateComplete:
		return s.View(), ErrSessionComplete
	case s.index == 0:
		return s.View(), ErrFirstSection
	}
	s.index--
	s.errors = validation.Errors{}
	s.transition(StateInSection)
	return s.View(), nil
}
