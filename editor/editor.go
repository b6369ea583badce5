// Package editor implements the authoring operations on a survey document.
//
// An Editor is owned by a single author session and is not safe for
// concurrent use. The document is saved wholesale by the caller; there is no
// versioning, the last save wins.
package editor

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mbolis/quest-editor/model"
)

const (
	introSectionName    = "Introduction"
	thankYouSectionName = "Thank you"
	copySuffix          = " (copy)"
)

type IDGenerator interface {
	NewID() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

type Option func(*Editor)

func WithIDGenerator(g IDGenerator) Option {
	return func(e *Editor) { e.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

type Editor struct {
	doc      *model.Survey
	ids      IDGenerator
	now      func() time.Time
	current  string
	selected string
}

func newEditor(opts []Option) *Editor {
	e := &Editor{ids: UUIDGenerator{}, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New starts a draft survey with a single empty section.
func New(title string, opts ...Option) *Editor {
	e := newEditor(opts)
	now := e.now().UTC()
	e.doc = &model.Survey{
		ID:        e.ids.NewID(),
		Title:     title,
		Status:    model.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
		Theme:     model.DefaultTheme(),
	}
	sec := e.AddSection("")
	e.current = sec.ID
	return e
}

// Open edits an existing document in place. The document must satisfy
// model.Survey.Check.
func Open(doc *model.Survey, opts ...Option) (*Editor, error) {
	if err := doc.Check(); err != nil {
		return nil, err
	}
	e := newEditor(opts)
	e.doc = doc
	e.current = doc.Sections[0].ID
	return e, nil
}

func (e *Editor) Survey() *model.Survey { return e.doc }

func (e *Editor) CurrentSection() *model.Section { return e.doc.Section(e.current) }

func (e *Editor) SetCurrentSection(id string) error {
	if e.doc.Section(id) == nil {
		return fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
	}
	e.current = id
	return nil
}

// Selected returns the id of the selected question, or "".
func (e *Editor) Selected() string { return e.selected }

func (e *Editor) Select(questionID string) error {
	if questionID != "" && e.doc.Question(questionID) == nil {
		return fmt.Errorf("%w: %s", model.ErrQuestionNotFound, questionID)
	}
	e.selected = questionID
	return nil
}

func (e *Editor) SetTitle(title string) { e.doc.Title = title }

func (e *Editor) SetDescription(desc string) { e.doc.Description = desc }

func (e *Editor) SetTheme(theme model.Theme) { e.doc.Theme = theme }

func (e *Editor) Publish() { e.doc.Status = model.StatusPublished }

func (e *Editor) Unpublish() { e.doc.Status = model.StatusDraft }

func (e *Editor) section(id string) (*model.Section, error) {
	sec := e.doc.Section(id)
	if sec == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
	}
	return sec, nil
}

func (e *Editor) question(id string) (*model.Question, error) {
	q := e.doc.Question(id)
	if q == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrQuestionNotFound, id)
	}
	return q, nil
}

// AddSection appends an empty section. An empty name becomes "Page N".
func (e *Editor) AddSection(name string) *model.Section {
	if name == "" {
		name = fmt.Sprintf("Page %d", len(e.doc.Sections)+1)
	}
	sec := &model.Section{ID: e.ids.NewID(), Name: name, QuestionIDs: []string{}}
	e.doc.Sections = append(e.doc.Sections, sec)
	return sec
}

// RemoveSection deletes a section with its questions. Rules elsewhere that
// pointed at it are dropped. The current-section cursor moves to the first
// remaining section when it pointed at the removed one.
func (e *Editor) RemoveSection(id string) error {
	idx := e.doc.SectionIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
	}
	if len(e.doc.Sections) == 1 {
		return model.ErrLastSection
	}

	e.doc.Sections = slices.Delete(e.doc.Sections, idx, idx+1)
	e.doc.Questions = slices.DeleteFunc(e.doc.Questions, func(q *model.Question) bool {
		if q.SectionID != id {
			return false
		}
		if q.ID == e.selected {
			e.selected = ""
		}
		return true
	})
	for _, q := range e.doc.Questions {
		e.pruneRules(q, func(r model.Rule) bool { return r.DestinationSectionID == id })
	}

	if e.current == id {
		e.current = e.doc.Sections[0].ID
	}
	return nil
}

// DuplicateSection deep-copies a section and its questions under fresh ids
// and appends the copy after the last section. Copied rules that would no
// longer point forward are dropped, which leaves only "end" rules.
func (e *Editor) DuplicateSection(id string) (*model.Section, error) {
	src, err := e.section(id)
	if err != nil {
		return nil, err
	}

	dup := &model.Section{
		ID:          e.ids.NewID(),
		Name:        src.Name + copySuffix,
		QuestionIDs: make([]string, 0, len(src.QuestionIDs)),
	}
	for _, q := range e.doc.SectionQuestions(src) {
		c := q.Clone()
		c.ID = e.ids.NewID()
		c.SectionID = dup.ID
		e.pruneRules(c, func(r model.Rule) bool { return r.DestinationSectionID != model.EndDestination })
		e.doc.Questions = append(e.doc.Questions, c)
		dup.QuestionIDs = append(dup.QuestionIDs, c.ID)
	}
	e.doc.Sections = append(e.doc.Sections, dup)
	return dup, nil
}

// ReorderSections replaces the page order wholesale. order must be a
// permutation of the current section ids, and must keep every existing rule
// pointing forward.
func (e *Editor) ReorderSections(order []string) error {
	if len(order) != len(e.doc.Sections) {
		return fmt.Errorf("%w: expected %d sections, got %d", model.ErrInvalidDocument, len(e.doc.Sections), len(order))
	}
	sections := make([]*model.Section, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		sec := e.doc.Section(id)
		if sec == nil {
			return fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: section %s listed twice", model.ErrInvalidDocument, id)
		}
		seen[id] = true
		sections = append(sections, sec)
	}

	reordered := *e.doc
	reordered.Sections = sections
	if err := reordered.Check(); err != nil {
		return err
	}
	e.doc.Sections = sections
	return nil
}

func (e *Editor) RenameSection(id, name string) error {
	sec, err := e.section(id)
	if err != nil {
		return err
	}
	sec.Name = name
	return nil
}
