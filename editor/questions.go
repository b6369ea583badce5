package editor

import (
	"fmt"
	"slices"

	"github.com/mbolis/quest-editor/branching"
	"github.com/mbolis/quest-editor/model"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// QuestionUpdate is a partial update; nil fields are left unchanged. The
// owning section cannot be changed this way.
type QuestionUpdate struct {
	Title       *string
	Description *string
	Required    *bool
	Payload     model.Payload
}

// AddQuestion creates a question of type t with its default payload and
// appends it to sectionID, or to the current section when sectionID is
// empty. intro-page questions get a new "Introduction" section in front of
// all others and thank-you-page questions a new "Thank you" section after
// them. The new question becomes the selection.
func (e *Editor) AddQuestion(t model.QuestionType, sectionID string) (*model.Question, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownType, t)
	}

	q := &model.Question{
		ID:      e.ids.NewID(),
		Title:   model.DefaultTitle(t),
		Payload: model.DefaultPayload(t),
	}

	switch t {
	case model.TypeIntroPage:
		sec := &model.Section{ID: e.ids.NewID(), Name: introSectionName, QuestionIDs: []string{q.ID}}
		q.SectionID = sec.ID
		e.doc.Sections = slices.Insert(e.doc.Sections, 0, sec)
		e.doc.Questions = slices.Insert(e.doc.Questions, 0, q)
	case model.TypeThankYouPage:
		sec := &model.Section{ID: e.ids.NewID(), Name: thankYouSectionName, QuestionIDs: []string{q.ID}}
		q.SectionID = sec.ID
		e.doc.Sections = append(e.doc.Sections, sec)
		e.doc.Questions = append(e.doc.Questions, q)
	default:
		if sectionID == "" {
			sectionID = e.current
		}
		sec, err := e.section(sectionID)
		if err != nil {
			return nil, err
		}
		q.SectionID = sec.ID
		sec.QuestionIDs = append(sec.QuestionIDs, q.ID)
		e.doc.Questions = append(e.doc.Questions, q)
	}

	e.current = q.SectionID
	e.selected = q.ID
	return q, nil
}

// UpdateQuestion merges the non-nil fields of u into the question. A new
// payload may change the question type; its rules must point forward, and
// rules whose trigger is no longer a possible answer are dropped.
func (e *Editor) UpdateQuestion(id string, u QuestionUpdate) (*model.Question, error) {
	q, err := e.question(id)
	if err != nil {
		return nil, err
	}

	if u.Payload != nil {
		if _, unknown := u.Payload.(model.Unsupported); unknown {
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownType, u.Payload.Type())
		}
		if err := e.checkDestinations(q.SectionID, model.Rules(u.Payload)); err != nil {
			return nil, err
		}
	}

	if u.Title != nil {
		q.Title = *u.Title
	}
	if u.Description != nil {
		q.Description = *u.Description
	}
	if u.Required != nil {
		q.Required = *u.Required
	}
	if u.Payload != nil {
		q.Payload = model.ClonePayload(u.Payload)
		e.pruneRules(q, func(r model.Rule) bool {
			return !slices.Contains(branching.TriggerKeys(q.Payload), r.TriggerOption)
		})
	}
	return q, nil
}

// DeleteQuestion removes the question from the document and from its
// section, and clears the selection if it was selected.
func (e *Editor) DeleteQuestion(id string) error {
	idx := e.doc.QuestionIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", model.ErrQuestionNotFound, id)
	}
	q := e.doc.Questions[idx]
	e.doc.Questions = slices.Delete(e.doc.Questions, idx, idx+1)
	if sec := e.doc.Section(q.SectionID); sec != nil {
		sec.QuestionIDs = slices.DeleteFunc(sec.QuestionIDs, func(qid string) bool { return qid == id })
	}
	if e.selected == id {
		e.selected = ""
	}
	return nil
}

// DuplicateQuestion copies a question under a fresh id with " (copy)"
// appended to its title, right after the original both in the global order
// and in its section.
func (e *Editor) DuplicateQuestion(id string) (*model.Question, error) {
	idx := e.doc.QuestionIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrQuestionNotFound, id)
	}
	src := e.doc.Questions[idx]
	dup := src.Clone()
	dup.ID = e.ids.NewID()
	dup.Title = src.Title + copySuffix

	e.doc.Questions = slices.Insert(e.doc.Questions, idx+1, dup)
	if sec := e.doc.Section(src.SectionID); sec != nil {
		pos := slices.Index(sec.QuestionIDs, id)
		sec.QuestionIDs = slices.Insert(sec.QuestionIDs, pos+1, dup.ID)
	}
	return dup, nil
}

// MoveQuestion swaps the question with its neighbour inside its own
// section. Moving past either end of the section is a no-op and reports
// false.
func (e *Editor) MoveQuestion(id string, dir Direction) (bool, error) {
	q, err := e.question(id)
	if err != nil {
		return false, err
	}
	sec, err := e.section(q.SectionID)
	if err != nil {
		return false, err
	}

	pos := slices.Index(sec.QuestionIDs, id)
	other := pos - 1
	if dir == Down {
		other = pos + 1
	}
	if pos < 0 || other < 0 || other >= len(sec.QuestionIDs) {
		return false, nil
	}

	otherID := sec.QuestionIDs[other]
	sec.QuestionIDs[pos], sec.QuestionIDs[other] = otherID, id

	// keep the global order consistent with the page order
	gi, gj := e.doc.QuestionIndex(id), e.doc.QuestionIndex(otherID)
	if gi >= 0 && gj >= 0 {
		e.doc.Questions[gi], e.doc.Questions[gj] = e.doc.Questions[gj], e.doc.Questions[gi]
	}
	return true, nil
}

// BranchTargets lists the sections a rule on the question may point to:
// those strictly after the question's own section.
func (e *Editor) BranchTargets(id string) ([]*model.Section, error) {
	q, err := e.question(id)
	if err != nil {
		return nil, err
	}
	if !q.Type().Branchable() {
		return nil, model.ErrNotBranchable
	}
	idx := e.doc.SectionIndex(q.SectionID)
	return slices.Clone(e.doc.Sections[idx+1:]), nil
}

// SetLogic replaces the rules of a branchable question.
func (e *Editor) SetLogic(id string, rules []model.Rule) error {
	q, err := e.question(id)
	if err != nil {
		return err
	}
	if !q.Type().Branchable() {
		return model.ErrNotBranchable
	}
	keys := branching.TriggerKeys(q.Payload)
	for _, r := range rules {
		if !slices.Contains(keys, r.TriggerOption) {
			return fmt.Errorf("%w: %q", model.ErrInvalidTrigger, r.TriggerOption)
		}
	}
	if err := e.checkDestinations(q.SectionID, rules); err != nil {
		return err
	}
	q.Payload, err = model.WithRules(q.Payload, rules)
	return err
}

// ImportQuestions appends copies of drafts to the section under fresh ids.
// Draft rules are discarded since their destinations are meaningless here.
func (e *Editor) ImportQuestions(sectionID string, drafts []*model.Question) ([]*model.Question, error) {
	if sectionID == "" {
		sectionID = e.current
	}
	sec, err := e.section(sectionID)
	if err != nil {
		return nil, err
	}

	added := make([]*model.Question, 0, len(drafts))
	for _, d := range drafts {
		q := d.Clone()
		q.ID = e.ids.NewID()
		q.SectionID = sec.ID
		e.pruneRules(q, func(model.Rule) bool { return true })
		e.doc.Questions = append(e.doc.Questions, q)
		sec.QuestionIDs = append(sec.QuestionIDs, q.ID)
		added = append(added, q)
	}
	return added, nil
}

func (e *Editor) checkDestinations(sectionID string, rules []model.Rule) error {
	from := e.doc.SectionIndex(sectionID)
	for _, r := range rules {
		if r.DestinationSectionID == model.EndDestination {
			continue
		}
		to := e.doc.SectionIndex(r.DestinationSectionID)
		if to < 0 {
			return fmt.Errorf("%w: %s", model.ErrSectionNotFound, r.DestinationSectionID)
		}
		if to <= from {
			return model.ErrBackwardBranch
		}
	}
	return nil
}

// pruneRules drops the rules of q matching drop.
// PruneInvalidRules drops every rule whose trigger is not a possible answer
// of its question, and reports how many were dropped. Documents replaced
// wholesale go through it, since their rules never passed SetLogic.
func (e *Editor) PruneInvalidRules() int {
	dropped := 0
	for _, q := range e.doc.Questions {
		keys := branching.TriggerKeys(q.Payload)
		before := len(model.Rules(q.Payload))
		e.pruneRules(q, func(r model.Rule) bool { return !slices.Contains(keys, r.TriggerOption) })
		dropped += before - len(model.Rules(q.Payload))
	}
	return dropped
}

func (e *Editor) pruneRules(q *model.Question, drop func(model.Rule) bool) {
	rules := model.Rules(q.Payload)
	if len(rules) == 0 {
		return
	}
	kept := slices.DeleteFunc(slices.Clone(rules), drop)
	if len(kept) == len(rules) {
		return
	}
	if len(kept) == 0 {
		kept = nil
	}
	q.Payload, _ = model.WithRules(q.Payload, kept)
}
