package editor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quest-editor/branching"
	"github.com/mbolis/quest-editor/model"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id%d", g.n)
}

func testEditor(t *testing.T) *Editor {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return New("Survey", WithIDGenerator(&seqIDs{}), WithClock(func() time.Time { return now }))
}

func addQuestion(t *testing.T, e *Editor, typ model.QuestionType, sectionID string) *model.Question {
	t.Helper()
	q, err := e.AddQuestion(typ, sectionID)
	require.NoError(t, err)
	return q
}

func TestNew(t *testing.T) {
	e := testEditor(t)
	s := e.Survey()

	assert.Equal(t, "Survey", s.Title)
	assert.Equal(t, model.StatusDraft, s.Status)
	assert.Equal(t, model.DefaultTheme(), s.Theme)
	require.Len(t, s.Sections, 1)
	assert.Equal(t, "Page 1", s.Sections[0].Name)
	assert.Equal(t, s.Sections[0], e.CurrentSection())
	assert.NoError(t, s.Check())

	e.Publish()
	assert.Equal(t, model.StatusPublished, s.Status)
	e.Unpublish()
	assert.Equal(t, model.StatusDraft, s.Status)
}

func TestOpen(t *testing.T) {
	_, err := Open(&model.Survey{})
	assert.ErrorIs(t, err, model.ErrInvalidDocument)
}

func TestAddSection(t *testing.T) {
	e := testEditor(t)
	sec := e.AddSection("")
	assert.Equal(t, "Page 2", sec.Name)
	named := e.AddSection("Details")
	assert.Equal(t, "Details", named.Name)
	assert.Len(t, e.Survey().Sections, 3)
}

func TestRemoveSection(t *testing.T) {
	t.Run("last section", func(t *testing.T) {
		e := testEditor(t)
		only := e.Survey().Sections[0]
		addQuestion(t, e, model.TypeText, only.ID)

		err := e.RemoveSection(only.ID)
		assert.ErrorIs(t, err, model.ErrLastSection)
		require.Len(t, e.Survey().Sections, 1)
		assert.Len(t, e.Survey().Questions, 1)
	})

	t.Run("cascades and prunes rules", func(t *testing.T) {
		e := testEditor(t)
		first := e.Survey().Sections[0]
		second := e.AddSection("")
		third := e.AddSection("")

		choice := addQuestion(t, e, model.TypeMultipleChoice, first.ID)
		doomed := addQuestion(t, e, model.TypeText, second.ID)
		require.NoError(t, e.SetLogic(choice.ID, []model.Rule{
			{TriggerOption: "Option 1", DestinationSectionID: second.ID},
			{TriggerOption: "Option 2", DestinationSectionID: third.ID},
		}))
		require.NoError(t, e.Select(doomed.ID))
		require.NoError(t, e.SetCurrentSection(second.ID))

		require.NoError(t, e.RemoveSection(second.ID))

		s := e.Survey()
		assert.Len(t, s.Sections, 2)
		assert.Nil(t, s.Question(doomed.ID))
		assert.Equal(t, "", e.Selected())
		assert.Equal(t, first.ID, e.CurrentSection().ID)
		assert.Equal(t, []model.Rule{{TriggerOption: "Option 2", DestinationSectionID: third.ID}}, model.Rules(choice.Payload))
		assert.NoError(t, s.Check())
	})

	t.Run("unknown section", func(t *testing.T) {
		e := testEditor(t)
		e.AddSection("")
		assert.ErrorIs(t, e.RemoveSection("nope"), model.ErrSectionNotFound)
	})
}

func TestDuplicateSection(t *testing.T) {
	e := testEditor(t)
	first := e.Survey().Sections[0]
	second := e.AddSection("")
	choice := addQuestion(t, e, model.TypeMultipleChoice, first.ID)
	addQuestion(t, e, model.TypeText, first.ID)
	require.NoError(t, e.SetLogic(choice.ID, []model.Rule{
		{TriggerOption: "Option 1", DestinationSectionID: second.ID},
		{TriggerOption: "Option 2", DestinationSectionID: model.EndDestination},
	}))

	dup, err := e.DuplicateSection(first.ID)
	require.NoError(t, err)

	s := e.Survey()
	assert.Equal(t, "Page 1 (copy)", dup.Name)
	assert.Equal(t, dup, s.Sections[len(s.Sections)-1])
	require.Len(t, dup.QuestionIDs, len(first.QuestionIDs))
	for _, id := range dup.QuestionIDs {
		assert.NotContains(t, first.QuestionIDs, id)
		assert.Equal(t, dup.ID, s.Question(id).SectionID)
	}

	copied := s.Question(dup.QuestionIDs[0])
	assert.Equal(t, []model.Rule{{TriggerOption: "Option 2", DestinationSectionID: model.EndDestination}}, model.Rules(copied.Payload))
	assert.Len(t, model.Rules(choice.Payload), 2)
	assert.NoError(t, s.Check())
}

func TestReorderSections(t *testing.T) {
	e := testEditor(t)
	first := e.Survey().Sections[0]
	second := e.AddSection("")
	third := e.AddSection("")

	require.NoError(t, e.ReorderSections([]string{third.ID, first.ID, second.ID}))
	assert.Equal(t, third.ID, e.Survey().Sections[0].ID)

	assert.ErrorIs(t, e.ReorderSections([]string{first.ID}), model.ErrInvalidDocument)
	assert.ErrorIs(t, e.ReorderSections([]string{first.ID, first.ID, second.ID}), model.ErrInvalidDocument)

	choice := addQuestion(t, e, model.TypeDropdown, first.ID)
	require.NoError(t, e.SetLogic(choice.ID, []model.Rule{{TriggerOption: "Option 1", DestinationSectionID: second.ID}}))
	err := e.ReorderSections([]string{second.ID, first.ID, third.ID})
	assert.ErrorIs(t, err, model.ErrBackwardBranch)
	assert.Equal(t, third.ID, e.Survey().Sections[0].ID)
}

func TestAddQuestion(t *testing.T) {
	t.Run("defaults into current section", func(t *testing.T) {
		e := testEditor(t)
		q := addQuestion(t, e, model.TypeRating, "")

		assert.Equal(t, e.Survey().Sections[0].ID, q.SectionID)
		assert.Equal(t, "Untitled question", q.Title)
		assert.Equal(t, model.DefaultPayload(model.TypeRating), q.Payload)
		assert.Equal(t, q.ID, e.Selected())
	})

	t.Run("intro page goes first", func(t *testing.T) {
		e := testEditor(t)
		addQuestion(t, e, model.TypeText, "")
		q := addQuestion(t, e, model.TypeIntroPage, "")

		s := e.Survey()
		assert.Equal(t, "Introduction", s.Sections[0].Name)
		assert.Equal(t, q.ID, s.Questions[0].ID)
		assert.Equal(t, []string{q.ID}, s.Sections[0].QuestionIDs)
		assert.Equal(t, s.Sections[0].ID, e.CurrentSection().ID)
		assert.NoError(t, s.Check())
	})

	t.Run("thank you page goes last", func(t *testing.T) {
		e := testEditor(t)
		q := addQuestion(t, e, model.TypeThankYouPage, "")

		s := e.Survey()
		last := s.Sections[len(s.Sections)-1]
		assert.Equal(t, "Thank you", last.Name)
		assert.Equal(t, q.SectionID, last.ID)
		assert.Equal(t, "Thank you!", q.Title)
	})

	t.Run("unknown type", func(t *testing.T) {
		e := testEditor(t)
		_, err := e.AddQuestion("video", "")
		assert.ErrorIs(t, err, model.ErrUnknownType)
	})
}

func TestDeleteQuestion(t *testing.T) {
	e := testEditor(t)
	first := e.Survey().Sections[0]
	second := e.AddSection("")
	a := addQuestion(t, e, model.TypeText, first.ID)
	b := addQuestion(t, e, model.TypeText, first.ID)
	c := addQuestion(t, e, model.TypeText, second.ID)

	require.NoError(t, e.DeleteQuestion(a.ID))

	assert.Equal(t, []string{b.ID}, first.QuestionIDs)
	assert.Equal(t, []string{c.ID}, second.QuestionIDs)
	assert.Nil(t, e.Survey().Question(a.ID))
	assert.ErrorIs(t, e.DeleteQuestion(a.ID), model.ErrQuestionNotFound)
}

func TestDuplicateQuestion(t *testing.T) {
	e := testEditor(t)
	a := addQuestion(t, e, model.TypeCheckbox, "")
	b := addQuestion(t, e, model.TypeText, "")

	dup, err := e.DuplicateQuestion(a.ID)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, dup.ID)
	assert.Equal(t, "Untitled question (copy)", dup.Title)
	assert.Equal(t, []string{a.ID, dup.ID, b.ID}, e.Survey().Sections[0].QuestionIDs)
	assert.Equal(t, dup.ID, e.Survey().Questions[1].ID)

	opts := dup.Payload.(model.Checkbox).Options
	opts[0] = "changed"
	assert.Equal(t, "Option 1", a.Payload.(model.Checkbox).Options[0])
}

func TestMoveQuestion(t *testing.T) {
	e := testEditor(t)
	first := e.Survey().Sections[0]
	second := e.AddSection("")
	a := addQuestion(t, e, model.TypeText, first.ID)
	other := addQuestion(t, e, model.TypeText, second.ID)
	b := addQuestion(t, e, model.TypeText, first.ID)

	moved, err := e.MoveQuestion(b.ID, Up)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{b.ID, a.ID}, first.QuestionIDs)
	assert.Equal(t, []string{other.ID}, second.QuestionIDs)

	moved, err = e.MoveQuestion(b.ID, Up)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = e.MoveQuestion(other.ID, Down)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.NoError(t, e.Survey().Check())
}

func TestSetLogic(t *testing.T) {
	e := testEditor(t)
	first := e.Survey().Sections[0]
	second := e.AddSection("")
	nps := addQuestion(t, e, model.TypeNPS, second.ID)
	choice := addQuestion(t, e, model.TypeMultipleChoice, first.ID)
	text := addQuestion(t, e, model.TypeText, first.ID)

	t.Run("forward", func(t *testing.T) {
		rules := []model.Rule{{TriggerOption: "Option 2", DestinationSectionID: second.ID}}
		require.NoError(t, e.SetLogic(choice.ID, rules))
		assert.Equal(t, rules, model.Rules(choice.Payload))
	})

	t.Run("backward", func(t *testing.T) {
		err := e.SetLogic(nps.ID, []model.Rule{{TriggerOption: "Detractor", DestinationSectionID: first.ID}})
		assert.ErrorIs(t, err, model.ErrBackwardBranch)
	})

	t.Run("same section", func(t *testing.T) {
		err := e.SetLogic(nps.ID, []model.Rule{{TriggerOption: "Detractor", DestinationSectionID: second.ID}})
		assert.ErrorIs(t, err, model.ErrBackwardBranch)
	})

	t.Run("unknown trigger", func(t *testing.T) {
		err := e.SetLogic(nps.ID, []model.Rule{{TriggerOption: "Sad", DestinationSectionID: model.EndDestination}})
		assert.ErrorIs(t, err, model.ErrInvalidTrigger)
	})

	t.Run("not branchable", func(t *testing.T) {
		err := e.SetLogic(text.ID, nil)
		assert.ErrorIs(t, err, model.ErrNotBranchable)
	})

	t.Run("targets", func(t *testing.T) {
		targets, err := e.BranchTargets(choice.ID)
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, second.ID, targets[0].ID)

		targets, err = e.BranchTargets(nps.ID)
		require.NoError(t, err)
		assert.Empty(t, targets)
	})
}

func TestUpdateQuestion(t *testing.T) {
	e := testEditor(t)
	second := e.AddSection("")
	q := addQuestion(t, e, model.TypeDropdown, e.Survey().Sections[0].ID)
	require.NoError(t, e.SetLogic(q.ID, []model.Rule{
		{TriggerOption: "Option 1", DestinationSectionID: second.ID},
		{TriggerOption: "Option 2", DestinationSectionID: model.EndDestination},
	}))

	title := "Where?"
	required := true
	updated, err := e.UpdateQuestion(q.ID, QuestionUpdate{
		Title:    &title,
		Required: &required,
		Payload: model.Dropdown{
			Options: []string{"Option 2", "Option 3"},
			Logic:   model.Rules(q.Payload),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Where?", updated.Title)
	assert.True(t, updated.Required)
	assert.Equal(t, []model.Rule{{TriggerOption: "Option 2", DestinationSectionID: model.EndDestination}}, model.Rules(updated.Payload))

	_, err = e.UpdateQuestion(q.ID, QuestionUpdate{Payload: model.Unsupported{Kind: "video"}})
	assert.ErrorIs(t, err, model.ErrUnknownType)

	_, err = e.UpdateQuestion(q.ID, QuestionUpdate{Payload: model.Dropdown{
		Options: []string{"A"},
		Logic:   []model.Rule{{TriggerOption: "A", DestinationSectionID: e.Survey().Sections[0].ID}},
	}})
	assert.ErrorIs(t, err, model.ErrBackwardBranch)
}

func TestUpdateQuestionSanitized(t *testing.T) {
	e := testEditor(t)
	q := addQuestion(t, e, model.TypeMultipleChoice, "")

	updated, err := e.UpdateQuestion(q.ID, QuestionUpdate{
		Payload: model.SanitizePayload(model.MultipleChoice{
			Options: []string{"<b>Yes</b>", "No "},
			Logic: []model.Rule{
				{TriggerOption: "<b>Yes</b>", DestinationSectionID: model.EndDestination},
				{TriggerOption: "No ", DestinationSectionID: model.EndDestination},
			},
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Yes", "No"}, model.Options(updated.Payload))
	require.Len(t, model.Rules(updated.Payload), 2)

	sec := e.Survey().Sections[0].ID
	for _, answer := range []string{"Yes", "No"} {
		d := branching.ResolveNext(e.Survey(), sec, model.Answers{q.ID: answer})
		assert.Equal(t, branching.KindEnd, d.Kind, answer)
	}
}

func TestPruneInvalidRules(t *testing.T) {
	e := testEditor(t)
	second := e.AddSection("")
	choice := addQuestion(t, e, model.TypeMultipleChoice, e.Survey().Sections[0].ID)
	nps := addQuestion(t, e, model.TypeNPS, e.Survey().Sections[0].ID)

	// as a wholesale replace would store them, without SetLogic
	choice.Payload = model.MultipleChoice{
		Options: []string{"Yes", "No"},
		Logic: []model.Rule{
			{TriggerOption: "<b>Yes</b>", DestinationSectionID: model.EndDestination},
			{TriggerOption: "No", DestinationSectionID: second.ID},
		},
	}
	nps.Payload = model.NPS{Logic: []model.Rule{{TriggerOption: "Fan", DestinationSectionID: model.EndDestination}}}

	assert.Equal(t, 2, e.PruneInvalidRules())
	assert.Equal(t, []model.Rule{{TriggerOption: "No", DestinationSectionID: second.ID}}, model.Rules(choice.Payload))
	assert.Empty(t, model.Rules(nps.Payload))
	assert.Zero(t, e.PruneInvalidRules())
}

func TestImportQuestions(t *testing.T) {
	e := testEditor(t)
	drafts := []*model.Question{
		{Title: "Name", Payload: model.DefaultPayload(model.TypeText)},
		{ID: "foreign", Title: "Pick", Payload: model.MultipleChoice{
			Options: []string{"A"},
			Logic:   []model.Rule{{TriggerOption: "A", DestinationSectionID: "elsewhere"}},
		}},
	}

	added, err := e.ImportQuestions("", drafts)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotEqual(t, "foreign", added[1].ID)
	assert.Empty(t, model.Rules(added[1].Payload))
	assert.Equal(t, []string{added[0].ID, added[1].ID}, e.Survey().Sections[0].QuestionIDs)
	assert.NoError(t, e.Survey().Check())
}
