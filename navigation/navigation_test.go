package navigation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quest-editor/model"
	"github.com/mbolis/quest-editor/validation"
)

func branchingSurvey() *model.Survey {
	return &model.Survey{
		ID: "sv",
		Sections: []*model.Section{
			{ID: "s1", QuestionIDs: []string{"q1"}},
			{ID: "s2", QuestionIDs: []string{"q2"}},
			{ID: "s3", QuestionIDs: []string{"q3"}},
		},
		Questions: []*model.Question{
			{ID: "q1", SectionID: "s1", Required: true, Payload: model.MultipleChoice{
				Options: []string{"Yes", "No", "Skip"},
				Logic: []model.Rule{
					{TriggerOption: "No", DestinationSectionID: model.EndDestination},
					{TriggerOption: "Skip", DestinationSectionID: "s3"},
				},
			}},
			{ID: "q2", SectionID: "s2", Payload: model.Text{Format: model.FormatText}},
			{ID: "q3", SectionID: "s3", Payload: model.Text{Format: model.FormatText}},
		},
	}
}

func optionalSurvey() *model.Survey {
	return &model.Survey{
		ID: "opt",
		Sections: []*model.Section{
			{ID: "a", QuestionIDs: []string{"qa"}},
			{ID: "b", QuestionIDs: []string{"qb"}},
		},
		Questions: []*model.Question{
			{ID: "qa", SectionID: "a", Payload: model.Text{Format: model.FormatText}},
			{ID: "qb", SectionID: "b", Payload: model.Text{Format: model.FormatText}},
		},
	}
}

func TestNew(t *testing.T) {
	survey := branchingSurvey()
	s, err := New("x", survey, WithSeed(42))
	require.NoError(t, err)

	assert.Equal(t, "x", s.ID())
	assert.Equal(t, uint64(42), s.Seed())
	assert.Equal(t, StateInSection, s.State())
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, "s1", s.CurrentSection().ID)

	survey.Sections[0].ID = "changed"
	assert.Equal(t, "s1", s.CurrentSection().ID, "session keeps its own copy")

	_, err = New("y", &model.Survey{})
	assert.ErrorIs(t, err, model.ErrInvalidDocument)
}

func TestAdvance(t *testing.T) {
	t.Run("end rule completes", func(t *testing.T) {
		s, err := New("x", branchingSurvey())
		require.NoError(t, err)
		require.NoError(t, s.SetAnswer("q1", "No"))

		view, err := s.Advance()
		require.NoError(t, err)
		assert.Equal(t, StateComplete, view.State)
		assert.True(t, s.Complete())
	})

	t.Run("section rule jumps", func(t *testing.T) {
		s, err := New("x", branchingSurvey())
		require.NoError(t, err)
		require.NoError(t, s.SetAnswer("q1", "Skip"))

		view, err := s.Advance()
		require.NoError(t, err)
		assert.Equal(t, StateInSection, view.State)
		assert.Equal(t, 2, view.SectionIndex)
		assert.Equal(t, "s3", view.SectionID)
	})

	t.Run("no match goes to the next section", func(t *testing.T) {
		s, err := New("x", branchingSurvey())
		require.NoError(t, err)
		require.NoError(t, s.SetAnswer("q1", "Yes"))

		view, err := s.Advance()
		require.NoError(t, err)
		assert.Equal(t, 1, view.SectionIndex)
	})

	t.Run("optional sections", func(t *testing.T) {
		s, err := New("x", optionalSurvey())
		require.NoError(t, err)

		view, err := s.Advance()
		require.NoError(t, err)
		assert.Equal(t, StateInSection, view.State)
		assert.Equal(t, 1, view.SectionIndex)

		view, err = s.Advance()
		require.NoError(t, err)
		assert.Equal(t, StateComplete, view.State)

		_, err = s.Advance()
		assert.ErrorIs(t, err, ErrSessionComplete)
	})

	t.Run("missing required answer", func(t *testing.T) {
		s, err := New("x", branchingSurvey())
		require.NoError(t, err)

		view, err := s.Advance()
		require.NoError(t, err)
		assert.Equal(t, StateError, view.State)
		assert.Equal(t, validation.Errors{"q1": validation.MissingAnswer}, view.Errors)
		assert.Equal(t, 0, view.SectionIndex)

		require.NoError(t, s.SetAnswer("q1", "Yes"))
		assert.Equal(t, StateInSection, s.State())
		assert.Empty(t, s.View().Errors)
	})
}

func TestSetAnswer(t *testing.T) {
	s, err := New("x", optionalSurvey())
	require.NoError(t, err)

	err = s.SetAnswer("nope", "x")
	assert.ErrorIs(t, err, model.ErrQuestionNotFound)

	require.NoError(t, s.SetAnswer("qb", "later"))
	assert.Equal(t, model.Answers{"qb": "later"}, s.Answers())

	answers := s.Answers()
	answers["qb"] = "mutated"
	assert.Equal(t, "later", s.Answers()["qb"])

	_, err = s.Advance()
	require.NoError(t, err)
	_, err = s.Advance()
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetAnswer("qa", "late"), ErrSessionComplete)
}

func TestBack(t *testing.T) {
	s, err := New("x", branchingSurvey())
	require.NoError(t, err)

	_, err = s.Back()
	assert.ErrorIs(t, err, ErrFirstSection)

	require.NoError(t, s.SetAnswer("q1", "Skip"))
	_, err = s.Advance()
	require.NoError(t, err)
	require.Equal(t, 2, s.Index())

	view, err := s.Back()
	require.NoError(t, err)
	assert.Equal(t, 1, view.SectionIndex, "back follows declared order")
	assert.Equal(t, StateInSection, view.State)

	_, err = s.Back()
	require.NoError(t, err)
	require.NoError(t, s.SetAnswer("q1", "No"))
	_, err = s.Advance()
	require.NoError(t, err)

	_, err = s.Back()
	assert.ErrorIs(t, err, ErrSessionComplete)
}

func TestObserver(t *testing.T) {
	var got []State
	s, err := New("x", optionalSurvey(), WithObserver(func(tr Transition) {
		got = append(got, tr.State)
	}))
	require.NoError(t, err)

	_, err = s.Advance()
	require.NoError(t, err)
	assert.Equal(t, []State{StateValidating, StateResolving, StateInSection}, got)

	got = nil
	_, err = s.Advance()
	require.NoError(t, err)
	assert.Equal(t, []State{StateValidating, StateResolving, StateComplete}, got)
}

func TestSnapshot(t *testing.T) {
	s, err := New("x", branchingSurvey(), WithSeed(7))
	require.NoError(t, err)
	_, err = s.Advance()
	require.NoError(t, err)
	require.Equal(t, StateError, s.State())

	data, err := json.Marshal(s)
	require.NoError(t, err)

	restored, err := Restore(data)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), restored.ID())
	assert.Equal(t, s.Seed(), restored.Seed())
	assert.Equal(t, s.View(), restored.View())

	require.NoError(t, restored.SetAnswer("q1", "No"))
	view, err := restored.Advance()
	require.NoError(t, err)
	assert.Equal(t, StateComplete, view.State)

	t.Run("invalid", func(t *testing.T) {
		_, err := Restore([]byte(`{"id":"x"}`))
		assert.ErrorIs(t, err, model.ErrInvalidDocument)

		_, err = Restore([]byte(`not json`))
		assert.Error(t, err)
	})
}
