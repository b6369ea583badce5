package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quest-editor/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "quest.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testSurvey() *model.Survey {
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	return &model.Survey{
		ID:        "sv1",
		Title:     "Lunch",
		Status:    model.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
		Theme:     model.DefaultTheme(),
		Sections: []*model.Section{
			{ID: "s1", Name: "Food", QuestionIDs: []string{"q1", "q2"}},
			{ID: "s2", Name: "Drinks", QuestionIDs: []string{"q3"}},
		},
		Questions: []*model.Question{
			{ID: "q1", SectionID: "s1", Title: "Hungry?", Required: true, Payload: model.MultipleChoice{
				Options: []string{"Yes", "No"},
				Logic:   []model.Rule{{TriggerOption: "No", DestinationSectionID: "s2"}},
			}},
			{ID: "q2", SectionID: "s1", Title: "Score", Payload: model.NPS{}},
			{ID: "q3", SectionID: "s2", Title: "Which?", Payload: model.Checkbox{Options: []string{"Water", "Wine"}}},
		},
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{Driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &DB{Driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.Rebind("a = ?"))
}

func TestSurveys(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.LoadSurvey(ctx, "sv1")
	assert.ErrorIs(t, err, ErrSurveyNotFound)

	s := testSurvey()
	require.NoError(t, db.SaveSurvey(ctx, s))

	got, err := db.LoadSurvey(ctx, "sv1")
	require.NoError(t, err)
	assert.Equal(t, s.Title, got.Title)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, s.Theme, got.Theme)
	assert.Equal(t, s.Sections, got.Sections)
	assert.Equal(t, s.Questions, got.Questions)

	t.Run("save replaces children", func(t *testing.T) {
		s := testSurvey()
		s.Title = "Dinner"
		s.Sections[0].QuestionIDs = []string{"q2"}
		s.Questions = s.Questions[1:]
		require.NoError(t, db.SaveSurvey(ctx, s))

		got, err := db.LoadSurvey(ctx, "sv1")
		require.NoError(t, err)
		assert.Equal(t, "Dinner", got.Title)
		assert.Len(t, got.Questions, 2)
		assert.Nil(t, got.Question("q1"))
	})

	t.Run("list", func(t *testing.T) {
		other := testSurvey()
		other.ID = "sv2"
		for _, sec := range other.Sections {
			sec.ID = "o" + sec.ID
		}
		other.Sections[0].QuestionIDs = nil
		other.Sections[1].QuestionIDs = nil
		other.Questions = nil
		other.UpdatedAt = other.UpdatedAt.Add(time.Hour)
		require.NoError(t, db.SaveSurvey(ctx, other))

		list, err := db.ListSurveys(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "sv2", list[0].ID)
		assert.Equal(t, "sv1", list[1].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, db.DeleteSurvey(ctx, "sv2"))
		assert.ErrorIs(t, db.DeleteSurvey(ctx, "sv2"), ErrSurveyNotFound)
		_, err := db.LoadSurvey(ctx, "sv2")
		assert.ErrorIs(t, err, ErrSurveyNotFound)
	})
}

func TestSubmissions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.SaveSurvey(ctx, testSurvey()))

	sub := &model.Submission{
		ID:       "sub1",
		SurveyID: "sv1",
		Time:     time.Now().UTC(),
		IP:       "10.0.0.1",
		Answers:  model.Answers{"q1": "Yes", "q3": []string{"Wine"}},
	}
	require.NoError(t, db.SaveSubmission(ctx, sub))

	list, err := db.ListSubmissions(ctx, "sv1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "10.0.0.1", list[0].IP)
	assert.Equal(t, model.Answers{"q1": "Yes", "q3": []any{"Wine"}}, list[0].Answers)

	s, err := db.LoadSurvey(ctx, "sv1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.ResponseCount)

	require.NoError(t, db.SaveSurvey(ctx, testSurvey()))
	s, err = db.LoadSurvey(ctx, "sv1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.ResponseCount, "saving the document keeps the count")

	err = db.SaveSubmission(ctx, &model.Submission{ID: "sub2", SurveyID: "nope", Time: time.Now()})
	assert.ErrorIs(t, err, ErrSurveyNotFound)

	_, err = db.ListSubmissions(ctx, "nope")
	assert.ErrorIs(t, err, ErrSurveyNotFound)
}

func TestTokens(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	_, err := db.PasswordHash(ctx, "admin")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, db.PutUser(ctx, "admin", []byte("hash1")))
	require.NoError(t, db.PutUser(ctx, "admin", []byte("hash2")))
	hash, err := db.PasswordHash(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash2"), hash)

	require.NoError(t, db.StoreToken(ctx, "admin", "t1", "r1", now.Add(time.Hour)))
	require.NoError(t, db.StoreToken(ctx, "admin", "t2", "r2", now.Add(-time.Hour)))

	ok, err := db.ConsumeToken(ctx, "admin", "t1", "r1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.ConsumeToken(ctx, "admin", "t1", "r1", now)
	require.NoError(t, err)
	assert.False(t, ok, "tokens are single use")

	require.NoError(t, db.StoreToken(ctx, "admin", "t3", "r3", now.Add(-time.Minute)))
	n, err := db.DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
