package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mbolis/quest-editor/app"
	"github.com/mbolis/quest-editor/database"
	"github.com/mbolis/quest-editor/descriptor"
	"github.com/mbolis/quest-editor/format"
	"github.com/mbolis/quest-editor/httpx"
	"github.com/mbolis/quest-editor/log"
	"github.com/mbolis/quest-editor/model"
	"github.com/mbolis/quest-editor/navigation"
	"github.com/mbolis/quest-editor/sessions"
)

type sessionResponse struct {
	ID           string `json:"id"`
	SurveyID     string `json:"surveyId"`
	SectionCount int    `json:"sectionCount"`
	navigation.View
	SectionName string                  `json:"sectionName"`
	Questions   []descriptor.Descriptor `json:"questions"`
}

func renderSession(w http.ResponseWriter, r *http.Request, s *navigation.Session, view navigation.View) {
	survey := s.Survey()
	sec := s.CurrentSection()
	resp := sessionResponse{
		ID:           s.ID(),
		SurveyID:     survey.ID,
		SectionCount: len(survey.Sections),
		View:         view,
		SectionName:  sec.Name,
		Questions:    []descriptor.Descriptor{},
	}
	if !s.Complete() {
		resp.Questions = descriptor.DescribeSection(survey, sec, s.Seed())
	}
	render.JSON(w, r, resp)
}

func traceTransitions(sid string) navigation.Option {
	return navigation.WithObserver(func(t navigation.Transition) {
		log.WithFields(log.Fields{
			"session": sid,
			"from":    t.From,
			"to":      t.State,
			"section": t.SectionIndex,
			"errors":  len(t.Errors),
		}).Debug("navigation.transition")
	})
}

func loadPublished(ctx context.Context, app app.App, id string) (*model.Survey, error) {
	survey, err := app.LoadSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.Status != model.StatusPublished {
		return nil, database.ErrSurveyNotFound
	}
	return survey, nil
}

// PublicGetSurvey serves a published survey in the document format.
func PublicGetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := loadPublished(r.Context(), app, surveyId)
		if errors.Is(err, database.ErrSurveyNotFound) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

func StartSession(app app.App, m *metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := loadPublished(r.Context(), app, surveyId)
		if errors.Is(err, database.ErrSurveyNotFound) {
			httpx.LogNotFound(w, "start_session", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.start_session", err)
			return
		}

		s, err := app.Sessions.Start(r.Context(), survey)
		if err != nil {
			httpx.LogInternalError(w, "session.start", err)
			return
		}
		m.sessionsStarted.Inc()

		w.WriteHeader(http.StatusCreated)
		renderSession(w, r, s, s.View())
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *navigation.Session)

// withSession loads the session named in the URL and hands it to h.
func withSession(app app.App, code string, h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := chi.URLParam(r, "sid")

		s, err := app.Sessions.Load(r.Context(), sid, traceTransitions(sid))
		if errors.Is(err, sessions.ErrSessionNotFound) {
			httpx.LogNotFound(w, code, sid)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "session."+code+".load", err)
			return
		}

		h(w, r, s)
	}
}

func GetSession(app app.App) http.HandlerFunc {
	return withSession(app, "get_session", func(w http.ResponseWriter, r *http.Request, s *navigation.Session) {
		renderSession(w, r, s, s.View())
	})
}

type answerRequest struct {
	Value any `json:"value"`
}

// SetAnswer records one answer. Text formats and NPS scores are checked
// here, before they reach the session.
func SetAnswer(app app.App) http.HandlerFunc {
	return withSession(app, "set_answer", func(w http.ResponseWriter, r *http.Request, s *navigation.Session) {
		qid := chi.URLParam(r, "qid")

		req := answerRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		q := s.Survey().Question(qid)
		if q == nil {
			httpx.LogNotFound(w, "set_answer.question", qid)
			return
		}
		err = format.Check(q, req.Value)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, "set_answer.format", "%s", err)
			return
		}

		err = s.SetAnswer(qid, req.Value)
		if errors.Is(err, navigation.ErrSessionComplete) {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "set_answer", "%s", err)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "set_answer", err)
			return
		}

		err = app.Sessions.Save(r.Context(), s)
		if err != nil {
			httpx.LogInternalError(w, "session.set_answer.save", err)
			return
		}
		renderSession(w, r, s, s.View())
	})
}

// Advance validates the current section and moves on. A completed session
// is stored as a submission and forgotten.
func Advance(app app.App, m *metrics) http.HandlerFunc {
	return withSession(app, "advance", func(w http.ResponseWriter, r *http.Request, s *navigation.Session) {
		view, err := s.Advance()
		if errors.Is(err, navigation.ErrSessionComplete) {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "advance", "%s", err)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "advance", err)
			return
		}

		switch view.State {
		case navigation.StateError:
			m.validationFailures.Inc()
		case navigation.StateComplete:
			sub := &model.Submission{
				ID:       uuid.NewString(),
				SurveyID: s.Survey().ID,
				Time:     time.Now().UTC(),
				IP:       httpx.ClientIP(r),
				Answers:  view.Answers,
			}
			err = app.SaveSubmission(r.Context(), sub)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_submission", err)
				return
			}
			m.sessionsCompleted.Inc()

			err = app.Sessions.Delete(r.Context(), s.ID())
			if err != nil {
				log.Warnf("session.advance.delete: %s", err)
			}
			renderSession(w, r, s, view)
			return
		}

		err = app.Sessions.Save(r.Context(), s)
		if err != nil {
			httpx.LogInternalError(w, "session.advance.save", err)
			return
		}
		renderSession(w, r, s, view)
	})
}

func Back(app app.App) http.HandlerFunc {
	return withSession(app, "back", func(w http.ResponseWriter, r *http.Request, s *navigation.Session) {
		view, err := s.Back()
		if errors.Is(err, navigation.ErrFirstSection) || errors.Is(err, navigation.ErrSessionComplete) {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "back", "%s", err)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "back", err)
			return
		}

		err = app.Sessions.Save(r.Context(), s)
		if err != nil {
			httpx.LogInternalError(w, "session.back.save", err)
			return
		}
		renderSession(w, r, s, view)
	})
}
