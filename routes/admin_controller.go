package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quest-editor/app"
	"github.com/mbolis/quest-editor/database"
	"github.com/mbolis/quest-editor/editor"
	"github.com/mbolis/quest-editor/httpx"
	"github.com/mbolis/quest-editor/log"
	"github.com/mbolis/quest-editor/model"
	"github.com/mbolis/quest-editor/wire"
)

type createSurveyRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func CreateSurvey(app app.App, m *metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := createSurveyRequest{}
		err := httpx.DecodeValid(r, &req)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		e := editor.New(model.SanitizeText(req.Title))
		e.SetDescription(model.SanitizeText(req.Description))

		err = app.SaveSurvey(r.Context(), e.Survey())
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}
		m.surveysSaved.Inc()

		w.WriteHeader(http.StatusCreated)
		renderSurvey(w, r, e.Survey())
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.ListSurveys(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := app.LoadSurvey(r.Context(), surveyId)
		if errors.Is(err, database.ErrSurveyNotFound) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		renderSurvey(w, r, survey)
	}
}

// UpdateSurvey overwrites the whole document with the relational payload in
// the body. There is no version check: the last save wins.
func UpdateSurvey(app app.App, m *metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		payload := wire.Payload{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if payload.Survey.ID != surveyId {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, "request.survey_id",
				"survey id %q does not match %q", payload.Survey.ID, surveyId)
			return
		}

		survey, err := wire.Assemble(&payload)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, "request.assemble", "%s", err)
			return
		}

		stored, err := app.LoadSurvey(r.Context(), surveyId)
		if errors.Is(err, database.ErrSurveyNotFound) {
			httpx.LogNotFound(w, "update_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.load", err)
			return
		}

		survey.Sanitize()
		e, err := editor.Open(survey)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, "request.assemble", "%s", err)
			return
		}
		if n := e.PruneInvalidRules(); n > 0 {
			log.Debugf("update_survey: dropped %d rules with unknown triggers", n)
		}
		survey.CreatedAt = stored.CreatedAt
		survey.UpdatedAt = time.Now().UTC()
		err = app.SaveSurvey(r.Context(), survey)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}
		m.surveysSaved.Inc()

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		err := app.DeleteSurvey(r.Context(), surveyId)
		if errors.Is(err, database.ErrSurveyNotFound) {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func PublishSurvey(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "publish_survey", func(e *editor.Editor, r *http.Request) (int, any, error) {
		e.Publish()
		return http.StatusOK, nil, nil
	})
}

func UnpublishSurvey(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "unpublish_survey", func(e *editor.Editor, r *http.Request) (int, any, error) {
		e.Unpublish()
		return http.StatusOK, nil, nil
	})
}

func SetTheme(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "set_theme", func(e *editor.Editor, r *http.Request) (int, any, error) {
		theme := model.Theme{}
		if err := render.DecodeJSON(r.Body, &theme); err != nil {
			return 0, nil, badRequest(err)
		}
		e.SetTheme(theme)
		return http.StatusOK, theme, nil
	})
}

func GetSurveySubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		submissions, err := app.ListSubmissions(r.Context(), surveyId)
		if errors.Is(err, database.ErrSurveyNotFound) {
			httpx.LogNotFound(w, "get_submissions", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}

// renderSurvey writes the document in the relational shape.
func renderSurvey(w http.ResponseWriter, r *http.Request, s *model.Survey) {
	payload, err := wire.Flatten(s)
	if err != nil {
		httpx.LogInternalError(w, "survey.flatten", err)
		return
	}
	render.JSON(w, r, payload)
}
