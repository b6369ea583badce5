package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quest-editor/app"
	"github.com/mbolis/quest-editor/database"
	"github.com/mbolis/quest-editor/editor"
	"github.com/mbolis/quest-editor/httpx"
	"github.com/mbolis/quest-editor/importer"
	"github.com/mbolis/quest-editor/log"
	"github.com/mbolis/quest-editor/model"
)

const maxImportSize = 1 << 20

type errBadRequest struct{ error }

func badRequest(err error) error { return errBadRequest{err} }

type editFunc func(e *editor.Editor, r *http.Request) (status int, body any, err error)

// editSurvey loads a survey, applies fn through an editor and saves the
// document back wholesale. A nil body answers with the updated survey.
func editSurvey(app app.App, m *metrics, code string, fn editFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := app.LoadSurvey(r.Context(), surveyId)
		if errors.Is(err, database.ErrSurveyNotFound) {
			httpx.LogNotFound(w, code, surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db."+code+".load", err)
			return
		}

		e, err := editor.Open(survey)
		if err != nil {
			httpx.LogInternalError(w, code+".open", err)
			return
		}

		status, body, err := fn(e, r)
		if err != nil {
			editError(w, code, err)
			return
		}

		survey.UpdatedAt = time.Now().UTC()
		err = app.SaveSurvey(r.Context(), survey)
		if err != nil {
			httpx.LogInternalError(w, "db."+code+".save", err)
			return
		}
		m.surveysSaved.Inc()

		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		if body == nil {
			renderSurvey(w, r, survey)
			return
		}
		w.WriteHeader(status)
		render.JSON(w, r, body)
	}
}

func editError(w http.ResponseWriter, code string, err error) {
	var bad errBadRequest
	switch {
	case errors.As(err, &bad):
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code+".request", "%s", bad.error)
	case errors.Is(err, model.ErrImportParse):
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code+".import", "%s", err)
	case errors.Is(err, model.ErrSectionNotFound), errors.Is(err, model.ErrQuestionNotFound):
		httpx.LogStatusMsg(w, http.StatusNotFound, log.DebugLevel, code, "%s", err)
	case errors.Is(err, model.ErrLastSection):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "%s", err)
	case errors.Is(err, model.ErrNotBranchable),
		errors.Is(err, model.ErrBackwardBranch),
		errors.Is(err, model.ErrInvalidTrigger),
		errors.Is(err, model.ErrUnknownType),
		errors.Is(err, model.ErrInvalidDocument):
		httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, code, "%s", err)
	default:
		httpx.LogInternalError(w, code, err)
	}
}

type sectionRequest struct {
	Name string `json:"name" validate:"max=200"`
}

func AddSection(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "add_section", func(e *editor.Editor, r *http.Request) (int, any, error) {
		req := sectionRequest{}
		if err := httpx.DecodeValid(r, &req); err != nil {
			return 0, nil, badRequest(err)
		}
		return http.StatusCreated, e.AddSection(model.SanitizeText(req.Name)), nil
	})
}

func RenameSection(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "rename_section", func(e *editor.Editor, r *http.Request) (int, any, error) {
		req := sectionRequest{}
		if err := httpx.DecodeValid(r, &req); err != nil {
			return 0, nil, badRequest(err)
		}
		sid := chi.URLParam(r, "sid")
		if err := e.RenameSection(sid, model.SanitizeText(req.Name)); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, e.Survey().Section(sid), nil
	})
}

func RemoveSection(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "remove_section", func(e *editor.Editor, r *http.Request) (int, any, error) {
		return http.StatusNoContent, nil, e.RemoveSection(chi.URLParam(r, "sid"))
	})
}

func DuplicateSection(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "duplicate_section", func(e *editor.Editor, r *http.Request) (int, any, error) {
		sec, err := e.DuplicateSection(chi.URLParam(r, "sid"))
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, sec, nil
	})
}

type orderRequest struct {
	Order []string `json:"order" validate:"required,min=1,dive,required"`
}

func ReorderSections(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "reorder_sections", func(e *editor.Editor, r *http.Request) (int, any, error) {
		req := orderRequest{}
		if err := httpx.DecodeValid(r, &req); err != nil {
			return 0, nil, badRequest(err)
		}
		return http.StatusOK, nil, e.ReorderSections(req.Order)
	})
}

type addQuestionRequest struct {
	Type model.QuestionType `json:"type" validate:"required"`
}

func AddQuestion(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "add_question", func(e *editor.Editor, r *http.Request) (int, any, error) {
		req := addQuestionRequest{}
		if err := httpx.DecodeValid(r, &req); err != nil {
			return 0, nil, badRequest(err)
		}
		q, err := e.AddQuestion(req.Type, chi.URLParam(r, "sid"))
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, q, nil
	})
}

// questionPatch carries the common fields of a partial update. When "type"
// is present the whole body is also read as the new payload, in the same
// flat format questions are rendered in.
type questionPatch struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Required    *bool              `json:"required"`
	Type        model.QuestionType `json:"type"`
}

func UpdateQuestion(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "update_question", func(e *editor.Editor, r *http.Request) (int, any, error) {
		body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxImportSize))
		if err != nil {
			return 0, nil, badRequest(err)
		}
		patch := questionPatch{}
		if err := json.Unmarshal(body, &patch); err != nil {
			return 0, nil, badRequest(err)
		}

		u := editor.QuestionUpdate{Required: patch.Required}
		if patch.Title != nil {
			title := model.SanitizeText(*patch.Title)
			u.Title = &title
		}
		if patch.Description != nil {
			desc := model.SanitizeText(*patch.Description)
			u.Description = &desc
		}
		if patch.Type != "" {
			p, err := model.DecodePayload(patch.Type, body)
			if err != nil {
				return 0, nil, badRequest(err)
			}
			// rules are pruned against the options as stored
			u.Payload = model.SanitizePayload(p)
		}

		q, err := e.UpdateQuestion(chi.URLParam(r, "qid"), u)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, q, nil
	})
}

func DeleteQuestion(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "delete_question", func(e *editor.Editor, r *http.Request) (int, any, error) {
		return http.StatusNoContent, nil, e.DeleteQuestion(chi.URLParam(r, "qid"))
	})
}

func DuplicateQuestion(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "duplicate_question", func(e *editor.Editor, r *http.Request) (int, any, error) {
		q, err := e.DuplicateQuestion(chi.URLParam(r, "qid"))
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, q, nil
	})
}

type moveRequest struct {
	Direction editor.Direction `json:"direction" validate:"required,oneof=up down"`
}

func MoveQuestion(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "move_question", func(e *editor.Editor, r *http.Request) (int, any, error) {
		req := moveRequest{}
		if err := httpx.DecodeValid(r, &req); err != nil {
			return 0, nil, badRequest(err)
		}
		moved, err := e.MoveQuestion(chi.URLParam(r, "qid"), req.Direction)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, map[string]any{"moved": moved}, nil
	})
}

// BranchTargets lists the sections a rule on the question may point to. It
// does not modify the survey.
func BranchTargets(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := app.LoadSurvey(r.Context(), surveyId)
		if errors.Is(err, database.ErrSurveyNotFound) {
			httpx.LogNotFound(w, "branch_targets", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.branch_targets.load", err)
			return
		}
		e, err := editor.Open(survey)
		if err != nil {
			httpx.LogInternalError(w, "branch_targets.open", err)
			return
		}

		targets, err := e.BranchTargets(chi.URLParam(r, "qid"))
		if err != nil {
			editError(w, "branch_targets", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"sections": targets,
			"end":      model.EndDestination,
		})
	}
}

type logicRequest struct {
	Logic []model.Rule `json:"logic"`
}

func SetLogic(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "set_logic", func(e *editor.Editor, r *http.Request) (int, any, error) {
		req := logicRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			return 0, nil, badRequest(err)
		}
		qid := chi.URLParam(r, "qid")
		if err := e.SetLogic(qid, req.Logic); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, e.Survey().Question(qid), nil
	})
}

// ImportQuestions appends the questions in the body to the section. Plain
// text is read one question per line, JSON as a question list or a paged
// export.
func ImportQuestions(app app.App, m *metrics) http.HandlerFunc {
	return editSurvey(app, m, "import_questions", func(e *editor.Editor, r *http.Request) (int, any, error) {
		body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxImportSize))
		if err != nil {
			return 0, nil, badRequest(err)
		}

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("content-type"))
		var drafts []*model.Question
		switch mediaType {
		case "application/json":
			drafts, err = importer.ParseJSON(body)
		case "text/plain", "":
			drafts, err = importer.ParseText(string(body))
		default:
			return 0, nil, badRequest(fmt.Errorf("unsupported content type %q", mediaType))
		}
		if err != nil {
			return 0, nil, err
		}

		added, err := e.ImportQuestions(chi.URLParam(r, "sid"), drafts)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, map[string]any{"questions": added}, nil
	})
}
