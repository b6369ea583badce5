package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/quest-editor/app"
	"github.com/mbolis/quest-editor/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	m := newMetrics()

	root := chi.NewRouter()
	root.Use(middleware.RealIP, middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app, m))
	root.Method(http.MethodGet, "/metrics", m.handler())

	return root
}

func apiRouter(app app.App, m *metrics) http.Handler {
	api := chi.NewRouter()

	api.Group(func(r chi.Router) {
		r.Use(app.Limiter.Middleware)

		r.Get("/surveys/{id}", PublicGetSurvey(app))
		r.Post("/surveys/{id}/sessions", StartSession(app, m))

		r.Get("/sessions/{sid}", GetSession(app))
		r.Put("/sessions/{sid}/answers/{qid}", SetAnswer(app))
		r.Post("/sessions/{sid}/advance", Advance(app, m))
		r.Post("/sessions/{sid}/back", Back(app))
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(app, m))
		r.Get("/surveys", ListSurveys(app))
		r.Get("/surveys/{id}", GetSurvey(app))
		r.Put("/surveys/{id}", UpdateSurvey(app, m))
		r.Delete("/surveys/{id}", DeleteSurvey(app))

		r.Post("/surveys/{id}/publish", PublishSurvey(app, m))
		r.Post("/surveys/{id}/unpublish", UnpublishSurvey(app, m))
		r.Put("/surveys/{id}/theme", SetTheme(app, m))

		// sections
		r.Post("/surveys/{id}/sections", AddSection(app, m))
		r.Put("/surveys/{id}/sections/order", ReorderSections(app, m))
		r.Patch("/surveys/{id}/sections/{sid}", RenameSection(app, m))
		r.Delete("/surveys/{id}/sections/{sid}", RemoveSection(app, m))
		r.Post("/surveys/{id}/sections/{sid}/duplicate", DuplicateSection(app, m))
		r.Post("/surveys/{id}/sections/{sid}/questions", AddQuestion(app, m))
		r.Post("/surveys/{id}/sections/{sid}/import", ImportQuestions(app, m))

		// questions
		r.Patch("/surveys/{id}/questions/{qid}", UpdateQuestion(app, m))
		r.Delete("/surveys/{id}/questions/{qid}", DeleteQuestion(app, m))
		r.Post("/surveys/{id}/questions/{qid}/duplicate", DuplicateQuestion(app, m))
		r.Post("/surveys/{id}/questions/{qid}/move", MoveQuestion(app, m))
		r.Get("/surveys/{id}/questions/{qid}/targets", BranchTargets(app))
		r.Put("/surveys/{id}/questions/{qid}/logic", SetLogic(app, m))

		r.Get("/surveys/{id}/submissions", GetSurveySubmissions(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
