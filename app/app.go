package app

import (
	"github.com/go-chi/oauth"

	"github.com/mbolis/quest-editor/config"
	"github.com/mbolis/quest-editor/database"
	"github.com/mbolis/quest-editor/httpx"
	"github.com/mbolis/quest-editor/sessions"
)

type App struct {
	*database.DB
	*oauth.BearerServer
	config.Config
	Sessions *sessions.Manager
	Limiter  *httpx.RateLimiter
}
