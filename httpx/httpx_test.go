package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quest-editor/log"
)

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "clients are limited separately")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))

	now = now.Add(time.Hour)
	rl.Allow("2.2.2.2")
	assert.Equal(t, 1, rl.Sweep(time.Minute))
	assert.Len(t, rl.m, 1)
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", ClientIP(req))

	req.RemoteAddr = "10.0.0.1"
	assert.Equal(t, "10.0.0.1", ClientIP(req))
}

func TestResponseBuffer(t *testing.T) {
	buf := NewResponseBuffer()
	assert.Equal(t, 0, buf.Status())

	buf.Header().Set("content-type", "application/json")
	buf.WriteHeader(http.StatusCreated)
	buf.WriteHeader(http.StatusInternalServerError)
	_, err := buf.Write([]byte(`{"ok":true}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, buf.Status())
	assert.Equal(t, `{"ok":true}`, string(buf.Body()))

	rec := httptest.NewRecorder()
	require.NoError(t, buf.Flush(rec))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("content-type"))
	assert.Equal(t, `{"ok":true}`, rec.Body.String())

	implicit := NewResponseBuffer()
	_, err = implicit.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, implicit.Status())
}

func TestDecodeValid(t *testing.T) {
	type body struct {
		Name string `json:"name" validate:"required"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	v := body{}
	require.NoError(t, DecodeValid(req, &v))
	assert.Equal(t, "x", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	assert.ErrorContains(t, DecodeValid(req, &body{}), "invalid request")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeValid(req, &body{}))
}

func TestErrorResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	LogNotFound(rec, "get_survey", "42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"get_survey","message":"42 not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	LogInternalError(rec, "db.save_survey", errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")

	rec = httptest.NewRecorder()
	LogStatusMsg(rec, http.StatusConflict, log.DebugLevel, "back", "already on %s", "page 1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("content-type"))
	assert.JSONEq(t, `{"code":"back","message":"already on page 1"}`, rec.Body.String())
}
