package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mbolis/quest-editor/log"
)

// ErrorBody is the JSON body of every error response. Code is the dotted
// log code of the failure, so a client report can be matched to the logs.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	h := w.Header()
	h.Set("content-type", "application/json; charset=utf-8")
	h.Set("x-content-type-options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorBody{Code: code, Message: msg}); err != nil {
		log.Debugf("%s: write error body: %s", code, err)
	}
}

// LogInternalError logs err and answers 500 without exposing it.
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	writeError(w, http.StatusInternalServerError, code, http.StatusText(http.StatusInternalServerError))
}

func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	writeError(w, http.StatusNotFound, code, fmt.Sprintf("%v not found", id))
}

// LogStatus logs code at level and answers status with its default text.
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	writeError(w, status, code, http.StatusText(status))
}

// LogStatusMsg is LogStatus with a formatted message, which is also sent
// to the client.
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	writeError(w, status, code, errMsg)
}
