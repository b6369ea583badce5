package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"
)

var validate = validator.New()

// DecodeValid decodes the JSON body into v and checks its validate tags.
func DecodeValid(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
