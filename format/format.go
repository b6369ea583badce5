// Package format checks that answers are well-formed: text answers for the
// format their question declares, NPS answers for the 0-10 scale. It runs
// where answers enter the system, ahead of and independently from the
// required checks of package validation.
package format

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator"

	"github.com/mbolis/quest-editor/model"
)

var (
	ErrMalformed  = errors.New("malformed answer")
	ErrTooLong    = errors.New("answer exceeds character limit")
	ErrOutOfRange = errors.New("answer out of range")
)

const npsMax = 10

var reTel = regexp.MustCompile(`^\+?[0-9 ()./-]{5,20}$`)

var tags = map[model.TextFormat]string{
	model.FormatEmail:  "email",
	model.FormatNumber: "numeric",
	model.FormatDate:   "isodate",
	model.FormatTel:    "tel",
	model.FormatURL:    "url",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("tel", func(fl validator.FieldLevel) bool {
		return reTel.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// Check validates answer against q. Text and NPS questions are checked,
// every other type passes. Empty answers pass too: whether they are allowed
// is decided by package validation.
func Check(q *model.Question, answer any) error {
	if model.IsEmpty(answer) {
		return nil
	}
	switch p := q.Payload.(type) {
	case model.Text:
		return checkText(p, answer)
	case model.NPS:
		return checkNPS(answer)
	}
	return nil
}

// checkNPS accepts whole scores from 0 to 10, numeric strings included.
func checkNPS(answer any) error {
	n, ok := model.AsNumber(answer)
	if !ok || n != math.Trunc(n) {
		return fmt.Errorf("%w: expected a whole score", ErrMalformed)
	}
	if n < 0 || n > npsMax {
		return fmt.Errorf("%w: score %v not in 0-%d", ErrOutOfRange, n, npsMax)
	}
	return nil
}

func checkText(p model.Text, answer any) error {
	s, ok := answer.(string)
	if !ok {
		return fmt.Errorf("%w: expected a string", ErrMalformed)
	}
	if p.CharLimit != nil && *p.CharLimit > 0 && utf8.RuneCountInString(s) > *p.CharLimit {
		return fmt.Errorf("%w (%d)", ErrTooLong, *p.CharLimit)
	}
	tag, ok := tags[p.Format]
	if !ok {
		return nil
	}
	if err := validate.Var(s, tag); err != nil {
		return fmt.Errorf("%w: not a valid %s", ErrMalformed, p.Format)
	}
	return nil
}
