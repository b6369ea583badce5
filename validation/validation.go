// Package validation checks a section's answers before the respondent may
// leave it.
//
// Only presence and selection counts are enforced here. The text formats a
// question declares (email, number, date, tel, url) are checked where the
// answer enters the system, see package format; a well-formed answer and a
// required answer are separate concerns.
package validation

import (
	"github.com/mbolis/quest-editor/model"
)

type ErrorCode string

const (
	MissingAnswer       ErrorCode = "MissingAnswer"
	SelectionCountError ErrorCode = "SelectionCountError"
)

// Errors maps question ids to the failure found for them.
type Errors map[string]ErrorCode

func (e Errors) Clone() Errors {
	c := make(Errors, len(e))
	for k, v := range e {
		c[k] = v
	}
	return c
}

// ValidateSection returns the failures of the section's questions. An empty
// map means the respondent may advance.
func ValidateSection(s *model.Survey, sec *model.Section, answers model.Answers) Errors {
	errs := Errors{}
	for _, q := range s.SectionQuestions(sec) {
		if code, ok := ValidateQuestion(q, answers[q.ID]); !ok {
			errs[q.ID] = code
		}
	}
	return errs
}

// ValidateQuestion checks a single answer against its question.
func ValidateQuestion(q *model.Question, answer any) (ErrorCode, bool) {
	switch p := q.Payload.(type) {
	case model.IntroPage, model.ThankYouPage, model.Unsupported, nil:
		return "", true
	case model.Checkbox:
		return validateCheckbox(q, p, answer)
	case model.MultipleChoice, model.Dropdown, model.Text, model.Rating, model.Slider,
		model.Likert, model.NPS, model.RatingMulti, model.Matrix:
		if q.Required && model.IsEmpty(answer) {
			return MissingAnswer, false
		}
	}
	return "", true
}

func validateCheckbox(q *model.Question, p model.Checkbox, answer any) (ErrorCode, bool) {
	empty := model.IsEmpty(answer)
	if q.Required && empty {
		return MissingAnswer, false
	}
	if empty {
		return "", true
	}

	selected, ok := model.AsStrings(answer)
	if !ok {
		selected = []string{}
		if s, ok := model.AsString(answer); ok {
			selected = append(selected, s)
		}
	}
	n := len(selected)
	if p.MinSelect != nil && n < *p.MinSelect {
		return SelectionCountError, false
	}
	if p.MaxSelect != nil && n > *p.MaxSelect {
		return SelectionCountError, false
	}
	return "", true
}
