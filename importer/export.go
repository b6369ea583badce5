package importer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mbolis/quest-editor/model"
)

// families used by paged survey exports
const (
	familySingleChoice   = "single_choice"
	familyMultipleChoice = "multiple_choice"
	familyMatrix         = "matrix"
	familyOpenEnded      = "open_ended"

	subtypeRating = "rating"
)

type exportJSON struct {
	Pages []struct {
		Questions []json.RawMessage `json:"questions"`
	} `json:"pages"`
}

type itemJSON struct {
	Type        string          `json:"type"`
	Family      string          `json:"family"`
	Subtype     string          `json:"subtype"`
	Title       string          `json:"title"`
	Heading     string          `json:"heading"`
	Headings    []headingJSON   `json:"headings"`
	Description string          `json:"description"`
	Required    json.RawMessage `json:"required"`
	Options     []string        `json:"options"`
	Answers     *struct {
		Choices []textJSON `json:"choices"`
	} `json:"answers"`
}

type headingJSON struct {
	Heading string `json:"heading"`
}

type textJSON struct {
	Text string `json:"text"`
}

type itemError struct {
	Item   int
	Reason string
	Err    error
}

func (e *itemError) asParseError() error {
	return &model.ImportParseError{Reason: fmt.Sprintf("question %d: %s", e.Item, e.Reason), Err: e.Err}
}

func parseItem(raw json.RawMessage) (*model.Question, *itemError) {
	item := itemJSON{}
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, &itemError{Reason: "not a question object", Err: err}
	}

	if t := model.QuestionType(item.Type); t.IsValid() {
		q := &model.Question{}
		if err := json.Unmarshal(raw, q); err != nil {
			return nil, &itemError{Reason: "malformed " + item.Type + " question", Err: err}
		}
		q.ID, q.SectionID = "", ""
		q.Sanitize()
		if q.Title == "" {
			q.Title = model.DefaultTitle(t)
		}
		return q, nil
	}

	title := item.title()
	if title == "" {
		return nil, &itemError{Reason: "missing question title"}
	}
	q := &model.Question{
		Title:       title,
		Description: model.SanitizeText(item.Description),
		Required:    item.required(),
		Payload:     item.payload(),
	}
	return q, nil
}

func (item *itemJSON) title() string {
	candidates := []string{item.Title, item.Heading}
	for _, h := range item.Headings {
		candidates = append(candidates, h.Heading)
	}
	for _, c := range candidates {
		if t := model.SanitizeText(c); t != "" {
			return t
		}
	}
	return ""
}

// required accepts a plain boolean or any non-null object, which is how
// exports describe the "answer required" setting.
func (item *itemJSON) required() bool {
	r := bytes.TrimSpace(item.Required)
	switch {
	case len(r) == 0, bytes.Equal(r, []byte("null")), bytes.Equal(r, []byte("false")):
		return false
	}
	return true
}

func (item *itemJSON) choices() []string {
	var opts []string
	if item.Answers != nil {
		for _, c := range item.Answers.Choices {
			if t := model.SanitizeText(c.Text); t != "" {
				opts = append(opts, t)
			}
		}
	}
	if len(opts) == 0 {
		for _, o := range item.Options {
			if t := model.SanitizeText(o); t != "" {
				opts = append(opts, t)
			}
		}
	}
	return opts
}

func (item *itemJSON) payload() model.Payload {
	opts := item.choices()
	switch item.Family {
	case familySingleChoice:
		return model.MultipleChoice{Options: withDefault(opts, model.TypeMultipleChoice)}
	case familyMultipleChoice:
		return model.Checkbox{Options: withDefault(opts, model.TypeCheckbox)}
	case familyMatrix:
		if item.Subtype == subtypeRating {
			def := model.DefaultPayload(model.TypeRating).(model.Rating)
			return model.Rating{Scale: scaleFrom(opts, def.Scale)}
		}
		def := model.DefaultPayload(model.TypeLikert).(model.Likert)
		return model.Likert{Scale: scaleFrom(opts, def.Scale)}
	case familyOpenEnded:
		return model.DefaultPayload(model.TypeText)
	}
	if len(opts) > 0 {
		return model.MultipleChoice{Options: opts}
	}
	return model.DefaultPayload(model.TypeText)
}

func withDefault(opts []string, t model.QuestionType) []string {
	if len(opts) > 0 {
		return opts
	}
	return model.Options(model.DefaultPayload(t))
}

// scaleFrom numbers the choices 1..n, labelling the ends with the first and
// last choice.
func scaleFrom(opts []string, def model.Scale) model.Scale {
	if len(opts) < 2 {
		return def
	}
	return model.Scale{
		Min:      1,
		Max:      float64(len(opts)),
		MinLabel: opts[0],
		MaxLabel: opts[len(opts)-1],
	}
}
