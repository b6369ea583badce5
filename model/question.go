package model

import (
	"encoding/json"
	"slices"
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeCheckbox       QuestionType = "checkbox"
	TypeDropdown       QuestionType = "dropdown"
	TypeText           QuestionType = "text"
	TypeRating         QuestionType = "rating"
	TypeRatingMulti    QuestionType = "rating-multi"
	TypeSlider         QuestionType = "slider"
	TypeLikert         QuestionType = "likert"
	TypeMatrix         QuestionType = "matrix"
	TypeNPS            QuestionType = "nps"
	TypeIntroPage      QuestionType = "intro-page"
	TypeThankYouPage   QuestionType = "thank-you-page"
)

var QuestionTypes = []QuestionType{
	TypeMultipleChoice, TypeCheckbox, TypeDropdown, TypeText,
	TypeRating, TypeRatingMulti, TypeSlider, TypeLikert,
	TypeMatrix, TypeNPS, TypeIntroPage, TypeThankYouPage,
}

func (t QuestionType) IsValid() bool {
	return slices.Contains(QuestionTypes, t)
}

// Branchable reports whether questions of this type may carry logic rules.
func (t QuestionType) Branchable() bool {
	switch t {
	case TypeMultipleChoice, TypeDropdown, TypeNPS, TypeRating:
		return true
	}
	return false
}

// Presentational types own a whole page and are never validated.
func (t QuestionType) Presentational() bool {
	return t == TypeIntroPage || t == TypeThankYouPage
}

type TextFormat string

const (
	FormatText   TextFormat = "text"
	FormatEmail  TextFormat = "email"
	FormatNumber TextFormat = "number"
	FormatDate   TextFormat = "date"
	FormatTel    TextFormat = "tel"
	FormatURL    TextFormat = "url"
)

// EndDestination is the rule destination that terminates the survey.
const EndDestination = "end"

// Rule routes the respondent to DestinationSectionID when the question's
// trigger key equals TriggerOption.
type Rule struct {
	TriggerOption        string `json:"triggerOption"`
	DestinationSectionID string `json:"destinationSectionId"`
}

type Scale struct {
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	MinLabel string   `json:"minLabel"`
	MaxLabel string   `json:"maxLabel"`
	Step     *float64 `json:"step,omitempty"`
}

type Question struct {
	ID          string
	SectionID   string
	Title       string
	Description string
	Required    bool
	Payload     Payload
}

func (q *Question) Type() QuestionType {
	if q.Payload == nil {
		return ""
	}
	return q.Payload.Type()
}

func (q *Question) Clone() *Question {
	c := *q
	if q.Payload != nil {
		c.Payload = q.Payload.clone()
	}
	return &c
}

// Payload holds the type-specific part of a question. The set of
// implementations is closed.
type Payload interface {
	Type() QuestionType
	clone() Payload
}

type MultipleChoice struct {
	Options   []string
	Randomize bool
	Logic     []Rule
}

type Checkbox struct {
	Options   []string
	Randomize bool
	MinSelect *int
	MaxSelect *int
}

type Dropdown struct {
	Options   []string
	Randomize bool
	Logic     []Rule
}

type Text struct {
	CharLimit *int
	Format    TextFormat
}

type Rating struct {
	Scale Scale
	Logic []Rule
}

type RatingMulti struct {
	Items     []string
	MaxRating int
}

type Slider struct {
	Scale Scale
}

type Likert struct {
	Scale Scale
}

type Matrix struct {
	Rows []string
	Cols []string
}

// NPS is a fixed 0-10 scale.
type NPS struct {
	Logic []Rule
}

type IntroPage struct{}

type ThankYouPage struct{}

// Unsupported keeps a question whose type this engine does not know.
// Raw is the original JSON object, written back unchanged on save.
type Unsupported struct {
	Kind string
	Raw  json.RawMessage
}

func (MultipleChoice) Type() QuestionType { return TypeMultipleChoice }
func (Checkbox) Type() QuestionType       { return TypeCheckbox }
func (Dropdown) Type() QuestionType       { return TypeDropdown }
func (Text) Type() QuestionType           { return TypeText }
func (Rating) Type() QuestionType         { return TypeRating }
func (RatingMulti) Type() QuestionType    { return TypeRatingMulti }
func (Slider) Type() QuestionType         { return TypeSlider }
func (Likert) Type() QuestionType         { return TypeLikert }
func (Matrix) Type() QuestionType         { return TypeMatrix }
func (NPS) Type() QuestionType            { return TypeNPS }
func (IntroPage) Type() QuestionType      { return TypeIntroPage }
func (ThankYouPage) Type() QuestionType   { return TypeThankYouPage }
func (u Unsupported) Type() QuestionType  { return QuestionType(u.Kind) }

func (p MultipleChoice) clone() Payload {
	p.Options = slices.Clone(p.Options)
	p.Logic = slices.Clone(p.Logic)
	return p
}

func (p Checkbox) clone() Payload {
	p.Options = slices.Clone(p.Options)
	p.MinSelect = cloneInt(p.MinSelect)
	p.MaxSelect = cloneInt(p.MaxSelect)
	return p
}

func (p Dropdown) clone() Payload {
	p.Options = slices.Clone(p.Options)
	p.Logic = slices.Clone(p.Logic)
	return p
}

func (p Text) clone() Payload {
	p.CharLimit = cloneInt(p.CharLimit)
	return p
}

func (p Rating) clone() Payload {
	p.Scale = p.Scale.clone()
	p.Logic = slices.Clone(p.Logic)
	return p
}

func (p RatingMulti) clone() Payload {
	p.Items = slices.Clone(p.Items)
	return p
}

func (p Slider) clone() Payload {
	p.Scale = p.Scale.clone()
	return p
}

func (p Likert) clone() Payload {
	p.Scale = p.Scale.clone()
	return p
}

func (p Matrix) clone() Payload {
	p.Rows = slices.Clone(p.Rows)
	p.Cols = slices.Clone(p.Cols)
	return p
}

func (p NPS) clone() Payload {
	p.Logic = slices.Clone(p.Logic)
	return p
}

func (p IntroPage) clone() Payload    { return p }
func (p ThankYouPage) clone() Payload { return p }

func (p Unsupported) clone() Payload {
	p.Raw = slices.Clone(p.Raw)
	return p
}

func (s Scale) clone() Scale {
	if s.Step != nil {
		step := *s.Step
		s.Step = &step
	}
	return s
}

// ClonePayload deep-copies p.
func ClonePayload(p Payload) Payload {
	if p == nil {
		return nil
	}
	return p.clone()
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Rules returns the logic rules of a branchable payload, nil otherwise.
func Rules(p Payload) []Rule {
	switch p := p.(type) {
	case MultipleChoice:
		return p.Logic
	case Dropdown:
		return p.Logic
	case Rating:
		return p.Logic
	case NPS:
		return p.Logic
	}
	return nil
}

// WithRules returns a copy of p carrying rules. It fails with
// ErrNotBranchable for types that cannot branch.
func WithRules(p Payload, rules []Rule) (Payload, error) {
	rules = slices.Clone(rules)
	switch p := p.(type) {
	case MultipleChoice:
		p.Logic = rules
		return p, nil
	case Dropdown:
		p.Logic = rules
		return p, nil
	case Rating:
		p.Logic = rules
		return p, nil
	case NPS:
		p.Logic = rules
		return p, nil
	}
	return p, ErrNotBranchable
}

// Options returns the choices of a choice-like payload, nil otherwise.
func Options(p Payload) []string {
	switch p := p.(type) {
	case MultipleChoice:
		return p.Options
	case Checkbox:
		return p.Options
	case Dropdown:
		return p.Options
	}
	return nil
}

// DefaultPayload returns the payload a freshly added question of type t
// starts with.
func DefaultPayload(t QuestionType) Payload {
	switch t {
	case TypeMultipleChoice:
		return MultipleChoice{Options: []string{"Option 1", "Option 2"}}
	case TypeCheckbox:
		return Checkbox{Options: []string{"Option 1", "Option 2"}}
	case TypeDropdown:
		return Dropdown{Options: []string{"Option 1", "Option 2"}}
	case TypeText:
		return Text{Format: FormatText}
	case TypeRating:
		return Rating{Scale: Scale{Min: 1, Max: 5, MinLabel: "Poor", MaxLabel: "Excellent"}}
	case TypeRatingMulti:
		return RatingMulti{Items: []string{"Item 1", "Item 2"}, MaxRating: 5}
	case TypeSlider:
		step := 1.0
		return Slider{Scale: Scale{Min: 0, Max: 100, MinLabel: "0", MaxLabel: "100", Step: &step}}
	case TypeLikert:
		return Likert{Scale: Scale{Min: 1, Max: 5, MinLabel: "Strongly disagree", MaxLabel: "Strongly agree"}}
	case TypeMatrix:
		return Matrix{Rows: []string{"Row 1", "Row 2"}, Cols: []string{"Column 1", "Column 2"}}
	case TypeNPS:
		return NPS{}
	case TypeIntroPage:
		return IntroPage{}
	case TypeThankYouPage:
		return ThankYouPage{}
	}
	return Unsupported{Kind: string(t)}
}

// DefaultTitle is the title a freshly added question of type t starts with.
func DefaultTitle(t QuestionType) string {
	switch t {
	case TypeIntroPage:
		return "Welcome"
	case TypeThankYouPage:
		return "Thank you!"
	case TypeNPS:
		return "How likely are you to recommend us to a friend?"
	}
	return "Untitled question"
}
