// Package descriptor turns questions into the flat shape the respondent UI
// renders. How a descriptor is painted is up to the client.
package descriptor

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"

	"github.com/mbolis/quest-editor/model"
)

// PlaceholderMessage is shown in place of a question whose type is unknown.
const PlaceholderMessage = "This question cannot be displayed."

type Descriptor struct {
	ID          string             `json:"id"`
	Type        model.QuestionType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Required    bool               `json:"required"`

	Options   []string         `json:"options,omitempty"`
	MinSelect *int             `json:"minSelect,omitempty"`
	MaxSelect *int             `json:"maxSelect,omitempty"`
	Format    model.TextFormat `json:"format,omitempty"`
	CharLimit *int             `json:"charLimit,omitempty"`
	Scale     *model.Scale     `json:"scale,omitempty"`
	Items     []string         `json:"items,omitempty"`
	MaxRating int              `json:"maxRating,omitempty"`
	Rows      []string         `json:"rows,omitempty"`
	Cols      []string         `json:"cols,omitempty"`

	Placeholder bool   `json:"placeholder,omitempty"`
	Message     string `json:"message,omitempty"`
}

var npsScale = model.Scale{Min: 0, Max: 10, MinLabel: "Not likely", MaxLabel: "Very likely"}

// Describe builds the descriptor of q. Options of randomized questions are
// shuffled deterministically from seed and the question id, so the same
// respondent always sees the same order.
func Describe(q *model.Question, seed uint64) Descriptor {
	d := Descriptor{
		ID:          q.ID,
		Type:        q.Type(),
		Title:       q.Title,
		Description: q.Description,
		Required:    q.Required,
	}

	switch p := q.Payload.(type) {
	case model.MultipleChoice:
		d.Options = options(q.ID, p.Options, p.Randomize, seed)
	case model.Checkbox:
		d.Options = options(q.ID, p.Options, p.Randomize, seed)
		d.MinSelect, d.MaxSelect = p.MinSelect, p.MaxSelect
	case model.Dropdown:
		d.Options = options(q.ID, p.Options, p.Randomize, seed)
	case model.Text:
		d.Format, d.CharLimit = p.Format, p.CharLimit
	case model.Rating:
		d.Scale = scale(p.Scale)
	case model.RatingMulti:
		d.Items, d.MaxRating = slices.Clone(p.Items), p.MaxRating
	case model.Slider:
		d.Scale = scale(p.Scale)
	case model.Likert:
		d.Scale = scale(p.Scale)
	case model.Matrix:
		d.Rows, d.Cols = slices.Clone(p.Rows), slices.Clone(p.Cols)
	case model.NPS:
		d.Scale = scale(npsScale)
	case model.IntroPage, model.ThankYouPage:
	case model.Unsupported:
		d.Placeholder = true
		d.Message = PlaceholderMessage
	default:
		d.Placeholder = true
		d.Message = fmt.Sprintf("%s (%T)", PlaceholderMessage, p)
	}
	return d
}

// DescribeSection describes the questions of sec in page order.
func DescribeSection(s *model.Survey, sec *model.Section, seed uint64) []Descriptor {
	qs := s.SectionQuestions(sec)
	ds := make([]Descriptor, 0, len(qs))
	for _, q := range qs {
		ds = append(ds, Describe(q, seed))
	}
	return ds
}

func options(questionID string, opts []string, randomize bool, seed uint64) []string {
	opts = slices.Clone(opts)
	if !randomize || len(opts) < 2 {
		return opts
	}
	h := fnv.New64a()
	h.Write([]byte(questionID))
	r := rand.New(rand.NewPCG(seed, h.Sum64()))
	r.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}

func scale(s model.Scale) *model.Scale {
	if s.Step != nil {
		step := *s.Step
		s.Step = &step
	}
	return &s
}
