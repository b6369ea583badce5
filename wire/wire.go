// Package wire converts between the nested survey document and the flat
// relational shape the backend stores and exchanges:
//
//	{"survey": {...}, "sections": [...], "questions": [...]}
//
// Sections carry their page position, questions their position inside the
// section plus their global order, and the type-specific fields in a
// settings object.
package wire

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator"

	"github.com/mbolis/quest-editor/model"
)

type SurveyRow struct {
	ID            string       `json:"id" validate:"required"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Status        model.Status `json:"status" validate:"required,oneof=draft published"`
	Theme         model.Theme  `json:"theme"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	ResponseCount int          `json:"responseCount" validate:"gte=0"`
}

type SectionRow struct {
	ID       string `json:"id" validate:"required"`
	SurveyID string `json:"surveyId"`
	Name     string `json:"name"`
	Position int    `json:"position" validate:"gte=0"`
}

type QuestionRow struct {
	ID          string             `json:"id" validate:"required"`
	SurveyID    string             `json:"surveyId"`
	SectionID   string             `json:"sectionId" validate:"required"`
	Type        model.QuestionType `json:"type" validate:"required"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Required    bool               `json:"required"`
	Position    int                `json:"position" validate:"gte=0"`
	Order       int                `json:"order" validate:"gte=0"`
	Settings    json.RawMessage    `json:"settings"`
}

type Payload struct {
	Survey    SurveyRow     `json:"survey" validate:"required"`
	Sections  []SectionRow  `json:"sections" validate:"required,min=1,dive"`
	Questions []QuestionRow `json:"questions" validate:"dive"`
}

var validate = validator.New()

// Flatten renders s in the relational shape.
func Flatten(s *model.Survey) (*Payload, error) {
	p := &Payload{
		Survey: SurveyRow{
			ID:            s.ID,
			Title:         s.Title,
			Description:   s.Description,
			Status:        s.Status,
			Theme:         s.Theme,
			CreatedAt:     s.CreatedAt,
			UpdatedAt:     s.UpdatedAt,
			ResponseCount: s.ResponseCount,
		},
		Sections:  make([]SectionRow, 0, len(s.Sections)),
		Questions: make([]QuestionRow, 0, len(s.Questions)),
	}

	positions := map[string]int{}
	for i, sec := range s.Sections {
		p.Sections = append(p.Sections, SectionRow{ID: sec.ID, SurveyID: s.ID, Name: sec.Name, Position: i})
		for j, qid := range sec.QuestionIDs {
			positions[qid] = j
		}
	}

	for i, q := range s.Questions {
		settings, err := model.EncodePayload(q.Payload)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		p.Questions = append(p.Questions, QuestionRow{
			ID:          q.ID,
			SurveyID:    s.ID,
			SectionID:   q.SectionID,
			Type:        q.Type(),
			Title:       q.Title,
			Description: q.Description,
			Required:    q.Required,
			Position:    positions[q.ID],
			Order:       i,
			Settings:    settings,
		})
	}
	return p, nil
}

// Assemble rebuilds the nested document and checks it with
// model.Survey.Check. Unknown question types survive as model.Unsupported.
func Assemble(p *Payload) (*model.Survey, error) {
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidDocument, err)
	}

	s := &model.Survey{
		ID:            p.Survey.ID,
		Title:         p.Survey.Title,
		Description:   p.Survey.Description,
		Status:        p.Survey.Status,
		Theme:         p.Survey.Theme,
		CreatedAt:     p.Survey.CreatedAt,
		UpdatedAt:     p.Survey.UpdatedAt,
		ResponseCount: p.Survey.ResponseCount,
	}

	sections := slices.Clone(p.Sections)
	slices.SortStableFunc(sections, func(a, b SectionRow) int { return a.Position - b.Position })
	for _, row := range sections {
		s.Sections = append(s.Sections, &model.Section{ID: row.ID, Name: row.Name, QuestionIDs: []string{}})
	}

	questions := slices.Clone(p.Questions)
	slices.SortStableFunc(questions, func(a, b QuestionRow) int { return a.Order - b.Order })
	for _, row := range questions {
		payload, err := model.DecodePayload(row.Type, row.Settings)
		if err != nil {
			return nil, fmt.Errorf("%w: question %s: %w", model.ErrInvalidDocument, row.ID, err)
		}
		s.Questions = append(s.Questions, &model.Question{
			ID:          row.ID,
			SectionID:   row.SectionID,
			Title:       row.Title,
			Description: row.Description,
			Required:    row.Required,
			Payload:     payload,
		})
	}

	byPosition := slices.Clone(questions)
	slices.SortStableFunc(byPosition, func(a, b QuestionRow) int { return a.Position - b.Position })
	for _, row := range byPosition {
		sec := s.Section(row.SectionID)
		if sec == nil {
			return nil, fmt.Errorf("%w: question %s: %w: %s", model.ErrInvalidDocument, row.ID, model.ErrSectionNotFound, row.SectionID)
		}
		sec.QuestionIDs = append(sec.QuestionIDs, row.ID)
	}

	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadSurvey decodes a relational payload into a document.
func LoadSurvey(data []byte) (*model.Survey, error) {
	p := &Payload{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidDocument, err)
	}
	return Assemble(p)
}

// SaveSurvey encodes s as a relational payload.
func SaveSurvey(s *model.Survey) ([]byte, error) {
	p, err := Flatten(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}
