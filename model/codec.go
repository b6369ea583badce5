package model

import (
	"encoding/json"
	"fmt"
)

// payloadJSON is the flat, type-tagged shape of question payloads shared by
// the document JSON format and the backend settings column.
type payloadJSON struct {
	Options    []string        `json:"options,omitempty"`
	Randomize  bool            `json:"randomize,omitempty"`
	CharLimit  *int            `json:"charLimit,omitempty"`
	Validation *validationJSON `json:"validation,omitempty"`
	Scale      *Scale          `json:"scale,omitempty"`
	Items      []string        `json:"items,omitempty"`
	MaxRating  int             `json:"maxRating,omitempty"`
	MatrixRows []string        `json:"matrixRows,omitempty"`
	MatrixCols []string        `json:"matrixCols,omitempty"`
	Logic      []Rule          `json:"logic,omitempty"`
}

type validationJSON struct {
	Type      TextFormat `json:"type,omitempty"`
	MinSelect *int       `json:"minSelect,omitempty"`
	MaxSelect *int       `json:"maxSelect,omitempty"`
}

type questionJSON struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	SectionID   string       `json:"sectionId"`
	payloadJSON
}

func toPayloadJSON(p Payload) payloadJSON {
	switch p := p.(type) {
	case MultipleChoice:
		return payloadJSON{Options: p.Options, Randomize: p.Randomize, Logic: p.Logic}
	case Checkbox:
		pj := payloadJSON{Options: p.Options, Randomize: p.Randomize}
		if p.MinSelect != nil || p.MaxSelect != nil {
			pj.Validation = &validationJSON{MinSelect: p.MinSelect, MaxSelect: p.MaxSelect}
		}
		return pj
	case Dropdown:
		return payloadJSON{Options: p.Options, Randomize: p.Randomize, Logic: p.Logic}
	case Text:
		pj := payloadJSON{CharLimit: p.CharLimit}
		if p.Format != "" {
			pj.Validation = &validationJSON{Type: p.Format}
		}
		return pj
	case Rating:
		return payloadJSON{Scale: &p.Scale, Logic: p.Logic}
	case RatingMulti:
		return payloadJSON{Items: p.Items, MaxRating: p.MaxRating}
	case Slider:
		return payloadJSON{Scale: &p.Scale}
	case Likert:
		return payloadJSON{Scale: &p.Scale}
	case Matrix:
		return payloadJSON{MatrixRows: p.Rows, MatrixCols: p.Cols}
	case NPS:
		return payloadJSON{Logic: p.Logic}
	}
	return payloadJSON{}
}

func fromPayloadJSON(t QuestionType, pj payloadJSON, raw json.RawMessage) Payload {
	v := pj.Validation
	if v == nil {
		v = &validationJSON{}
	}
	scale := Scale{}
	if pj.Scale != nil {
		scale = *pj.Scale
	}
	switch t {
	case TypeMultipleChoice:
		return MultipleChoice{Options: pj.Options, Randomize: pj.Randomize, Logic: pj.Logic}
	case TypeCheckbox:
		return Checkbox{Options: pj.Options, Randomize: pj.Randomize, MinSelect: v.MinSelect, MaxSelect: v.MaxSelect}
	case TypeDropdown:
		return Dropdown{Options: pj.Options, Randomize: pj.Randomize, Logic: pj.Logic}
	case TypeText:
		format := v.Type
		if format == "" {
			format = FormatText
		}
		return Text{CharLimit: pj.CharLimit, Format: format}
	case TypeRating:
		return Rating{Scale: scale, Logic: pj.Logic}
	case TypeRatingMulti:
		return RatingMulti{Items: pj.Items, MaxRating: pj.MaxRating}
	case TypeSlider:
		return Slider{Scale: scale}
	case TypeLikert:
		return Likert{Scale: scale}
	case TypeMatrix:
		return Matrix{Rows: pj.MatrixRows, Cols: pj.MatrixCols}
	case TypeNPS:
		return NPS{Logic: pj.Logic}
	case TypeIntroPage:
		return IntroPage{}
	case TypeThankYouPage:
		return ThankYouPage{}
	}
	return Unsupported{Kind: string(t), Raw: append(json.RawMessage(nil), raw...)}
}

// EncodePayload renders the type-specific fields of p as a JSON object.
func EncodePayload(p Payload) (json.RawMessage, error) {
	if u, ok := p.(Unsupported); ok {
		if len(u.Raw) == 0 {
			return json.RawMessage("{}"), nil
		}
		return u.Raw, nil
	}
	return json.Marshal(toPayloadJSON(p))
}

// DecodePayload is the inverse of EncodePayload. Unknown types never fail:
// they decode to Unsupported.
func DecodePayload(t QuestionType, raw json.RawMessage) (Payload, error) {
	pj := payloadJSON{}
	if len(raw) > 0 && t.IsValid() {
		if err := json.Unmarshal(raw, &pj); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
	}
	return fromPayloadJSON(t, pj, raw), nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	if u, ok := q.Payload.(Unsupported); ok {
		return marshalUnsupported(&q, u)
	}
	return json.Marshal(questionJSON{
		ID:          q.ID,
		Type:        q.Type(),
		Title:       q.Title,
		Description: q.Description,
		Required:    q.Required,
		SectionID:   q.SectionID,
		payloadJSON: toPayloadJSON(q.Payload),
	})
}

func (q *Question) UnmarshalJSON(data []byte) error {
	qj := questionJSON{}
	if err := json.Unmarshal(data, &qj); err != nil {
		return err
	}
	*q = Question{
		ID:          qj.ID,
		SectionID:   qj.SectionID,
		Title:       qj.Title,
		Description: qj.Description,
		Required:    qj.Required,
		Payload:     fromPayloadJSON(qj.Type, qj.payloadJSON, data),
	}
	return nil
}

// marshalUnsupported writes the raw object back with the common fields
// taken from q, so edits to title or section survive a save.
func marshalUnsupported(q *Question, u Unsupported) ([]byte, error) {
	obj := map[string]json.RawMessage{}
	if len(u.Raw) > 0 {
		if err := json.Unmarshal(u.Raw, &obj); err != nil {
			return nil, err
		}
	}
	common := map[string]any{
		"id":        q.ID,
		"type":      u.Kind,
		"title":     q.Title,
		"required":  q.Required,
		"sectionId": q.SectionID,
	}
	if q.Description != "" {
		common["description"] = q.Description
	}
	for k, v := range common {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		obj[k] = b
	}
	return json.Marshal(obj)
}
