package model

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML tag from s. Entities escaped by the policy
// are decoded again since the text is stored as plain text.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

func sanitizeAll(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = SanitizeText(s)
	}
	return out
}

// Sanitize strips markup from the user-visible text of q in place.
// Unsupported payloads are left untouched.
func (q *Question) Sanitize() {
	q.Title = SanitizeText(q.Title)
	q.Description = SanitizeText(q.Description)
	q.Payload = SanitizePayload(q.Payload)
}

// sanitizeTriggers cleans the trigger options of choice rules the same way
// as the options they name, so a rule keeps matching its option.
func sanitizeTriggers(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		r.TriggerOption = SanitizeText(r.TriggerOption)
		out[i] = r
	}
	return out
}

// SanitizePayload returns p with markup stripped from its options, items
// and scale labels.
func SanitizePayload(p Payload) Payload {
	switch p := p.(type) {
	case MultipleChoice:
		p.Options = sanitizeAll(p.Options)
		p.Logic = sanitizeTriggers(p.Logic)
		return p
	case Checkbox:
		p.Options = sanitizeAll(p.Options)
		return p
	case Dropdown:
		p.Options = sanitizeAll(p.Options)
		p.Logic = sanitizeTriggers(p.Logic)
		return p
	case RatingMulti:
		p.Items = sanitizeAll(p.Items)
		return p
	case Matrix:
		p.Rows = sanitizeAll(p.Rows)
		p.Cols = sanitizeAll(p.Cols)
		return p
	case Rating:
		p.Scale.MinLabel, p.Scale.MaxLabel = SanitizeText(p.Scale.MinLabel), SanitizeText(p.Scale.MaxLabel)
		return p
	case Slider:
		p.Scale.MinLabel, p.Scale.MaxLabel = SanitizeText(p.Scale.MinLabel), SanitizeText(p.Scale.MaxLabel)
		return p
	case Likert:
		p.Scale.MinLabel, p.Scale.MaxLabel = SanitizeText(p.Scale.MinLabel), SanitizeText(p.Scale.MaxLabel)
		return p
	}
	return p
}

// Sanitize strips markup from the survey's titles, section names and
// questions in place.
func (s *Survey) Sanitize() {
	s.Title = SanitizeText(s.Title)
	s.Description = SanitizeText(s.Description)
	for _, sec := range s.Sections {
		sec.Name = SanitizeText(sec.Name)
	}
	for _, q := range s.Questions {
		q.Sanitize()
	}
}
