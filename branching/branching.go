// Package branching decides which section follows the current one from the
// respondent's answers and the logic rules of branchable questions.
//
// Rules are forward-only: a destination must be a section strictly after the
// one holding the rule, or model.EndDestination. The editor enforces this when
// rules are authored and model.Survey.Check when a document is loaded; the
// resolver itself does not re-check it.
package branching

import (
	"math"
	"strconv"

	"github.com/mbolis/quest-editor/model"
)

type Kind string

const (
	// KindSection jumps to SectionID.
	KindSection Kind = "section"
	// KindEnd completes the survey.
	KindEnd Kind = "end"
	// KindDefault advances to the next section in declared order.
	KindDefault Kind = "default"
)

type Decision struct {
	Kind      Kind   `json:"kind"`
	SectionID string `json:"id,omitempty"`
}

// NPS buckets.
const (
	Detractor = "Detractor"
	Neutral   = "Neutral"
	Promoter  = "Promoter"
)

// NPSBucket classifies a 0-10 score: 0-6 Detractor, 7-8 Neutral, 9-10 Promoter.
func NPSBucket(score float64) string {
	switch {
	case score >= 9:
		return Promoter
	case score >= 7:
		return Neutral
	}
	return Detractor
}

// TriggerKey derives the value a rule's TriggerOption is compared with.
// ok is false when the question is not branchable or has no usable answer.
func TriggerKey(p model.Payload, answer any) (key string, ok bool) {
	if model.IsEmpty(answer) {
		return "", false
	}
	switch p.(type) {
	case model.MultipleChoice, model.Dropdown:
		return model.AsString(answer)
	case model.NPS:
		n, ok := model.AsNumber(answer)
		if !ok {
			return "", false
		}
		return NPSBucket(n), true
	case model.Rating:
		n, ok := model.AsNumber(answer)
		if !ok {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

// TriggerKeys lists every key TriggerKey can produce for p, which is the set
// of valid TriggerOption values.
func TriggerKeys(p model.Payload) []string {
	switch p := p.(type) {
	case model.MultipleChoice:
		return p.Options
	case model.Dropdown:
		return p.Options
	case model.NPS:
		return []string{Detractor, Neutral, Promoter}
	case model.Rating:
		return scaleKeys(p.Scale)
	}
	return nil
}

func scaleKeys(s model.Scale) []string {
	step := 1.0
	if s.Step != nil && *s.Step > 0 {
		step = *s.Step
	}
	if s.Max < s.Min {
		return nil
	}
	n := int(math.Floor((s.Max-s.Min)/step+1e-9)) + 1
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := s.Min + float64(i)*step
		keys = append(keys, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return keys
}

// ResolveNext picks the section that follows sectionID. Branchable questions
// are scanned in page order and the first rule matching its question's
// trigger key wins; when several rules could fire this is deliberate, not an
// error. Without a match the decision is KindDefault, or KindEnd when
// sectionID is the last section.
func ResolveNext(s *model.Survey, sectionID string, answers model.Answers) Decision {
	idx := s.SectionIndex(sectionID)
	if idx < 0 {
		return Decision{Kind: KindEnd}
	}

	for _, q := range s.SectionQuestions(s.Sections[idx]) {
		if !q.Type().Branchable() {
			continue
		}
		rules := model.Rules(q.Payload)
		if len(rules) == 0 {
			continue
		}
		key, ok := TriggerKey(q.Payload, answers[q.ID])
		if !ok {
			continue
		}
		for _, r := range rules {
			if r.TriggerOption != key {
				continue
			}
			if r.DestinationSectionID == model.EndDestination {
				return Decision{Kind: KindEnd}
			}
			return Decision{Kind: KindSection, SectionID: r.DestinationSectionID}
		}
	}

	if idx == len(s.Sections)-1 {
		return Decision{Kind: KindEnd}
	}
	return Decision{Kind: KindDefault}
}
