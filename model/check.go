package model

import "fmt"

// Check verifies the structural invariants of the document: at least one
// section, unique ids, every question owned by exactly the section that
// lists it, and forward-only logic.
func (s *Survey) Check() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("%w: survey has no sections", ErrInvalidDocument)
	}

	sectionPos := make(map[string]int, len(s.Sections))
	for i, sec := range s.Sections {
		if sec.ID == "" {
			return fmt.Errorf("%w: section %d has no id", ErrInvalidDocument, i)
		}
		if _, dup := sectionPos[sec.ID]; dup {
			return fmt.Errorf("%w: duplicate section id %s", ErrInvalidDocument, sec.ID)
		}
		sectionPos[sec.ID] = i
	}

	owner := make(map[string]string, len(s.Questions))
	for _, q := range s.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question without id", ErrInvalidDocument)
		}
		if _, dup := owner[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %s", ErrInvalidDocument, q.ID)
		}
		if _, ok := sectionPos[q.SectionID]; !ok {
			return fmt.Errorf("%w: question %s references unknown section %s", ErrInvalidDocument, q.ID, q.SectionID)
		}
		owner[q.ID] = q.SectionID
	}

	listed := make(map[string]bool, len(s.Questions))
	for _, sec := range s.Sections {
		for _, qid := range sec.QuestionIDs {
			sid, ok := owner[qid]
			if !ok {
				return fmt.Errorf("%w: section %s lists unknown question %s", ErrInvalidDocument, sec.ID, qid)
			}
			if sid != sec.ID {
				return fmt.Errorf("%w: section %s lists question %s owned by %s", ErrInvalidDocument, sec.ID, qid, sid)
			}
			if listed[qid] {
				return fmt.Errorf("%w: question %s listed twice", ErrInvalidDocument, qid)
			}
			listed[qid] = true
		}
	}
	for qid := range owner {
		if !listed[qid] {
			return fmt.Errorf("%w: question %s is not listed by its section", ErrInvalidDocument, qid)
		}
	}

	for _, q := range s.Questions {
		from := sectionPos[q.SectionID]
		for _, r := range Rules(q.Payload) {
			if r.DestinationSectionID == EndDestination {
				continue
			}
			to, ok := sectionPos[r.DestinationSectionID]
			if !ok || to <= from {
				return fmt.Errorf("%w: question %s: %w", ErrInvalidDocument, q.ID, ErrBackwardBranch)
			}
		}
	}
	return nil
}
