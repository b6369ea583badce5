// Package importer parses question lists written by hand or exported from
// other survey tools. Parsed questions are drafts: they carry no ids and no
// section, editor.ImportQuestions adopts them into a document.
//
// Parsing either succeeds completely or returns a *model.ImportParseError
// and no questions.
package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mbolis/quest-editor/model"
)

const optionSeparator = "|"

// ParseText reads one question per line. A bare title becomes a text
// question, "Title | A | B" a multiple-choice question with options A and B.
// Blank lines are skipped.
func ParseText(input string) ([]*model.Question, error) {
	var qs []*model.Question

	sc := bufio.NewScanner(strings.NewReader(input))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		parts := strings.Split(text, optionSeparator)
		title := model.SanitizeText(parts[0])
		if title == "" {
			return nil, &model.ImportParseError{Line: line, Reason: "missing question title"}
		}

		q := &model.Question{Title: title}
		if len(parts) == 1 {
			q.Payload = model.DefaultPayload(model.TypeText)
			qs = append(qs, q)
			continue
		}

		var opts []string
		for _, o := range parts[1:] {
			if o = model.SanitizeText(o); o != "" {
				opts = append(opts, o)
			}
		}
		if len(opts) == 0 {
			return nil, &model.ImportParseError{Line: line, Reason: "choice question without options"}
		}
		q.Payload = model.MultipleChoice{Options: opts}
		qs = append(qs, q)
	}
	if err := sc.Err(); err != nil {
		return nil, &model.ImportParseError{Line: line + 1, Reason: "unreadable input", Err: err}
	}
	if len(qs) == 0 {
		return nil, &model.ImportParseError{Reason: "no questions found"}
	}
	return qs, nil
}

// ParseJSON accepts either an array of question objects or a paged export
// of the form {"pages": [{"questions": [...]}]}. Objects carrying a "type"
// this engine knows are read in the document format; the others are mapped
// from their "family".
func ParseJSON(data []byte) ([]*model.Question, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &model.ImportParseError{Reason: "empty input"}
	}

	var items []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, &model.ImportParseError{Reason: "malformed JSON array", Err: err}
		}
	case '{':
		doc := exportJSON{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &model.ImportParseError{Reason: "malformed JSON object", Err: err}
		}
		if doc.Pages == nil {
			return nil, &model.ImportParseError{Reason: `expected a "pages" array`}
		}
		for _, p := range doc.Pages {
			items = append(items, p.Questions...)
		}
	default:
		return nil, &model.ImportParseError{Reason: "expected a JSON array or object"}
	}

	qs := make([]*model.Question, 0, len(items))
	for i, raw := range items {
		q, err := parseItem(raw)
		if err != nil {
			err.Item = i + 1
			return nil, err.asParseError()
		}
		qs = append(qs, q)
	}
	if len(qs) == 0 {
		return nil, &model.ImportParseError{Reason: "no questions found"}
	}
	return qs, nil
}
