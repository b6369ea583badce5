package model

import (
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished:
		return true
	}
	return false
}

// Survey is the editable definition of a questionnaire. It owns its sections
// and questions: Sections gives the page order, Questions the global question
// order used when a question is duplicated.
type Survey struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	Status        Status      `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	ResponseCount int         `json:"responseCount"`
	Sections      []*Section  `json:"sections"`
	Questions     []*Question `json:"questions"`
	Theme         Theme       `json:"theme"`
}

// Section is one page of a survey.
type Section struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	QuestionIDs []string `json:"questionIds"`
}

type Theme struct {
	PrimaryColor    string `json:"primaryColor" yaml:"primary_color"`
	BackgroundColor string `json:"backgroundColor" yaml:"background_color"`
	TextColor       string `json:"textColor" yaml:"text_color"`
	FontFamily      string `json:"fontFamily" yaml:"font_family"`
	BorderRadius    string `json:"borderRadius" yaml:"border_radius"`
}

func DefaultTheme() Theme {
	return Theme{
		PrimaryColor:    "#4f46e5",
		BackgroundColor: "#ffffff",
		TextColor:       "#111827",
		FontFamily:      "Inter, sans-serif",
		BorderRadius:    "8px",
	}
}

// Submission is a completed respondent session as stored by the backend.
type Submission struct {
	ID       string    `json:"id"`
	SurveyID string    `json:"surveyId"`
	Time     time.Time `json:"time"`
	IP       string    `json:"ip"`
	Answers  Answers   `json:"answers"`
}

func (s *Survey) Section(id string) *Section {
	if i := s.SectionIndex(id); i >= 0 {
		return s.Sections[i]
	}
	return nil
}

// SectionIndex returns the position of the section in page order, or -1.
func (s *Survey) SectionIndex(id string) int {
	for i, sec := range s.Sections {
		if sec.ID == id {
			return i
		}
	}
	return -1
}

func (s *Survey) Question(id string) *Question {
	if i := s.QuestionIndex(id); i >= 0 {
		return s.Questions[i]
	}
	return nil
}

// QuestionIndex returns the position of the question in the global order, or -1.
func (s *Survey) QuestionIndex(id string) int {
	for i, q := range s.Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// SectionQuestions resolves the section's questionIds in page order.
// Dangling ids are skipped.
func (s *Survey) SectionQuestions(sec *Section) []*Question {
	qs := make([]*Question, 0, len(sec.QuestionIDs))
	for _, id := range sec.QuestionIDs {
		if q := s.Question(id); q != nil {
			qs = append(qs, q)
		}
	}
	return qs
}

// Clone deep-copies the survey. Nothing mutable is shared with the original.
func (s *Survey) Clone() *Survey {
	c := *s
	c.Sections = make([]*Section, len(s.Sections))
	for i, sec := range s.Sections {
		c.Sections[i] = sec.Clone()
	}
	c.Questions = make([]*Question, len(s.Questions))
	for i, q := range s.Questions {
		c.Questions[i] = q.Clone()
	}
	return &c
}

func (sec *Section) Clone() *Section {
	c := *sec
	c.QuestionIDs = append([]string(nil), sec.QuestionIDs...)
	return &c
}
