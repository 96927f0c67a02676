package lecture

import (
	"context"
	"fmt"
	"time"
)

// BilingualText is a single text field rendered in both configured languages.
type BilingualText struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// ExamQuestion is one self-test question attached to a section.
type ExamQuestion struct {
	Question BilingualText `json:"question"`
	Answer   BilingualText `json:"answer"`
}

// Subsection is one teaching unit inside a section.
type Subsection struct {
	Heading BilingualText `json:"heading"`
	Body    BilingualText `json:"body"`
}

// Section is an ordered lecture chapter with subsections and exam questions.
type Section struct {
	Heading       BilingualText  `json:"heading"`
	Subsections   []Subsection   `json:"subsections"`
	ExamQuestions []ExamQuestion `json:"examQuestions"`
}

// Lecture is the structured bilingual lecture object returned by the
// language-structuring service. The overview's primary-language text is what
// the playback controller speaks.
type Lecture struct {
	ID        string        `json:"id"`
	Title     BilingualText `json:"title"`
	Overview  BilingualText `json:"overview"`
	Sections  []Section     `json:"sections"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Validate checks that the lecture carries the minimum usable structure.
func (l *Lecture) Validate() error {
	if l.Title.Primary == "" {
		return fmt.Errorf("lecture is missing a title")
	}
	if l.Overview.Primary == "" {
		return fmt.Errorf("lecture is missing an overview")
	}
	if len(l.Sections) == 0 {
		return fmt.Errorf("lecture has no sections")
	}
	return nil
}

// GenerateRequest carries the user input: plain text, or a binary document
// with its declared media type. Exactly one of Text and Document is set.
type GenerateRequest struct {
	Text     string
	Document []byte
	MimeType string
}

// Generator is the boundary to the language-structuring service.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Lecture, error)
}
