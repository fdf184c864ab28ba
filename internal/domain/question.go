package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionType is the variant tag of a question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeFillBlank      QuestionType = "fill_blank"
)

// BlankMarker must appear in a fill_blank prompt where the answer belongs.
const BlankMarker = "___"

// NoOption is the "no match" option index used for missing answers.
const NoOption = -1

// Answer is a student's response to a single question. Text carries the typed
// response for fill_blank questions; when empty the option at Option is used.
type Answer struct {
	Option int    `json:"option"`
	Text   string `json:"text,omitempty"`
}

// NoAnswer returns the sentinel answer that never matches.
func NoAnswer() Answer {
	return Answer{Option: NoOption}
}

// Body is the variant-specific part of a question. The set of implementations is closed.
type Body interface {
	Type() QuestionType
	Options() []string
	validate(prompt string) error
	isCorrect(a Answer) bool
}

// MultipleChoice has one correct choice out of at least two.
type MultipleChoice struct {
	Choices []string
	Correct int
}

func (MultipleChoice) Type() QuestionType { return TypeMultipleChoice }

func (m MultipleChoice) Options() []string { return append([]string(nil), m.Choices...) }

func (m MultipleChoice) validate(string) error {
	if len(m.Choices) < 2 {
		return invalidQuestion("multiple choice questions need at least two options")
	}
	for _, c := range m.Choices {
		if strings.TrimSpace(c) == "" {
			return invalidQuestion("all options must be filled out")
		}
	}
	if m.Correct < 0 || m.Correct >= len(m.Choices) {
		return invalidQuestion("correct answer %d is out of range", m.Correct)
	}
	return nil
}

func (m MultipleChoice) isCorrect(a Answer) bool {
	return a.Option >= 0 && a.Option == m.Correct
}

var trueFalseOptions = []string{"True", "False"}

// TrueFalse always presents the options True (index 0) and False (index 1).
type TrueFalse struct {
	Answer bool
}

func (TrueFalse) Type() QuestionType { return TypeTrueFalse }

func (TrueFalse) Options() []string { return append([]string(nil), trueFalseOptions...) }

func (TrueFalse) validate(string) error { return nil }

func (t TrueFalse) isCorrect(a Answer) bool {
	return a.Option == t.correctIndex()
}

func (t TrueFalse) correctIndex() int {
	if t.Answer {
		return 0
	}
	return 1
}

// FillBlank is matched on text, ignoring case and surrounding whitespace.
type FillBlank struct {
	Accepted string
}

func (FillBlank) Type() QuestionType { return TypeFillBlank }

func (f FillBlank) Options() []string { return []string{f.Accepted} }

func (f FillBlank) validate(prompt string) error {
	if strings.TrimSpace(f.Accepted) == "" {
		return invalidQuestion("fill in the blank questions must have an answer")
	}
	if !strings.Contains(prompt, BlankMarker) {
		return invalidQuestion("fill in the blank questions must contain %q to indicate the blank", BlankMarker)
	}
	return nil
}

func (f FillBlank) isCorrect(a Answer) bool {
	given := a.Text
	if given == "" {
		options := f.Options()
		if a.Option < 0 || a.Option >= len(options) {
			return false
		}
		given = options[a.Option]
	}
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(f.Accepted))
}

// Question is one quiz question; Body holds the variant.
type Question struct {
	ID     string
	Prompt string
	Body   Body
}

func (q Question) Type() QuestionType {
	if q.Body == nil {
		return ""
	}
	return q.Body.Type()
}

// Options returns the option strings as presented in the flat shape.
func (q Question) Options() []string {
	if q.Body == nil {
		return nil
	}
	return q.Body.Options()
}

// Validate checks author-time correctness of the question.
func (q Question) Validate() error {
	if q.Body == nil {
		return invalidQuestion("question type is required")
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return invalidQuestion("all questions must have text")
	}
	return q.Body.validate(q.Prompt)
}

// IsCorrect reports whether the answer matches the question's key.
func (q Question) IsCorrect(a Answer) bool {
	if q.Body == nil {
		return false
	}
	return q.Body.isCorrect(a)
}

// PublicQuestion is the student-facing view of a question, without its key.
type PublicQuestion struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options"`
}

func (q Question) Public() PublicQuestion {
	pub := PublicQuestion{ID: q.ID, Text: q.Prompt, Type: q.Type(), Options: q.Options()}
	if q.Type() == TypeFillBlank {
		pub.Options = []string{}
	}
	return pub
}

// QuestionFields is the flat wire and storage shape of a question.
type QuestionFields struct {
	ID            string       `json:"id,omitempty"`
	Text          string       `json:"text" validate:"required"`
	Type          QuestionType `json:"type" validate:"required,oneof=multiple_choice true_false fill_blank"`
	Options       []string     `json:"options" validate:"required,min=1"`
	CorrectAnswer int          `json:"correctAnswer" validate:"min=0"`
}

// Fields flattens the question.
func (q Question) Fields() QuestionFields {
	f := QuestionFields{ID: q.ID, Text: q.Prompt, Type: q.Type(), Options: q.Options()}
	switch b := q.Body.(type) {
	case MultipleChoice:
		f.CorrectAnswer = b.Correct
	case TrueFalse:
		f.CorrectAnswer = b.correctIndex()
	}
	return f
}

// Build trims the authored content, converts it to a Question and validates it.
func (f QuestionFields) Build() (Question, error) {
	f.Text = strings.TrimSpace(f.Text)
	options := make([]string, len(f.Options))
	for i, o := range f.Options {
		options[i] = strings.TrimSpace(o)
	}
	f.Options = options

	q, err := f.question()
	if err != nil {
		return Question{}, err
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// question converts the flat shape without content validation.
func (f QuestionFields) question() (Question, error) {
	q := Question{ID: f.ID, Prompt: f.Text}
	switch f.Type {
	case TypeMultipleChoice:
		q.Body = MultipleChoice{Choices: append([]string(nil), f.Options...), Correct: f.CorrectAnswer}
	case TypeTrueFalse:
		if len(f.Options) != 2 ||
			!strings.EqualFold(f.Options[0], trueFalseOptions[0]) ||
			!strings.EqualFold(f.Options[1], trueFalseOptions[1]) {
			return Question{}, invalidQuestion("true/false questions must have exactly two options: True and False")
		}
		if f.CorrectAnswer != 0 && f.CorrectAnswer != 1 {
			return Question{}, invalidQuestion("correct answer %d is out of range", f.CorrectAnswer)
		}
		q.Body = TrueFalse{Answer: f.CorrectAnswer == 0}
	case TypeFillBlank:
		if len(f.Options) != 1 {
			return Question{}, invalidQuestion("fill in the blank questions take exactly one answer")
		}
		q.Body = FillBlank{Accepted: f.Options[0]}
	default:
		return Question{}, invalidQuestion("unknown question type %q", f.Type)
	}
	return q, nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Fields())
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var f QuestionFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	parsed, err := f.question()
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuestion converts a stored flat question back into the union.
func ParseQuestion(f QuestionFields) (Question, error) {
	return f.question()
}

func invalidQuestion(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuestion, fmt.Sprintf(format, args...))
}
