package session

import "strings"

// AnswerKind is one of the three possible responses to a question.
type AnswerKind string

const (
	Yes   AnswerKind = "Yes"
	No    AnswerKind = "No"
	Maybe AnswerKind = "Maybe"
)

// Answer is a single immutable response to one question.
type Answer struct {
	Kind  AnswerKind `json:"kind"`
	Label string     `json:"label"`
}

// NewAnswer builds an Answer for kind, defaulting the label to the kind itself.
func NewAnswer(kind AnswerKind, label string) Answer {
	if label == "" {
		label = string(kind)
	}
	return Answer{Kind: kind, Label: label}
}

// ParseKind maps a wire string onto an AnswerKind. Matching is
// case-insensitive; unknown values report false.
func ParseKind(s string) (AnswerKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return Yes, true
	case "no":
		return No, true
	case "maybe":
		return Maybe, true
	}
	return "", false
}
