package session

import "testing"

func TestTallyAndResponsesFor(t *testing.T) {
	s := New("S1", twoQuestionQuestionnaire(), []string{"Alice", "Bob", "Carol"}, true, false)
	s.SetAnswers("Alice", map[int]Answer{0: NewAnswer(Yes, ""), 1: NewAnswer(No, "")})
	s.SetAnswers("Bob", map[int]Answer{0: NewAnswer(Yes, "")})

	rf := s.ResponsesFor(0)
	if len(rf) != 2 {
		t.Fatalf("responsesFor(0) has %d entries, want 2", len(rf))
	}
	if _, ok := rf["Carol"]; ok {
		t.Fatalf("unanswered participant present in responsesFor")
	}

	tally := s.Tally(0)
	if tally[Yes] != 2 || tally[No] != 0 || tally[Maybe] != 0 {
		t.Fatalf("tally(0) = %v, want two Yes", tally)
	}
	if got := s.Tally(1); got[No] != 1 {
		t.Fatalf("tally(1) = %v, want one No", got)
	}
}

func TestCompletionPercentage(t *testing.T) {
	s := New("S1", twoQuestionQuestionnaire(), []string{"Alice", "Bob"}, true, false)
	if got := s.CompletionPercentage(); got != 0 {
		t.Fatalf("blank session percentage = %v, want 0", got)
	}
	s.SetAnswers("Alice", map[int]Answer{0: NewAnswer(Yes, ""), 1: NewAnswer(No, "")})
	if got := s.CompletionPercentage(); got != 0.5 {
		t.Fatalf("percentage = %v, want 0.5", got)
	}

	empty := New("S2", Questionnaire{ID: "Q0"}, nil, false, false)
	if got := empty.CompletionPercentage(); got != 0 {
		t.Fatalf("empty session percentage = %v, want 0", got)
	}
}

func TestIsParticipantComplete(t *testing.T) {
	s := New("S1", twoQuestionQuestionnaire(), []string{"Alice"}, true, false)
	if s.IsParticipantComplete("Alice") {
		t.Fatalf("blank participant reported complete")
	}
	s.SetAnswers("Alice", map[int]Answer{0: NewAnswer(Yes, ""), 1: NewAnswer(Yes, "")})
	if !s.IsParticipantComplete("Alice") {
		t.Fatalf("fully answered participant reported incomplete")
	}
	if s.AnsweredCount("Alice") != 2 {
		t.Fatalf("answeredCount = %d, want 2", s.AnsweredCount("Alice"))
	}
}
