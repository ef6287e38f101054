package session

// Read-only aggregation over stored responses, used to render results.
// Nothing here mutates the session.

// ResponsesFor returns the answers recorded for one question, keyed by
// participant. Participants who have not answered it are absent.
func (s *Session) ResponsesFor(actual int) map[string]Answer {
	out := map[string]Answer{}
	for _, p := range s.Participants {
		if a := s.Responses.At(p, actual); a != nil {
			out[p] = *a
		}
	}
	return out
}

// Tally counts the answers to one question by kind.
func (s *Session) Tally(actual int) map[AnswerKind]int {
	out := map[AnswerKind]int{}
	for _, p := range s.Participants {
		if a := s.Responses.At(p, actual); a != nil {
			out[a.Kind]++
		}
	}
	return out
}

// CompletionStatus returns (answered, answered+unanswered) counts over
// the whole session.
func (s *Session) CompletionStatus() (answered, total int) {
	return s.Responses.Status(s.Participants, len(s.Questions))
}

// CompletionPercentage is answered/total in [0,1], zero for an empty
// session.
func (s *Session) CompletionPercentage() float64 {
	answered, total := s.CompletionStatus()
	if total == 0 {
		return 0
	}
	return float64(answered) / float64(total)
}

// IsParticipantComplete reports whether the participant has answered
// every question.
func (s *Session) IsParticipantComplete(p string) bool {
	return s.Responses.Complete(p, len(s.Questions))
}

// AnsweredCount is how many questions the participant has answered.
func (s *Session) AnsweredCount(p string) int {
	return s.Responses.Count(p, len(s.Questions))
}
