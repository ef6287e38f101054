package services

import (
	"github.com/overlaphq/overlap/internal/session"
)

type AnalyticsStore interface {
	GetSession(id string) (*SessionRecord, error)
}

// AnalyticsService computes read-only result summaries over a session's
// stored responses. It never mutates session state.
type AnalyticsService struct {
	store AnalyticsStore
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// QuestionSummary is the per-question breakdown of a results view.
// Agreement is the share of answered responses matching the majority
// kind, in [0,1]; Unanimous needs at least two matching answers.
type QuestionSummary struct {
	Index     int                        `json:"index"`
	Question  string                     `json:"question"`
	Counts    map[session.AnswerKind]int `json:"counts"`
	Answered  int                        `json:"answered"`
	Agreement float64                    `json:"agreement"`
	Unanimous bool                       `json:"unanimous"`
	Responses map[string]string          `json:"responses"`
}

type ParticipantSummary struct {
	Name          string `json:"name"`
	AnsweredCount int    `json:"answered_count"`
	Complete      bool   `json:"complete"`
}

// OverlapSummary is the full results payload for a session.
// OverlapScore is the mean per-question agreement over questions with
// at least one answer.
type OverlapSummary struct {
	SessionID    string               `json:"session_id"`
	Title        string               `json:"title"`
	Phase        session.Phase        `json:"phase"`
	Completion   float64              `json:"completion"`
	OverlapScore float64              `json:"overlap_score"`
	Questions    []QuestionSummary    `json:"questions"`
	Participants []ParticipantSummary `json:"participants"`
}

func (s *AnalyticsService) Summary(id string) (*OverlapSummary, error) {
	rec, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewNotFoundError("session not found")
	}
	st := rec.State

	sum := &OverlapSummary{
		SessionID:  rec.ID,
		Title:      st.Title,
		Phase:      st.Phase,
		Completion: st.CompletionPercentage(),
		Questions:  make([]QuestionSummary, 0, len(st.Questions)),
	}

	scored := 0
	var agreementTotal float64
	for i, question := range st.Questions {
		counts := st.Tally(i)
		answered, max := 0, 0
		for _, c := range counts {
			answered += c
			if c > max {
				max = c
			}
		}
		qs := QuestionSummary{
			Index:     i,
			Question:  question,
			Counts:    counts,
			Answered:  answered,
			Responses: map[string]string{},
		}
		for p, a := range st.ResponsesFor(i) {
			qs.Responses[p] = string(a.Kind)
		}
		if answered > 0 {
			qs.Agreement = float64(max) / float64(answered)
			qs.Unanimous = answered >= 2 && max == answered
			agreementTotal += qs.Agreement
			scored++
		}
		sum.Questions = append(sum.Questions, qs)
	}
	if scored > 0 {
		sum.OverlapScore = agreementTotal / float64(scored)
	}

	for _, p := range st.Participants {
		sum.Participants = append(sum.Participants, ParticipantSummary{
			Name:          p,
			AnsweredCount: st.AnsweredCount(p),
			Complete:      st.IsParticipantComplete(p),
		})
	}
	return sum, nil
}
