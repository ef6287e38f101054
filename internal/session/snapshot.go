package session

import (
	"strconv"
	"strings"
)

// Session-wide phase indicators carried on a snapshot.
const (
	SnapPhaseLobby    = "lobby"
	SnapPhaseActive   = "active"
	SnapPhaseAwaiting = "awaiting"
	SnapPhaseComplete = "complete"
)

// Per-participant statuses reported in a snapshot.
const (
	StatusInvited   = "invited"
	StatusJoined    = "joined"
	StatusAnswering = "answering"
	StatusSubmitted = "submitted"
)

// Snapshot is a point-in-time serialization of every participant's
// progress in a hosted session, fetched periodically by each device.
// Answer maps key by actual question index rendered as a string.
type Snapshot struct {
	Phase                       string                       `json:"phase"`
	ParticipantDisplayNames     []string                     `json:"participant_display_names"`
	ParticipantAnswers          map[string]map[string]string `json:"participant_answers"`
	ParticipantStatuses         map[string]string            `json:"participant_statuses"`
	ParticipantAnsweredCounts   map[string]int               `json:"participant_answered_counts"`
	ParticipantQuestionIndices  map[string]int               `json:"participant_question_indices"`
	ParticipantIDsByDisplayName map[string]string            `json:"participant_ids_by_display_name"`
}

// ApplySnapshot folds a hosted snapshot into this device-local session.
// The remote roster is authoritative for membership; each participant's
// answers are replaced wholesale from the snapshot (one device per
// participant, so a remote participant's answers are always fetched
// whole, never merged per slot). Applying the same snapshot twice
// leaves the session unchanged.
//
// The returned flag reports that the local participant is no longer in
// the session; the phase is then forced back to instructions and
// CompletedAt cleared.
//
// Known gap, kept deliberately: if two devices ever submit for the same
// participant, the last fetched snapshot wins without warning.
func (s *Session) ApplySnapshot(snap *Snapshot) bool {
	if snap == nil || !s.IsOnline {
		return false
	}
	s.ensureStorage()
	n := len(s.Questions)

	known := map[string]bool{}
	for _, p := range s.Participants {
		known[p] = true
	}
	roster := make([]string, 0, len(snap.ParticipantDisplayNames))
	for _, name := range snap.ParticipantDisplayNames {
		name = strings.TrimSpace(name)
		if name != "" {
			roster = append(roster, name)
		}
	}
	s.Participants = roster
	for _, p := range roster {
		if !known[p] && s.IsRandomized {
			s.Orders.Generate(p, n)
		}
		s.Responses.Replace(p, ParseAnswerMap(snap.ParticipantAnswers[p], n), n)
	}
	if s.CurrentParticipantIndex > len(roster) {
		s.CurrentParticipantIndex = len(roster)
	}

	self := s.resolveSelf(snap)
	if self == "" {
		s.Phase = PhaseInstructions
		s.CompletedAt = nil
		return true
	}
	s.LocalParticipant = self

	// Phase resolution sources answered count and question pointer from
	// this same snapshot, never from a separately maintained counter.
	answered := snap.ParticipantAnsweredCounts[self]
	qi := snap.ParticipantQuestionIndices[self]
	status := snap.ParticipantStatuses[self]
	switch {
	case answered == 0 && qi == 0 && status != StatusAnswering:
		// Not started. Fresh joins stay on instructions; anything else
		// lands on the hand-off screen.
		if s.Phase != PhaseInstructions {
			s.Phase = PhaseNextParticipant
		}
	case answered < n:
		s.Phase = PhaseAnswering
		if qi < 0 {
			qi = 0
		}
		if qi > n {
			qi = n
		}
		s.CurrentQuestionIndex = qi
		for i, p := range roster {
			if p == self {
				s.CurrentParticipantIndex = i
				break
			}
		}
	default:
		// Own questionnaire finished: completion now depends on the
		// other participants, so re-derive before trusting the remote
		// phase indicator.
		switch {
		case s.ShouldComplete():
			s.complete()
		case s.ShouldAwaitResponses():
			s.Phase = PhaseAwaitingResponses
		default:
			s.applyRemotePhase(snap.Phase)
		}
	}
	return false
}

// resolveSelf finds the local participant in the merged roster, by
// stable participant ID first, case-insensitive name second.
func (s *Session) resolveSelf(snap *Snapshot) string {
	if s.LocalParticipantID != "" {
		for name, id := range snap.ParticipantIDsByDisplayName {
			if id == s.LocalParticipantID && s.hasParticipant(name) {
				return name
			}
		}
	}
	if s.LocalParticipant != "" {
		for _, p := range s.Participants {
			if strings.EqualFold(p, s.LocalParticipant) {
				return p
			}
		}
	}
	return ""
}

func (s *Session) applyRemotePhase(phase string) {
	switch phase {
	case SnapPhaseLobby:
		s.Phase = PhaseInstructions
	case SnapPhaseActive:
		s.Phase = PhaseAnswering
	case SnapPhaseAwaiting:
		s.Phase = PhaseAwaitingResponses
	case SnapPhaseComplete:
		s.complete()
	}
	// Unknown indicators leave the phase as it was.
}

// AnswerMap renders the participant's answers keyed by actual question
// index as wire strings — the shape pushed to and served from the
// hosted-session service.
func (s *Session) AnswerMap(p string) map[string]string {
	out := map[string]string{}
	for i, a := range s.Responses[p] {
		if a != nil {
			out[strconv.Itoa(i)] = string(a.Kind)
		}
	}
	return out
}

// ParseAnswerMap decodes a wire answer map. Malformed keys,
// out-of-range indices and unknown kinds are skipped rather than
// treated as errors.
func ParseAnswerMap(raw map[string]string, n int) map[int]Answer {
	out := make(map[int]Answer, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || idx < 0 || idx >= n {
			continue
		}
		kind, ok := ParseKind(v)
		if !ok {
			continue
		}
		out[idx] = NewAnswer(kind, "")
	}
	return out
}
