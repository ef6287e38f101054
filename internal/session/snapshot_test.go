package session

import (
	"encoding/json"
	"testing"
)

// deviceSession builds the local copy a joined device would hold.
func deviceSession(local, localID string, randomized bool) *Session {
	s := New("S1", twoQuestionQuestionnaire(), []string{"Alice", "Bob"}, true, randomized)
	s.LocalParticipant = local
	s.LocalParticipantID = localID
	return s
}

func baseSnapshot() *Snapshot {
	return &Snapshot{
		Phase:                   SnapPhaseActive,
		ParticipantDisplayNames: []string{"Alice", "Bob"},
		ParticipantAnswers: map[string]map[string]string{
			"Alice": {"0": "Yes", "1": "No"},
			"Bob":   {"0": "Maybe"},
		},
		ParticipantStatuses:        map[string]string{"Alice": StatusSubmitted, "Bob": StatusAnswering},
		ParticipantAnsweredCounts:  map[string]int{"Alice": 2, "Bob": 1},
		ParticipantQuestionIndices: map[string]int{"Alice": 0, "Bob": 1},
		ParticipantIDsByDisplayName: map[string]string{
			"Alice": "pa", "Bob": "pb",
		},
	}
}

func TestMergeIdempotence(t *testing.T) {
	s := deviceSession("Bob", "pb", true)
	snap := baseSnapshot()

	if removed := s.ApplySnapshot(snap); removed {
		t.Fatalf("merge reported removal for a present participant")
	}
	first, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if removed := s.ApplySnapshot(snap); removed {
		t.Fatalf("second merge reported removal")
	}
	second, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("merge not idempotent:\n first=%s\nsecond=%s", first, second)
	}
}

func TestMergeMidProgressRestoresCursor(t *testing.T) {
	s := deviceSession("Bob", "pb", false)
	s.Phase = PhaseInstructions
	s.ApplySnapshot(baseSnapshot())
	if s.Phase != PhaseAnswering {
		t.Fatalf("phase = %q, want answering", s.Phase)
	}
	if s.CurrentQuestionIndex != 1 {
		t.Fatalf("question index = %d, want 1", s.CurrentQuestionIndex)
	}
	if s.CurrentParticipantIndex != 1 {
		t.Fatalf("participant index = %d, want Bob's roster position 1", s.CurrentParticipantIndex)
	}
	if a := s.Responses.At("Alice", 1); a == nil || a.Kind != No {
		t.Fatalf("Alice's remote answers not rebuilt, got %v", a)
	}
}

func TestMergeRemovedParticipant(t *testing.T) {
	s := deviceSession("Carol", "pc", false)
	s.AddParticipant("Carol")
	s.Phase = PhaseAnswering
	now := s.timeNow()
	s.CompletedAt = &now

	removed := s.ApplySnapshot(baseSnapshot())
	if !removed {
		t.Fatalf("merge did not report removal")
	}
	if s.Phase != PhaseInstructions {
		t.Fatalf("phase = %q, want instructions after removal", s.Phase)
	}
	if s.CompletedAt != nil {
		t.Fatalf("completedAt not cleared after removal")
	}
	if len(s.Participants) != 2 {
		t.Fatalf("roster = %v, want the remote roster", s.Participants)
	}
}

func TestMergeResolvesRenameByParticipantID(t *testing.T) {
	s := deviceSession("Bob", "pb", false)
	s.Phase = PhaseAnswering
	snap := baseSnapshot()
	snap.ParticipantDisplayNames = []string{"Alice", "Bobby"}
	snap.ParticipantAnswers["Bobby"] = snap.ParticipantAnswers["Bob"]
	snap.ParticipantAnsweredCounts["Bobby"] = 1
	snap.ParticipantQuestionIndices["Bobby"] = 1
	snap.ParticipantStatuses["Bobby"] = StatusAnswering
	snap.ParticipantIDsByDisplayName = map[string]string{"Alice": "pa", "Bobby": "pb"}

	if removed := s.ApplySnapshot(snap); removed {
		t.Fatalf("rename treated as removal")
	}
	if s.LocalParticipant != "Bobby" {
		t.Fatalf("local participant = %q, want renamed Bobby", s.LocalParticipant)
	}
	if s.Phase != PhaseAnswering {
		t.Fatalf("phase = %q, want answering", s.Phase)
	}
}

func TestMergeCompleteStampsCompletedAt(t *testing.T) {
	s := deviceSession("Bob", "pb", false)
	s.Phase = PhaseAwaitingResponses
	snap := baseSnapshot()
	snap.Phase = SnapPhaseComplete
	snap.ParticipantAnswers["Bob"] = map[string]string{"0": "Maybe", "1": "Yes"}
	snap.ParticipantAnsweredCounts["Bob"] = 2
	snap.ParticipantStatuses["Bob"] = StatusSubmitted

	s.ApplySnapshot(snap)
	if s.Phase != PhaseComplete {
		t.Fatalf("phase = %q, want complete", s.Phase)
	}
	if s.CompletedAt == nil {
		t.Fatalf("completedAt not stamped on merged completion")
	}
}

func TestMergeDerivesAwaitingFromOthers(t *testing.T) {
	s := deviceSession("Alice", "pa", false)
	s.Phase = PhaseAnswering
	snap := baseSnapshot()
	// Alice finished, Bob still mid-run, remote indicator lagging.
	snap.Phase = SnapPhaseActive

	s.ApplySnapshot(snap)
	if s.Phase != PhaseAwaitingResponses {
		t.Fatalf("phase = %q, want awaitingResponses while Bob finishes", s.Phase)
	}
}

func TestMergeNotStartedParticipant(t *testing.T) {
	fresh := deviceSession("Bob", "pb", false)
	snap := baseSnapshot()
	snap.ParticipantAnswers["Bob"] = nil
	snap.ParticipantAnsweredCounts["Bob"] = 0
	snap.ParticipantQuestionIndices["Bob"] = 0
	snap.ParticipantStatuses["Bob"] = StatusJoined

	fresh.ApplySnapshot(snap)
	if fresh.Phase != PhaseInstructions {
		t.Fatalf("fresh join phase = %q, want instructions", fresh.Phase)
	}

	restarted := deviceSession("Bob", "pb", false)
	restarted.Phase = PhaseAnswering
	restarted.ApplySnapshot(snap)
	if restarted.Phase != PhaseNextParticipant {
		t.Fatalf("reset participant phase = %q, want nextParticipant", restarted.Phase)
	}
}

func TestMergeSkipsMalformedAnswerEntries(t *testing.T) {
	s := deviceSession("Bob", "pb", false)
	snap := baseSnapshot()
	snap.ParticipantAnswers["Alice"] = map[string]string{
		"0":  "Yes",
		"x":  "No",
		"99": "Maybe",
		"1":  "banana",
	}
	s.ApplySnapshot(snap)
	if a := s.Responses.At("Alice", 0); a == nil || a.Kind != Yes {
		t.Fatalf("valid entry dropped")
	}
	if s.Responses.At("Alice", 1) != nil {
		t.Fatalf("unknown answer kind stored")
	}
	if got := s.AnsweredCount("Alice"); got != 1 {
		t.Fatalf("answered count = %d, want 1", got)
	}
}

func TestMergeIgnoredForOfflineSessions(t *testing.T) {
	s := New("S1", twoQuestionQuestionnaire(), []string{"Alice", "Bob"}, false, false)
	if removed := s.ApplySnapshot(baseSnapshot()); removed {
		t.Fatalf("offline merge reported removal")
	}
	if len(s.Participants) != 2 || s.Participants[0] != "Alice" {
		t.Fatalf("offline merge mutated the session")
	}
}

func TestAnswerMapRoundTrip(t *testing.T) {
	s := New("S1", twoQuestionQuestionnaire(), []string{"Alice"}, true, false)
	s.SetAnswers("Alice", map[int]Answer{0: NewAnswer(Yes, ""), 1: NewAnswer(Maybe, "")})
	m := s.AnswerMap("Alice")
	if m["0"] != "Yes" || m["1"] != "Maybe" {
		t.Fatalf("answer map = %v", m)
	}
	parsed := ParseAnswerMap(m, 2)
	if len(parsed) != 2 || parsed[1].Kind != Maybe {
		t.Fatalf("parsed answer map = %v", parsed)
	}
}
