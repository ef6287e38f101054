package services

import (
	"testing"

	"github.com/overlaphq/overlap/internal/session"
)

// hostedFixture builds a hosted online session with Alice and Bob
// joined from their own devices.
type hostedFixture struct {
	store    *stubStore
	sessions *SessionService
	sync     *SyncService
	code     string
	host     *SessionRecord
	alice    *JoinResult
	bob      *JoinResult
}

func newHostedFixture(t *testing.T) *hostedFixture {
	t.Helper()
	store := newStubStore()
	q := seedQuestionnaire(t, store, "u1")
	sessions := newTestSessionService(store)
	host, err := sessions.Create("u1", q.ID, nil, true, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	alice, err := sessions.Join(host.InviteCode, "Alice")
	if err != nil {
		t.Fatalf("Join Alice: %v", err)
	}
	bob, err := sessions.Join(host.InviteCode, "Bob")
	if err != nil {
		t.Fatalf("Join Bob: %v", err)
	}
	return &hostedFixture{
		store:    store,
		sessions: sessions,
		sync:     NewSyncService(store),
		code:     host.InviteCode,
		host:     host,
		alice:    alice,
		bob:      bob,
	}
}

func TestPushUpdatesHostedAnswersAndPresence(t *testing.T) {
	f := newHostedFixture(t)

	host, err := f.sync.Push(f.code, Progress{
		ParticipantID: f.alice.ParticipantID,
		Answers:       map[string]string{"0": "Yes", "1": "No"},
		QuestionIndex: 2,
	})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if got := host.State.AnsweredCount("Alice"); got != 2 {
		t.Fatalf("Alice answered = %d, want 2", got)
	}
	pr := host.Presence["Alice"]
	if pr == nil || pr.Status != session.StatusSubmitted || pr.AnsweredCount != 2 {
		t.Fatalf("presence = %+v, want submitted 2/2", pr)
	}
	if host.State.Phase != session.PhaseAwaitingResponses {
		t.Fatalf("host phase = %q, want awaitingResponses", host.State.Phase)
	}
}

func TestPushUnknownParticipant(t *testing.T) {
	f := newHostedFixture(t)
	_, err := f.sync.Push(f.code, Progress{ParticipantID: "nobody"})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestSnapshotReflectsPushes(t *testing.T) {
	f := newHostedFixture(t)

	snap, err := f.sync.BuildSnapshot(f.code)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if snap.Phase != session.SnapPhaseLobby {
		t.Fatalf("phase = %q, want lobby before any answers", snap.Phase)
	}
	if snap.ParticipantStatuses["Alice"] != session.StatusJoined {
		t.Fatalf("Alice status = %q, want joined", snap.ParticipantStatuses["Alice"])
	}
	if snap.ParticipantIDsByDisplayName["Bob"] != f.bob.ParticipantID {
		t.Fatal("snapshot missing Bob's participant id")
	}

	if _, err := f.sync.Push(f.code, Progress{
		ParticipantID: f.alice.ParticipantID,
		Answers:       map[string]string{"0": "Yes"},
		QuestionIndex: 1,
		Status:        session.StatusAnswering,
	}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	snap, err = f.sync.BuildSnapshot(f.code)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if snap.Phase != session.SnapPhaseActive {
		t.Fatalf("phase = %q, want active", snap.Phase)
	}
	if snap.ParticipantAnswers["Alice"]["0"] != "Yes" {
		t.Fatalf("snapshot answers = %v", snap.ParticipantAnswers["Alice"])
	}
	if snap.ParticipantAnsweredCounts["Alice"] != 1 || snap.ParticipantQuestionIndices["Alice"] != 1 {
		t.Fatalf("Alice progress = %d @ %d", snap.ParticipantAnsweredCounts["Alice"], snap.ParticipantQuestionIndices["Alice"])
	}

	if _, err := f.sync.Push(f.code, Progress{
		ParticipantID: f.alice.ParticipantID,
		Answers:       map[string]string{"0": "Yes", "1": "No"},
		QuestionIndex: 2,
	}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	snap, _ = f.sync.BuildSnapshot(f.code)
	if snap.Phase != session.SnapPhaseAwaiting {
		t.Fatalf("phase = %q, want awaiting", snap.Phase)
	}

	if _, err := f.sync.Push(f.code, Progress{
		ParticipantID: f.bob.ParticipantID,
		Answers:       map[string]string{"0": "No", "1": "No"},
		QuestionIndex: 2,
	}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	snap, _ = f.sync.BuildSnapshot(f.code)
	if snap.Phase != session.SnapPhaseComplete {
		t.Fatalf("phase = %q, want complete", snap.Phase)
	}
	if f.host.State.CompletedAt == nil {
		t.Fatal("host CompletedAt not stamped")
	}
}

func TestRefreshMergesIntoDevice(t *testing.T) {
	f := newHostedFixture(t)

	if _, err := f.sync.Push(f.code, Progress{
		ParticipantID: f.alice.ParticipantID,
		Answers:       map[string]string{"0": "Yes", "1": "Maybe"},
		QuestionIndex: 2,
	}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	res, err := f.sync.Refresh(f.bob.Device.ID)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.Removed {
		t.Fatal("Bob reported removed")
	}
	dev := res.Record.State
	if got := dev.AnsweredCount("Alice"); got != 2 {
		t.Fatalf("device sees Alice answered = %d, want 2", got)
	}
	if dev.AnsweredCount("Bob") != 0 {
		t.Fatal("device invented answers for Bob")
	}
}

func TestRefreshRemovedParticipant(t *testing.T) {
	f := newHostedFixture(t)

	if _, err := f.sessions.SetParticipants("u1", f.host.ID, []string{"Alice"}); err != nil {
		t.Fatalf("SetParticipants: %v", err)
	}
	res, err := f.sync.Refresh(f.bob.Device.ID)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !res.Removed {
		t.Fatal("Bob should be reported removed")
	}
	if res.Record.State.Phase != session.PhaseInstructions {
		t.Fatalf("phase = %q, want instructions", res.Record.State.Phase)
	}
}

func TestRefreshGuards(t *testing.T) {
	f := newHostedFixture(t)
	if _, err := f.sync.Refresh("missing"); err == nil {
		t.Fatal("refresh of unknown session should fail")
	}
	// The hosted record itself is not a device copy.
	_, err := f.sync.Refresh(f.host.ID)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("err = %v, want invalid", err)
	}
}

func TestPushLocalDerivesProgress(t *testing.T) {
	f := newHostedFixture(t)
	devID := f.alice.Device.ID

	if _, err := f.sessions.Begin(devID); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, kind := range []string{"Yes", "No"} {
		res, err := f.sessions.SaveResponse(devID, kind, "")
		if err != nil || !res.Saved {
			t.Fatalf("SaveResponse(%s) = %+v, %v", kind, res, err)
		}
	}
	host, err := f.sync.PushLocal(devID)
	if err != nil {
		t.Fatalf("PushLocal: %v", err)
	}
	if got := host.State.AnsweredCount("Alice"); got != 2 {
		t.Fatalf("host sees Alice answered = %d, want 2", got)
	}
	if pr := host.Presence["Alice"]; pr == nil || pr.Status != session.StatusSubmitted {
		t.Fatalf("presence = %+v, want submitted", pr)
	}
}
