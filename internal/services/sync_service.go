package services

import (
	"time"

	"github.com/overlaphq/overlap/internal/session"
)

type SyncStore interface {
	GetSession(id string) (*SessionRecord, error)
	FindSessionByCode(code string) (*SessionRecord, error)
	UpdateSession(rec *SessionRecord) error
	AddAudit(e AuditEntry)
}

// SyncService moves progress between the hosted copy of an online
// session and the per-participant device copies. Devices push their own
// answers up and pull everyone's progress down as a snapshot.
type SyncService struct {
	store SyncStore
	now   func() time.Time
}

func NewSyncService(store SyncStore) *SyncService {
	return &SyncService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Progress is one device's report of its participant's state. Answers
// are keyed by actual question index rendered as a decimal string.
type Progress struct {
	ParticipantID string            `json:"participant_id"`
	Answers       map[string]string `json:"answers"`
	QuestionIndex int               `json:"question_index"`
	Status        string            `json:"status"`
}

// Push applies a device's progress to the hosted session: the
// participant's whole answer array is rebuilt from the pushed map, their
// presence is updated and the hosted phase re-derived.
func (s *SyncService) Push(code string, prog Progress) (*SessionRecord, error) {
	host, err := s.store.FindSessionByCode(code)
	if err != nil {
		return nil, err
	}
	if host == nil {
		return nil, NewNotFoundError("invite code not found")
	}
	name := displayNameFor(host, prog.ParticipantID)
	if name == "" {
		return nil, NewForbiddenError("unknown participant")
	}
	n := len(host.State.Questions)
	if !host.State.SetAnswers(name, session.ParseAnswerMap(prog.Answers, n)) {
		return nil, NewConflictError("participant no longer on roster")
	}

	count := host.State.AnsweredCount(name)
	status := prog.Status
	switch status {
	case session.StatusJoined, session.StatusAnswering, session.StatusSubmitted:
	default:
		status = session.StatusAnswering
		if count >= n {
			status = session.StatusSubmitted
		}
	}
	qi := prog.QuestionIndex
	if qi < 0 {
		qi = 0
	}
	if qi > n {
		qi = n
	}
	if host.Presence == nil {
		host.Presence = map[string]*Presence{}
	}
	host.Presence[name] = &Presence{Status: status, AnsweredCount: count, QuestionIndex: qi}

	host.State.RefreshPhase()
	host.UpdatedAt = s.now()
	if err := s.store.UpdateSession(host); err != nil {
		return nil, err
	}
	return host, nil
}

// BuildSnapshot renders the hosted session's full current state for
// devices to merge. Everything in the snapshot comes from a single read
// of the hosted record, so counts, indices and answers are mutually
// consistent.
func (s *SyncService) BuildSnapshot(code string) (*session.Snapshot, error) {
	host, err := s.store.FindSessionByCode(code)
	if err != nil {
		return nil, err
	}
	if host == nil {
		return nil, NewNotFoundError("invite code not found")
	}
	return snapshotFor(host), nil
}

func snapshotFor(rec *SessionRecord) *session.Snapshot {
	st := rec.State
	snap := &session.Snapshot{
		ParticipantDisplayNames:     append([]string(nil), st.Participants...),
		ParticipantAnswers:          map[string]map[string]string{},
		ParticipantStatuses:         map[string]string{},
		ParticipantAnsweredCounts:   map[string]int{},
		ParticipantQuestionIndices:  map[string]int{},
		ParticipantIDsByDisplayName: map[string]string{},
	}
	started := false
	for _, p := range st.Participants {
		snap.ParticipantAnswers[p] = st.AnswerMap(p)
		snap.ParticipantAnsweredCounts[p] = st.AnsweredCount(p)
		status := session.StatusInvited
		if pr, ok := rec.Presence[p]; ok && pr != nil {
			if pr.Status != "" {
				status = pr.Status
			}
			snap.ParticipantQuestionIndices[p] = pr.QuestionIndex
		}
		snap.ParticipantStatuses[p] = status
		if id, ok := rec.ParticipantIDs[p]; ok {
			snap.ParticipantIDsByDisplayName[p] = id
		}
		if status == session.StatusAnswering || status == session.StatusSubmitted || snap.ParticipantAnsweredCounts[p] > 0 {
			started = true
		}
	}
	switch {
	case st.Phase == session.PhaseComplete:
		snap.Phase = session.SnapPhaseComplete
	case st.ShouldAwaitResponses():
		snap.Phase = session.SnapPhaseAwaiting
	case started:
		snap.Phase = session.SnapPhaseActive
	default:
		snap.Phase = session.SnapPhaseLobby
	}
	return snap
}

func displayNameFor(rec *SessionRecord, participantID string) string {
	if participantID == "" {
		return ""
	}
	for name, id := range rec.ParticipantIDs {
		if id == participantID {
			return name
		}
	}
	return ""
}

// RefreshResult reports the merged device record. Removed is set when
// the hosted roster no longer contains the device's participant; the
// device state has then been reset to the instructions phase.
type RefreshResult struct {
	Record  *SessionRecord
	Removed bool
}

// Refresh pulls the hosted snapshot into a device copy.
func (s *SyncService) Refresh(deviceID string) (*RefreshResult, error) {
	device, err := s.store.GetSession(deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, NewNotFoundError("session not found")
	}
	if device.RemoteCode == "" {
		return nil, NewInvalidError("session is not tracking a hosted session")
	}
	host, err := s.store.FindSessionByCode(device.RemoteCode)
	if err != nil {
		return nil, err
	}
	if host == nil {
		return nil, NewNotFoundError("hosted session not found")
	}
	removed := device.State.ApplySnapshot(snapshotFor(host))
	device.UpdatedAt = s.now()
	if err := s.store.UpdateSession(device); err != nil {
		return nil, err
	}
	return &RefreshResult{Record: device, Removed: removed}, nil
}

// PushLocal pushes a device copy's own participant progress to the
// hosted session, deriving the progress report from the device state.
func (s *SyncService) PushLocal(deviceID string) (*SessionRecord, error) {
	device, err := s.store.GetSession(deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, NewNotFoundError("session not found")
	}
	if device.RemoteCode == "" || device.State.LocalParticipantID == "" {
		return nil, NewInvalidError("session is not tracking a hosted session")
	}
	st := device.State
	local := st.LocalParticipant
	status := session.StatusJoined
	switch {
	case st.IsParticipantComplete(local):
		status = session.StatusSubmitted
	case st.AnsweredCount(local) > 0 || st.Phase == session.PhaseAnswering:
		status = session.StatusAnswering
	}
	return s.Push(device.RemoteCode, Progress{
		ParticipantID: st.LocalParticipantID,
		Answers:       st.AnswerMap(local),
		QuestionIndex: st.CurrentQuestionIndex,
		Status:        status,
	})
}
