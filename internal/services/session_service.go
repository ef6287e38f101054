package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/overlaphq/overlap/internal/session"
)

type SessionStore interface {
	GetQuestionnaire(id string) (*Questionnaire, error)
	InsertSession(rec *SessionRecord) error
	GetSession(id string) (*SessionRecord, error)
	UpdateSession(rec *SessionRecord) error
	FindSessionByCode(code string) (*SessionRecord, error)
	AddAudit(e AuditEntry)
}

// SessionService owns the lifecycle of session records: creation from a
// questionnaire, roster changes, answering, and hosted-session joins.
type SessionService struct {
	store   SessionStore
	now     func() time.Time
	idGen   func() string
	codeGen func() string
	pidGen  func() string
}

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   func() string { return shortID(8) },
		codeGen: func() string { return strings.ToUpper(shortID(6)) },
		pidGen:  defaultParticipantID,
	}
}

func defaultParticipantID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Create builds a session from a questionnaire snapshot. Online
// sessions get an invite code and presence tracking for the roster.
func (s *SessionService) Create(ownerID, questionnaireID string, participants []string, online, randomize bool) (*SessionRecord, error) {
	if ownerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	q, err := s.store.GetQuestionnaire(questionnaireID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	st := session.New(s.idGen(), session.Questionnaire{
		ID:           q.ID,
		Title:        q.Title,
		Instructions: q.Instructions,
		Author:       q.Author,
		Questions:    q.Questions,
	}, participants, online, randomize)

	now := s.now()
	rec := &SessionRecord{
		ID:              st.ID,
		OwnerID:         ownerID,
		QuestionnaireID: q.ID,
		State:           st,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if online {
		rec.InviteCode = s.codeGen()
		rec.ParticipantIDs = map[string]string{}
		rec.Presence = map[string]*Presence{}
		for _, p := range st.Participants {
			rec.ParticipantIDs[p] = s.pidGen()
			rec.Presence[p] = &Presence{Status: session.StatusInvited}
		}
	}
	if err := s.store.InsertSession(rec); err != nil {
		return nil, err
	}
	mode := "offline"
	if online {
		mode = "online"
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: ownerID, Action: "create_session", Target: rec.ID, Note: mode})
	return rec, nil
}

func (s *SessionService) Get(id string) (*SessionRecord, error) {
	rec, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewNotFoundError("session not found")
	}
	return rec, nil
}

// SetParticipants replaces the roster. Owned sessions only accept the
// owner; unowned device copies are freely mutable by whoever holds the
// session id.
func (s *SessionService) SetParticipants(actorID, id string, names []string) (*SessionRecord, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != "" && rec.OwnerID != actorID {
		return nil, NewForbiddenError("forbidden")
	}
	rec.State.SetParticipants(names)
	if rec.InviteCode != "" {
		s.rebuildPresence(rec)
	}
	rec.UpdatedAt = s.now()
	if err := s.store.UpdateSession(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// rebuildPresence keeps ids and presence for participants that survive
// a roster change and provisions new ones for the rest.
func (s *SessionService) rebuildPresence(rec *SessionRecord) {
	ids := map[string]string{}
	presence := map[string]*Presence{}
	for _, p := range rec.State.Participants {
		if id, ok := rec.ParticipantIDs[p]; ok {
			ids[p] = id
			if pr, ok := rec.Presence[p]; ok {
				presence[p] = pr
				continue
			}
		} else {
			ids[p] = s.pidGen()
		}
		presence[p] = &Presence{Status: session.StatusInvited}
	}
	rec.ParticipantIDs = ids
	rec.Presence = presence
}

func (s *SessionService) AddParticipant(actorID, id, name string) (*SessionRecord, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != "" && rec.OwnerID != actorID {
		return nil, NewForbiddenError("forbidden")
	}
	if !rec.State.AddParticipant(name) {
		return nil, NewInvalidError("participant name empty or already present")
	}
	if rec.InviteCode != "" {
		name = strings.TrimSpace(name)
		rec.ParticipantIDs[name] = s.pidGen()
		rec.Presence[name] = &Presence{Status: session.StatusInvited}
	}
	rec.UpdatedAt = s.now()
	if err := s.store.UpdateSession(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Begin moves a session out of the instructions or hand-off phase.
func (s *SessionService) Begin(id string) (*SessionRecord, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !rec.State.Begin() {
		return nil, NewConflictError("session cannot begin from phase " + string(rec.State.Phase))
	}
	rec.UpdatedAt = s.now()
	if err := s.store.UpdateSession(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

type SaveResult struct {
	Record *SessionRecord
	Saved  bool
	Phase  session.Phase
}

// SaveResponse records an answer for the session's current participant
// and question. Engine guard failures surface as Saved=false with no
// error, mirroring the silent no-op semantics of the state machine.
func (s *SessionService) SaveResponse(id, kind, label string) (*SaveResult, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	k, ok := session.ParseKind(kind)
	if !ok {
		return nil, NewInvalidError("answer kind must be Yes, No or Maybe")
	}
	saved := rec.State.SaveResponse(session.NewAnswer(k, strings.TrimSpace(label)))
	if saved {
		rec.UpdatedAt = s.now()
		if err := s.store.UpdateSession(rec); err != nil {
			return nil, err
		}
	}
	return &SaveResult{Record: rec, Saved: saved, Phase: rec.State.Phase}, nil
}

type JoinResult struct {
	Hosted        *SessionRecord
	Device        *SessionRecord
	ParticipantID string
	DisplayName   string
}

// Join adds a participant to a hosted session by invite code and
// creates their device copy of the session. Joining again under the
// same name reuses the stable participant id.
func (s *SessionService) Join(code, name string) (*JoinResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewInvalidError("display name required")
	}
	host, err := s.store.FindSessionByCode(code)
	if err != nil {
		return nil, err
	}
	if host == nil {
		return nil, NewNotFoundError("invite code not found")
	}
	if host.State.Phase == session.PhaseComplete {
		return nil, NewConflictError("session already complete")
	}

	if host.ParticipantIDs == nil {
		host.ParticipantIDs = map[string]string{}
	}
	if host.Presence == nil {
		host.Presence = map[string]*Presence{}
	}
	pid, rejoin := host.ParticipantIDs[name], false
	if pid != "" {
		rejoin = true
	} else {
		if !host.State.AddParticipant(name) {
			return nil, NewInvalidError("participant name rejected")
		}
		pid = s.pidGen()
		host.ParticipantIDs[name] = pid
	}
	host.Presence[name] = &Presence{Status: session.StatusJoined}

	device := session.New(s.idGen(), session.Questionnaire{
		ID:           host.QuestionnaireID,
		Title:        host.State.Title,
		Instructions: host.State.Instructions,
		Questions:    host.State.Questions,
	}, host.State.Participants, true, host.State.IsRandomized)
	device.LocalParticipant = name
	device.LocalParticipantID = pid
	for i, p := range device.Participants {
		if p == name {
			device.CurrentParticipantIndex = i
			break
		}
	}

	now := s.now()
	host.UpdatedAt = now
	devRec := &SessionRecord{
		ID:              device.ID,
		QuestionnaireID: host.QuestionnaireID,
		RemoteCode:      code,
		State:           device,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.UpdateSession(host); err != nil {
		return nil, err
	}
	if err := s.store.InsertSession(devRec); err != nil {
		return nil, err
	}
	action := "join_session"
	if rejoin {
		action = "rejoin_session"
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: pid, Action: action, Target: host.ID, Note: name})
	return &JoinResult{Hosted: host, Device: devRec, ParticipantID: pid, DisplayName: name}, nil
}
