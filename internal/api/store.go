package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/overlaphq/overlap/internal/services"
)

type memoryStore struct {
	mu             sync.RWMutex
	usersByEmail   map[string]*services.User
	questionnaires map[string]*services.Questionnaire
	sessions       map[string]*services.SessionRecord
	sessionByCode  map[string]string
	audit          []services.AuditEntry
}

// NewMemoryStore returns the non-persistent store used when no
// database path is configured.
func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		usersByEmail:   map[string]*services.User{},
		questionnaires: map[string]*services.Questionnaire{},
		sessions:       map[string]*services.SessionRecord{},
		sessionByCode:  map[string]string{},
		audit:          []services.AuditEntry{},
	}
}

func (s *memoryStore) AddUser(u *services.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByEmail[strings.ToLower(u.Email)] = u
}

func (s *memoryStore) FindUserByEmail(email string) *services.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersByEmail[strings.ToLower(email)]
}

func (s *memoryStore) AddQuestionnaire(q *services.Questionnaire) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionnaires[q.ID] = q
}

func (s *memoryStore) GetQuestionnaire(id string) *services.Questionnaire {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questionnaires[id]
}

func (s *memoryStore) UpdateQuestionnaire(q *services.Questionnaire) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questionnaires[q.ID]; !ok {
		return false
	}
	s.questionnaires[q.ID] = q
	return true
}

func (s *memoryStore) DeleteQuestionnaire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questionnaires[id]; !ok {
		return false
	}
	delete(s.questionnaires, id)
	return true
}

func (s *memoryStore) ListQuestionnairesByOwner(ownerID string) []*services.Questionnaire {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Questionnaire{}
	for _, q := range s.questionnaires {
		if q.OwnerID == ownerID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) AddSession(rec *services.SessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.ID] = rec
	if rec.InviteCode != "" {
		s.sessionByCode[rec.InviteCode] = rec.ID
	}
}

func (s *memoryStore) GetSession(id string) *services.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *memoryStore) UpdateSession(rec *services.SessionRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rec.ID]; !ok {
		return false
	}
	s.sessions[rec.ID] = rec
	if rec.InviteCode != "" {
		s.sessionByCode[rec.InviteCode] = rec.ID
	}
	return true
}

func (s *memoryStore) FindSessionByCode(code string) *services.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessionByCode[code]
	if !ok {
		return nil
	}
	return s.sessions[id]
}

func (s *memoryStore) ListSessionsByOwner(ownerID string) []*services.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.SessionRecord{}
	for _, rec := range s.sessions {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}
