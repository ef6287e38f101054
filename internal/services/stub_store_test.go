package services

// stubStore is an in-memory backing store shared by the service tests.
// It implements every service store interface.
type stubStore struct {
	users          map[string]*User
	questionnaires map[string]*Questionnaire
	sessions       map[string]*SessionRecord
	audits         []AuditEntry
}

func newStubStore() *stubStore {
	return &stubStore{
		users:          map[string]*User{},
		questionnaires: map[string]*Questionnaire{},
		sessions:       map[string]*SessionRecord{},
	}
}

func (s *stubStore) FindUserByEmail(email string) (*User, error) {
	return s.users[email], nil
}

func (s *stubStore) AddUser(u *User) error {
	s.users[u.Email] = u
	return nil
}

func (s *stubStore) InsertQuestionnaire(q *Questionnaire) error {
	s.questionnaires[q.ID] = q
	return nil
}

func (s *stubStore) GetQuestionnaire(id string) (*Questionnaire, error) {
	return s.questionnaires[id], nil
}

func (s *stubStore) UpdateQuestionnaire(q *Questionnaire) error {
	s.questionnaires[q.ID] = q
	return nil
}

func (s *stubStore) DeleteQuestionnaire(id string) error {
	delete(s.questionnaires, id)
	return nil
}

func (s *stubStore) ListQuestionnairesByOwner(ownerID string) ([]*Questionnaire, error) {
	var out []*Questionnaire
	for _, q := range s.questionnaires {
		if q.OwnerID == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubStore) InsertSession(rec *SessionRecord) error {
	s.sessions[rec.ID] = rec
	return nil
}

func (s *stubStore) GetSession(id string) (*SessionRecord, error) {
	return s.sessions[id], nil
}

func (s *stubStore) UpdateSession(rec *SessionRecord) error {
	s.sessions[rec.ID] = rec
	return nil
}

func (s *stubStore) FindSessionByCode(code string) (*SessionRecord, error) {
	if code == "" {
		return nil, nil
	}
	for _, rec := range s.sessions {
		if rec.InviteCode == code {
			return rec, nil
		}
	}
	return nil, nil
}

func (s *stubStore) AddAudit(e AuditEntry) {
	s.audits = append(s.audits, e)
}

func (s *stubStore) auditActions() []string {
	out := make([]string, 0, len(s.audits))
	for _, e := range s.audits {
		out = append(out, e.Action)
	}
	return out
}
