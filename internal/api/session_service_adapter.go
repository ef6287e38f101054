package api

import "github.com/overlaphq/overlap/internal/services"

type sessionStoreAdapter struct {
	store Store
}

func newSessionStoreAdapter(store Store) services.SessionStore {
	return &sessionStoreAdapter{store: store}
}

func (a *sessionStoreAdapter) GetQuestionnaire(id string) (*services.Questionnaire, error) {
	return a.store.GetQuestionnaire(id), nil
}

func (a *sessionStoreAdapter) InsertSession(rec *services.SessionRecord) error {
	if rec == nil {
		return services.NewInvalidError("session required")
	}
	a.store.AddSession(rec)
	return nil
}

func (a *sessionStoreAdapter) GetSession(id string) (*services.SessionRecord, error) {
	return a.store.GetSession(id), nil
}

func (a *sessionStoreAdapter) UpdateSession(rec *services.SessionRecord) error {
	if rec == nil || !a.store.UpdateSession(rec) {
		return services.NewNotFoundError("session not found")
	}
	return nil
}

func (a *sessionStoreAdapter) FindSessionByCode(code string) (*services.SessionRecord, error) {
	return a.store.FindSessionByCode(code), nil
}

func (a *sessionStoreAdapter) AddAudit(e services.AuditEntry) {
	a.store.AddAudit(e)
}

var _ services.SessionStore = (*sessionStoreAdapter)(nil)
