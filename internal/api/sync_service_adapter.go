package api

import "github.com/overlaphq/overlap/internal/services"

type syncStoreAdapter struct {
	store Store
}

func newSyncStoreAdapter(store Store) services.SyncStore {
	return &syncStoreAdapter{store: store}
}

func (a *syncStoreAdapter) GetSession(id string) (*services.SessionRecord, error) {
	return a.store.GetSession(id), nil
}

func (a *syncStoreAdapter) FindSessionByCode(code string) (*services.SessionRecord, error) {
	return a.store.FindSessionByCode(code), nil
}

func (a *syncStoreAdapter) UpdateSession(rec *services.SessionRecord) error {
	if rec == nil || !a.store.UpdateSession(rec) {
		return services.NewNotFoundError("session not found")
	}
	return nil
}

func (a *syncStoreAdapter) AddAudit(e services.AuditEntry) {
	a.store.AddAudit(e)
}

var _ services.SyncStore = (*syncStoreAdapter)(nil)
