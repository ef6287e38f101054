package api

import "github.com/overlaphq/overlap/internal/services"

type analyticsStoreAdapter struct {
	store Store
}

func newAnalyticsStoreAdapter(store Store) services.AnalyticsStore {
	return &analyticsStoreAdapter{store: store}
}

func (a *analyticsStoreAdapter) GetSession(id string) (*services.SessionRecord, error) {
	return a.store.GetSession(id), nil
}

var _ services.AnalyticsStore = (*analyticsStoreAdapter)(nil)
