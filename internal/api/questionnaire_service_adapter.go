package api

import "github.com/overlaphq/overlap/internal/services"

type questionnaireStoreAdapter struct {
	store Store
}

func newQuestionnaireStoreAdapter(store Store) services.QuestionnaireStore {
	return &questionnaireStoreAdapter{store: store}
}

func (a *questionnaireStoreAdapter) InsertQuestionnaire(q *services.Questionnaire) error {
	if q == nil {
		return services.NewInvalidError("questionnaire required")
	}
	a.store.AddQuestionnaire(q)
	return nil
}

func (a *questionnaireStoreAdapter) GetQuestionnaire(id string) (*services.Questionnaire, error) {
	return a.store.GetQuestionnaire(id), nil
}

func (a *questionnaireStoreAdapter) UpdateQuestionnaire(q *services.Questionnaire) error {
	if q == nil || !a.store.UpdateQuestionnaire(q) {
		return services.NewNotFoundError("questionnaire not found")
	}
	return nil
}

func (a *questionnaireStoreAdapter) DeleteQuestionnaire(id string) error {
	if !a.store.DeleteQuestionnaire(id) {
		return services.NewNotFoundError("questionnaire not found")
	}
	return nil
}

func (a *questionnaireStoreAdapter) ListQuestionnairesByOwner(ownerID string) ([]*services.Questionnaire, error) {
	return a.store.ListQuestionnairesByOwner(ownerID), nil
}

func (a *questionnaireStoreAdapter) AddAudit(e services.AuditEntry) {
	a.store.AddAudit(e)
}

var _ services.QuestionnaireStore = (*questionnaireStoreAdapter)(nil)
