package api

import "github.com/overlaphq/overlap/internal/services"

// Store is the persistence surface the router needs. Implementations
// are the in-memory store below and the SQLite store in internal/db.
type Store interface {
	AddUser(u *services.User)
	FindUserByEmail(email string) *services.User

	AddQuestionnaire(q *services.Questionnaire)
	GetQuestionnaire(id string) *services.Questionnaire
	UpdateQuestionnaire(q *services.Questionnaire) bool
	DeleteQuestionnaire(id string) bool
	ListQuestionnairesByOwner(ownerID string) []*services.Questionnaire

	AddSession(rec *services.SessionRecord)
	GetSession(id string) *services.SessionRecord
	UpdateSession(rec *services.SessionRecord) bool
	FindSessionByCode(code string) *services.SessionRecord
	ListSessionsByOwner(ownerID string) []*services.SessionRecord

	AddAudit(e services.AuditEntry)
	ListAudit() []services.AuditEntry
}

var _ Store = (*memoryStore)(nil)
