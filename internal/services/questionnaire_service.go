package services

import (
	"strings"
	"time"
)

type QuestionnaireStore interface {
	InsertQuestionnaire(q *Questionnaire) error
	GetQuestionnaire(id string) (*Questionnaire, error)
	UpdateQuestionnaire(q *Questionnaire) error
	DeleteQuestionnaire(id string) error
	ListQuestionnairesByOwner(ownerID string) ([]*Questionnaire, error)
	AddAudit(e AuditEntry)
}

type QuestionnaireService struct {
	store QuestionnaireStore
	now   func() time.Time
	idGen func() string
}

func NewQuestionnaireService(store QuestionnaireStore) *QuestionnaireService {
	return &QuestionnaireService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(8) },
	}
}

// cleanQuestions trims entries and drops blanks, preserving order.
func cleanQuestions(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q != "" {
			out = append(out, q)
		}
	}
	return out
}

func (s *QuestionnaireService) Create(ownerID string, q *Questionnaire) (*Questionnaire, error) {
	if ownerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if q == nil {
		return nil, NewInvalidError("questionnaire required")
	}
	title := strings.TrimSpace(q.Title)
	if title == "" {
		return nil, NewInvalidError("title required")
	}
	questions := cleanQuestions(q.Questions)
	if len(questions) == 0 {
		return nil, NewInvalidError("at least one question required")
	}
	created := &Questionnaire{
		ID:           q.ID,
		OwnerID:      ownerID,
		Title:        title,
		Instructions: strings.TrimSpace(q.Instructions),
		Author:       strings.TrimSpace(q.Author),
		Questions:    questions,
		CreatedAt:    s.now(),
	}
	if created.ID == "" {
		created.ID = s.idGen()
	}
	if err := s.store.InsertQuestionnaire(created); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: ownerID, Action: "create_questionnaire", Target: created.ID})
	return created, nil
}

func (s *QuestionnaireService) Get(id string) (*Questionnaire, error) {
	q, err := s.store.GetQuestionnaire(id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	return q, nil
}

func (s *QuestionnaireService) ListMine(ownerID string) ([]*Questionnaire, error) {
	if ownerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	return s.store.ListQuestionnairesByOwner(ownerID)
}

func (s *QuestionnaireService) Update(ownerID string, q *Questionnaire) (*Questionnaire, error) {
	if q == nil || q.ID == "" {
		return nil, NewInvalidError("questionnaire id required")
	}
	old, err := s.store.GetQuestionnaire(q.ID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	if old.OwnerID != ownerID {
		return nil, NewForbiddenError("forbidden")
	}
	updated := *old
	if title := strings.TrimSpace(q.Title); title != "" {
		updated.Title = title
	}
	if q.Instructions != "" {
		updated.Instructions = strings.TrimSpace(q.Instructions)
	}
	if q.Author != "" {
		updated.Author = strings.TrimSpace(q.Author)
	}
	if q.Questions != nil {
		questions := cleanQuestions(q.Questions)
		if len(questions) == 0 {
			return nil, NewInvalidError("at least one question required")
		}
		updated.Questions = questions
	}
	if err := s.store.UpdateQuestionnaire(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *QuestionnaireService) Delete(ownerID, id string) error {
	old, err := s.store.GetQuestionnaire(id)
	if err != nil {
		return err
	}
	if old == nil {
		return NewNotFoundError("questionnaire not found")
	}
	if old.OwnerID != ownerID {
		return NewForbiddenError("forbidden")
	}
	if err := s.store.DeleteQuestionnaire(id); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: ownerID, Action: "delete_questionnaire", Target: id})
	return nil
}
