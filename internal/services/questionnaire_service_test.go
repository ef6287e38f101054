package services

import "testing"

func seedQuestionnaire(t *testing.T, store *stubStore, ownerID string) *Questionnaire {
	t.Helper()
	svc := NewQuestionnaireService(store)
	q, err := svc.Create(ownerID, &Questionnaire{
		Title:     "Weekend plans",
		Questions: []string{"Hiking?", "Museum?"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return q
}

func TestQuestionnaireCreateValidation(t *testing.T) {
	svc := NewQuestionnaireService(newStubStore())
	cases := []struct {
		name string
		in   *Questionnaire
	}{
		{"no title", &Questionnaire{Questions: []string{"Q1"}}},
		{"no questions", &Questionnaire{Title: "T"}},
		{"blank questions", &Questionnaire{Title: "T", Questions: []string{"  ", ""}}},
	}
	for _, tc := range cases {
		_, err := svc.Create("u1", tc.in)
		se, ok := AsServiceError(err)
		if !ok || se.Code != ErrorInvalid {
			t.Fatalf("%s: err = %v, want invalid", tc.name, err)
		}
	}
}

func TestQuestionnaireCreateTrimsQuestions(t *testing.T) {
	store := newStubStore()
	svc := NewQuestionnaireService(store)
	q, err := svc.Create("u1", &Questionnaire{
		Title:     "  T  ",
		Questions: []string{" Hiking? ", "", "Museum?"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if q.Title != "T" {
		t.Fatalf("title = %q, want trimmed", q.Title)
	}
	if len(q.Questions) != 2 || q.Questions[0] != "Hiking?" {
		t.Fatalf("questions = %v", q.Questions)
	}
}

func TestQuestionnaireUpdateOwnerCheck(t *testing.T) {
	store := newStubStore()
	q := seedQuestionnaire(t, store, "u1")
	svc := NewQuestionnaireService(store)

	_, err := svc.Update("intruder", &Questionnaire{ID: q.ID, Title: "Stolen"})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}

	updated, err := svc.Update("u1", &Questionnaire{ID: q.ID, Title: "Renamed"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Renamed" || len(updated.Questions) != 2 {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestQuestionnaireDelete(t *testing.T) {
	store := newStubStore()
	q := seedQuestionnaire(t, store, "u1")
	svc := NewQuestionnaireService(store)

	if err := svc.Delete("other", q.ID); err == nil {
		t.Fatal("Delete by non-owner should fail")
	}
	if err := svc.Delete("u1", q.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := svc.Get(q.ID)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("Get after delete err = %v, want not_found", err)
	}
}

func TestQuestionnaireListMine(t *testing.T) {
	store := newStubStore()
	seedQuestionnaire(t, store, "u1")
	seedQuestionnaire(t, store, "u1")
	seedQuestionnaire(t, store, "u2")
	svc := NewQuestionnaireService(store)

	mine, err := svc.ListMine("u1")
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("len(mine) = %d, want 2", len(mine))
	}
}
