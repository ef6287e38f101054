package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/overlaphq/overlap/internal/middleware"
	"github.com/overlaphq/overlap/internal/services"
)

// Router wires the HTTP surface to the service layer. All handlers are
// thin: decode, call a service, translate the ServiceError code.
type Router struct {
	store          Store
	auth           *services.AuthService
	questionnaires *services.QuestionnaireService
	sessions       *services.SessionService
	sync           *services.SyncService
	analytics      *services.AnalyticsService
}

func NewRouter(store Store) *Router {
	return &Router{
		store:          store,
		auth:           services.NewAuthService(newAuthStoreAdapter(store), middleware.SignToken),
		questionnaires: services.NewQuestionnaireService(newQuestionnaireStoreAdapter(store)),
		sessions:       services.NewSessionService(newSessionStoreAdapter(store)),
		sync:           services.NewSyncService(newSyncStoreAdapter(store)),
		analytics:      services.NewAnalyticsService(newAnalyticsStoreAdapter(store)),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister)
	mux.HandleFunc("/api/auth/login", rt.handleLogin)
	mux.HandleFunc("/api/questionnaires", rt.handleQuestionnaires)
	mux.HandleFunc("/api/questionnaires/", rt.handleQuestionnaireScoped)
	mux.HandleFunc("/api/sessions", rt.handleSessions)
	mux.HandleFunc("/api/sessions/", rt.handleSessionScoped)
	mux.HandleFunc("/api/join", rt.handleJoin)
	mux.HandleFunc("/api/hosted/", rt.handleHosted)
	mux.HandleFunc("/api/audit", rt.handleAudit)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		}
		http.Error(w, se.Message, status)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// POST /api/auth/register, POST /api/auth/login
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	rt.handleCredentials(w, r, rt.auth.Register)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	rt.handleCredentials(w, r, rt.auth.Login)
}

func (rt *Router) handleCredentials(w http.ResponseWriter, r *http.Request, op func(email, password string) (*services.AuthResult, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := op(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "user_id": res.UserID})
}

// POST /api/questionnaires, GET /api/questionnaires
func (rt *Router) handleQuestionnaires(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.HostIDFromContext(r.Context())
	switch r.Method {
	case http.MethodPost:
		var q services.Questionnaire
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created, err := rt.questionnaires.Create(uid, &q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, created)
	case http.MethodGet:
		list, err := rt.questionnaires.ListMine(uid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"questionnaires": list})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET|PUT|DELETE /api/questionnaires/{id}
func (rt *Router) handleQuestionnaireScoped(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/questionnaires/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	uid, _ := middleware.HostIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		q, err := rt.questionnaires.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, q)
	case http.MethodPut:
		var q services.Questionnaire
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q.ID = id
		updated, err := rt.questionnaires.Update(uid, &q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, updated)
	case http.MethodDelete:
		if err := rt.questionnaires.Delete(uid, id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/sessions, GET /api/sessions
func (rt *Router) handleSessions(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.HostIDFromContext(r.Context())
	switch r.Method {
	case http.MethodPost:
		var req struct {
			QuestionnaireID string   `json:"questionnaire_id"`
			Participants    []string `json:"participants"`
			Online          bool     `json:"online"`
			Randomize       bool     `json:"randomize"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, err := rt.sessions.Create(uid, req.QuestionnaireID, req.Participants, req.Online, req.Randomize)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rec)
	case http.MethodGet:
		if uid == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"sessions": rt.store.ListSessionsByOwner(uid)})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/sessions/{id}[/answers|/begin|/participants|/refresh|/results]
func (rt *Router) handleSessionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}
	switch sub {
	case "":
		rt.handleSessionGet(w, r, id)
	case "answers":
		rt.handleSessionAnswers(w, r, id)
	case "begin":
		rt.handleSessionBegin(w, r, id)
	case "participants":
		rt.handleSessionParticipants(w, r, id)
	case "refresh":
		rt.handleSessionRefresh(w, r, id)
	case "results":
		rt.handleSessionResults(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) handleSessionGet(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec, err := rt.sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rec)
}

// POST /api/sessions/{id}/answers — answer the current question. Device
// copies of online sessions push the updated progress to the hosted
// session right after saving.
func (rt *Router) handleSessionAnswers(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Answer string `json:"answer"`
		Label  string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.sessions.SaveResponse(id, req.Answer, req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Saved && res.Record.RemoteCode != "" {
		if _, perr := rt.sync.PushLocal(id); perr != nil {
			log.Printf("push for session %s failed: %v", id, perr)
		}
	}
	writeJSON(w, map[string]any{"saved": res.Saved, "phase": res.Phase, "session": res.Record})
}

func (rt *Router) handleSessionBegin(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec, err := rt.sessions.Begin(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rec)
}

// PUT replaces the roster, POST appends one participant.
func (rt *Router) handleSessionParticipants(w http.ResponseWriter, r *http.Request, id string) {
	uid, _ := middleware.HostIDFromContext(r.Context())
	switch r.Method {
	case http.MethodPut:
		var req struct {
			Participants []string `json:"participants"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, err := rt.sessions.SetParticipants(uid, id, req.Participants)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rec)
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, err := rt.sessions.AddParticipant(uid, id, req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rec)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/sessions/{id}/refresh — pull the hosted snapshot into a
// device copy.
func (rt *Router) handleSessionRefresh(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	res, err := rt.sync.Refresh(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"removed": res.Removed, "session": res.Record})
}

func (rt *Router) handleSessionResults(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sum, err := rt.analytics.Summary(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sum)
}

// POST /api/join — {code, name}. Responds with the device session and a
// participant token scoped to the hosted session.
func (rt *Router) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.sessions.Join(strings.ToUpper(strings.TrimSpace(req.Code)), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := middleware.SignParticipantToken(res.Hosted.InviteCode, res.ParticipantID, res.DisplayName, 24*time.Hour)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"token":          token,
		"participant_id": res.ParticipantID,
		"session":        res.Device,
	})
}

// /api/hosted/{code}/snapshot (GET) and /api/hosted/{code}/push (POST).
func (rt *Router) handleHosted(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/hosted/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	code := strings.ToUpper(parts[0])
	switch parts[1] {
	case "snapshot":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		snap, err := rt.sync.BuildSnapshot(code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, snap)
	case "push":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var prog services.Progress
		if err := json.NewDecoder(r.Body).Decode(&prog); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// A participant token pins the push to its own participant.
		if pc, ok := middleware.ParticipantFromContext(r.Context()); ok {
			if pc.SessionCode != code {
				http.Error(w, "token not valid for this session", http.StatusForbidden)
				return
			}
			prog.ParticipantID = pc.ParticipantID
		}
		host, err := rt.sync.Push(code, prog)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "phase": host.State.Phase})
	default:
		http.NotFound(w, r)
	}
}

// GET /api/audit — host-only view of the audit trail.
func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := middleware.HostIDFromContext(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]any{"audit": rt.store.ListAudit()})
}
