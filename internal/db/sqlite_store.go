package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/overlaphq/overlap/internal/api"
	"github.com/overlaphq/overlap/internal/services"
	"github.com/overlaphq/overlap/internal/session"
)

// SQLiteStore persists the api.Store surface in a single SQLite file.
// Session engine state, presence and the participant id map are stored
// as JSON columns; everything queried on gets its own column.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Open opens (creating if needed) the database at path, runs migrations
// and returns a ready store.
func Open(path, migrationsDir string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", path, err)
	}
	if err := RunMigrations(sqlDB, migrationsDir); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	store, err := NewSQLiteStore(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func encodeJSON(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("sqlite store: encode json: %v", err)
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func toNullString(v string) sql.NullString {
	if strings.TrimSpace(v) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func decodeStringSlice(ns sql.NullString) []string {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		log.Printf("sqlite store: decode string slice: %v", err)
		return nil
	}
	return out
}

func decodeStringMap(ns sql.NullString) map[string]string {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		log.Printf("sqlite store: decode string map: %v", err)
		return nil
	}
	return out
}

func decodePresence(ns sql.NullString) map[string]*services.Presence {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out map[string]*services.Presence
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		log.Printf("sqlite store: decode presence: %v", err)
		return nil
	}
	return out
}

func decodeState(raw string) *session.Session {
	var st session.Session
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		log.Printf("sqlite store: decode session state: %v", err)
		return nil
	}
	return &st
}

// users

func (s *SQLiteStore) AddUser(u *services.User) {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET pass_hash = excluded.pass_hash`,
		u.ID, u.Email, u.PassHash, u.CreatedAt)
	s.logErr("add user", err)
}

func (s *SQLiteStore) FindUserByEmail(email string) *services.User {
	row := s.db.QueryRow(
		`SELECT id, email, pass_hash, created_at FROM users WHERE email = ?`, email)
	var u services.User
	if err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.CreatedAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("find user", err)
		}
		return nil
	}
	return &u
}

// questionnaires

func (s *SQLiteStore) AddQuestionnaire(q *services.Questionnaire) {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO questionnaires (id, owner_id, title, instructions, author, questions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.OwnerID, q.Title, toNullString(q.Instructions), toNullString(q.Author),
		encodeJSON(q.Questions).String, q.CreatedAt)
	s.logErr("add questionnaire", err)
}

func (s *SQLiteStore) GetQuestionnaire(id string) *services.Questionnaire {
	row := s.db.QueryRow(
		`SELECT id, owner_id, title, instructions, author, questions, created_at
		 FROM questionnaires WHERE id = ?`, id)
	return s.scanQuestionnaire(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanQuestionnaire(row rowScanner) *services.Questionnaire {
	var q services.Questionnaire
	var instructions, author sql.NullString
	var questions string
	if err := row.Scan(&q.ID, &q.OwnerID, &q.Title, &instructions, &author, &questions, &q.CreatedAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("scan questionnaire", err)
		}
		return nil
	}
	q.Instructions = instructions.String
	q.Author = author.String
	q.Questions = decodeStringSlice(sql.NullString{String: questions, Valid: true})
	return &q
}

func (s *SQLiteStore) UpdateQuestionnaire(q *services.Questionnaire) bool {
	res, err := s.db.Exec(
		`UPDATE questionnaires SET title = ?, instructions = ?, author = ?, questions = ? WHERE id = ?`,
		q.Title, toNullString(q.Instructions), toNullString(q.Author),
		encodeJSON(q.Questions).String, q.ID)
	if err != nil {
		s.logErr("update questionnaire", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteQuestionnaire(id string) bool {
	res, err := s.db.Exec(`DELETE FROM questionnaires WHERE id = ?`, id)
	if err != nil {
		s.logErr("delete questionnaire", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) ListQuestionnairesByOwner(ownerID string) []*services.Questionnaire {
	rows, err := s.db.Query(
		`SELECT id, owner_id, title, instructions, author, questions, created_at
		 FROM questionnaires WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		s.logErr("list questionnaires", err)
		return nil
	}
	defer rows.Close()
	out := []*services.Questionnaire{}
	for rows.Next() {
		if q := s.scanQuestionnaire(rows); q != nil {
			out = append(out, q)
		}
	}
	s.logErr("list questionnaires", rows.Err())
	return out
}

// sessions

func (s *SQLiteStore) AddSession(rec *services.SessionRecord) {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions
		 (id, owner_id, questionnaire_id, invite_code, remote_code, participant_ids, presence, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, toNullString(rec.OwnerID), toNullString(rec.QuestionnaireID),
		toNullString(rec.InviteCode), toNullString(rec.RemoteCode),
		encodeJSON(rec.ParticipantIDs), encodeJSON(rec.Presence),
		encodeJSON(rec.State).String, rec.CreatedAt, rec.UpdatedAt)
	s.logErr("add session", err)
}

func (s *SQLiteStore) UpdateSession(rec *services.SessionRecord) bool {
	res, err := s.db.Exec(
		`UPDATE sessions SET participant_ids = ?, presence = ?, state = ?, updated_at = ? WHERE id = ?`,
		encodeJSON(rec.ParticipantIDs), encodeJSON(rec.Presence),
		encodeJSON(rec.State).String, rec.UpdatedAt, rec.ID)
	if err != nil {
		s.logErr("update session", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) GetSession(id string) *services.SessionRecord {
	row := s.db.QueryRow(sessionSelect+` WHERE id = ?`, id)
	return s.scanSession(row)
}

func (s *SQLiteStore) FindSessionByCode(code string) *services.SessionRecord {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	row := s.db.QueryRow(sessionSelect+` WHERE invite_code = ?`, code)
	return s.scanSession(row)
}

func (s *SQLiteStore) ListSessionsByOwner(ownerID string) []*services.SessionRecord {
	rows, err := s.db.Query(sessionSelect+` WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		s.logErr("list sessions", err)
		return nil
	}
	defer rows.Close()
	out := []*services.SessionRecord{}
	for rows.Next() {
		if rec := s.scanSession(rows); rec != nil {
			out = append(out, rec)
		}
	}
	s.logErr("list sessions", rows.Err())
	return out
}

const sessionSelect = `SELECT id, owner_id, questionnaire_id, invite_code, remote_code, participant_ids, presence, state, created_at, updated_at FROM sessions`

func (s *SQLiteStore) scanSession(row rowScanner) *services.SessionRecord {
	var rec services.SessionRecord
	var ownerID, questionnaireID, inviteCode, remoteCode, participantIDs, presence sql.NullString
	var state string
	if err := row.Scan(&rec.ID, &ownerID, &questionnaireID, &inviteCode, &remoteCode,
		&participantIDs, &presence, &state, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("scan session", err)
		}
		return nil
	}
	rec.OwnerID = ownerID.String
	rec.QuestionnaireID = questionnaireID.String
	rec.InviteCode = inviteCode.String
	rec.RemoteCode = remoteCode.String
	rec.ParticipantIDs = decodeStringMap(participantIDs)
	rec.Presence = decodePresence(presence)
	rec.State = decodeState(state)
	if rec.State == nil {
		return nil
	}
	return &rec
}

// audit

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.db.Exec(
		`INSERT INTO audit_log (time, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time, toNullString(e.Actor), e.Action, toNullString(e.Target), toNullString(e.Note))
	s.logErr("add audit", err)
}

func (s *SQLiteStore) ListAudit() []services.AuditEntry {
	rows, err := s.db.Query(`SELECT time, actor, action, target, note FROM audit_log ORDER BY time`)
	if err != nil {
		s.logErr("list audit", err)
		return nil
	}
	defer rows.Close()
	out := []services.AuditEntry{}
	for rows.Next() {
		var e services.AuditEntry
		var actor, target, note sql.NullString
		var ts time.Time
		if err := rows.Scan(&ts, &actor, &e.Action, &target, &note); err != nil {
			s.logErr("scan audit", err)
			continue
		}
		e.Time = ts
		e.Actor = actor.String
		e.Target = target.String
		e.Note = note.String
		out = append(out, e)
	}
	s.logErr("list audit", rows.Err())
	return out
}

var _ api.Store = (*SQLiteStore)(nil)
