package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/overlaphq/overlap/internal/session"
)

// Questionnaire is an authored set of yes/no/maybe questions. Sessions
// copy its questions at creation; later edits never reach a running
// session.
type Questionnaire struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id,omitempty"`
	Title        string    `json:"title"`
	Instructions string    `json:"instructions,omitempty"`
	Author       string    `json:"author,omitempty"`
	Questions    []string  `json:"questions"`
	CreatedAt    time.Time `json:"created_at"`
}

// Presence is the hosted side's view of one participant's progress,
// fed by device pushes and served back inside snapshots.
type Presence struct {
	Status        string `json:"status"`
	AnsweredCount int    `json:"answered_count"`
	QuestionIndex int    `json:"question_index"`
}

// SessionRecord wraps the serialized engine state with the metadata the
// service layer owns. A record with an InviteCode is the hosted copy of
// an online session; a record with a RemoteCode is one participant's
// device copy tracking that hosted session.
type SessionRecord struct {
	ID              string               `json:"id"`
	OwnerID         string               `json:"owner_id,omitempty"`
	QuestionnaireID string               `json:"questionnaire_id,omitempty"`
	InviteCode      string               `json:"invite_code,omitempty"`
	RemoteCode      string               `json:"remote_code,omitempty"`
	ParticipantIDs  map[string]string    `json:"participant_ids,omitempty"`
	Presence        map[string]*Presence `json:"presence,omitempty"`
	State           *session.Session     `json:"state"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// User is a registered host account.
type User struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

type AuditEntry struct {
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
