package session

import (
	"strings"
	"time"
)

// Phase is the coarse lifecycle stage of a session.
type Phase string

const (
	PhaseInstructions      Phase = "instructions"
	PhaseNextParticipant   Phase = "nextParticipant"
	PhaseAnswering         Phase = "answering"
	PhaseAwaitingResponses Phase = "awaitingResponses"
	PhaseComplete          Phase = "complete"
)

// Questionnaire is the immutable source a session copies its questions from.
type Questionnaire struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Instructions string   `json:"instructions"`
	Author       string   `json:"author"`
	Questions    []string `json:"questions"`
}

// Session is one run of a questionnaire by a group of participants.
//
// Stored answers are always keyed by actual question index — the
// question's fixed position in the questionnaire — while the cursor
// tracks the display index the active participant sees, which may be
// permuted per participant when IsRandomized is set.
//
// Offline sessions pass one device around the group in roster order.
// Online sessions are hosted: each device owns a single participant and
// never moves the participant cursor; progress from other devices
// arrives through ApplySnapshot.
//
// A Session is a plain value with no internal locking; the caller is
// responsible for serializing mutations per session.
type Session struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Instructions string      `json:"instructions"`
	Questions    []string    `json:"questions"`
	Participants []string    `json:"participants"`
	IsOnline     bool        `json:"is_online"`
	IsRandomized bool        `json:"is_randomized"`
	Orders       OrderSet    `json:"question_orders,omitempty"`
	Responses    ResponseSet `json:"responses"`

	CurrentParticipantIndex int        `json:"current_participant_index"`
	CurrentQuestionIndex    int        `json:"current_question_index"`
	Phase                   Phase      `json:"phase"`
	CompletedAt             *time.Time `json:"completed_at,omitempty"`

	// Identity of the participant this copy of the session belongs to.
	// Only meaningful for online sessions.
	LocalParticipant   string `json:"local_participant,omitempty"`
	LocalParticipantID string `json:"local_participant_id,omitempty"`

	now func() time.Time
}

// New copies the questionnaire into a fresh session. The copy is by
// value: later edits to the questionnaire never propagate.
func New(id string, q Questionnaire, participants []string, online, randomized bool) *Session {
	s := &Session{
		ID:           id,
		Title:        q.Title,
		Instructions: q.Instructions,
		Questions:    append([]string(nil), q.Questions...),
		IsOnline:     online,
		IsRandomized: randomized,
		Phase:        PhaseInstructions,
	}
	s.SetParticipants(participants)
	return s
}

func (s *Session) timeNow() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// ensureStorage restores the maps after decoding an older record that
// omitted them.
func (s *Session) ensureStorage() {
	if s.Responses == nil {
		s.Responses = ResponseSet{}
	}
	if s.Orders == nil {
		s.Orders = OrderSet{}
	}
}

// SetParticipants replaces the roster, resets both cursors and
// reinitializes answer storage and question orders for everyone. The
// phase is left untouched. Empty and duplicate names are dropped.
func (s *Session) SetParticipants(names []string) {
	seen := map[string]bool{}
	roster := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		roster = append(roster, n)
	}
	s.Participants = roster
	s.CurrentParticipantIndex = 0
	s.CurrentQuestionIndex = 0
	s.Responses = ResponseSet{}
	s.Orders = OrderSet{}
	for _, p := range roster {
		s.initParticipant(p)
	}
}

// AddParticipant appends a new participant with a blank answer array
// and a fresh permutation, without disturbing existing participants,
// cursors or phase. Empty names and exact duplicates are rejected.
func (s *Session) AddParticipant(name string) bool {
	s.ensureStorage()
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, p := range s.Participants {
		if p == name {
			return false
		}
	}
	s.Participants = append(s.Participants, name)
	s.initParticipant(name)
	return true
}

func (s *Session) initParticipant(p string) {
	s.Responses.Init(p, len(s.Questions))
	if s.IsRandomized {
		s.Orders.Generate(p, len(s.Questions))
	}
}

func (s *Session) hasParticipant(name string) bool {
	for _, p := range s.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// CurrentParticipant returns the participant the cursor points at.
// The cursor sitting past the roster is the offline "all done" state.
func (s *Session) CurrentParticipant() (string, bool) {
	if s.CurrentParticipantIndex < 0 || s.CurrentParticipantIndex >= len(s.Participants) {
		return "", false
	}
	return s.Participants[s.CurrentParticipantIndex], true
}

// Order returns the display sequence of question indices for the
// participant, identity when randomization is off.
func (s *Session) Order(p string) []int {
	if !s.IsRandomized {
		return OrderSet{}.Order(p, len(s.Questions))
	}
	s.ensureStorage()
	return s.Orders.Order(p, len(s.Questions))
}

// ActualIndex resolves a display index to the stored question index.
func (s *Session) ActualIndex(p string, display int) int {
	if !s.IsRandomized {
		return display
	}
	s.ensureStorage()
	return s.Orders.ActualIndex(p, display)
}

// DisplayIndex resolves a stored question index back to the position
// the participant sees it at.
func (s *Session) DisplayIndex(p string, actual int) int {
	if !s.IsRandomized {
		return actual
	}
	s.ensureStorage()
	return s.Orders.DisplayIndex(p, actual)
}

// Begin advances the pre-answering phases: instructions moves to the
// offline hand-off screen or straight into answering for online
// sessions, and the hand-off screen moves into answering. A complete
// session cannot be re-opened.
func (s *Session) Begin() bool {
	switch s.Phase {
	case PhaseInstructions:
		if s.IsOnline {
			s.Phase = PhaseAnswering
		} else {
			s.Phase = PhaseNextParticipant
		}
		return true
	case PhaseNextParticipant:
		s.Phase = PhaseAnswering
		return true
	}
	return false
}

// SaveResponse records an answer for the current participant at the
// current display position, advances the cursor and resolves the phase.
// It reports false, with no mutation, when there is no current
// participant or no current question.
func (s *Session) SaveResponse(a Answer) bool {
	s.ensureStorage()
	p, ok := s.CurrentParticipant()
	if !ok || s.CurrentQuestionIndex >= len(s.Questions) {
		return false
	}
	actual := s.ActualIndex(p, s.CurrentQuestionIndex)
	if !s.Responses.Save(p, actual, a, len(s.Questions)) {
		return false
	}
	s.advance()
	switch {
	case s.ShouldComplete():
		s.complete()
	case s.CurrentQuestionIndex == 0 && s.IsOnline:
		s.Phase = PhaseAwaitingResponses
	case s.CurrentQuestionIndex == 0:
		s.Phase = PhaseNextParticipant
	}
	return true
}

// advance moves to the next question, rolling over to question zero at
// the end. Only offline sessions move the participant cursor on
// rollover; online devices each track a single participant.
func (s *Session) advance() {
	s.CurrentQuestionIndex++
	if s.CurrentQuestionIndex >= len(s.Questions) {
		s.CurrentQuestionIndex = 0
		if !s.IsOnline {
			s.CurrentParticipantIndex++
		}
	}
}

// ShouldComplete reports whether the session has finished. Offline
// sessions finish when the participant cursor has passed the roster.
// Online sessions require every participant complete and a quorum of
// at least two, so a single-participant online session never
// auto-completes.
func (s *Session) ShouldComplete() bool {
	if s.IsOnline {
		done := s.completeCount()
		return done >= 2 && done == len(s.Participants)
	}
	return len(s.Participants) > 0 && s.CurrentParticipantIndex >= len(s.Participants)
}

// ShouldAwaitResponses reports whether at least one but not every
// participant has finished. Online sessions only.
func (s *Session) ShouldAwaitResponses() bool {
	if !s.IsOnline {
		return false
	}
	done := s.completeCount()
	return done >= 1 && done < len(s.Participants)
}

func (s *Session) completeCount() int {
	n := 0
	for _, p := range s.Participants {
		if s.Responses.Complete(p, len(s.Questions)) {
			n++
		}
	}
	return n
}

func (s *Session) complete() {
	s.Phase = PhaseComplete
	if s.CompletedAt == nil {
		t := s.timeNow()
		s.CompletedAt = &t
	}
}

// SetAnswers replaces the participant's whole answer array from a
// sparse actual-index map. This is how a hosted session ingests a
// device push; unknown participants are rejected.
func (s *Session) SetAnswers(p string, answers map[int]Answer) bool {
	if !s.hasParticipant(p) {
		return false
	}
	s.ensureStorage()
	s.Responses.Replace(p, answers, len(s.Questions))
	return true
}

// RefreshPhase re-derives completion and waiting state from stored
// answers. The hosted copy runs this after every participant push,
// since completion can change through other participants' submissions.
func (s *Session) RefreshPhase() {
	if s.Phase == PhaseComplete {
		return
	}
	switch {
	case s.ShouldComplete():
		s.complete()
	case s.ShouldAwaitResponses():
		s.Phase = PhaseAwaitingResponses
	}
}
