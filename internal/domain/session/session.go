package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/codeblue/internal/domain/patient"
)

// HistoryEvent is one entry of the append-only case timeline. Time is
// the in-game clock at insertion; Data carries a kind-specific payload
// (a vitals snapshot, an order, a result) or nil.
type HistoryEvent struct {
	Time  int    `json:"time"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// VitalsCheck is the Data payload of a "Vitals checked" event.
type VitalsCheck struct {
	Vitals patient.VitalSigns `json:"vitals"`
}

// ResultReceived is the Data payload of a "Result received" event.
type ResultReceived struct {
	Order  any    `json:"order"`
	Result string `json:"result"`
}

const (
	EventCaseStarted   = "Case started"
	EventVitalsChecked = "Vitals checked"
)

// Session owns every piece of mutable game state: the clock, cost and
// score counters, the generated case, vitals, the history timeline and
// the terminal flags. All access goes through its methods; the mutex
// makes each mutation (including the paired BP-write/MAP-recompute)
// atomic with respect to readers. Terminal flags are monotonic: once
// deceased or cured is set it never clears, and the first writer wins.
type Session struct {
	mu sync.Mutex

	ID        uuid.UUID
	CreatedAt time.Time

	caseType patient.CaseType
	active   bool
	closed   bool

	clock int
	cost  float64
	score int

	patientCase patient.Case
	vitals      patient.VitalSigns

	history []HistoryEvent

	deceased     bool
	causeOfDeath string
	cured        bool
	cureReason   string

	orderInFlight bool
}

func New(caseType patient.CaseType) *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		caseType:  caseType,
	}
}

// Activate seeds the generated case and opens the session for play.
func (s *Session) Activate(c patient.Case, v patient.VitalSigns) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.RecomputeMAP()
	s.patientCase = c
	s.vitals = v
	s.active = true
}

// Close marks the session abandoned. In-flight model calls check
// Closed at resolution time and discard their result.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.closed = true
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && !s.closed
}

func (s *Session) CaseType() patient.CaseType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caseType
}

func (s *Session) Case() patient.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patientCase
}

// Vitals returns a copy; a reader never observes a partially-updated
// record.
func (s *Session) Vitals() patient.VitalSigns {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vitals
}

// SetVitals replaces the vitals record and recomputes MAP in the same
// step. Ignored once the case is terminal; the terminal freeze owns the
// record from then on.
func (s *Session) SetVitals(v patient.VitalSigns) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deceased || s.cured {
		return
	}
	v.RecomputeMAP()
	s.vitals = v
}

// AdvanceClock moves the in-game clock one second and returns the new
// value. Frozen while inactive or terminal.
func (s *Session) AdvanceClock() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.closed || s.deceased || s.cured {
		return s.clock, false
	}
	s.clock++
	return s.clock, true
}

func (s *Session) Clock() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

func (s *Session) Cost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cost
}

// AddCost charges one action increment.
func (s *Session) AddCost(amount float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cost += amount
	return s.cost
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// ApplyScoreDelta folds an evaluation's score impact into the running
// score and returns the new total.
func (s *Session) ApplyScoreDelta(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score += delta
	return s.score
}

// AppendEvent adds one entry to the case timeline, stamped with the
// current in-game clock. Events are never mutated or removed.
func (s *Session) AppendEvent(event string, data any) HistoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := HistoryEvent{Time: s.clock, Event: event, Data: data}
	s.history = append(s.history, e)
	return e
}

// RecentHistory returns a copy of the last n events.
func (s *Session) RecentHistory(n int) []HistoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.history) - n
	if start < 0 {
		start = 0
	}
	out := make([]HistoryEvent, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

func (s *Session) History() []HistoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEvent, len(s.history))
	copy(out, s.history)
	return out
}

// StableVitalsChecks counts "Vitals checked" snapshots in the timeline
// whose record satisfies the stability band. The cure path requires
// persistence across checks, not one good sample.
func (s *Session) StableVitalsChecks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.history {
		if e.Event != EventVitalsChecked {
			continue
		}
		if check, ok := e.Data.(VitalsCheck); ok && check.Vitals.StableSnapshot() {
			n++
		}
	}
	return n
}

// BeginOrder acquires the single in-flight order slot. A second
// submission while one is processing is rejected rather than queued.
func (s *Session) BeginOrder() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed || !s.active:
		return ErrNotActive
	case s.deceased:
		return ErrPatientDeceased
	case s.cured:
		return ErrPatientCured
	case s.orderInFlight:
		return ErrOrderInProgress
	}
	s.orderInFlight = true
	return nil
}

func (s *Session) EndOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderInFlight = false
}

func (s *Session) Deceased() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deceased, s.causeOfDeath
}

func (s *Session) Cured() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cured, s.cureReason
}

func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deceased || s.cured
}

// MarkDeceased transitions to the deceased terminal state: vitals are
// frozen to the cardiac-arrest snapshot (temperature persists) and a
// terminal history event is appended. Returns false if a terminal state
// was already set; the second trigger is a no-op.
func (s *Session) MarkDeceased(cause string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deceased || s.cured {
		return false
	}
	s.deceased = true
	s.causeOfDeath = cause
	s.vitals = patient.VitalSigns{Temp: s.vitals.Temp}
	s.history = append(s.history, HistoryEvent{
		Time:  s.clock,
		Event: "Patient deceased: " + cause,
		Data:  VitalsCheck{Vitals: s.vitals},
	})
	return true
}

// MarkCured transitions to the cured terminal state, freezing the last
// known vitals as stable and recording the revealed diagnosis.
func (s *Session) MarkCured(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deceased || s.cured {
		return false
	}
	s.cured = true
	s.cureReason = reason
	s.history = append(s.history, HistoryEvent{
		Time:  s.clock,
		Event: "Patient successfully treated: " + reason,
		Data:  map[string]string{"diagnosis": s.patientCase.Diagnosis},
	})
	return true
}

// FormatClock renders in-game seconds as mm:ss for prompts and the
// presentation feed.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Counters is the display triple shown next to the chat.
type Counters struct {
	Time  int     `json:"time"`
	Cost  float64 `json:"cost"`
	Score int     `json:"score"`
}

func (s *Session) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counters{Time: s.clock, Cost: s.cost, Score: s.score}
}
