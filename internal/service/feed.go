package service

import (
	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

// EventKind classifies a presentation feed event.
type EventKind string

const (
	EventMessage EventKind = "message"
	EventResult  EventKind = "result"
	EventVitals  EventKind = "vitals"
	EventAlert   EventKind = "alert"
	EventError   EventKind = "error"
	EventStatus  EventKind = "status"
)

// Sender identifies the in-world voice of a message event.
type Sender string

const (
	SenderPlayer    Sender = "player"
	SenderAttending Sender = "attending"
	SenderNurse     Sender = "nurse"
	SenderSystem    Sender = "system"
)

// Event is one unit of output for the presentation layer: a chat
// message, an order result, a vitals snapshot, or a status banner.
type Event struct {
	Kind     EventKind           `json:"kind"`
	Sender   Sender              `json:"sender,omitempty"`
	Text     string              `json:"text,omitempty"`
	Clock    string              `json:"clock"`
	Vitals   *patient.VitalSigns `json:"vitals,omitempty"`
	Terminal string              `json:"terminal,omitempty"`
}

// Feed is the bounded queue between the engine and one browser tab.
// Publishers never block: when the buffer is full the event is dropped
// and counted, matching how the rest of the engine prefers availability
// over completeness.
type Feed struct {
	events  chan Event
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewFeed(size int, m *metrics.Collector, log *zap.Logger) *Feed {
	return &Feed{
		events:  make(chan Event, size),
		metrics: m,
		log:     log,
	}
}

func (f *Feed) Publish(e Event) {
	select {
	case f.events <- e:
		f.metrics.FeedEventsTotal.Inc()
	default:
		f.metrics.FeedEventsDropped.Inc()
		f.log.Warn("presentation feed full, dropping event",
			zap.String("kind", string(e.Kind)),
		)
	}
}

// Drain returns every queued event without blocking. Called by the
// state poll; an empty slice means nothing happened since the last poll.
func (f *Feed) Drain() []Event {
	var out []Event
	for {
		select {
		case e := <-f.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func (f *Feed) Message(sender Sender, text string, clock int) {
	f.Publish(Event{Kind: EventMessage, Sender: sender, Text: text, Clock: session.FormatClock(clock)})
}

func (f *Feed) System(text string, clock int) {
	f.Message(SenderSystem, text, clock)
}

func (f *Feed) Error(text string, clock int) {
	f.Publish(Event{Kind: EventError, Sender: SenderSystem, Text: text, Clock: session.FormatClock(clock)})
}

func (f *Feed) Result(text string, clock int) {
	f.Publish(Event{Kind: EventResult, Text: text, Clock: session.FormatClock(clock)})
}

func (f *Feed) Alert(text string, clock int) {
	f.Publish(Event{Kind: EventAlert, Sender: SenderNurse, Text: text, Clock: session.FormatClock(clock)})
}

func (f *Feed) VitalsSnapshot(v patient.VitalSigns, clock int) {
	f.Publish(Event{Kind: EventVitals, Vitals: &v, Clock: session.FormatClock(clock)})
}

func (f *Feed) Status(terminal, text string, clock int) {
	f.Publish(Event{Kind: EventStatus, Terminal: terminal, Text: text, Clock: session.FormatClock(clock)})
}
