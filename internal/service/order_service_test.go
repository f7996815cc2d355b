package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/codeblue/internal/domain/order"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"go.uber.org/zap"
)

func newTestOrderService(client *fakeClient) *OrderService {
	return NewOrderService(client, newTestResolver(client), testMetrics, zap.NewNop(), testGameConfig(), testRand())
}

func TestPlace_MissingFieldsRejectedBeforeAnyCall(t *testing.T) {
	client := &fakeClient{}
	svc := newTestOrderService(client)
	s := newTestSession(t)
	feed := newTestFeed()

	err := svc.Place(context.Background(), s, feed, &order.Details{Kind: order.KindMedication, Medication: "metoprolol"})

	var validErr *ValidationError
	require.ErrorAs(t, err, &validErr)
	assert.Equal(t, []string{"dosage"}, validErr.Fields)

	assert.Zero(t, client.callCount(), "validation failures must not reach the model")
	assert.Zero(t, s.Cost())
	assert.Empty(t, s.History())
}

func TestPlace_RejectedWhileOrderInFlight(t *testing.T) {
	client := &fakeClient{}
	svc := newTestOrderService(client)
	s := newTestSession(t)

	require.NoError(t, s.BeginOrder())
	err := svc.Place(context.Background(), s, newTestFeed(), &order.Details{Kind: order.KindLab, Test: "cbc", Urgency: "stat"})
	assert.ErrorIs(t, err, session.ErrOrderInProgress)
	assert.Zero(t, client.callCount())
}

func TestPlace_TerminalShortCircuit(t *testing.T) {
	client := &fakeClient{}
	svc := newTestOrderService(client)
	details := &order.Details{Kind: order.KindLab, Test: "cbc", Urgency: "stat"}

	dead := newTestSession(t)
	dead.MarkDeceased("Severe hypoxemia")
	feed := newTestFeed()
	err := svc.Place(context.Background(), dead, feed, details)
	assert.ErrorIs(t, err, session.ErrPatientDeceased)

	events := feed.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, msgOrderAfterDeath, events[0].Text)

	cured := newTestSession(t)
	cured.MarkCured("stability")
	feed = newTestFeed()
	err = svc.Place(context.Background(), cured, feed, details)
	assert.ErrorIs(t, err, session.ErrPatientCured)

	events = feed.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, msgOrderAfterCure, events[0].Text)

	assert.Zero(t, client.callCount(), "terminal sessions never reach the model")
}

func TestPlace_HarmfulOrderKillsPatient(t *testing.T) {
	client := &fakeClient{replies: []string{
		"Shortly after administration the patient becomes diaphoretic and hypotensive. Repeat ECG shows worsening changes.",
		`{"evaluation": "harmful", "scoreImpact": -9, "feedback": "Beta blockade is contraindicated in this presentation."}`,
	}}
	svc := newTestOrderService(client)
	s := newTestSession(t)
	feed := newTestFeed()

	details := &order.Details{Kind: order.KindMedication, Medication: "metoprolol", Dosage: "25mg", Route: "PO", Frequency: "daily"}
	require.NoError(t, svc.Place(context.Background(), s, feed, details))

	assert.Equal(t, -9, s.Score())
	deceased, _ := s.Deceased()
	assert.True(t, deceased)

	v := s.Vitals()
	assert.Zero(t, v.HR)
	assert.Zero(t, v.BPSystolic)
	assert.Zero(t, v.O2Sat)
	assert.NotZero(t, v.Temp)
}

func TestPlace_AppendsTimelineAndCharges(t *testing.T) {
	client := &fakeClient{replies: []string{
		"CBC shows leukocytosis at 14.2 with left shift. Hemoglobin and platelets within normal limits.",
		`{"evaluation": "appropriate", "scoreImpact": 0, "feedback": "Reasonable initial workup."}`,
	}}
	svc := newTestOrderService(client)
	s := newTestSession(t)
	feed := newTestFeed()

	details := &order.Details{Kind: order.KindLab, Test: "cbc", Urgency: "routine"}
	require.NoError(t, svc.Place(context.Background(), s, feed, details))

	assert.InDelta(t, 0.01, s.Cost(), 1e-9)
	assert.Zero(t, s.Score())

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "Ordered lab: Complete Blood Count (routine)", history[0].Event)
	assert.Equal(t, "Result received", history[1].Event)

	deceased, _ := s.Deceased()
	cured, _ := s.Cured()
	assert.False(t, deceased)
	assert.False(t, cured)
}

func TestPlace_NarrativeFailureDegradesToErrorEvent(t *testing.T) {
	client := &fakeClient{err: assert.AnError}
	svc := newTestOrderService(client)
	s := newTestSession(t)
	feed := newTestFeed()

	details := &order.Details{Kind: order.KindLab, Test: "cbc", Urgency: "routine"}
	require.NoError(t, svc.Place(context.Background(), s, feed, details))

	var sawError bool
	for _, e := range feed.Drain() {
		if e.Kind == EventError {
			sawError = true
		}
	}
	assert.True(t, sawError)

	// The order itself was still charged and recorded.
	assert.InDelta(t, 0.01, s.Cost(), 1e-9)
	require.Len(t, s.History(), 1)
}
