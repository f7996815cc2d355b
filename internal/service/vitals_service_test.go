package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
)

func newTestVitalsService(client *fakeClient) *VitalsService {
	return NewVitalsService(client, newTestResolver(client), testMetrics, zap.NewNop(), testGameConfig(), testRand())
}

func TestUpdate_AppliesModelVitals(t *testing.T) {
	client := &fakeClient{replies: []string{
		`{"HR": 112, "BPSystolic": 98, "BPDiastolic": 62, "RR": 22, "Temp": 37.8, "O2Sat": 93}`,
	}}
	svc := newTestVitalsService(client)
	s := newTestSession(t)
	feed := newTestFeed()

	svc.Update(context.Background(), s, feed)

	v := s.Vitals()
	assert.Equal(t, 112.0, v.HR)
	assert.Equal(t, 98.0, v.BPSystolic)
	assert.Equal(t, patient.MeanArterialPressure(98, 62), v.MAP)

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, session.EventVitalsChecked, history[0].Event)
	check, ok := history[0].Data.(session.VitalsCheck)
	require.True(t, ok)
	assert.Equal(t, 112.0, check.Vitals.HR)
}

func TestUpdate_TransportFailurePerturbsWithinBounds(t *testing.T) {
	client := &fakeClient{err: assert.AnError}
	svc := newTestVitalsService(client)
	s := newTestSession(t)

	before := s.Vitals()
	svc.Update(context.Background(), s, newTestFeed())
	after := s.Vitals()

	assert.InDelta(t, before.HR, after.HR, 5)
	assert.InDelta(t, before.BPSystolic, after.BPSystolic, 8)
	assert.InDelta(t, before.BPDiastolic, after.BPDiastolic, 5)
	assert.InDelta(t, before.RR, after.RR, 2)
	assert.InDelta(t, before.Temp, after.Temp, 0.1)
	assert.InDelta(t, before.O2Sat, after.O2Sat, 2)

	assert.GreaterOrEqual(t, after.HR, float64(patient.ClampHRMin))
	assert.LessOrEqual(t, after.HR, float64(patient.ClampHRMax))
	assert.LessOrEqual(t, after.O2Sat, float64(patient.ClampO2Max))
	assert.Equal(t, patient.MeanArterialPressure(after.BPSystolic, after.BPDiastolic), after.MAP)
}

func TestUpdate_LethalModelVitalsTriggerDeath(t *testing.T) {
	client := &fakeClient{replies: []string{
		`{"HR": 188, "BPSystolic": 70, "BPDiastolic": 40, "RR": 28, "Temp": 37.2, "O2Sat": 78}`,
	}}
	svc := newTestVitalsService(client)
	s := newTestSession(t)

	svc.Update(context.Background(), s, newTestFeed())

	deceased, cause := s.Deceased()
	require.True(t, deceased)
	assert.Contains(t, cause, "tachyarrhythmia")
}

func TestUpdate_NoOpWhenTerminal(t *testing.T) {
	client := &fakeClient{}
	svc := newTestVitalsService(client)
	s := newTestSession(t)
	s.MarkDeceased("Severe hypoxemia")

	svc.Update(context.Background(), s, newTestFeed())
	assert.Zero(t, client.callCount())
}
