package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/codeblue/internal/domain/order"
	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
)

func TestDeathByVitals(t *testing.T) {
	tests := []struct {
		name      string
		vitals    patient.VitalSigns
		wantDead  bool
		wantCause string
	}{
		{
			name:      "profound bradycardia",
			vitals:    patient.VitalSigns{HR: 15, BPSystolic: 90, BPDiastolic: 60, RR: 12, O2Sat: 95},
			wantDead:  true,
			wantCause: "bradycardia",
		},
		{
			name:      "runaway tachycardia",
			vitals:    patient.VitalSigns{HR: 190, BPSystolic: 90, BPDiastolic: 60, RR: 18, O2Sat: 95},
			wantDead:  true,
			wantCause: "tachyarrhythmia",
		},
		{
			name:      "circulatory collapse",
			vitals:    patient.VitalSigns{HR: 110, BPSystolic: 45, BPDiastolic: 30, RR: 22, O2Sat: 90},
			wantDead:  true,
			wantCause: "hypotension",
		},
		{
			name:      "critical hypoxemia",
			vitals:    patient.VitalSigns{HR: 120, BPSystolic: 100, BPDiastolic: 65, RR: 28, O2Sat: 55},
			wantDead:  true,
			wantCause: "hypoxemia",
		},
		{
			name:      "agonal breathing",
			vitals:    patient.VitalSigns{HR: 60, BPSystolic: 100, BPDiastolic: 65, RR: 3, O2Sat: 85},
			wantDead:  true,
			wantCause: "Respiratory failure",
		},
		{
			name:     "unwell but viable",
			vitals:   patient.VitalSigns{HR: 75, BPSystolic: 115, BPDiastolic: 70, RR: 16, O2Sat: 97},
			wantDead: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause, dead := DeathByVitals(tt.vitals)
			require.Equal(t, tt.wantDead, dead)
			if tt.wantDead {
				assert.Contains(t, strings.ToLower(cause), strings.ToLower(tt.wantCause))
			}
		})
	}
}

func TestNarrativeIndicatesDeath(t *testing.T) {
	assert.True(t, NarrativeIndicatesDeath("The patient suffered a Cardiac Arrest during the infusion."))
	assert.True(t, NarrativeIndicatesDeath("Despite resuscitation efforts, the patient expired."))
	assert.False(t, NarrativeIndicatesDeath("The patient tolerated the procedure well."))
}

func TestCauseFromNarrative(t *testing.T) {
	got := CauseFromNarrative("The patient deteriorated rapidly due to massive pulmonary embolism. CPR was initiated.")
	assert.Equal(t, "Massive pulmonary embolism", got)

	got = CauseFromNarrative("Arrest was secondary to refractory hyperkalemia. Resuscitation failed.")
	assert.Equal(t, "Refractory hyperkalemia", got)

	assert.Equal(t, "Cardiopulmonary collapse", CauseFromNarrative("The patient died suddenly."))
}

func TestRecoveryByNarrative(t *testing.T) {
	appropriate := &order.Evaluation{Outcome: order.OutcomeAppropriate}

	_, cured := RecoveryByNarrative("The patient's condition has markedly improved.", appropriate, 9)
	assert.True(t, cured)

	// The improvement path requires a healthy score.
	_, cured = RecoveryByNarrative("The patient's condition has markedly improved.", appropriate, 3)
	assert.False(t, cured)

	// Explicit resolution phrases cure regardless of evaluation.
	_, cured = RecoveryByNarrative("The patient has fully recovered and is ready to go home.", nil, -2)
	assert.True(t, cured)

	_, cured = RecoveryByNarrative("Labs are pending.", nil, 20)
	assert.False(t, cured)
}

func TestRecoveryByStability_RequiresPersistence(t *testing.T) {
	normal := patient.VitalSigns{HR: 72, BPSystolic: 118, BPDiastolic: 76, RR: 14, Temp: 36.8, O2Sat: 98}

	s := newTestSession(t)
	s.ApplyScoreDelta(15)
	s.SetVitals(normal)

	// One stable snapshot is not enough.
	s.AppendEvent(session.EventVitalsChecked, session.VitalsCheck{Vitals: normal})
	_, cured := RecoveryByStability(s)
	assert.False(t, cured)

	s.AppendEvent(session.EventVitalsChecked, session.VitalsCheck{Vitals: normal})
	s.AppendEvent(session.EventVitalsChecked, session.VitalsCheck{Vitals: normal})
	reason, cured := RecoveryByStability(s)
	assert.True(t, cured)
	assert.NotEmpty(t, reason)
}

func TestResolver_Idempotent(t *testing.T) {
	client := &fakeClient{}
	r := newTestResolver(client)
	s := newTestSession(t)
	feed := newTestFeed()

	require.True(t, r.ResolveDeath(s, feed, "Severe hypoxemia"))
	assert.False(t, r.ResolveDeath(s, feed, "another cause"))
	assert.False(t, r.ResolveCure(s, feed, "late recovery"))

	deceased, cause := s.Deceased()
	assert.True(t, deceased)
	assert.Equal(t, "Severe hypoxemia", cause)
}

func TestResolver_AutoResolveBySign(t *testing.T) {
	client := &fakeClient{}
	r := newTestResolver(client)

	winning := newTestSession(t)
	winning.ApplyScoreDelta(4)
	r.AutoResolve(winning, newTestFeed())
	cured, _ := winning.Cured()
	assert.True(t, cured)

	losing := newTestSession(t)
	losing.ApplyScoreDelta(-4)
	r.AutoResolve(losing, newTestFeed())
	deceased, _ := losing.Deceased()
	assert.True(t, deceased)
}

func TestResolver_CheckAfterOrder_HarmfulEvaluation(t *testing.T) {
	client := &fakeClient{}
	r := newTestResolver(client)
	s := newTestSession(t)
	feed := newTestFeed()

	ev := &order.Evaluation{Outcome: order.OutcomeHarmful, ScoreImpact: -9, Feedback: "Contraindicated in acute decompensation."}
	r.CheckAfterOrder(s, feed, "The patient's blood pressure drops precipitously.", ev)

	deceased, _ := s.Deceased()
	assert.True(t, deceased)

	v := s.Vitals()
	assert.Zero(t, v.HR)
	assert.Zero(t, v.O2Sat)
	assert.NotZero(t, v.Temp)
}

func TestResolver_CheckAfterVitals(t *testing.T) {
	client := &fakeClient{}
	r := newTestResolver(client)
	s := newTestSession(t)
	feed := newTestFeed()

	s.SetVitals(patient.VitalSigns{HR: 120, BPSystolic: 100, BPDiastolic: 65, RR: 28, Temp: 38.0, O2Sat: 55})
	r.CheckAfterVitals(s, feed)

	deceased, cause := s.Deceased()
	require.True(t, deceased)
	assert.Contains(t, cause, "hypoxemia")
}
