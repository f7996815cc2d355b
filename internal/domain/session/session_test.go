package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/codeblue/internal/domain/patient"
)

func activeSession(t *testing.T) *Session {
	t.Helper()
	s := New(patient.CaseCardiac)
	c := patient.Case{
		Demographics:   "58-year-old male",
		ChiefComplaint: "chest pain",
		History:        "Onset one hour ago.",
		Diagnosis:      "Anterior STEMI",
	}
	s.Activate(c, patient.Baseline())
	return s
}

func TestSetVitals_RecomputesMAPAtomically(t *testing.T) {
	s := activeSession(t)

	s.SetVitals(patient.VitalSigns{HR: 90, BPSystolic: 85, BPDiastolic: 55, RR: 20, Temp: 37.2, O2Sat: 94})
	v := s.Vitals()
	assert.Equal(t, patient.MeanArterialPressure(85, 55), v.MAP)
}

func TestTerminalFlags_Monotonic(t *testing.T) {
	s := activeSession(t)

	require.True(t, s.MarkDeceased("Severe hypoxemia"))
	deceased, cause := s.Deceased()
	assert.True(t, deceased)
	assert.Equal(t, "Severe hypoxemia", cause)

	// Second trigger of either kind is a no-op.
	assert.False(t, s.MarkDeceased("something else"))
	assert.False(t, s.MarkCured("late recovery"))

	deceased, cause = s.Deceased()
	assert.True(t, deceased)
	assert.Equal(t, "Severe hypoxemia", cause)
	cured, _ := s.Cured()
	assert.False(t, cured)
}

func TestMarkDeceased_FreezesVitalsExceptTemp(t *testing.T) {
	s := activeSession(t)
	s.SetVitals(patient.VitalSigns{HR: 140, BPSystolic: 70, BPDiastolic: 40, RR: 30, Temp: 38.6, O2Sat: 70})

	require.True(t, s.MarkDeceased("Cardiopulmonary collapse"))

	v := s.Vitals()
	assert.Zero(t, v.HR)
	assert.Zero(t, v.BPSystolic)
	assert.Zero(t, v.BPDiastolic)
	assert.Zero(t, v.MAP)
	assert.Zero(t, v.RR)
	assert.Zero(t, v.O2Sat)
	assert.Equal(t, 38.6, v.Temp)

	// Vitals are frozen from here on.
	s.SetVitals(patient.Baseline())
	assert.Zero(t, s.Vitals().HR)
}

func TestAdvanceClock_FrozenWhenTerminalOrInactive(t *testing.T) {
	s := activeSession(t)

	clock, ok := s.AdvanceClock()
	require.True(t, ok)
	assert.Equal(t, 1, clock)

	s.MarkCured("stability")
	_, ok = s.AdvanceClock()
	assert.False(t, ok)
	assert.Equal(t, 1, s.Clock())

	idle := New(patient.CaseRenal)
	_, ok = idle.AdvanceClock()
	assert.False(t, ok)
}

func TestBeginOrder_Guards(t *testing.T) {
	idle := New(patient.CaseCardiac)
	assert.ErrorIs(t, idle.BeginOrder(), ErrNotActive)

	s := activeSession(t)
	require.NoError(t, s.BeginOrder())
	assert.ErrorIs(t, s.BeginOrder(), ErrOrderInProgress)
	s.EndOrder()
	require.NoError(t, s.BeginOrder())
	s.EndOrder()

	s.MarkDeceased("Malignant tachyarrhythmia")
	assert.ErrorIs(t, s.BeginOrder(), ErrPatientDeceased)

	cured := activeSession(t)
	cured.MarkCured("stability")
	assert.ErrorIs(t, cured.BeginOrder(), ErrPatientCured)
}

func TestStableVitalsChecks_CountsOnlyStableSnapshots(t *testing.T) {
	s := activeSession(t)

	stable := patient.VitalSigns{HR: 75, BPSystolic: 120, BPDiastolic: 78, RR: 14, Temp: 37.0, O2Sat: 97}
	shaky := patient.VitalSigns{HR: 130, BPSystolic: 88, BPDiastolic: 60, RR: 24, Temp: 37.9, O2Sat: 89}

	s.AppendEvent(EventVitalsChecked, VitalsCheck{Vitals: stable})
	s.AppendEvent(EventVitalsChecked, VitalsCheck{Vitals: shaky})
	s.AppendEvent(EventVitalsChecked, VitalsCheck{Vitals: stable})
	s.AppendEvent("Ordered lab: Complete Blood Count (routine)", nil)

	assert.Equal(t, 2, s.StableVitalsChecks())
}

func TestRecentHistory_ReturnsTail(t *testing.T) {
	s := activeSession(t)
	s.AppendEvent("first", nil)
	s.AppendEvent("second", nil)
	s.AppendEvent("third", nil)

	tail := s.RecentHistory(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "second", tail[0].Event)
	assert.Equal(t, "third", tail[1].Event)

	all := s.RecentHistory(50)
	assert.Len(t, all, 3)
}

func TestRepository_DeleteClosesSession(t *testing.T) {
	repo := NewMemoryRepository()
	s := activeSession(t)
	repo.Create(s)

	got, err := repo.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	repo.Delete(s.ID)
	_, err = repo.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, s.Closed())
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "01:05", FormatClock(65))
	assert.Equal(t, "12:34", FormatClock(754))
}
