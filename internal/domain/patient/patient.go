package patient

import "math"

// CaseType selects the archetype the case generator asks the model for.
type CaseType string

const (
	CaseCardiac          CaseType = "cardiac"
	CaseRespiratory      CaseType = "respiratory"
	CaseGastro           CaseType = "gastrointestinal"
	CaseNeuro            CaseType = "neurological"
	CaseInfectious       CaseType = "infectious"
	CaseEndocrine        CaseType = "endocrine"
	CaseRenal            CaseType = "renal"
	CaseUndifferentiated CaseType = "undifferentiated"
)

func (t CaseType) IsValid() bool {
	switch t {
	case CaseCardiac, CaseRespiratory, CaseGastro, CaseNeuro,
		CaseInfectious, CaseEndocrine, CaseRenal, CaseUndifferentiated:
		return true
	}
	return false
}

// Case is the generated patient presentation. It is written once when
// the session starts; Diagnosis is the hidden ground truth and is only
// surfaced to the player at a terminal state.
type Case struct {
	Demographics   string `json:"demographics"`
	ChiefComplaint string `json:"chief_complaint"`
	History        string `json:"history"`
	Diagnosis      string `json:"-"`
}

// VitalSigns is the mutable physiologic record. MAP is derived and must
// be recomputed whenever either blood pressure component changes; use
// the Session mutators rather than assigning fields so the recompute
// happens in the same step.
type VitalSigns struct {
	HR          float64 `json:"hr"`
	BPSystolic  float64 `json:"bp_systolic"`
	BPDiastolic float64 `json:"bp_diastolic"`
	MAP         float64 `json:"map"`
	RR          float64 `json:"rr"`
	Temp        float64 `json:"temp"`
	O2Sat       float64 `json:"o2_sat"`
}

// MeanArterialPressure is diastolic plus a third of the pulse pressure,
// rounded to one decimal.
func MeanArterialPressure(systolic, diastolic float64) float64 {
	return math.Round((diastolic+(systolic-diastolic)/3)*10) / 10
}

// RecomputeMAP refreshes the derived value from the current pressures.
func (v *VitalSigns) RecomputeMAP() {
	v.MAP = MeanArterialPressure(v.BPSystolic, v.BPDiastolic)
}

// Baseline is the fixed physiologic default used when the model gives
// us nothing usable for a field.
func Baseline() VitalSigns {
	v := VitalSigns{
		HR:          80,
		BPSystolic:  120,
		BPDiastolic: 80,
		RR:          16,
		Temp:        37.0,
		O2Sat:       98,
	}
	v.RecomputeMAP()
	return v
}

// Simulation floors and ceilings for the random-perturbation fallback.
// Values outside these bounds can still arrive from the model; they are
// death-detection input, not a validity error.
const (
	ClampHRMin   = 40
	ClampHRMax   = 180
	ClampSysMin  = 70
	ClampSysMax  = 220
	ClampDiaMin  = 40
	ClampDiaMax  = 120
	ClampRRMin   = 8
	ClampRRMax   = 40
	ClampTempMin = 35
	ClampTempMax = 41
	ClampO2Min   = 75
	ClampO2Max   = 100
)

// Clamp bounds every vital to the simulation floors/ceilings above.
func (v *VitalSigns) Clamp() {
	v.HR = clamp(v.HR, ClampHRMin, ClampHRMax)
	v.BPSystolic = clamp(v.BPSystolic, ClampSysMin, ClampSysMax)
	v.BPDiastolic = clamp(v.BPDiastolic, ClampDiaMin, ClampDiaMax)
	v.RR = clamp(v.RR, ClampRRMin, ClampRRMax)
	v.Temp = clamp(v.Temp, ClampTempMin, ClampTempMax)
	v.O2Sat = clamp(v.O2Sat, ClampO2Min, ClampO2Max)
}

// WithinNormalAdultRange reports whether every vital sits in the normal
// adult band. Used by the cure check together with the stability
// history requirement.
func (v VitalSigns) WithinNormalAdultRange() bool {
	return v.HR >= 60 && v.HR <= 100 &&
		v.BPSystolic >= 100 && v.BPSystolic <= 140 &&
		v.BPDiastolic >= 60 && v.BPDiastolic <= 90 &&
		v.RR >= 12 && v.RR <= 20 &&
		v.Temp >= 36.5 && v.Temp <= 37.5 &&
		v.O2Sat >= 95
}

// StableSnapshot is the looser band a historical vitals snapshot must
// satisfy to count toward the stability-persistence requirement.
func (v VitalSigns) StableSnapshot() bool {
	return v.HR >= 60 && v.HR <= 100 &&
		v.BPSystolic >= 100 && v.BPSystolic <= 140 &&
		v.O2Sat >= 95
}

// FahrenheitToCelsius converts model-supplied temperatures carrying an
// "F" suffix.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
