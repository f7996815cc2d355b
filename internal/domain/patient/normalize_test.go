package patient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestNormalize_NestedDemographics(t *testing.T) {
	raw := decode(t, `{
		"patientDemographics": {
			"age": 67,
			"gender": "male",
			"ethnicity": "Hispanic",
			"pastMedicalHistory": ["hypertension", "type 2 diabetes"],
			"medications": ["lisinopril", "metformin"]
		},
		"chiefComplaint": "shortness of breath",
		"historyOfPresentIllness": {"narrative": "Two days of worsening dyspnea."},
		"underlyingDiagnosis": {"correctDiagnosis": "Acute decompensated heart failure"},
		"vitalSigns": {"heartRate": 104, "bloodPressure": "150/95", "respiratoryRate": 24, "temperature": 37.1, "oxygenSaturation": 91}
	}`)

	c, v := Normalize(raw)
	assert.Equal(t, "67-year-old male (Hispanic) with history of hypertension, type 2 diabetes. Current medications: lisinopril, metformin", c.Demographics)
	assert.Equal(t, "shortness of breath", c.ChiefComplaint)
	assert.Equal(t, "Two days of worsening dyspnea.", c.History)
	assert.Equal(t, "Acute decompensated heart failure", c.Diagnosis)

	assert.Equal(t, 104.0, v.HR)
	assert.Equal(t, 150.0, v.BPSystolic)
	assert.Equal(t, 95.0, v.BPDiastolic)
	assert.Equal(t, MeanArterialPressure(150, 95), v.MAP)
	assert.Equal(t, 91.0, v.O2Sat)
}

func TestNormalize_FlatAliases(t *testing.T) {
	raw := decode(t, `{
		"demographics": "45-year-old woman",
		"history": "Sudden-onset headache.",
		"diagnosis": "Subarachnoid hemorrhage"
	}`)

	c, v := Normalize(raw)
	assert.Equal(t, "45-year-old woman", c.Demographics)
	assert.Equal(t, "Sudden-onset headache.", c.History)
	assert.Equal(t, "Subarachnoid hemorrhage", c.Diagnosis)

	// No vitals object at all: the baseline fills in.
	assert.Equal(t, 80.0, v.HR)
	assert.Equal(t, 98.0, v.O2Sat)
}

func TestNormalizeVitals_UnitHandling(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, v VitalSigns)
	}{
		{
			name: "fahrenheit string converted",
			raw:  `{"temperature": "102.2F"}`,
			check: func(t *testing.T, v VitalSigns) {
				assert.InDelta(t, 39.0, v.Temp, 0.1)
			},
		},
		{
			name: "celsius string accepted",
			raw:  `{"temperature": "38.2C"}`,
			check: func(t *testing.T, v VitalSigns) {
				assert.InDelta(t, 38.2, v.Temp, 0.01)
			},
		},
		{
			name: "saturation with percent suffix",
			raw:  `{"O2Sat": "88%"}`,
			check: func(t *testing.T, v VitalSigns) {
				assert.Equal(t, 88.0, v.O2Sat)
			},
		},
		{
			name: "separate pressure fields",
			raw:  `{"BPSystolic": 85, "BPDiastolic": 55}`,
			check: func(t *testing.T, v VitalSigns) {
				assert.Equal(t, 85.0, v.BPSystolic)
				assert.Equal(t, 55.0, v.BPDiastolic)
				assert.Equal(t, MeanArterialPressure(85, 55), v.MAP)
			},
		},
		{
			name: "pressure string with units",
			raw:  `{"BP": "135 mmHg / 88 mmHg"}`,
			check: func(t *testing.T, v VitalSigns) {
				assert.Equal(t, 135.0, v.BPSystolic)
				assert.Equal(t, 88.0, v.BPDiastolic)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, NormalizeVitals(decode(t, tt.raw)))
		})
	}
}

func TestSplitBloodPressure(t *testing.T) {
	sys, dia, ok := SplitBloodPressure("120/80")
	require.True(t, ok)
	assert.Equal(t, 120.0, sys)
	assert.Equal(t, 80.0, dia)

	_, _, ok = SplitBloodPressure("not a pressure")
	assert.False(t, ok)
}

func TestFallbackCase(t *testing.T) {
	c, v := FallbackCase()
	assert.Equal(t, "API Response Error", c.Diagnosis)
	assert.Equal(t, 75.0, v.HR)
	assert.NotZero(t, v.MAP)
}
