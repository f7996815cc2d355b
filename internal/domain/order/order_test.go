package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		details Details
		want    []string
	}{
		{
			name:    "complete medication order",
			details: Details{Kind: KindMedication, Medication: "metoprolol", Dosage: "25mg", Route: "PO", Frequency: "daily"},
			want:    nil,
		},
		{
			name:    "medication without dosage",
			details: Details{Kind: KindMedication, Medication: "metoprolol"},
			want:    []string{"dosage"},
		},
		{
			name:    "medication with blank fields",
			details: Details{Kind: KindMedication, Medication: "  ", Dosage: ""},
			want:    []string{"medication", "dosage"},
		},
		{
			name:    "lab without test",
			details: Details{Kind: KindLab, Urgency: "stat"},
			want:    []string{"test"},
		},
		{
			name:    "exam without area",
			details: Details{Kind: KindExam},
			want:    []string{"area"},
		},
		{
			name:    "imaging needs study and details",
			details: Details{Kind: KindImaging},
			want:    []string{"study", "details"},
		},
		{
			name:    "procedure without name",
			details: Details{Kind: KindProcedure},
			want:    []string{"procedure"},
		},
		{
			name:    "consult needs specialty and reason",
			details: Details{Kind: KindConsult, Urgency: "urgent"},
			want:    []string{"specialty", "reason"},
		},
		{
			name:    "unknown kind",
			details: Details{Kind: Kind("dance")},
			want:    []string{"type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.details.MissingFields())
		})
	}
}

func TestSummary(t *testing.T) {
	med := Details{Kind: KindMedication, Medication: "metoprolol", Dosage: "25mg", Route: "PO", Frequency: "daily"}
	assert.Equal(t, "metoprolol 25mg PO daily", med.Summary())

	lab := Details{Kind: KindLab, Test: "cbc", Urgency: "routine"}
	assert.Equal(t, "Complete Blood Count (routine)", lab.Summary())

	imaging := Details{Kind: KindImaging, Study: "CT chest", Extra: "rule out PE", Contrast: "IV", Urgency: "stat"}
	assert.Equal(t, "CT chest - rule out PE (IV contrast, stat)", imaging.Summary())

	imagingPlain := Details{Kind: KindImaging, Study: "CXR", Extra: "portable", Contrast: "none", Urgency: "stat"}
	assert.Equal(t, "CXR - portable (No contrast, stat)", imagingPlain.Summary())
}

func TestLabDisplayName(t *testing.T) {
	assert.Equal(t, "Arterial Blood Gas", LabDisplayName("abg"))
	assert.Equal(t, "troponin-q6h", LabDisplayName("troponin-q6h"))
}

func TestEvaluationClamp(t *testing.T) {
	runaway := Evaluation{Outcome: OutcomeHarmful, ScoreImpact: -42}
	runaway.Clamp()
	assert.Equal(t, -10, runaway.ScoreImpact)

	positive := Evaluation{Outcome: OutcomeAppropriate, ScoreImpact: 3}
	positive.Clamp()
	assert.Equal(t, 0, positive.ScoreImpact)

	bogus := Evaluation{Outcome: Outcome("miraculous"), ScoreImpact: -2}
	bogus.Clamp()
	assert.Equal(t, OutcomeUnnecessary, bogus.Outcome)
}
