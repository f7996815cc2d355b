package order

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindMedication Kind = "medication"
	KindLab        Kind = "lab"
	KindExam       Kind = "exam"
	KindImaging    Kind = "imaging"
	KindProcedure  Kind = "procedure"
	KindConsult    Kind = "consult"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindMedication, KindLab, KindExam, KindImaging, KindProcedure, KindConsult:
		return true
	}
	return false
}

// Details is the tagged union of everything a resident can order. Kind
// selects which fields are meaningful; RequiredFields lists the ones
// that must be present for that kind. A Details value is transient: it
// is embedded in a history event and then discarded.
type Details struct {
	Kind Kind `json:"type"`

	// medication
	Medication string `json:"medication,omitempty"`
	Dosage     string `json:"dosage,omitempty"`
	Route      string `json:"route,omitempty"`
	Frequency  string `json:"frequency,omitempty"`
	Category   string `json:"category,omitempty"`

	// lab
	Test  string `json:"test,omitempty"`
	Notes string `json:"notes,omitempty"`

	// exam
	Area  string `json:"area,omitempty"`
	Focus string `json:"focus,omitempty"`

	// imaging
	Study    string `json:"study,omitempty"`
	Contrast string `json:"contrast,omitempty"`

	// procedure
	Procedure string `json:"procedure,omitempty"`

	// consult
	Specialty string `json:"specialty,omitempty"`
	Reason    string `json:"reason,omitempty"`

	// shared by lab/imaging/consult
	Urgency string `json:"urgency,omitempty"`

	// free-text details for imaging/procedure
	Extra string `json:"details,omitempty"`
}

// MissingFields returns the required fields absent for this order's
// kind. An empty result means the order is submittable.
func (d *Details) MissingFields() []string {
	var missing []string
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}

	switch d.Kind {
	case KindMedication:
		require("medication", d.Medication)
		require("dosage", d.Dosage)
	case KindLab:
		require("test", d.Test)
	case KindExam:
		require("area", d.Area)
	case KindImaging:
		require("study", d.Study)
		require("details", d.Extra)
	case KindProcedure:
		require("procedure", d.Procedure)
	case KindConsult:
		require("specialty", d.Specialty)
		require("reason", d.Reason)
	default:
		missing = append(missing, "type")
	}
	return missing
}

// Summary renders the one-line label used in history events, the
// results feed, and attending commentary.
func (d *Details) Summary() string {
	switch d.Kind {
	case KindMedication:
		return strings.TrimSpace(fmt.Sprintf("%s %s %s %s", d.Medication, d.Dosage, d.Route, d.Frequency))
	case KindLab:
		return fmt.Sprintf("%s (%s)", LabDisplayName(d.Test), d.Urgency)
	case KindExam:
		if d.Focus != "" {
			return fmt.Sprintf("%s - %s", d.Area, d.Focus)
		}
		return d.Area
	case KindImaging:
		contrast := "No contrast"
		if d.Contrast != "" && d.Contrast != "none" {
			contrast = d.Contrast + " contrast"
		}
		return fmt.Sprintf("%s - %s (%s, %s)", d.Study, d.Extra, contrast, d.Urgency)
	case KindProcedure:
		if d.Extra != "" {
			return fmt.Sprintf("%s - %s", d.Procedure, d.Extra)
		}
		return d.Procedure
	case KindConsult:
		return fmt.Sprintf("%s - %s (%s)", d.Specialty, d.Reason, d.Urgency)
	}
	return ""
}

var labNames = map[string]string{
	"cbc":             "Complete Blood Count",
	"cmp":             "Comprehensive Metabolic Panel",
	"cardiac-enzymes": "Cardiac Enzymes",
	"coagulation":     "Coagulation Studies",
	"abg":             "Arterial Blood Gas",
	"cultures":        "Cultures & Sensitivity",
	"urinalysis":      "Urinalysis",
	"other-labs":      "Other Laboratory Tests",
}

func LabDisplayName(id string) string {
	if name, ok := labNames[id]; ok {
		return name
	}
	return id
}
