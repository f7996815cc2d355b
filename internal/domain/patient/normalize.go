package patient

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize maps the many shapes the model returns onto the canonical
// Case + VitalSigns pair. The alias handling mirrors what the backend
// actually produces in practice: nested patientDemographics objects,
// heartRate vs HR naming, blood pressure as one "120/80" string or two
// fields, temperatures in Fahrenheit, saturations with a "%" suffix.
// Missing fields fall back to fixed defaults; Normalize never fails.
func Normalize(raw map[string]any) (Case, VitalSigns) {
	c := Case{
		Demographics:   "Adult patient",
		ChiefComplaint: "Multiple symptoms",
		History:        "Patient presented with concerning symptoms",
		Diagnosis:      "Unknown",
	}

	if pd, ok := asMap(raw["patientDemographics"]); ok {
		c.Demographics = demographicsText(pd, raw)
	} else if s := asString(raw["demographics"]); s != "" {
		c.Demographics = s
	}

	if s := asString(raw["chiefComplaint"]); s != "" {
		c.ChiefComplaint = s
	}

	if hpi, ok := asMap(raw["historyOfPresentIllness"]); ok {
		if s := asString(hpi["narrative"]); s != "" {
			c.History = s
		}
	} else if s := asString(raw["history"]); s != "" {
		c.History = s
	}

	if ud, ok := asMap(raw["underlyingDiagnosis"]); ok {
		if s := asString(ud["correctDiagnosis"]); s != "" {
			c.Diagnosis = s
		}
	} else if s := asString(raw["diagnosis"]); s != "" {
		c.Diagnosis = s
	}

	vitals := Baseline()
	if vs, ok := asMap(raw["vitalSigns"]); ok {
		vitals = NormalizeVitals(vs)
	}

	return c, vitals
}

// NormalizeVitals folds one raw vitals object onto the canonical record,
// starting from the physiologic baseline so partial payloads stay sane.
func NormalizeVitals(vs map[string]any) VitalSigns {
	v := Baseline()

	if f, ok := firstNumber(vs, "heartRate", "HR"); ok {
		v.HR = f
	}

	if bp := asString(firstValue(vs, "bloodPressure", "BP")); bp != "" {
		if sys, dia, ok := SplitBloodPressure(bp); ok {
			v.BPSystolic, v.BPDiastolic = sys, dia
		}
	} else {
		if f, ok := firstNumber(vs, "BPSystolic", "systolic"); ok {
			v.BPSystolic = f
		}
		if f, ok := firstNumber(vs, "BPDiastolic", "diastolic"); ok {
			v.BPDiastolic = f
		}
	}

	if f, ok := firstNumber(vs, "respiratoryRate", "RR"); ok {
		v.RR = f
	}

	if raw, ok := firstPresent(vs, "temperature", "Temp"); ok {
		if t, ok := parseTemperature(raw); ok {
			v.Temp = t
		}
	}

	if raw, ok := firstPresent(vs, "oxygenSaturation", "O2Sat"); ok {
		if o2, ok := parsePercent(raw); ok {
			v.O2Sat = o2
		}
	}

	v.RecomputeMAP()
	return v
}

// SplitBloodPressure parses the combined "sys/dia" string form.
func SplitBloodPressure(s string) (sys, dia float64, ok bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	sys, err1 := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[0]), "mmHg")), 64)
	dia, err2 := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[1]), "mmHg")), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return sys, dia, true
}

// FallbackCase is substituted when the backend cannot produce a case at
// all. The session still starts; never failing to start is deliberate.
func FallbackCase() (Case, VitalSigns) {
	c := Case{
		Demographics:   "65-year-old patient with medical history",
		ChiefComplaint: "Unable to parse API output, using fallback case",
		History:        "This is a fallback case due to a parsing error in the API response.",
		Diagnosis:      "API Response Error",
	}
	v := VitalSigns{HR: 75, BPSystolic: 120, BPDiastolic: 80, RR: 16, Temp: 37.0, O2Sat: 98}
	v.RecomputeMAP()
	return c, v
}

// PlaceholderDiagnosis labels a case recovered only by regex scraping.
const PlaceholderDiagnosis = "Diagnostic workup in progress"

func demographicsText(pd map[string]any, raw map[string]any) string {
	age := asString(pd["age"])
	gender := asString(pd["gender"])

	var sb strings.Builder
	switch {
	case age != "" && gender != "":
		fmt.Fprintf(&sb, "%s-year-old %s", age, gender)
		if eth := asString(pd["ethnicity"]); eth != "" {
			fmt.Fprintf(&sb, " (%s)", eth)
		}
		if pmh := joined(pd["pastMedicalHistory"]); pmh != "" {
			fmt.Fprintf(&sb, " with history of %s", pmh)
		}
		if meds := joined(pd["medications"]); meds != "" {
			fmt.Fprintf(&sb, ". Current medications: %s", meds)
		}
	case age != "":
		fmt.Fprintf(&sb, "%s-year-old patient", age)
	default:
		if s := asString(raw["demographics"]); s != "" {
			return s
		}
		return "Adult patient"
	}
	return sb.String()
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asString renders strings and JSON numbers; anything else is "".
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func joined(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := asString(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := asNumber(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func parseTemperature(raw any) (float64, bool) {
	switch t := raw.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		upper := strings.ToUpper(s)
		switch {
		case strings.Contains(upper, "F"):
			f, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(upper, "F° ")), 64)
			if err != nil {
				return 0, false
			}
			return FahrenheitToCelsius(f), true
		case strings.Contains(upper, "C"):
			c, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(upper, "C° ")), 64)
			return c, err == nil
		default:
			c, err := strconv.ParseFloat(s, 64)
			return c, err == nil
		}
	}
	return 0, false
}

func parsePercent(raw any) (float64, bool) {
	switch t := raw.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}
