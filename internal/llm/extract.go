package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmehra2102/codeblue/internal/domain/order"
	"github.com/dmehra2102/codeblue/internal/domain/patient"
)

// Tier records how far down the recovery ladder an extraction had to
// go. It feeds the extractor-fallback metric and debug logs.
type Tier string

const (
	TierParsed   Tier = "parsed"
	TierRepaired Tier = "repaired"
	TierRegex    Tier = "regex"
	TierDefault  Tier = "default"
)

// The model backend frequently wraps JSON in prose or code fences,
// truncates it, or leaves braces unbalanced. Every consumer expecting
// structure goes through this file; nothing here ever panics, and the
// vitals/case entry points never return an error - fidelity degrades
// tier by tier until fixed defaults win.

var fenceRe = regexp.MustCompile("```(?:json)?\n?|```")

// ExtractObject recovers a JSON object from arbitrary model output:
// strip code fences, take the outermost balanced {...} span, parse;
// on failure append the missing closers and parse again.
func ExtractObject(text string) (map[string]any, Tier, error) {
	cleaned := fenceRe.ReplaceAllString(text, "")
	span := braceSpan(cleaned)
	if span == "" {
		return nil, TierDefault, fmt.Errorf("no JSON object found")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err == nil {
		return obj, TierParsed, nil
	}

	repaired := RepairJSON(span)
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return nil, TierDefault, fmt.Errorf("JSON repair failed: %w", err)
	}
	return obj, TierRepaired, nil
}

// braceSpan returns the outermost balanced object, or everything from
// the first '{' onward when no close is found (the repair tier then
// appends the closers).
func braceSpan(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}

// RepairJSON appends the closing braces and brackets a truncated
// payload is missing. It cannot fix interior corruption; the regex
// tier handles those.
func RepairJSON(s string) string {
	openBraces := strings.Count(s, "{")
	closeBraces := strings.Count(s, "}")
	openBrackets := strings.Count(s, "[")
	closeBrackets := strings.Count(s, "]")

	var sb strings.Builder
	sb.WriteString(s)
	for ; openBrackets > closeBrackets; closeBrackets++ {
		sb.WriteByte(']')
	}
	for ; openBraces > closeBraces; closeBraces++ {
		sb.WriteByte('}')
	}
	return sb.String()
}

// Vitals recovers a vitals record from model output. Tier order:
// parsed/repaired JSON through the normalizer, then per-field regex,
// then the physiologic baseline. Never fails.
func Vitals(text string) (patient.VitalSigns, Tier) {
	if obj, tier, err := ExtractObject(text); err == nil {
		return patient.NormalizeVitals(obj), tier
	}
	return regexVitals(text), TierRegex
}

var (
	hrRe      = regexp.MustCompile(`"(?:heartRate|HR)"\s*:\s*(\d+(?:\.\d+)?)`)
	bpPairRe  = regexp.MustCompile(`"(?:bloodPressure|BP)"\s*:\s*"([^"]*)"`)
	sysRe     = regexp.MustCompile(`"BPSystolic"\s*:\s*(\d+(?:\.\d+)?)`)
	diaRe     = regexp.MustCompile(`"BPDiastolic"\s*:\s*(\d+(?:\.\d+)?)`)
	rrRe      = regexp.MustCompile(`"(?:respiratoryRate|RR)"\s*:\s*(\d+(?:\.\d+)?)`)
	tempStrRe = regexp.MustCompile(`"(?:temperature|Temp)"\s*:\s*"([^"]*)"`)
	tempNumRe = regexp.MustCompile(`"(?:temperature|Temp)"\s*:\s*(\d+(?:\.\d+)?)`)
	o2StrRe   = regexp.MustCompile(`"(?:oxygenSaturation|O2Sat)"\s*:\s*"([^"]*)"`)
	o2NumRe   = regexp.MustCompile(`"(?:oxygenSaturation|O2Sat)"\s*:\s*(\d+(?:\.\d+)?)`)
)

// regexVitals scrapes individual fields out of text that defeated the
// JSON tiers, defaulting anything unmatched to the baseline.
func regexVitals(text string) patient.VitalSigns {
	v := patient.Baseline()

	if m := hrRe.FindStringSubmatch(text); m != nil {
		v.HR = mustFloat(m[1], v.HR)
	}
	if m := bpPairRe.FindStringSubmatch(text); m != nil {
		if sys, dia, ok := patient.SplitBloodPressure(m[1]); ok {
			v.BPSystolic, v.BPDiastolic = sys, dia
		}
	} else {
		if m := sysRe.FindStringSubmatch(text); m != nil {
			v.BPSystolic = mustFloat(m[1], v.BPSystolic)
		}
		if m := diaRe.FindStringSubmatch(text); m != nil {
			v.BPDiastolic = mustFloat(m[1], v.BPDiastolic)
		}
	}
	if m := rrRe.FindStringSubmatch(text); m != nil {
		v.RR = mustFloat(m[1], v.RR)
	}
	if m := tempStrRe.FindStringSubmatch(text); m != nil {
		v.Temp = parseTempString(m[1], v.Temp)
	} else if m := tempNumRe.FindStringSubmatch(text); m != nil {
		v.Temp = mustFloat(m[1], v.Temp)
	}
	if m := o2StrRe.FindStringSubmatch(text); m != nil {
		v.O2Sat = mustFloat(strings.TrimSuffix(strings.TrimSpace(m[1]), "%"), v.O2Sat)
	} else if m := o2NumRe.FindStringSubmatch(text); m != nil {
		v.O2Sat = mustFloat(m[1], v.O2Sat)
	}

	v.RecomputeMAP()
	return v
}

var (
	ageRe       = regexp.MustCompile(`"age"\s*:\s*"?(\d+)"?`)
	genderRe    = regexp.MustCompile(`"gender"\s*:\s*"([^"]*)"`)
	ccRe        = regexp.MustCompile(`"chiefComplaint"\s*:\s*"([^"]*)"`)
	narrativeRe = regexp.MustCompile(`"narrative"\s*:\s*"([^"]*)"`)
	diagnosisRe = regexp.MustCompile(`"correctDiagnosis"\s*:\s*"([^"]*)"`)
)

// Case recovers a full patient case. The regex tier rebuilds what it
// can and labels the rest as a workup in progress, so the session can
// always be seeded.
func Case(text string) (patient.Case, patient.VitalSigns, Tier) {
	if obj, tier, err := ExtractObject(text); err == nil {
		c, v := patient.Normalize(obj)
		return c, v, tier
	}

	c := patient.Case{
		Demographics:   "Adult patient",
		ChiefComplaint: "Multiple symptoms",
		History:        "Patient presented with concerning symptoms",
		Diagnosis:      patient.PlaceholderDiagnosis,
	}

	ageM := ageRe.FindStringSubmatch(text)
	genderM := genderRe.FindStringSubmatch(text)
	if ageM != nil && genderM != nil {
		c.Demographics = fmt.Sprintf("%s-year-old %s patient", ageM[1], genderM[1])
	}
	if m := ccRe.FindStringSubmatch(text); m != nil {
		c.ChiefComplaint = m[1]
	}
	if m := narrativeRe.FindStringSubmatch(text); m != nil {
		c.History = m[1]
	}
	if m := diagnosisRe.FindStringSubmatch(text); m != nil {
		c.Diagnosis = m[1]
	}

	return c, regexVitals(text), TierRegex
}

var (
	outcomeRe  = regexp.MustCompile(`"evaluation"\s*:\s*"(appropriate|unnecessary|harmful)"`)
	impactRe   = regexp.MustCompile(`"scoreImpact"\s*:\s*(-?\d+)`)
	feedbackRe = regexp.MustCompile(`"feedback"\s*:\s*"([^"]*)"`)
)

// Evaluation recovers the scored judgment for an order. Unlike the
// vitals/case paths there is no default tier: when nothing usable can
// be recovered the order simply goes unscored.
func Evaluation(text string) (order.Evaluation, Tier, bool) {
	if obj, tier, err := ExtractObject(text); err == nil {
		raw, merr := json.Marshal(obj)
		if merr == nil {
			var ev order.Evaluation
			if uerr := json.Unmarshal(raw, &ev); uerr == nil && ev.Outcome != "" {
				ev.Clamp()
				return ev, tier, true
			}
		}
	}

	m := outcomeRe.FindStringSubmatch(text)
	if m == nil {
		return order.Evaluation{}, TierDefault, false
	}
	ev := order.Evaluation{Outcome: order.Outcome(m[1])}
	if im := impactRe.FindStringSubmatch(text); im != nil {
		if n, err := strconv.Atoi(im[1]); err == nil {
			ev.ScoreImpact = n
		}
	}
	if fm := feedbackRe.FindStringSubmatch(text); fm != nil {
		ev.Feedback = fm[1]
	}
	ev.Clamp()
	return ev, TierRegex, true
}

func mustFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseTempString(s string, fallback float64) float64 {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if strings.Contains(upper, "F") {
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(upper, "F° ")), 64)
		if err != nil {
			return fallback
		}
		return patient.FahrenheitToCelsius(f)
	}
	c, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(upper, "C° ")), 64)
	if err != nil {
		return fallback
	}
	return c
}
