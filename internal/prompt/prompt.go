// Package prompt builds the requests sent to the text-generation
// backend. Each builder embeds the hidden diagnosis, current vitals and
// a slice of recent history so the model can keep the narrative
// consistent; every prompt that expects structure asks for bare JSON,
// though callers must still assume the answer is prose-wrapped.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmehra2102/codeblue/internal/domain/order"
	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
)

// CaseGeneration asks for a complete patient case of the requested
// archetype with the final diagnosis hidden from the player.
func CaseGeneration(caseType patient.CaseType) string {
	return fmt.Sprintf(`You are an advanced medical case simulation engine for an internal medicine resident training game. Generate a realistic, medically accurate and engaging %s case where the player makes diagnostic and management decisions.

Case requirements:
- Appropriately challenging for an internal medicine resident.
- Simulates an actual patient encounter: history-taking, physical exam findings, diagnostic decision-making.
- The final diagnosis is hidden from the player; they must work through the case.

Case structure:
1. Patient demographics: age, gender, ethnicity if relevant, significant past medical history, social history, current medications.
2. Chief complaint: a brief, natural patient-reported reason for the visit.
3. History of present illness: onset, duration, character, alleviating/aggravating factors, associated symptoms, pertinent negatives, relevant exposures.
4. Vital signs: heart rate, blood pressure, respiratory rate, temperature, oxygen saturation - realistic for the case.
5. Physical examination: general appearance and relevant system-specific findings.
6. Diagnostic workup: key labs, imaging and point-of-care findings as appropriate.
7. The underlying diagnosis (hidden from player): the correct final diagnosis, differentials the player should consider, and why this diagnosis fits.

Return only valid JSON with simple structure, without any markdown formatting or additional text. Keep key names short and avoid deep nesting.`, caseType)
}

// VitalsUpdate asks the physiology simulator to evolve the vitals
// given the disease, interventions so far and elapsed time.
func VitalsUpdate(c patient.Case, v patient.VitalSigns, history []session.HistoryEvent, clock int) string {
	var sb strings.Builder
	sb.WriteString("You are a real-time patient physiology simulator for an internal medicine resident training game. Update the patient's vital signs dynamically and realistically, accounting for the underlying condition and any interventions performed so far.\n\n")
	writeCaseContext(&sb, c, v)
	sb.WriteString("\nConsider the natural progression of the underlying disease, appropriate interventions administered by the player, inappropriate treatments or delays causing deterioration, expected pharmacokinetics, and the deadly effects of overdose or wrong medications. It is okay if the simulated patient dies; residents need to be able to make mistakes and learn from them.\n\n")
	writeRecentEvents(&sb, history)
	fmt.Fprintf(&sb, "\nTime elapsed since case start: %s (each 10 seconds real-time represents about 1 minute of in-game time)\n", session.FormatClock(clock))
	sb.WriteString("\nProvide updated vital signs as a JSON object with these fields: HR, BPSystolic, BPDiastolic, RR, Temp, O2Sat.\nReturn only valid JSON without any markdown formatting or additional text.")
	return sb.String()
}

// OrderResult asks for the narrative outcome of one order, phrased as
// an EMR entry that reflects the hidden diagnosis without naming it.
func OrderResult(c patient.Case, v patient.VitalSigns, history []session.HistoryEvent, details *order.Details) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on the following patient case and timeline of events, generate a realistic result for the ordered %s.\n\n", details.Kind)
	writeCaseContext(&sb, c, v)
	sb.WriteString("\n")
	writeRecentEvents(&sb, history)
	sb.WriteString("\nOrder details:\n")
	writeOrderJSON(&sb, details)
	fmt.Fprintf(&sb, "\nProvide a realistic, medically accurate result for this %s order. The response should be consistent with the patient's underlying condition (%s) but must not explicitly state the diagnosis.\n", details.Kind, c.Diagnosis)
	sb.WriteString(`
If this is a medication order, describe the patient's response to the medication.
If this is a lab test, provide realistic lab values.
If this is an imaging study, provide findings consistent with the underlying condition.
If this is a procedure, describe the procedure and any findings.
If this is a consultation, provide the consultant's assessment and recommendations.

Keep the response focused and concise (about 3-5 sentences), as if it were appearing in an electronic medical record.`)
	return sb.String()
}

// OrderEvaluation asks for the structured appropriateness judgment of
// an order given its narrative result.
func OrderEvaluation(c patient.Case, v patient.VitalSigns, history []session.HistoryEvent, details *order.Details, result string) string {
	var sb strings.Builder
	sb.WriteString("Evaluate the medical appropriateness of the following order in the context of this patient case:\n\n")
	writeCaseContext(&sb, c, v)
	sb.WriteString("\n")
	writeRecentEvents(&sb, history)
	sb.WriteString("\nOrder details:\n")
	writeOrderJSON(&sb, details)
	fmt.Fprintf(&sb, "\nOrder result:\n%s\n", result)
	sb.WriteString(`
Please evaluate whether this order was:
1. Appropriate and indicated (good clinical decision)
2. Not harmful but unnecessary (wasteful)
3. Potentially harmful or contraindicated (poor clinical decision)

Return a JSON object with the following structure:
{
  "evaluation": "appropriate" or "unnecessary" or "harmful",
  "scoreImpact": number between -10 and 0 (0 for appropriate, -1 to -3 for unnecessary, -4 to -10 for harmful),
  "feedback": "Brief explanation of the evaluation"
}

Consider standard of care guidelines, the patient's condition, and potential adverse effects in your evaluation.`)
	return sb.String()
}

// Recipient is who a chat message is addressed to.
type Recipient string

const (
	RecipientAttending Recipient = "attending"
	RecipientNurse     Recipient = "nurse"
)

// ChatResponse asks the model to role-play the attending or the nurse
// answering one free-text message from the resident.
func ChatResponse(recipient Recipient, message string, c patient.Case, v patient.VitalSigns, history []session.HistoryEvent) string {
	role := "teaching attending physician"
	guidance := "As the attending, give medically accurate guidance, ask probing questions, and evaluate the resident's medical decision-making. Be supportive but appropriately critical when needed. Do not directly tell them the diagnosis."
	if recipient == RecipientNurse {
		role = "experienced nurse"
		guidance = "As the nurse, respond to the resident's requests, provide observations about the patient, and relay information as a real nurse would. You can perform basic nursing tasks if requested."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are role-playing as a %s in a medical simulation for internal medicine residents.\n\n", role)
	writeCaseContext(&sb, c, v)
	sb.WriteString("\n")
	writeRecentEvents(&sb, history)
	fmt.Fprintf(&sb, "\n%s\n\nThe resident has sent this message: %q\n\nRespond in a realistic, conversational manner. Keep your response concise (1-3 sentences) unless detailed medical explanation is necessary.", guidance, message)
	return sb.String()
}

// DeathDebrief asks the attending to deliver a teaching debrief after
// the patient has died, revealing the diagnosis and walking through the
// decision points.
func DeathDebrief(c patient.Case, cause string, history []session.HistoryEvent) string {
	var sb strings.Builder
	sb.WriteString("You are a teaching attending physician in a medical simulation for internal medicine residents. The simulated patient has just died. Deliver a compassionate but honest debrief to the resident.\n\n")
	fmt.Fprintf(&sb, "The underlying diagnosis was: %s\nThe cause of death was: %s\n\n", c.Diagnosis, cause)
	writeRecentEvents(&sb, history)
	sb.WriteString("\nIn your debrief: reveal the diagnosis, explain how the cause of death relates to it, identify the key decision points in the timeline, and note what could have been done differently. Keep it to one short paragraph. Be supportive; the point is learning, not blame.")
	return sb.String()
}

func writeCaseContext(sb *strings.Builder, c patient.Case, v patient.VitalSigns) {
	fmt.Fprintf(sb, `Patient information:
- Diagnosis (hidden from player): %s
- Demographics: %s
- Chief complaint: %s
- History: %s

Current vitals:
- HR: %g bpm
- BP: %g/%g mmHg
- MAP: %g mmHg
- RR: %g breaths/min
- Temp: %.1f°C
- O2Sat: %g%%
`, c.Diagnosis, c.Demographics, c.ChiefComplaint, c.History,
		v.HR, v.BPSystolic, v.BPDiastolic, v.MAP, v.RR, v.Temp, v.O2Sat)
}

func writeRecentEvents(sb *strings.Builder, history []session.HistoryEvent) {
	if len(history) == 0 {
		sb.WriteString("No interventions have been performed yet.\n")
		return
	}
	sb.WriteString("Recent events:\n")
	for _, e := range history {
		fmt.Fprintf(sb, "- %s: %s\n", session.FormatClock(e.Time), e.Event)
	}
}

func writeOrderJSON(sb *strings.Builder, details *order.Details) {
	raw, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		sb.WriteString(details.Summary())
		sb.WriteString("\n")
		return
	}
	sb.Write(raw)
	sb.WriteString("\n")
}
