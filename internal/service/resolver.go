package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/internal/domain/order"
	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"github.com/dmehra2102/codeblue/internal/llm"
	"github.com/dmehra2102/codeblue/internal/prompt"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

// Terminal outcome decision logic. The pure checks decide whether a
// case should end; Resolver applies the transition exactly once per
// session and narrates it to the feed. Consulted after every vitals
// update, after every order evaluation, and by the auto-resolution
// timer. All checks after a terminal state are no-ops.

const defaultDeathCause = "Cardiopulmonary collapse"

// DeathByVitals reports whether a vitals record breaches a lethal
// threshold, with the cause label keyed to the breached vital.
func DeathByVitals(v patient.VitalSigns) (string, bool) {
	switch {
	case v.HR < 20:
		return "Severe bradycardia leading to cardiac arrest", true
	case v.HR > 180:
		return "Malignant tachyarrhythmia", true
	case v.BPSystolic < 50:
		return "Profound hypotension and circulatory collapse", true
	case v.O2Sat < 60:
		return "Severe hypoxemia", true
	case v.RR < 5:
		return "Respiratory failure", true
	}
	return "", false
}

var deathKeywords = []string{
	"cardiac arrest", "death", "died", "fatal", "expired", "deceased",
}

// NarrativeIndicatesDeath scans free text for death keywords.
func NarrativeIndicatesDeath(text string) bool {
	return containsAny(text, deathKeywords)
}

var causePhrases = []string{"due to", "caused by", "result of", "secondary to"}

// CauseFromNarrative extracts a cause-of-death clause from narrative
// text: the first clause after the first causal phrase, cut at the
// sentence end and capitalized. Falls back to a generic label.
func CauseFromNarrative(text string) string {
	lower := strings.ToLower(text)
	for _, phrase := range causePhrases {
		idx := strings.Index(lower, phrase)
		if idx == -1 {
			continue
		}
		clause := text[idx+len(phrase):]
		if dot := strings.Index(clause, "."); dot != -1 {
			clause = clause[:dot]
		}
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		return strings.ToUpper(clause[:1]) + clause[1:]
	}
	return defaultDeathCause
}

var improvementKeywords = []string{
	"improved", "stabilized", "stable", "recovery", "resolved",
}

var resolutionKeywords = []string{
	"fully recovered", "discharged", "condition has stabilized",
	"marked improvement", "symptoms resolved",
}

// RecoveryByNarrative reports whether an order outcome indicates the
// patient is cured: either an appropriate order with a healthy score
// and an improvement keyword, or an explicit resolution phrase.
func RecoveryByNarrative(text string, ev *order.Evaluation, score int) (string, bool) {
	if ev != nil && ev.Outcome == order.OutcomeAppropriate && score >= 8 && containsAny(text, improvementKeywords) {
		return "Effective treatment with clinical improvement", true
	}
	if containsAny(text, resolutionKeywords) {
		return "Condition resolved with appropriate management", true
	}
	return "", false
}

// RecoveryByStability reports whether the patient has earned a cure by
// sustained normal vitals: a healthy score, every vital currently in
// the normal adult range, and at least three stable snapshots in the
// timeline. One good sample is not enough.
func RecoveryByStability(s *session.Session) (string, bool) {
	if s.Score() <= 10 {
		return "", false
	}
	if !s.Vitals().WithinNormalAdultRange() {
		return "", false
	}
	if s.StableVitalsChecks() < 3 {
		return "", false
	}
	return "Sustained clinical stability with normal vital signs", true
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Resolver applies terminal transitions and narrates them. The state
// change itself is owned by the session (first writer wins); Resolver
// adds the outcome metrics, the feed events, and the delayed attending
// debrief.
type Resolver struct {
	client       llm.Client
	metrics      *metrics.Collector
	log          *zap.Logger
	commentDelay time.Duration
}

func NewResolver(client llm.Client, m *metrics.Collector, log *zap.Logger, commentDelay time.Duration) *Resolver {
	return &Resolver{
		client:       client,
		metrics:      m,
		log:          log,
		commentDelay: commentDelay,
	}
}

// ResolveDeath transitions the session to deceased. Returns false when
// a terminal state was already set.
func (r *Resolver) ResolveDeath(s *session.Session, feed *Feed, cause string) bool {
	if !s.MarkDeceased(cause) {
		return false
	}
	r.metrics.CaseOutcomesTotal.WithLabelValues("deceased").Inc()
	r.log.Info("patient deceased",
		zap.String("session_id", s.ID.String()),
		zap.String("cause", cause),
		zap.Int("final_score", s.Score()),
	)

	clock := s.Clock()
	feed.VitalsSnapshot(s.Vitals(), clock)
	feed.Status("deceased", "CODE BLUE. The patient is in cardiac arrest. Cause: "+cause+". Final score: "+scoreLabel(s.Score()), clock)
	feed.Message(SenderNurse, "Doctor... we've lost them. Time of death recorded. I'm so sorry.", clock)

	go r.deliverDebrief(s, feed, cause)
	return true
}

// ResolveCure transitions the session to cured, revealing the
// diagnosis. Returns false when a terminal state was already set.
func (r *Resolver) ResolveCure(s *session.Session, feed *Feed, reason string) bool {
	if !s.MarkCured(reason) {
		return false
	}
	r.metrics.CaseOutcomesTotal.WithLabelValues("cured").Inc()
	r.log.Info("patient cured",
		zap.String("session_id", s.ID.String()),
		zap.String("reason", reason),
		zap.Int("final_score", s.Score()),
	)

	clock := s.Clock()
	feed.VitalsSnapshot(s.Vitals(), clock)
	feed.Status("cured", "Patient stabilized: "+reason+". Final score: "+scoreLabel(s.Score()), clock)
	feed.Message(SenderNurse, "The patient is looking much better, doctor. Vitals are holding steady and they're ready for discharge planning.", clock)

	diagnosis := s.Case().Diagnosis
	go r.afterDelay(s, func() {
		feed.Message(SenderAttending,
			"Excellent work on this case. The diagnosis was "+diagnosis+". Your management brought the patient through safely.",
			s.Clock())
	})
	return true
}

// CheckAfterVitals runs the death and stability-cure checks that follow
// every vitals update.
func (r *Resolver) CheckAfterVitals(s *session.Session, feed *Feed) {
	if s.Terminal() {
		return
	}
	if cause, dead := DeathByVitals(s.Vitals()); dead {
		r.ResolveDeath(s, feed, cause)
		return
	}
	if reason, cured := RecoveryByStability(s); cured {
		r.ResolveCure(s, feed, reason)
	}
}

// CheckAfterOrder runs the checks that follow an order result and its
// evaluation. The evaluation may be nil when scoring failed.
func (r *Resolver) CheckAfterOrder(s *session.Session, feed *Feed, result string, ev *order.Evaluation) {
	if s.Terminal() {
		return
	}
	if ev != nil && ev.Outcome == order.OutcomeHarmful && ev.ScoreImpact <= -8 {
		r.ResolveDeath(s, feed, CauseFromNarrative(ev.Feedback+" "+result))
		return
	}
	if NarrativeIndicatesDeath(result) {
		r.ResolveDeath(s, feed, CauseFromNarrative(result))
		return
	}
	if reason, cured := RecoveryByNarrative(result, ev, s.Score()); cured {
		r.ResolveCure(s, feed, reason)
		return
	}
	if reason, cured := RecoveryByStability(s); cured {
		r.ResolveCure(s, feed, reason)
	}
}

// AutoResolve forces an outcome on a case that has run past the time
// ceiling: the sign of the score decides which way it goes.
func (r *Resolver) AutoResolve(s *session.Session, feed *Feed) {
	if s.Terminal() || !s.Active() {
		return
	}
	if s.Score() >= 0 {
		r.ResolveCure(s, feed, "Gradual stabilization over the course of care")
		return
	}
	r.ResolveDeath(s, feed, "Progressive deterioration without definitive treatment")
}

// deliverDebrief asks the attending to walk through what went wrong,
// after a short pause. A closed session or a failed model call degrades
// to a fixed debrief that still reveals the diagnosis.
func (r *Resolver) deliverDebrief(s *session.Session, feed *Feed, cause string) {
	time.Sleep(r.commentDelay)
	if s.Closed() {
		return
	}

	diagnosis := s.Case().Diagnosis
	fallback := "This is a difficult moment, but it's how we learn. The underlying diagnosis was " + diagnosis + ". Cause of death: " + cause + ". Let's review the timeline together and talk through what could have been done differently."

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	text, err := r.client.Complete(ctx, []llm.Message{
		{Role: "user", Content: prompt.DeathDebrief(s.Case(), cause, s.History())},
	})
	if s.Closed() {
		return
	}
	if err != nil {
		r.log.Warn("debrief generation failed", zap.Error(err))
		text = fallback
	}
	feed.Message(SenderAttending, text, s.Clock())
}

func (r *Resolver) afterDelay(s *session.Session, fn func()) {
	time.Sleep(r.commentDelay)
	if s.Closed() {
		return
	}
	fn()
}

func scoreLabel(score int) string {
	return strconv.Itoa(score)
}
