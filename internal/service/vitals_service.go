package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/config"
	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"github.com/dmehra2102/codeblue/internal/llm"
	"github.com/dmehra2102/codeblue/internal/prompt"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

// VitalsService evolves the patient's physiology on the tick cadence.
// The model drives the drift; when it fails the vitals take a small
// clamped random walk instead, so the patient never flatlines just
// because the backend did.
type VitalsService struct {
	client   llm.Client
	resolver *Resolver
	metrics  *metrics.Collector
	log      *zap.Logger
	game     config.GameConfig
	rng      *rand.Rand
}

func NewVitalsService(client llm.Client, resolver *Resolver, m *metrics.Collector, log *zap.Logger, game config.GameConfig, rng *rand.Rand) *VitalsService {
	return &VitalsService{
		client:   client,
		resolver: resolver,
		metrics:  m,
		log:      log,
		game:     game,
		rng:      rng,
	}
}

// Update runs one physiology step: ask the model for new vitals, fall
// back to perturbation on failure, record the snapshot, then run the
// alerting and terminal checks. No-op on inactive or terminal sessions.
func (s *VitalsService) Update(ctx context.Context, sess *session.Session, feed *Feed) {
	if !sess.Active() || sess.Terminal() {
		return
	}

	current := sess.Vitals()
	updated, tier := s.nextVitals(ctx, sess, current)
	s.metrics.ExtractorTiersTotal.WithLabelValues("vitals_update", string(tier)).Inc()

	sess.SetVitals(updated)
	recorded := sess.Vitals()
	sess.AppendEvent(session.EventVitalsChecked, session.VitalsCheck{Vitals: recorded})
	feed.VitalsSnapshot(recorded, sess.Clock())

	s.maybeAlert(recorded, feed, sess.Clock())
	s.resolver.CheckAfterVitals(sess, feed)
}

func (s *VitalsService) nextVitals(ctx context.Context, sess *session.Session, current patient.VitalSigns) (patient.VitalSigns, llm.Tier) {
	start := time.Now()
	text, err := s.client.Complete(ctx, []llm.Message{
		{Role: "user", Content: prompt.VitalsUpdate(sess.Case(), current, sess.RecentHistory(5), sess.Clock())},
	})
	s.metrics.ModelDuration.WithLabelValues("vitals_update").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ModelRequestsTotal.WithLabelValues("vitals_update", "error").Inc()
		s.log.Warn("vitals update failed, perturbing instead", zap.Error(err))
		return s.perturb(current), llm.TierDefault
	}
	s.metrics.ModelRequestsTotal.WithLabelValues("vitals_update", "ok").Inc()

	// Model-supplied vitals pass through unclamped: values outside the
	// simulation bounds are the death-detection trigger, not a validity
	// error. Only the perturbation fallback clamps.
	v, tier := llm.Vitals(text)
	v.RecomputeMAP()
	return v, tier
}

// perturb applies a small bounded random step to each vital.
func (s *VitalsService) perturb(v patient.VitalSigns) patient.VitalSigns {
	v.HR += s.step(5)
	v.BPSystolic += s.step(8)
	v.BPDiastolic += s.step(5)
	v.RR += s.step(2)
	v.Temp += s.step(1) * 0.1
	v.O2Sat += s.step(2)
	v.Clamp()
	v.RecomputeMAP()
	return v
}

// step returns a uniform integer step in [-n, n].
func (s *VitalsService) step(n int) float64 {
	return float64(s.rng.Intn(2*n+1) - n)
}

type criticalCheck struct {
	triggered bool
	message   string
}

// maybeAlert has the nurse comment on one critical vital. When several
// vitals qualify the pick is random, and the whole alert only fires
// with the configured probability so the nurse does not repeat herself
// every tick.
func (s *VitalsService) maybeAlert(v patient.VitalSigns, feed *Feed, clock int) {
	checks := []criticalCheck{
		{v.HR < 40, fmt.Sprintf("Doctor, the heart rate is critically low at %.0f!", v.HR)},
		{v.HR > 130, fmt.Sprintf("Doctor, the heart rate is very high at %.0f!", v.HR)},
		{v.BPSystolic < 90, fmt.Sprintf("Doctor, the blood pressure is dropping, systolic is %.0f!", v.BPSystolic)},
		{v.BPSystolic > 180, fmt.Sprintf("Doctor, the blood pressure is dangerously high at %.0f systolic!", v.BPSystolic)},
		{v.RR < 8, fmt.Sprintf("Doctor, the respiratory rate is very low at %.0f!", v.RR)},
		{v.RR > 30, fmt.Sprintf("Doctor, the patient is breathing very fast at %.0f per minute!", v.RR)},
		{v.Temp < 35, fmt.Sprintf("Doctor, the patient is hypothermic at %.1f°C!", v.Temp)},
		{v.Temp > 39.5, fmt.Sprintf("Doctor, the patient has a high fever at %.1f°C!", v.Temp)},
		{v.O2Sat < 90, fmt.Sprintf("Doctor, the oxygen saturation is dropping, now at %.0f%%!", v.O2Sat)},
	}

	var qualifying []string
	for _, c := range checks {
		if c.triggered {
			qualifying = append(qualifying, c.message)
		}
	}
	if len(qualifying) == 0 {
		return
	}
	if s.rng.Float64() >= s.game.CriticalAlertChance {
		return
	}
	feed.Alert(qualifying[s.rng.Intn(len(qualifying))], clock)
}
