package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/llm"
	"github.com/dmehra2102/codeblue/internal/prompt"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

// CaseService generates the initial patient presentation. It owns the
// availability-over-fidelity rule for case creation: a transport
// failure or an unrecoverable payload substitutes the fixed fallback
// case so the session always starts.
type CaseService struct {
	client  llm.Client
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewCaseService(client llm.Client, m *metrics.Collector, log *zap.Logger) *CaseService {
	return &CaseService{client: client, metrics: m, log: log}
}

// Generate produces one case of the requested archetype. It never
// fails; the degraded tiers are visible in the returned Tier and in the
// extractor metrics.
func (s *CaseService) Generate(ctx context.Context, caseType patient.CaseType) (patient.Case, patient.VitalSigns, llm.Tier) {
	start := time.Now()
	text, err := s.client.Complete(ctx, []llm.Message{
		{Role: "user", Content: prompt.CaseGeneration(caseType)},
	})
	s.metrics.ModelDuration.WithLabelValues("case_generation").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ModelRequestsTotal.WithLabelValues("case_generation", "error").Inc()
		s.metrics.ExtractorTiersTotal.WithLabelValues("case_generation", string(llm.TierDefault)).Inc()
		s.log.Warn("case generation failed, using fallback case",
			zap.String("case_type", string(caseType)),
			zap.Error(err),
		)
		c, v := patient.FallbackCase()
		return c, v, llm.TierDefault
	}
	s.metrics.ModelRequestsTotal.WithLabelValues("case_generation", "ok").Inc()

	c, v, tier := llm.Case(text)
	s.metrics.ExtractorTiersTotal.WithLabelValues("case_generation", string(tier)).Inc()
	if tier != llm.TierParsed {
		s.log.Warn("case payload needed recovery",
			zap.String("tier", string(tier)),
			zap.String("case_type", string(caseType)),
		)
	}

	// Model vitals pass through unclamped; values outside the simulation
	// bounds are the death-detection trigger.
	v.RecomputeMAP()
	return c, v, tier
}
