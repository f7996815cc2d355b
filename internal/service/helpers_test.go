package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/config"
	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"github.com/dmehra2102/codeblue/internal/llm"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

// One collector per test binary; promauto registers globally.
var testMetrics = metrics.NewCollector("codeblue_test")

// fakeClient plays back scripted replies, or fails every call when err
// is set. Safe for the delayed-commentary goroutines.
type fakeClient struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func (f *fakeClient) Complete(_ context.Context, _ []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "OK", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		TickInterval:             time.Hour,
		VitalsEvery:              10,
		AutoResolveAfter:         7 * time.Minute,
		CostPerAction:            0.01,
		CriticalAlertChance:      0.7,
		HarmfulCommentChance:     0.8,
		UnnecessaryCommentChance: 0.4,
		PraiseChance:             0.3,
		CommentDelay:             0,
		FeedBuffer:               64,
	}
}

func newTestFeed() *Feed {
	return NewFeed(64, testMetrics, zap.NewNop())
}

func newTestResolver(client llm.Client) *Resolver {
	return NewResolver(client, testMetrics, zap.NewNop(), 0)
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(patient.CaseCardiac)
	s.Activate(patient.Case{
		Demographics:   "58-year-old male with hypertension",
		ChiefComplaint: "chest pain",
		History:        "Crushing substernal pain for one hour.",
		Diagnosis:      "Anterior STEMI",
	}, patient.Baseline())
	return s
}

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}
