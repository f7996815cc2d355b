package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/config"
	"github.com/dmehra2102/codeblue/internal/domain/order"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"github.com/dmehra2102/codeblue/internal/llm"
	"github.com/dmehra2102/codeblue/internal/prompt"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

// Fixed replies for orders that arrive after the case has ended. They
// cost nothing and never reach the model.
const (
	msgOrderAfterDeath = "Cannot process new orders. The patient is in cardiac arrest."
	msgOrderAfterCure  = "Order placed, but patient is already stabilized and ready for discharge."
)

// OrderService runs the order pipeline: validate, record, charge,
// narrate, evaluate, score, resolve. One order at a time per session;
// a second submission while one is processing is rejected.
type OrderService struct {
	client   llm.Client
	resolver *Resolver
	metrics  *metrics.Collector
	log      *zap.Logger
	game     config.GameConfig
	rng      *rand.Rand
}

func NewOrderService(client llm.Client, resolver *Resolver, m *metrics.Collector, log *zap.Logger, game config.GameConfig, rng *rand.Rand) *OrderService {
	return &OrderService{
		client:   client,
		resolver: resolver,
		metrics:  m,
		log:      log,
		game:     game,
		rng:      rng,
	}
}

// Place submits one order. Validation failures return before any state
// mutation or model call. A terminal session gets the fixed
// short-circuit message instead of a narrative.
func (s *OrderService) Place(ctx context.Context, sess *session.Session, feed *Feed, details *order.Details) error {
	if missing := details.MissingFields(); len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}

	if err := sess.BeginOrder(); err != nil {
		switch {
		case errors.Is(err, session.ErrPatientDeceased):
			feed.System(msgOrderAfterDeath, sess.Clock())
		case errors.Is(err, session.ErrPatientCured):
			feed.System(msgOrderAfterCure, sess.Clock())
		}
		return err
	}
	defer sess.EndOrder()

	s.metrics.OrdersTotal.WithLabelValues(string(details.Kind)).Inc()

	summary := details.Summary()
	sess.AppendEvent("Ordered "+string(details.Kind)+": "+summary, details)
	sess.AddCost(s.game.CostPerAction)
	feed.Message(SenderPlayer, "Ordered: "+summary, sess.Clock())

	result, err := s.narrate(ctx, sess, details)
	if sess.Closed() {
		return nil
	}
	if err != nil {
		feed.Error("Unable to retrieve the order result. Please try again.", sess.Clock())
		return nil
	}

	sess.AppendEvent("Result received", session.ResultReceived{Order: details, Result: result})
	feed.Result(result, sess.Clock())

	ev := s.evaluate(ctx, sess, details, result)
	if sess.Closed() {
		return nil
	}
	if ev != nil {
		s.metrics.OrderOutcomesTotal.WithLabelValues(string(ev.Outcome)).Inc()
		sess.ApplyScoreDelta(ev.ScoreImpact)
	} else {
		s.metrics.OrderOutcomesTotal.WithLabelValues("unscored").Inc()
	}

	s.resolver.CheckAfterOrder(sess, feed, result, ev)
	if !sess.Terminal() && ev != nil {
		s.maybeComment(sess, feed, details, ev)
	}
	return nil
}

func (s *OrderService) narrate(ctx context.Context, sess *session.Session, details *order.Details) (string, error) {
	start := time.Now()
	text, err := s.client.Complete(ctx, []llm.Message{
		{Role: "user", Content: prompt.OrderResult(sess.Case(), sess.Vitals(), sess.RecentHistory(8), details)},
	})
	s.metrics.ModelDuration.WithLabelValues("order_result").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ModelRequestsTotal.WithLabelValues("order_result", "error").Inc()
		s.log.Warn("order result generation failed",
			zap.String("kind", string(details.Kind)),
			zap.Error(err),
		)
		return "", err
	}
	s.metrics.ModelRequestsTotal.WithLabelValues("order_result", "ok").Inc()
	return text, nil
}

// evaluate returns nil when no judgment could be recovered; the order
// then goes unscored rather than guessing a penalty.
func (s *OrderService) evaluate(ctx context.Context, sess *session.Session, details *order.Details, result string) *order.Evaluation {
	start := time.Now()
	text, err := s.client.Complete(ctx, []llm.Message{
		{Role: "user", Content: prompt.OrderEvaluation(sess.Case(), sess.Vitals(), sess.RecentHistory(8), details, result)},
	})
	s.metrics.ModelDuration.WithLabelValues("order_evaluation").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ModelRequestsTotal.WithLabelValues("order_evaluation", "error").Inc()
		s.log.Warn("order evaluation failed", zap.Error(err))
		return nil
	}
	s.metrics.ModelRequestsTotal.WithLabelValues("order_evaluation", "ok").Inc()

	ev, tier, ok := llm.Evaluation(text)
	s.metrics.ExtractorTiersTotal.WithLabelValues("order_evaluation", string(tier)).Inc()
	if !ok {
		s.log.Warn("order evaluation unrecoverable, leaving order unscored")
		return nil
	}
	return &ev
}

// maybeComment delivers delayed attending or nurse commentary on the
// order. Harmful and unnecessary orders draw criticism, a clean
// appropriate order sometimes draws praise.
func (s *OrderService) maybeComment(sess *session.Session, feed *Feed, details *order.Details, ev *order.Evaluation) {
	var sender Sender
	var text string

	switch {
	case ev.Outcome == order.OutcomeHarmful && s.rng.Float64() < s.game.HarmfulCommentChance:
		sender = SenderAttending
		text = "Hold on. " + ev.Feedback + " We need to be much more careful here."
	case ev.Outcome == order.OutcomeUnnecessary && s.rng.Float64() < s.game.UnnecessaryCommentChance:
		sender = SenderAttending
		text = "Was that really indicated? " + ev.Feedback
	case ev.Outcome == order.OutcomeAppropriate && ev.ScoreImpact == 0 && s.rng.Float64() < s.game.PraiseChance:
		sender = SenderNurse
		text = "Good call on the " + details.Summary() + ", doctor."
	default:
		return
	}

	go func() {
		time.Sleep(s.game.CommentDelay)
		if sess.Closed() || sess.Terminal() {
			return
		}
		feed.Message(sender, text, sess.Clock())
	}()
}
