package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/config"
	"github.com/dmehra2102/codeblue/internal/domain/order"
	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

// GameService orchestrates a session's lifecycle: start, the tick loop,
// order and chat delegation, and reset. It owns the per-session feed
// and the tick cancellation; everything else is delegated to the
// specialized services.
type GameService struct {
	repo     session.Repository
	cases    *CaseService
	vitals   *VitalsService
	orders   *OrderService
	chat     *ChatService
	resolver *Resolver
	metrics  *metrics.Collector
	log      *zap.Logger
	game     config.GameConfig

	mu      sync.Mutex
	feeds   map[uuid.UUID]*Feed
	cancels map[uuid.UUID]context.CancelFunc
}

func NewGameService(
	repo session.Repository,
	cases *CaseService,
	vitals *VitalsService,
	orders *OrderService,
	chat *ChatService,
	resolver *Resolver,
	m *metrics.Collector,
	log *zap.Logger,
	game config.GameConfig,
) *GameService {
	return &GameService{
		repo:     repo,
		cases:    cases,
		vitals:   vitals,
		orders:   orders,
		chat:     chat,
		resolver: resolver,
		metrics:  m,
		log:      log,
		game:     game,
		feeds:    make(map[uuid.UUID]*Feed),
		cancels:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start creates a session, generates its case, seeds the timeline, and
// launches the tick loop. Case generation never fails (fallback case),
// so Start only errors on an invalid case type.
func (g *GameService) Start(ctx context.Context, caseType patient.CaseType) (*session.Session, *Feed, error) {
	if !caseType.IsValid() {
		return nil, nil, patient.ErrInvalidCaseType
	}

	sess := session.New(caseType)
	feed := NewFeed(g.game.FeedBuffer, g.metrics, g.log)

	c, v, _ := g.cases.Generate(ctx, caseType)
	sess.Activate(c, v)
	sess.AppendEvent(session.EventCaseStarted, nil)
	g.repo.Create(sess)

	loopCtx, cancel := context.WithCancel(context.Background())
	g.mu.Lock()
	g.feeds[sess.ID] = feed
	g.cancels[sess.ID] = cancel
	g.mu.Unlock()

	g.metrics.CasesStartedTotal.WithLabelValues(string(caseType)).Inc()
	g.log.Info("case started",
		zap.String("session_id", sess.ID.String()),
		zap.String("case_type", string(caseType)),
	)

	feed.System("New patient in bed 3. "+c.Demographics+".", 0)
	feed.System("Chief complaint: "+c.ChiefComplaint, 0)
	feed.Message(SenderNurse, "Patient is ready for you, doctor. I'll keep an eye on the monitors.", 0)
	feed.Message(SenderAttending, "Take the lead on this one. Work through the history and order what you need; I'm here if you want to talk it through.", 0)
	feed.VitalsSnapshot(sess.Vitals(), 0)

	go g.runTicks(loopCtx, sess, feed)
	return sess, feed, nil
}

// Reset abandons a session: the tick loop stops, the session is closed
// so in-flight model calls drop their results, and the feed is
// released.
func (g *GameService) Reset(id uuid.UUID) {
	g.mu.Lock()
	cancel, ok := g.cancels[id]
	delete(g.cancels, id)
	delete(g.feeds, id)
	g.mu.Unlock()
	if ok {
		cancel()
	}

	if sess, err := g.repo.Get(id); err == nil && !sess.Terminal() {
		g.metrics.CaseOutcomesTotal.WithLabelValues("abandoned").Inc()
	}
	g.repo.Delete(id)
	g.log.Info("session reset", zap.String("session_id", id.String()))
}

// Session resolves a live session by ID.
func (g *GameService) Session(id uuid.UUID) (*session.Session, error) {
	return g.repo.Get(id)
}

// Feed resolves the presentation feed for a live session.
func (g *GameService) Feed(id uuid.UUID) (*Feed, error) {
	if _, err := g.repo.Get(id); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	feed, ok := g.feeds[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return feed, nil
}

// PlaceOrder submits an order against a live session.
func (g *GameService) PlaceOrder(ctx context.Context, id uuid.UUID, details *order.Details) error {
	sess, err := g.repo.Get(id)
	if err != nil {
		return err
	}
	feed, err := g.Feed(id)
	if err != nil {
		return err
	}
	return g.orders.Place(ctx, sess, feed, details)
}

// SendChat relays a chat message against a live session.
func (g *GameService) SendChat(ctx context.Context, id uuid.UUID, raw string) error {
	sess, err := g.repo.Get(id)
	if err != nil {
		return err
	}
	feed, err := g.Feed(id)
	if err != nil {
		return err
	}
	return g.chat.Send(ctx, sess, feed, raw)
}

// runTicks drives the in-game clock. Every VitalsEvery ticks one
// physiology update runs (at most one at a time; a slow model call is
// skipped over, not queued behind), and past the auto-resolve ceiling
// the resolver forces an outcome. The loop exits on cancel or when the
// case goes terminal.
func (g *GameService) runTicks(ctx context.Context, sess *session.Session, feed *Feed) {
	ticker := time.NewTicker(g.game.TickInterval)
	defer ticker.Stop()

	ceiling := int(g.game.AutoResolveAfter / time.Second)
	var vitalsBusy atomic.Bool

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		clock, ok := sess.AdvanceClock()
		if !ok {
			if sess.Closed() || sess.Terminal() {
				return
			}
			continue
		}

		if clock >= ceiling {
			g.resolver.AutoResolve(sess, feed)
			return
		}

		if clock%g.game.VitalsEvery == 0 && vitalsBusy.CompareAndSwap(false, true) {
			go func() {
				defer vitalsBusy.Store(false)
				g.vitals.Update(ctx, sess, feed)
			}()
		}
	}
}
