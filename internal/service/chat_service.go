package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/config"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"github.com/dmehra2102/codeblue/internal/llm"
	"github.com/dmehra2102/codeblue/internal/prompt"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

// ChatService relays free-text messages between the resident and the
// simulated attending or nurse. A "@md" prefix addresses the attending,
// "@rn" the nurse; no prefix defaults to the attending. Each message
// costs one action like any other intervention.
type ChatService struct {
	client  llm.Client
	metrics *metrics.Collector
	log     *zap.Logger
	game    config.GameConfig
}

func NewChatService(client llm.Client, m *metrics.Collector, log *zap.Logger, game config.GameConfig) *ChatService {
	return &ChatService{client: client, metrics: m, log: log, game: game}
}

// ParseRecipient splits the routing prefix off a raw chat message.
func ParseRecipient(raw string) (prompt.Recipient, string) {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "@md:"):
		return prompt.RecipientAttending, strings.TrimSpace(trimmed[4:])
	case strings.HasPrefix(lower, "@md "):
		return prompt.RecipientAttending, strings.TrimSpace(trimmed[4:])
	case strings.HasPrefix(lower, "@rn:"):
		return prompt.RecipientNurse, strings.TrimSpace(trimmed[4:])
	case strings.HasPrefix(lower, "@rn "):
		return prompt.RecipientNurse, strings.TrimSpace(trimmed[4:])
	}
	return prompt.RecipientAttending, trimmed
}

// Send relays one message and publishes the reply. A model failure
// degrades to a visible system message; the session carries on.
func (s *ChatService) Send(ctx context.Context, sess *session.Session, feed *Feed, raw string) error {
	if !sess.Active() {
		return session.ErrNotActive
	}
	recipient, message := ParseRecipient(raw)
	if message == "" {
		return nil
	}

	sess.AddCost(s.game.CostPerAction)
	feed.Message(SenderPlayer, message, sess.Clock())
	sess.AppendEvent("Message to "+string(recipient)+": "+message, nil)

	start := time.Now()
	reply, err := s.client.Complete(ctx, []llm.Message{
		{Role: "user", Content: prompt.ChatResponse(recipient, message, sess.Case(), sess.Vitals(), sess.RecentHistory(5))},
	})
	s.metrics.ModelDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
	if sess.Closed() {
		return nil
	}
	if err != nil {
		s.metrics.ModelRequestsTotal.WithLabelValues("chat", "error").Inc()
		s.log.Warn("chat reply failed", zap.Error(err))
		feed.Error("No response received. Please try again.", sess.Clock())
		return nil
	}
	s.metrics.ModelRequestsTotal.WithLabelValues("chat", "ok").Inc()

	sender := SenderAttending
	if recipient == prompt.RecipientNurse {
		sender = SenderNurse
	}
	feed.Message(sender, reply, sess.Clock())
	return nil
}
