package v1

import (
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/codeblue/internal/domain/order"
	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"github.com/dmehra2102/codeblue/internal/service"
	"github.com/dmehra2102/codeblue/pkg/auth"
)

type GameHandler struct {
	games  *service.GameService
	tokens *auth.Manager
	log    *zap.Logger
}

func NewGameHandler(games *service.GameService, tokens *auth.Manager, log *zap.Logger) *GameHandler {
	return &GameHandler{games: games, tokens: tokens, log: log}
}

type startRequest struct {
	CaseType string `json:"case_type" binding:"required"`
}

type startResponse struct {
	SessionID string          `json:"session_id"`
	Token     string          `json:"token"`
	Case      caseView        `json:"case"`
	Events    []service.Event `json:"events"`
}

type caseView struct {
	Demographics   string `json:"demographics"`
	ChiefComplaint string `json:"chief_complaint"`
	History        string `json:"history"`
}

// Start begins a new case. The response carries the session token the
// client must present on every subsequent call.
func (h *GameHandler) Start(c *gin.Context) {
	var req startRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, feed, err := h.games.Start(c.Request.Context(), patient.CaseType(req.CaseType))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := h.tokens.Issue(sess.ID)
	if err != nil {
		h.log.Error("failed to issue session token", zap.Error(err))
		h.games.Reset(sess.ID)
		respondServiceError(c, err)
		return
	}

	pc := sess.Case()
	respondCreated(c, startResponse{
		SessionID: sess.ID.String(),
		Token:     token,
		Case: caseView{
			Demographics:   pc.Demographics,
			ChiefComplaint: pc.ChiefComplaint,
			History:        pc.History,
		},
		Events: feed.Drain(),
	})
}

// Reset abandons the current case.
func (h *GameHandler) Reset(c *gin.Context) {
	h.games.Reset(sessionID(c))
	respondOK(c, gin.H{"reset": true})
}

type stateResponse struct {
	Counters session.Counters   `json:"counters"`
	Clock    string             `json:"clock"`
	Vitals   patient.VitalSigns `json:"vitals"`
	Status   statusView         `json:"status"`
	Events   []service.Event    `json:"events"`
}

type statusView struct {
	Active       bool   `json:"active"`
	Deceased     bool   `json:"deceased"`
	Cured        bool   `json:"cured"`
	CauseOfDeath string `json:"cause_of_death,omitempty"`
	CureReason   string `json:"cure_reason,omitempty"`
	Diagnosis    string `json:"diagnosis,omitempty"`
}

// State is the client's poll endpoint: current counters and vitals
// plus every feed event since the previous poll. The diagnosis appears
// only once the case is terminal.
func (h *GameHandler) State(c *gin.Context) {
	id := sessionID(c)
	sess, err := h.games.Session(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	feed, err := h.games.Feed(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	deceased, cause := sess.Deceased()
	cured, reason := sess.Cured()
	status := statusView{
		Active:       sess.Active(),
		Deceased:     deceased,
		Cured:        cured,
		CauseOfDeath: cause,
		CureReason:   reason,
	}
	if deceased || cured {
		status.Diagnosis = sess.Case().Diagnosis
	}

	counters := sess.Counters()
	respondOK(c, stateResponse{
		Counters: counters,
		Clock:    session.FormatClock(counters.Time),
		Vitals:   sess.Vitals(),
		Status:   status,
		Events:   feed.Drain(),
	})
}

// PlaceOrder submits one clinical order.
func (h *GameHandler) PlaceOrder(c *gin.Context) {
	var details order.Details
	if !bindJSON(c, &details) {
		return
	}
	if !details.Kind.IsValid() {
		respondServiceError(c, order.ErrInvalidKind)
		return
	}

	if err := h.games.PlaceOrder(c.Request.Context(), sessionID(c), &details); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"accepted": true})
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat relays one free-text message to the attending or nurse.
func (h *GameHandler) Chat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.games.SendChat(c.Request.Context(), sessionID(c), req.Message); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"accepted": true})
}
