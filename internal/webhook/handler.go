package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/internal/http/response"
	"github.com/lrz80/chatbot-backend-sub001/platform/httpkit"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
	"github.com/lrz80/chatbot-backend-sub001/platform/validator"
)

// Handler serves the inbound webhook plus the ops endpoints for inspecting
// and steering a conversation.
type Handler struct {
	turns     *conversation.Service
	activator *conversation.OverrideActivator
	states    conversation.StateStore
	clients   conversation.ClientStore
	validate  *validator.Validator
	log       *logger.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(
	turns *conversation.Service,
	activator *conversation.OverrideActivator,
	states conversation.StateStore,
	clients conversation.ClientStore,
	validate *validator.Validator,
	log *logger.Logger,
) *Handler {
	return &Handler{
		turns:     turns,
		activator: activator,
		states:    states,
		clients:   clients,
		validate:  validate,
		log:       log,
	}
}

// HandleInbound processes one channel message end to end. A non-2xx status
// tells the channel to redeliver; the message dedup makes redelivery safe.
func (h *Handler) HandleInbound(c *gin.Context) {
	tenantID, ok := tenantIDFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	result, err := h.turns.HandleTurn(c.Request.Context(), conversation.InboundMessage{
		TenantID:  tenantID,
		Canal:     conversation.Canal(req.Canal),
		Contact:   req.Contacto,
		MessageID: req.MessageID,
		Text:      req.Texto,
	})
	if err != nil {
		h.log.Error("turn failed", "error", err, "canal", req.Canal)
		response.FromError(c, err)
		return
	}

	response.OK(c, TurnResponse{
		Handled: result.Handled,
		Outcome: outcomeString(result.Outcome),
		Reason:  result.Reason,
		Intent:  result.Intent,
		Reply:   result.ReplyText,
		Source:  result.Source,
	})
}

// HandleOverrideActivate pauses the bot for a contact from the ops panel.
func (h *Handler) HandleOverrideActivate(c *gin.Context) {
	tenantID, ok := opsTenantIDFrom(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "token has no tenant", nil)
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "ops_manual"
	}

	activated, err := h.activator.Activate(c.Request.Context(), tenantID,
		conversation.Canal(req.Canal), req.Contacto, req.Minutes, reason, "ops", "")
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"activated": activated})
}

// HandleOverrideClear resumes the bot for a contact.
func (h *Handler) HandleOverrideClear(c *gin.Context) {
	tenantID, ok := opsTenantIDFrom(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "token has no tenant", nil)
		return
	}

	var query ContactQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	if err := h.clients.ClearOverride(c.Request.Context(), tenantID,
		conversation.Canal(query.Canal), query.Contacto); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"cleared": true})
}

// HandleState returns the conversation state and client record for a contact.
func (h *Handler) HandleState(c *gin.Context) {
	tenantID, ok := opsTenantIDFrom(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "token has no tenant", nil)
		return
	}

	var query ContactQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	canal := conversation.Canal(query.Canal)
	state, err := h.states.Get(c.Request.Context(), tenantID, canal, query.Contacto)
	if err != nil {
		response.FromError(c, err)
		return
	}
	client, err := h.clients.Get(c.Request.Context(), tenantID, canal, query.Contacto)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{
		"active_flow":          state.ActiveFlow,
		"active_step":          state.ActiveStep,
		"context":              state.Context,
		"estado":               client.Estado,
		"human_override":       client.HumanOverride,
		"human_override_until": client.HumanOverrideUntil,
		"awaiting_field":       client.AwaitingField,
		"lang":                 client.Lang,
	})
}

func opsTenantIDFrom(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(httpkit.ContextTenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

func outcomeString(outcome conversation.GateOutcome) string {
	switch outcome {
	case conversation.OutcomeReply:
		return "reply"
	case conversation.OutcomeSilence:
		return "silence"
	default:
		return "continue"
	}
}
