package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mythos-labs/mythos-api/internal/envelope"
	"github.com/mythos-labs/mythos-api/internal/service"
)

type ChatHandler struct {
	service *service.ChatService
}

func NewChatHandler(service *service.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Handles POST /v1/chat. Admission has already run; the chat capability
// check happens here because it is per-endpoint, not per-request.
func (h *ChatHandler) Complete(c *gin.Context) {
	endpoint := c.Request.URL.Path

	callerTier := currentTier(c)
	if !callerTier.Chat {
		c.JSON(http.StatusForbidden, envelope.Err(endpoint,
			"Tier \""+callerTier.Name+"\" does not include chat access."))
		return
	}

	var req struct {
		Messages []service.ChatMessage `json:"messages"`
		Prompt   string                `json:"prompt"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope.Err(endpoint, "invalid chat request body"))
		return
	}

	messages := req.Messages
	if len(messages) == 0 && req.Prompt != "" {
		messages = []service.ChatMessage{{Role: "user", Content: req.Prompt}}
	}
	if len(messages) == 0 {
		c.JSON(http.StatusBadRequest, envelope.Err(endpoint, "chat requires messages or a prompt"))
		return
	}

	setQuotaHeaders(c)

	reply, err := h.service.Complete(c.Request.Context(), messages)
	if err != nil {
		if errors.Is(err, service.ErrChatUnavailable) {
			c.JSON(http.StatusBadGateway, envelope.Err(endpoint, "Chat is temporarily unavailable."))
			return
		}
		c.JSON(http.StatusBadGateway, envelope.Err(endpoint, "Chat upstream failed."))
		return
	}

	c.JSON(http.StatusOK, envelope.OK(endpoint, reply))
}
