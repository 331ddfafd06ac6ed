package handlers

import (
	"net/http"

	"meetsy/models"
	"meetsy/services/engine"
	"meetsy/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler exposes the conversational booking engine over HTTP.
type ChatHandler struct {
	Engine *engine.Engine
	Logger *zap.Logger
}

func NewChatHandler(eng *engine.Engine, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{Engine: eng, Logger: logger}
}

// HandleChat processes one conversation turn. An empty sessionId starts a
// new session; the minted id comes back in the response.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var input struct {
		SessionID string `json:"sessionId"`
		Text      string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	resp, err := h.Engine.HandleTurn(c.Request.Context(), input.SessionID, input.Text)
	if err != nil {
		switch models.KindOf(err) {
		case models.KindSessionExpired:
			utils.JSONError(c, http.StatusGone, "session expired", err.Error())
		case models.KindGatewayUnavailable:
			utils.JSONError(c, http.StatusServiceUnavailable, "calendar service unavailable", err.Error())
		default:
			h.Logger.Error("chat turn failed",
				zap.String("sessionId", input.SessionID), zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "failed to process message", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
