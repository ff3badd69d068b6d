package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	services "github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// HandleChat answers one question in an existing chat.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var chatRequest types.ChatRequest
	if err := c.ShouldBindJSON(&chatRequest); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}

	answer, err := h.chatService.Ask(c.Request.Context(), &chatRequest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   answer,
	})
}
