package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/rag-candidates/internal/repositories"
)

type ChatLogHandler struct {
	chatLogRepo repositories.ChatLogRepository
}

func NewChatLogHandler(chatLogRepo repositories.ChatLogRepository) *ChatLogHandler {
	return &ChatLogHandler{
		chatLogRepo: chatLogRepo,
	}
}

// HandleGetChatLog handles GET /chat/:id
func (h *ChatLogHandler) HandleGetChatLog(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chat log ID format",
		})
	}

	entry, err := h.chatLogRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Chat log not found",
			})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(entry)
}
