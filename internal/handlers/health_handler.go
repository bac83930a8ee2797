package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/rag-candidates/internal/models"
	"alfredoptarigan/rag-candidates/internal/services"
)

type HealthHandler struct {
	store      services.VectorStore
	collection string
}

func NewHealthHandler(store services.VectorStore, collection string) *HealthHandler {
	return &HealthHandler{store: store, collection: collection}
}

// HandleHealth reports the point count. A missing collection is healthy with zero points.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	points, err := h.store.Count(c.UserContext(), h.collection)
	if err != nil && !errors.Is(err, services.ErrCollectionNotFound) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(models.HealthResponse{
		Status:      "healthy",
		Collection:  h.collection,
		Points:      points,
		VectorStore: h.store.Name(),
	})
}
