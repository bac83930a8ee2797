package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/rag-candidates/internal/models"
	"alfredoptarigan/rag-candidates/internal/repositories"
	"alfredoptarigan/rag-candidates/internal/services"
)

type IndexHandler struct {
	runRepo    repositories.IndexRunRepository
	worker     services.Worker
	indexer    services.Indexer
	collection string
}

// NewIndexHandler queues builds on the worker when runRepo is set and builds inline otherwise.
func NewIndexHandler(
	runRepo repositories.IndexRunRepository,
	worker services.Worker,
	indexer services.Indexer,
	collection string,
) *IndexHandler {
	return &IndexHandler{
		runRepo:    runRepo,
		worker:     worker,
		indexer:    indexer,
		collection: collection,
	}
}

// HandleIndex handles POST /index
func (h *IndexHandler) HandleIndex(c *fiber.Ctx) error {
	if h.runRepo == nil || h.worker == nil {
		info, err := h.indexer.Build(c.UserContext())
		if err != nil {
			if errors.Is(err, services.ErrNoCandidates) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(models.IndexRunResponse{
			Status:     string(models.StatusCompleted),
			Collection: h.collection,
			Result:     info,
		})
	}

	run := &models.IndexRun{
		ID:         uuid.New(),
		Collection: h.collection,
		Status:     models.StatusQueued,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := h.runRepo.Create(run); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create index job",
		})
	}

	h.worker.EnqueueJob(run.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.IndexResponse{
		ID:     run.ID.String(),
		Status: string(models.StatusQueued),
	})
}

// HandleGetIndexRun handles GET /index/:id
func (h *IndexHandler) HandleGetIndexRun(c *fiber.Ctx) error {
	if h.runRepo == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Index runs are not persisted",
		})
	}

	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid index run ID format",
		})
	}

	run, err := h.runRepo.FindByID(runID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Index run not found",
			})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	response := models.IndexRunResponse{
		ID:         run.ID.String(),
		Status:     string(run.Status),
		Collection: run.Collection,
	}

	if run.Status == models.StatusCompleted {
		response.Result = &models.IndexInfo{
			Candidates: derefInt(run.Candidates),
			Chunks:     derefInt(run.Chunks),
			Points:     derefInt(run.Points),
		}
		if run.Provider != nil {
			response.Result.Provider = *run.Provider
		}
	}

	if run.Status == models.StatusFailed && run.ErrorMessage != nil {
		response.ErrorMessage = run.ErrorMessage
	}

	return c.JSON(response)
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
