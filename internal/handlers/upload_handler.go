package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/rag-candidates/internal/models"
	"alfredoptarigan/rag-candidates/internal/repositories"
	"alfredoptarigan/rag-candidates/internal/services"
)

type UploadHandler struct {
	fileRepo       repositories.CandidateFileRepository
	storageService services.StorageService
	factory        services.CandidateFactory
	pdfParser      services.PDFParserService
	maxFileSize    int64
	log            *zap.Logger
}

// NewUploadHandler stores uploads in the indexer's input directory. fileRepo may be nil.
func NewUploadHandler(
	fileRepo repositories.CandidateFileRepository,
	storageService services.StorageService,
	factory services.CandidateFactory,
	pdfParser services.PDFParserService,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadHandler{
		fileRepo:       fileRepo,
		storageService: storageService,
		factory:        factory,
		pdfParser:      pdfParser,
		maxFileSize:    maxFileSize,
		log:            log,
	}
}

// HandleUpload handles POST /candidates with a required "record" JSON file and an
// optional "resume" PDF.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	recordFiles := form.File["record"]
	if len(recordFiles) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Please upload the candidate record as 'record'",
		})
	}
	recordFile := recordFiles[0]
	if recordFile.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Record file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	raw, err := readUpload(recordFile)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	candidate, err := h.factory.FromJSON(raw, services.CandidateIDFromPath(recordFile.Filename))
	if err != nil {
		var schemaErr *services.SchemaValidationError
		if errors.As(err, &schemaErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Candidate record failed schema validation",
				"details": schemaErr.Errors,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	recordPath, err := h.storageService.SaveRecord(candidate.ID, raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save record: %v", err),
		})
	}

	entry := models.CandidateFile{
		ID:          uuid.New(),
		CandidateID: candidate.ID,
		RecordPath:  recordPath,
		CreatedAt:   time.Now(),
	}

	if resumes := form.File["resume"]; len(resumes) > 0 {
		resumePath, err := h.saveResume(candidate.ID, resumes[0])
		if err != nil {
			_ = h.storageService.DeleteFile(recordPath)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		entry.ResumePath = &resumePath
		entry.OriginalResume = &resumes[0].Filename
	}

	if h.fileRepo != nil {
		if err := h.fileRepo.Create(&entry); err != nil {
			h.log.Warn("Failed to record candidate upload",
				zap.String("candidate_id", candidate.ID),
				zap.Error(err),
			)
		}
	}

	response := models.UploadResponse{
		ID:          entry.ID.String(),
		CandidateID: candidate.ID,
		RecordFile:  recordPath,
	}
	if entry.ResumePath != nil {
		response.ResumeFile = *entry.ResumePath
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// saveResume stores the PDF and checks that text can be extracted from it.
func (h *UploadHandler) saveResume(candidateID string, file *multipart.FileHeader) (string, error) {
	if file.Size > h.maxFileSize {
		return "", fmt.Errorf("resume file too large. Max size: %d bytes", h.maxFileSize)
	}

	path, err := h.storageService.SaveResume(candidateID, file)
	if err != nil {
		return "", fmt.Errorf("failed to save resume: %w", err)
	}

	if h.pdfParser != nil {
		content, err := h.pdfParser.Extract(path)
		if err != nil {
			_ = h.storageService.DeleteFile(path)
			return "", fmt.Errorf("failed to read resume: %w", err)
		}
		h.log.Debug("Resume stored",
			zap.String("candidate_id", candidateID),
			zap.Int("pages", content.PageCount),
		)
	}
	return path, nil
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return raw, nil
}
