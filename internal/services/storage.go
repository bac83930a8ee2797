package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrInvalidCandidateID = errors.New("candidate id contains no usable characters")
)

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// StorageService writes uploaded candidate records and resumes into the input directory
// the indexer reads from. Both files are named after the candidate id.
type StorageService interface {
	EnsureUploadDir() error
	SaveRecord(candidateID string, content []byte) (string, error)
	SaveResume(candidateID string, file *multipart.FileHeader) (string, error)
	ResumePath(recordPath string) string
	DeleteFile(path string) error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

func (s *storageService) SaveRecord(candidateID string, content []byte) (string, error) {
	name, err := safeFileStem(candidateID)
	if err != nil {
		return "", err
	}
	if err := s.EnsureUploadDir(); err != nil {
		return "", err
	}

	filePath := filepath.Join(s.uploadPath, name+".json")
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to save record: %w", err)
	}
	return filePath, nil
}

func (s *storageService) SaveResume(candidateID string, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileType, ext)
	}
	name, err := safeFileStem(candidateID)
	if err != nil {
		return "", err
	}
	if err := s.EnsureUploadDir(); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	filePath := filepath.Join(s.uploadPath, name+ext)
	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return filePath, nil
}

// ResumePath returns the PDF that sits next to a record file, or "" when there is none.
func (s *storageService) ResumePath(recordPath string) string {
	candidate := strings.TrimSuffix(recordPath, filepath.Ext(recordPath)) + ".pdf"
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return ""
}

func (s *storageService) DeleteFile(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func safeFileStem(candidateID string) (string, error) {
	stem := strings.Trim(unsafeIDChars.ReplaceAllString(strings.TrimSpace(candidateID), "_"), "._")
	if stem == "" {
		return "", ErrInvalidCandidateID
	}
	return stem, nil
}
