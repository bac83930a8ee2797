package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"alfredoptarigan/rag-candidates/internal/models"
)

var ErrSchemaValidation = errors.New("candidate record does not match schema")

type FieldError struct {
	Field   string
	Message string
}

// SchemaValidationError lists every schema violation found in one record.
type SchemaValidationError struct {
	Errors []FieldError
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *SchemaValidationError) Unwrap() error {
	return ErrSchemaValidation
}

type CandidateFactory interface {
	Validate(raw []byte) error
	// FromJSON validates and decodes a record. The candidate id comes from
	// GeneralInfo.CandidateId, or fallbackID when the record has none.
	FromJSON(raw []byte, fallbackID string) (*models.Candidate, error)
}

type candidateFactory struct {
	schema *gojsonschema.Schema
}

func NewCandidateFactory(loader ResourceLoader) (CandidateFactory, error) {
	raw, err := loader.CandidateSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate schema: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile candidate schema: %w", err)
	}
	return &candidateFactory{schema: schema}, nil
}

func (f *candidateFactory) Validate(raw []byte) error {
	result, err := f.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &SchemaValidationError{Errors: []FieldError{{Field: "(root)", Message: "invalid JSON: " + err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	verr := &SchemaValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}

func (f *candidateFactory) FromJSON(raw []byte, fallbackID string) (*models.Candidate, error) {
	if err := f.Validate(raw); err != nil {
		return nil, err
	}

	var record models.CandidateRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode candidate record: %w", err)
	}

	id := fallbackID
	if record.GeneralInfo != nil {
		if declared := strings.TrimSpace(record.GeneralInfo.CandidateID); declared != "" {
			id = declared
		}
	}
	if id == "" {
		return nil, errors.New("candidate record has no id")
	}

	return &models.Candidate{ID: id, Record: record, Raw: raw}, nil
}

// CandidateIDFromPath derives a fallback id from a record file name.
func CandidateIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
