// Package documents drives uploaded salary certificates and bank statements
// from storage through analysis, with a rasterized fallback for PDFs that
// have no readable text layer.
package documents

import (
	"errors"
	"time"

	"github.com/tamweel-auto/waitlist/internal/analysis"
	"github.com/tamweel-auto/waitlist/internal/i18n"
)

// Status is a step in an upload's lifecycle.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusConverting Status = "converting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var transitions = map[Status][]Status{
	StatusUploading:  {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusConverting, StatusCompleted, StatusFailed},
	StatusConverting: {StatusProcessing, StatusFailed},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var (
	ErrEmptyFile           = errors.New("file is empty")
	ErrInvalidDocumentType = errors.New("document type must be salary_certificate or bank_statement")
	ErrUnknownUpload       = errors.New("upload not tracked")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotFound            = errors.New("document upload not found")
)

// Upload is the tracked state of one document.
type Upload struct {
	ID                 string                    `json:"id"`
	FileName           string                    `json:"fileName"`
	FileSize           int64                     `json:"fileSize"`
	Extension          string                    `json:"extension"`
	Type               analysis.DocumentType     `json:"type"`
	Status             Status                    `json:"status"`
	Progress           int                       `json:"progress"`
	ExtractedData      map[string]any            `json:"extractedData,omitempty"`
	ConfidenceScore    float64                   `json:"confidenceScore,omitempty"`
	Error              string                    `json:"error,omitempty"`
	ErrorType          analysis.ErrorType        `json:"errorType,omitempty"`
	ProcessingMethod   analysis.ProcessingMethod `json:"processingMethod,omitempty"`
	ConversionProgress int                       `json:"conversionProgress,omitempty"`
	Locale             i18n.Locale               `json:"-"`
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

// File is an uploaded document as received.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Locale      i18n.Locale
}

// Record is the persisted document_uploads row.
type Record struct {
	ID               string
	FilePath         string
	FileName         string
	DocumentType     analysis.DocumentType
	ProcessingStatus Status
	ProcessingMethod analysis.ProcessingMethod
	ConfidenceScore  *float64
	ExtractedData    map[string]any
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
