// Package analysis extracts structured fields from salary certificates and
// bank statements, either in-process or through a remote endpoint that
// speaks the same JSON contract.
package analysis

import "context"

// ErrorType classifies an upload or analysis failure.
type ErrorType string

const (
	ErrorUpload        ErrorType = "UPLOAD_ERROR"
	ErrorServer        ErrorType = "SERVER_ERROR"
	ErrorUnreadablePDF ErrorType = "UNREADABLE_PDF"
	ErrorConversion    ErrorType = "CONVERSION_ERROR"
)

// ProcessingMethod records which path produced the extracted data.
type ProcessingMethod string

const (
	MethodTextExtraction ProcessingMethod = "text_extraction"
	MethodVisionAPI      ProcessingMethod = "vision_api"
	MethodPDFToImage     ProcessingMethod = "pdf_to_image"
)

// DocumentType is the declared kind of an uploaded document.
type DocumentType string

const (
	SalaryCertificate DocumentType = "salary_certificate"
	BankStatement     DocumentType = "bank_statement"
)

// Valid reports whether t is one of the supported document types.
func (t DocumentType) Valid() bool {
	return t == SalaryCertificate || t == BankStatement
}

// Request asks for one document to be analysed. Exactly one of FileURL and
// Images is set.
type Request struct {
	DocumentID       string           `json:"documentId"`
	FileURL          string           `json:"fileUrl,omitempty"`
	Images           []string         `json:"images,omitempty"`
	DocumentType     DocumentType     `json:"documentType"`
	ProcessingMethod ProcessingMethod `json:"processingMethod,omitempty"`
}

// Response is the analysis outcome. Error and Message are set only when
// Success is false.
type Response struct {
	Success          bool             `json:"success"`
	ExtractedData    map[string]any   `json:"extractedData,omitempty"`
	ConfidenceScore  float64          `json:"confidenceScore,omitempty"`
	ProcessingMethod ProcessingMethod `json:"processingMethod,omitempty"`
	Error            ErrorType        `json:"error,omitempty"`
	Message          string           `json:"message,omitempty"`
}

// Analyzer runs one analysis. A returned error means the call itself failed;
// a failed analysis is reported through Response.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Response, error)
}

func failure(kind ErrorType, message string) Response {
	return Response{Success: false, Error: kind, Message: message}
}
