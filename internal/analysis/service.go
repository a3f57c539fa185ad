package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/tamweel-auto/waitlist/internal/ai/gemini"
	"github.com/tamweel-auto/waitlist/internal/logging"
	"github.com/tamweel-auto/waitlist/internal/storage"
)

const (
	defaultMaxTextPages = 10
	maxPromptText       = 30000
)

// Service analyses documents in-process.
type Service struct {
	model        gemini.Extractor
	fetcher      storage.Fetcher
	logger       *slog.Logger
	maxTextPages int
}

// NewService builds an analyser that downloads fileUrl inputs with fetcher
// and extracts fields with model.
func NewService(model gemini.Extractor, fetcher storage.Fetcher, logger *slog.Logger) *Service {
	return &Service{model: model, fetcher: fetcher, logger: logger, maxTextPages: defaultMaxTextPages}
}

// Analyze implements Analyzer. Failures are reported in the Response; the
// error return is always nil.
func (s *Service) Analyze(ctx context.Context, req Request) (Response, error) {
	log := logging.FromContext(ctx, s.logger).With(
		slog.String("document_id", req.DocumentID),
		slog.String("document_type", string(req.DocumentType)),
	)

	if !req.DocumentType.Valid() {
		return failure(ErrorServer, fmt.Sprintf("unsupported document type %q", req.DocumentType)), nil
	}

	switch {
	case len(req.Images) > 0:
		method := req.ProcessingMethod
		if method == "" {
			method = MethodVisionAPI
		}
		attachments, err := decodeImages(req.Images)
		if err != nil {
			log.Warn("invalid image payload", slog.Any("error", err))
			return failure(ErrorServer, err.Error()), nil
		}
		return s.extract(ctx, log, promptFor(req.DocumentType), method, attachments...), nil

	case req.FileURL != "":
		data, err := s.fetcher.Fetch(ctx, req.FileURL)
		if err != nil {
			log.Error("download document failed", slog.Any("error", err))
			return failure(ErrorServer, "could not download document"), nil
		}
		if isPDF(data) {
			return s.analyzePDF(ctx, log, req.DocumentType, data), nil
		}
		attachment := gemini.Attachment{MIMEType: gemini.DetectMIMEType(data), Data: data}
		return s.extract(ctx, log, promptFor(req.DocumentType), MethodVisionAPI, attachment), nil
	}

	return failure(ErrorServer, "either fileUrl or images is required"), nil
}

func (s *Service) analyzePDF(ctx context.Context, log *slog.Logger, docType DocumentType, data []byte) Response {
	pages, err := pageCount(data)
	if err != nil {
		log.Warn("pdf failed validation", slog.Any("error", err))
		return failure(ErrorUnreadablePDF, "PDF text extraction failed: "+err.Error())
	}

	text, err := extractText(data, s.maxTextPages)
	if err != nil {
		log.Info("pdf has no usable text layer", slog.Int("pages", pages), slog.Any("error", err))
		return failure(ErrorUnreadablePDF, "PDF text extraction failed: "+err.Error())
	}
	return s.analyzeText(ctx, log, docType, text)
}

func (s *Service) analyzeText(ctx context.Context, log *slog.Logger, docType DocumentType, text string) Response {
	return s.extract(ctx, log, textPromptFor(docType, truncateText(text, maxPromptText)), MethodTextExtraction)
}

// truncateText cuts s to at most n bytes without splitting a rune; the model
// API rejects invalid UTF-8.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (s *Service) extract(ctx context.Context, log *slog.Logger, prompt string, method ProcessingMethod, attachments ...gemini.Attachment) Response {
	out, err := s.model.ExtractJSON(ctx, prompt, attachments...)
	if err != nil {
		log.Error("model extraction failed", slog.String("processing_method", string(method)), slog.Any("error", err))
		return failure(ErrorServer, "document analysis failed")
	}
	data, confidence := splitModelOutput(out)
	return Response{
		Success:          true,
		ExtractedData:    data,
		ConfidenceScore:  confidence,
		ProcessingMethod: method,
	}
}

// splitModelOutput separates the extracted fields from the confidence score.
// Models sometimes return the fields flat instead of under extracted_data.
func splitModelOutput(out map[string]any) (map[string]any, float64) {
	confidence := 0.0
	if v, ok := out["confidence"].(float64); ok {
		confidence = min(max(v, 0), 1)
	}
	if data, ok := out["extracted_data"].(map[string]any); ok {
		return data, confidence
	}
	data := make(map[string]any, len(out))
	for k, v := range out {
		if k != "confidence" {
			data[k] = v
		}
	}
	return data, confidence
}

// decodeImages accepts data URLs or bare base64 strings.
func decodeImages(images []string) ([]gemini.Attachment, error) {
	out := make([]gemini.Attachment, 0, len(images))
	for i, img := range images {
		mimeType := ""
		payload := img
		if strings.HasPrefix(img, "data:") {
			header, body, ok := strings.Cut(img, ",")
			if !ok || !strings.HasSuffix(header, ";base64") {
				return nil, fmt.Errorf("image %d: malformed data url", i)
			}
			mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
			payload = body
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("image %d: empty", i)
		}
		if mimeType == "" {
			mimeType = gemini.DetectMIMEType(data)
		}
		out = append(out, gemini.Attachment{MIMEType: mimeType, Data: data})
	}
	return out, nil
}
