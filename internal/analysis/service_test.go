package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/tamweel-auto/waitlist/internal/ai/gemini"
	"github.com/tamweel-auto/waitlist/internal/logging"
	"github.com/tamweel-auto/waitlist/internal/storage"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}

type fakeModel struct {
	out         map[string]any
	err         error
	prompts     []string
	attachments [][]gemini.Attachment
}

func (m *fakeModel) ExtractJSON(_ context.Context, prompt string, attachments ...gemini.Attachment) (map[string]any, error) {
	m.prompts = append(m.prompts, prompt)
	m.attachments = append(m.attachments, attachments)
	return m.out, m.err
}

func newTestService(t *testing.T, model *fakeModel) (*Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewService(model, storage.RoutingFetcher{Memory: store}, logging.Discard()), store
}

func signed(t *testing.T, store *storage.MemoryStore, path string, data []byte) string {
	t.Helper()
	ctx := context.Background()
	if _, err := store.Put(ctx, path, data, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	u, err := store.SignedURL(ctx, path, time.Hour)
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	return u
}

func TestAnalyzeImageUsesVision(t *testing.T) {
	model := &fakeModel{out: map[string]any{
		"extracted_data": map[string]any{"employer_name": "Acme"},
		"confidence":     0.82,
	}}
	svc, store := newTestService(t, model)

	resp, err := svc.Analyze(context.Background(), Request{
		DocumentID:   "doc-1",
		FileURL:      signed(t, store, "doc-1.png", pngHeader),
		DocumentType: SalaryCertificate,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !resp.Success || resp.ProcessingMethod != MethodVisionAPI {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.ExtractedData["employer_name"] != "Acme" || resp.ConfidenceScore != 0.82 {
		t.Fatalf("unexpected extraction %+v", resp)
	}
	if got := model.attachments[0][0].MIMEType; got != "image/png" {
		t.Fatalf("expected png attachment, got %s", got)
	}
}

func TestAnalyzeBrokenPDFIsUnreadable(t *testing.T) {
	model := &fakeModel{}
	svc, store := newTestService(t, model)

	resp, _ := svc.Analyze(context.Background(), Request{
		DocumentID:   "doc-2",
		FileURL:      signed(t, store, "doc-2.pdf", []byte("%PDF-1.4\nthis is not a real pdf body")),
		DocumentType: BankStatement,
	})
	if resp.Success || resp.Error != ErrorUnreadablePDF {
		t.Fatalf("expected UNREADABLE_PDF, got %+v", resp)
	}
	if len(model.prompts) != 0 {
		t.Fatalf("model must not be called for an unreadable pdf")
	}
}

func TestAnalyzeFallbackImages(t *testing.T) {
	model := &fakeModel{out: map[string]any{"iban": "SA00", "confidence": 1.7}}
	svc, _ := newTestService(t, model)

	img := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2})
	resp, _ := svc.Analyze(context.Background(), Request{
		DocumentID:       "doc-3",
		Images:           []string{img, img},
		DocumentType:     BankStatement,
		ProcessingMethod: MethodPDFToImage,
	})
	if !resp.Success || resp.ProcessingMethod != MethodPDFToImage {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.ConfidenceScore != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", resp.ConfidenceScore)
	}
	if resp.ExtractedData["iban"] != "SA00" {
		t.Fatalf("expected flat fields to be kept, got %v", resp.ExtractedData)
	}
	if len(model.attachments[0]) != 2 {
		t.Fatalf("expected both pages attached")
	}
}

func TestAnalyzeModelFailureIsServerError(t *testing.T) {
	model := &fakeModel{err: errors.New("quota")}
	svc, store := newTestService(t, model)

	resp, _ := svc.Analyze(context.Background(), Request{
		DocumentID:   "doc-4",
		FileURL:      signed(t, store, "doc-4.png", pngHeader),
		DocumentType: SalaryCertificate,
	})
	if resp.Success || resp.Error != ErrorServer {
		t.Fatalf("expected SERVER_ERROR, got %+v", resp)
	}
}

func TestAnalyzeMissingObject(t *testing.T) {
	svc, _ := newTestService(t, &fakeModel{})
	resp, _ := svc.Analyze(context.Background(), Request{
		DocumentID:   "doc-5",
		FileURL:      "memory://nothing-here",
		DocumentType: SalaryCertificate,
	})
	if resp.Success || resp.Error != ErrorServer {
		t.Fatalf("expected SERVER_ERROR, got %+v", resp)
	}
}

func TestAnalyzeRejectsBadImage(t *testing.T) {
	svc, _ := newTestService(t, &fakeModel{})
	resp, _ := svc.Analyze(context.Background(), Request{
		DocumentID:   "doc-6",
		Images:       []string{"data:image/png,not-base64"},
		DocumentType: SalaryCertificate,
	})
	if resp.Success || resp.Error != ErrorServer {
		t.Fatalf("expected SERVER_ERROR, got %+v", resp)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code, message string
		want          ErrorType
	}{
		{"UNREADABLE_PDF", "", ErrorUnreadablePDF},
		{"conversion_error", "", ErrorConversion},
		{"", "PDF text extraction failed: no text", ErrorUnreadablePDF},
		{"EXTRACTION_FAILED", "Could not extract text from the document", ErrorUnreadablePDF},
		{"", "timeout", ErrorServer},
		{"RATE_LIMITED", "try later", ErrorServer},
	}
	for _, tt := range tests {
		if got := Classify(tt.code, tt.message); got != tt.want {
			t.Fatalf("Classify(%q, %q) = %s, want %s", tt.code, tt.message, got, tt.want)
		}
	}
}

func TestAnalyzeTextKeepsPromptValidUTF8(t *testing.T) {
	model := &fakeModel{out: map[string]any{"employer_name": "شركة"}}
	svc, _ := newTestService(t, model)

	// two-byte runes straddle the cut when the text starts one byte off
	text := "a" + strings.Repeat("é", 20000) + strings.Repeat("ر", 5000)
	resp := svc.analyzeText(context.Background(), logging.Discard(), SalaryCertificate, text)
	if !resp.Success || resp.ProcessingMethod != MethodTextExtraction {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(model.prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(model.prompts))
	}
	if !utf8.ValidString(model.prompts[0]) {
		t.Fatalf("prompt is not valid UTF-8")
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"aé", 3, "aé"},
		{"مرحبا", 3, "م"},
	}
	for _, tt := range tests {
		if got := truncateText(tt.in, tt.n); got != tt.want {
			t.Fatalf("truncateText(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
