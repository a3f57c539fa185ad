// Package gemini extracts structured JSON from documents with Google's
// Gemini models.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrEmptyResponse is returned when the model produced no text part.
var ErrEmptyResponse = errors.New("no content returned from model")

// Attachment is a binary input sent alongside the prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Extractor turns a prompt plus attachments into a JSON object.
type Extractor interface {
	ExtractJSON(ctx context.Context, prompt string, attachments ...Attachment) (map[string]any, error)
}

// Client wraps a single API key.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient dials Gemini with apiKey and asks modelName for JSON output.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)
	return &Client{client: client, model: model}, nil
}

// ExtractJSON sends the prompt and attachments and decodes the first text part.
func (c *Client) ExtractJSON(ctx context.Context, prompt string, attachments ...Attachment) (map[string]any, error) {
	parts := make([]genai.Part, 0, len(attachments)+1)
	parts = append(parts, genai.Text(prompt))
	for _, a := range attachments {
		mimeType := a.MIMEType
		if mimeType == "" {
			mimeType = DetectMIMEType(a.Data)
		}
		parts = append(parts, genai.Blob{MIMEType: mimeType, Data: a.Data})
	}

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("response part is not text, received %T", resp.Candidates[0].Content.Parts[0])
	}
	return DecodeJSON(string(text))
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// DecodeJSON parses a model reply, tolerating a markdown code fence around it.
func DecodeJSON(raw string) (map[string]any, error) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return out, nil
}

// DetectMIMEType sniffs common document and image formats from magic bytes
// and defaults to JPEG.
func DetectMIMEType(data []byte) string {
	switch {
	case len(data) >= 5 && string(data[:5]) == "%PDF-":
		return "application/pdf"
	case len(data) >= 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "image/png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	case len(data) >= 4 && string(data[:4]) == "GIF8":
		return "image/gif"
	}
	return "image/jpeg"
}
