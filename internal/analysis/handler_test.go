package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

type stubAnalyzer struct {
	resp Response
	got  Request
}

func (s *stubAnalyzer) Analyze(_ context.Context, req Request) (Response, error) {
	s.got = req
	return s.resp, nil
}

func TestHandlerStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		body string
		resp Response
		want int
	}{
		{"missing type", `{"documentId":"d","fileUrl":"x"}`, Response{}, http.StatusBadRequest},
		{"missing input", `{"documentId":"d","documentType":"bank_statement"}`, Response{}, http.StatusBadRequest},
		{"success", `{"documentId":"d","fileUrl":"x","documentType":"bank_statement"}`, Response{Success: true}, http.StatusOK},
		{"unreadable", `{"documentId":"d","fileUrl":"x","documentType":"bank_statement"}`, failure(ErrorUnreadablePDF, "no text"), http.StatusUnprocessableEntity},
		{"server", `{"documentId":"d","fileUrl":"x","documentType":"bank_statement"}`, failure(ErrorServer, "boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		app := fiber.New()
		app.Post("/analyze-document", NewHandler(&stubAnalyzer{resp: tt.resp}).Analyze)

		req := httptest.NewRequest(fiber.MethodPost, "/analyze-document", strings.NewReader(tt.body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: app.Test: %v", tt.name, err)
		}
		if resp.StatusCode != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.want, resp.StatusCode)
		}
	}
}

func TestClientDecodesStructuredFailure(t *testing.T) {
	var received Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false,"error":"UNREADABLE_PDF","message":"no text layer"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	resp, err := client.Analyze(context.Background(), Request{DocumentID: "d1", FileURL: "https://x", DocumentType: SalaryCertificate})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.Success || resp.Error != ErrorUnreadablePDF {
		t.Fatalf("unexpected response %+v", resp)
	}
	if received.DocumentID != "d1" || received.DocumentType != SalaryCertificate {
		t.Fatalf("unexpected request %+v", received)
	}
}

func TestClientRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second).Analyze(context.Background(), Request{DocumentID: "d"}); err == nil {
		t.Fatalf("expected decode error")
	}
}
