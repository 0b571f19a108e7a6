package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/nexoratech/riskvault/internal/models"
)

func TestStoreReportPostsPayload(t *testing.T) {
	var captured models.AnalysisResult
	client := NewArchiveClient("https://archive.example.com", "/api/v1/reports", time.Second)
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/v1/reports" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusCreated,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}))

	result := models.AnalysisResult{ReportID: "report-1", EventCount: 2}
	if err := client.StoreReport(context.Background(), result); err != nil {
		t.Fatalf("store report: %v", err)
	}
	if captured.ReportID != "report-1" || captured.EventCount != 2 {
		t.Fatalf("unexpected payload: %+v", captured)
	}
}

func TestStoreReportNoopWithoutBaseURL(t *testing.T) {
	client := NewArchiveClient("", "/api/v1/reports", time.Second)
	if err := client.StoreReport(context.Background(), models.AnalysisResult{}); err != nil {
		t.Fatalf("unconfigured archive should be a no-op, got %v", err)
	}
}

func TestStoreReportSurfacesRejection(t *testing.T) {
	client := NewArchiveClient("https://archive.example.com", "/api/v1/reports", time.Second)
	client.httpClient = newTestClient(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnprocessableEntity,
			Body:       io.NopCloser(bytes.NewReader([]byte("schema mismatch"))),
			Header:     make(http.Header),
		}, nil
	}))

	err := client.StoreReport(context.Background(), models.AnalysisResult{ReportID: "r"})
	if err == nil {
		t.Fatalf("expected error on rejected report")
	}
}
