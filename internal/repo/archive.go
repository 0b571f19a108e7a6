package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nexoratech/riskvault/internal/models"
)

// ArchiveClient pushes completed reports to the append-only archive service.
// Archival is best effort: the service logs a failed push and still returns
// the report to the caller.
type ArchiveClient struct {
	baseURL     string
	reportsPath string
	httpClient  *http.Client
}

// NewArchiveClient constructs an archive client. An empty base URL yields a
// client whose StoreReport is a no-op, which keeps local runs simple.
func NewArchiveClient(baseURL, reportsPath string, timeout time.Duration) *ArchiveClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ArchiveClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		reportsPath: reportsPath,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// StoreReport persists one analysis result.
func (c *ArchiveClient) StoreReport(ctx context.Context, result models.AnalysisResult) error {
	if c == nil {
		return fmt.Errorf("archive client not initialised")
	}
	if c.baseURL == "" {
		return nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(c.reportsPath, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("archive store report failed: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
