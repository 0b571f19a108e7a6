package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/nexoratech/riskvault/internal/cache"
	"github.com/nexoratech/riskvault/internal/models"
)

// NormalizerClient fetches normalized security events from the upstream
// normalizer service. Fetches for the same time range are cached so repeated
// analyses of one window do not hammer the collaborator.
type NormalizerClient struct {
	baseURL    string
	eventsPath string
	httpClient *http.Client
	cache      cache.Provider
	eventsTTL  time.Duration
}

// NewNormalizerClient constructs a client targeting the configured normalizer.
func NewNormalizerClient(baseURL, eventsPath string, timeout time.Duration, cacheProvider cache.Provider, eventsTTL time.Duration) *NormalizerClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if eventsTTL < 0 {
		eventsTTL = 0
	}
	return &NormalizerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		eventsPath: eventsPath,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cacheProvider,
		eventsTTL:  eventsTTL,
	}
}

// FetchEvents returns the normalized events recorded inside the given range.
// An empty window is a valid result, not an error.
func (c *NormalizerClient) FetchEvents(ctx context.Context, tr models.TimeRange) ([]models.InputEvent, error) {
	if c == nil {
		return nil, fmt.Errorf("normalizer client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("normalizer base URL not configured")
	}

	cacheKey := ""
	if c.eventsTTL > 0 {
		cacheKey = cacheEventsKey(tr)
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			var cached []models.InputEvent
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	payload := map[string]any{
		"start": tr.Start.Format(time.RFC3339),
		"end":   tr.End.Format(time.RFC3339),
	}

	var response struct {
		Events []models.InputEvent `json:"events"`
	}
	if err := c.postJSON(ctx, c.eventsURL(), payload, &response); err != nil {
		return nil, fmt.Errorf("normalizer events request failed: %w", err)
	}

	if c.eventsTTL > 0 && cacheKey != "" && len(response.Events) > 0 {
		if data, err := json.Marshal(response.Events); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, c.eventsTTL)
		}
	}
	return response.Events, nil
}

func cacheEventsKey(tr models.TimeRange) string {
	return fmt.Sprintf("normalizer:events:%d:%d", tr.Start.Unix(), tr.End.Unix())
}

func (c *NormalizerClient) eventsURL() string { return c.resolvePath(c.eventsPath) }

func (c *NormalizerClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *NormalizerClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
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

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("normalizer returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
