package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prep-progress-service/internal/domain"
)

// SummaryClient fetches the server-authoritative gamification summary from
// the platform backend. It is progressively replacing the locally computed
// engine; callers must treat every error as "use local".
type SummaryClient struct {
	baseURL string
	client  *http.Client // reused across calls
}

func NewSummaryClient(baseURL string, timeout time.Duration) *SummaryClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SummaryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchSummary calls GET {base}/v1/gamification/{userID}/summary.
func (c *SummaryClient) FetchSummary(ctx context.Context, userID string) (domain.ProgressSummary, error) {
	endpoint := fmt.Sprintf("%s/v1/gamification/%s/summary", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ProgressSummary{}, fmt.Errorf("%w: build request: %v", domain.ErrRemoteUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ProgressSummary{}, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ProgressSummary{}, fmt.Errorf("%w: status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}

	var summary domain.ProgressSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return domain.ProgressSummary{}, fmt.Errorf("%w: decode: %v", domain.ErrRemoteUnavailable, err)
	}
	return summary, nil
}
