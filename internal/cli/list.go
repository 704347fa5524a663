package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/remotedev/pkg/collector"
)

// FetchReports asks the collector at base for its newest report summaries.
func FetchReports(ctx context.Context, client *http.Client, base string, limit int) ([]collector.Summary, error) {
	if client == nil {
		client = http.DefaultClient
	}
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/reports")
	if err != nil {
		return nil, fmt.Errorf("invalid collector url: %w", err)
	}
	if limit > 0 {
		u.RawQuery = url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("collector responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out []collector.Summary
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return out, nil
}
