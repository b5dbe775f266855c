package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fature/cpa-engine/internal/domain"
)

// originClient talks to the authoritative configuration service.
type originClient struct {
	httpClient *http.Client
	baseURL    string
}

// originEnvelope is the origin response shape for a single key.
type originEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Value    string `json:"value"`
		DataType string `json:"data_type"`
	} `json:"data"`
}

func newOriginClient(cfg domain.OriginConfig) *originClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &originClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// fetch resolves a key at the origin. found=false with a nil error means the
// origin answered authoritatively that the key does not exist.
func (c *originClient) fetch(ctx context.Context, key string) (domain.ConfigValue, bool, error) {
	endpoint := c.baseURL + "/configurations/" + url.PathEscape(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ConfigValue{}, false, fmt.Errorf("build origin request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ConfigValue{}, false, fmt.Errorf("origin request for %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ConfigValue{}, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ConfigValue{}, false, fmt.Errorf("origin returned status %d for %q", resp.StatusCode, key)
	}

	var env originEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return domain.ConfigValue{}, false, fmt.Errorf("decode origin response for %q: %w", key, err)
	}
	if !env.Success {
		return domain.ConfigValue{}, false, nil
	}

	return domain.DecodeValue(env.Data.Value, env.Data.DataType), true, nil
}

// ping checks origin liveness with a bounded request.
func (c *originClient) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("origin health returned status %d", resp.StatusCode)
	}
	return nil
}
