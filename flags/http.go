package flags

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTP fetches a JSON object of flag values from a remote-config endpoint
type HTTP struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTP creates a remote-config flag source
func NewHTTP(url string, timeout time.Duration, logger *zap.Logger) *HTTP {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTP{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Bool fetches the flag document and returns the named value
func (h *HTTP) Bool(ctx context.Context, name string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build flags request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to fetch flags: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("flags endpoint returned status %d", resp.StatusCode)
	}

	var doc map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return false, fmt.Errorf("failed to decode flags: %w", err)
	}

	raw, ok := doc[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownFlag, name)
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, fmt.Errorf("flag %s is not a boolean: %w", name, err)
	}

	h.logger.Debug("Flag fetched", zap.String("flag", name), zap.Bool("value", value))
	return value, nil
}
