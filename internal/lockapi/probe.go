package lockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/logging"
)

// ErrNoWorkingEndpoint is returned by Probe when no candidate answered like a lock server
var ErrNoWorkingEndpoint = errors.New("no working /status endpoint found")

// Probe returns the first candidate status URL that answers 200 with a JSON
// object containing door_locked. Candidates are tried in order.
func Probe(ctx context.Context, httpClient *http.Client, candidates []string) (string, error) {
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err := probeOne(ctx, httpClient, candidate); err != nil {
			logging.Info("Status URL rejected",
				zap.String("url", candidate),
				zap.Error(err),
			)
			continue
		}
		logging.Info("Using status URL", zap.String("url", candidate))
		return candidate, nil
	}
	return "", ErrNoWorkingEndpoint
}

func probeOne(ctx context.Context, httpClient *http.Client, statusURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return NewTransportError("failed to create probe request", statusURL, err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return NewTransportError("probe request failed", statusURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, statusURL, fmt.Sprintf("probe returned %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return NewTransportError("failed to read probe body", statusURL, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return NewDecodeError(statusURL, "probe body is not a JSON object", err)
	}
	if _, ok := fields["door_locked"]; !ok {
		return NewDecodeError(statusURL, "probe body has no door_locked field", nil)
	}
	return nil
}
