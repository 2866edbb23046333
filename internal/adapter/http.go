package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/amishk599/jobradar/internal/model"
)

const userAgent = "jobradar/1.0 (+https://github.com/amishk599/jobradar)"

// maxBodyBytes caps how much of a response body an adapter will read.
const maxBodyBytes = 16 << 20

// get fetches url and returns the body. Non-200 responses become
// *model.HTTPError so the retry layer can classify them.
func get(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewHTTPError(resp, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}
