package aidetect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Fetch downloads the image at url. The size ceiling is enforced twice: on the
// declared Content-Length before reading, and on the bytes actually received.
func (a *Analyzer) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.cfg.HTTPClient.Do(req) //nolint:gosec // URL is caller-supplied
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrFetch, a.cfg.FetchTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unable to fetch image: %d", ErrFetch, resp.StatusCode)
	}

	if resp.ContentLength > a.cfg.MaxImageBytes {
		return nil, fmt.Errorf("%w: image is too large", ErrPayloadTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, a.cfg.MaxImageBytes+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrFetch, a.cfg.FetchTimeout)
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if int64(len(data)) > a.cfg.MaxImageBytes {
		return nil, fmt.Errorf("%w: image is too large", ErrPayloadTooLarge)
	}

	return data, nil
}
