package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/videowall/server/internal/domain"
)

var ErrCatalogUnavailable = errors.New("catalog unavailable from all sources")

const defaultFetchTimeout = 10 * time.Second

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader fetches the video catalog from an ordered list of source URLs. The
// first source that yields a parseable non-empty video array wins; the rest
// are fallbacks for when the primary host is down.
type Loader struct {
	client httpDoer
	urls   []string
	logger *slog.Logger
}

func NewLoader(urls []string, logger *slog.Logger) *Loader {
	return &Loader{
		client: &http.Client{Timeout: defaultFetchTimeout},
		urls:   urls,
		logger: logger,
	}
}

func (l *Loader) Load(ctx context.Context) ([]domain.Video, error) {
	var lastErr error
	for _, u := range l.urls {
		videos, err := l.fetch(ctx, u)
		if err != nil {
			l.logger.Warn("catalog source failed", "url", u, "error", err)
			lastErr = err
			continue
		}
		if len(videos) == 0 {
			l.logger.Warn("catalog source returned no videos", "url", u)
			lastErr = fmt.Errorf("empty catalog from %s", u)
			continue
		}

		l.logger.Info("catalog loaded", "url", u, "videos", len(videos))
		return videos, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, lastErr)
	}
	return nil, ErrCatalogUnavailable
}

func (l *Loader) fetch(ctx context.Context, url string) ([]domain.Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog body: %w", err)
	}

	var videos []domain.Video
	if err := json.Unmarshal(body, &videos); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return videos, nil
}
