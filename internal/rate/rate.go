// Package rate supplies the EUR→JPY conversion rate from an external
// best-effort lookup. A failed or malformed fetch keeps the previous
// rate in effect; conversion never fails, it only goes stale.
package rate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"kakeibo/internal/currency"
)

// DefaultURL is the public rate endpoint the original app queries.
const DefaultURL = "https://api.exchangerate-api.com/v4/latest/EUR"

// ErrNoUsableRate is returned when the response decodes but carries no
// positive JPY rate.
var ErrNoUsableRate = errors.New("no usable rate in response")

// Holder keeps the last known rate, goroutine-safe. It starts at the
// default fallback so conversion works before the first fetch completes.
type Holder struct {
	mu        sync.RWMutex
	rate      float64
	fetchedAt time.Time
}

func NewHolder() *Holder {
	return &Holder{rate: currency.DefaultRate}
}

// Rate returns the current rate.
func (h *Holder) Rate() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rate
}

// FetchedAt returns when the rate was last refreshed successfully.
// Zero means the default is still in effect.
func (h *Holder) FetchedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fetchedAt
}

func (h *Holder) set(v float64) {
	h.mu.Lock()
	h.rate = v
	h.fetchedAt = time.Now()
	h.mu.Unlock()
}

// Fetcher refreshes a Holder from the external endpoint. Concurrent
// Refresh calls are collapsed into a single outbound request.
type Fetcher struct {
	url      string
	client   *http.Client
	holder   *Holder
	group    singleflight.Group
	onUpdate func(float64)
}

func NewFetcher(url string, holder *Holder) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	return &Fetcher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		holder: holder,
	}
}

// OnUpdate registers a callback invoked after each successful refresh,
// before Refresh returns. Used to push the new rate into the app state.
func (f *Fetcher) OnUpdate(fn func(float64)) {
	f.onUpdate = fn
}

type ratesPayload struct {
	Rates map[string]float64 `json:"rates"`
}

// Refresh fetches the latest rate and updates the holder. On any failure
// the holder keeps its previous value and the error is returned for
// logging only.
func (f *Fetcher) Refresh(ctx context.Context) (float64, error) {
	v, err, _ := f.group.Do("rate", func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
		if err != nil {
			return 0.0, fmt.Errorf("build rate request: %w", err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return 0.0, fmt.Errorf("fetch rate: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return 0.0, fmt.Errorf("fetch rate: unexpected status %d", resp.StatusCode)
		}
		var payload ratesPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return 0.0, fmt.Errorf("decode rate response: %w", err)
		}
		jpy := payload.Rates["JPY"]
		if jpy <= 0 {
			return 0.0, ErrNoUsableRate
		}
		f.holder.set(jpy)
		if f.onUpdate != nil {
			f.onUpdate(jpy)
		}
		return jpy, nil
	})
	if err != nil {
		return f.holder.Rate(), err
	}
	return v.(float64), nil
}

// Run refreshes immediately and then on every tick until the context is
// cancelled. Failures are logged and the loop keeps going.
func (f *Fetcher) Run(ctx context.Context, interval time.Duration) {
	refresh := func() {
		if rate, err := f.Refresh(ctx); err != nil {
			slog.WarnContext(ctx, "Rate refresh failed, keeping previous rate",
				"error", err, "rate", rate)
		} else {
			slog.InfoContext(ctx, "Exchange rate refreshed", "rate", rate)
		}
	}
	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
