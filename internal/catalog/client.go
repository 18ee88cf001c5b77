package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
)

// Client talks to the Jamendo-style catalog API. The catalog is read-only
// from our side; failures after retries surface as upstream errors.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client

	maxRetries  int
	baseBackoff time.Duration
}

func NewClient(baseURL, clientID string) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
	}
}

type jamendoTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistName string `json:"artist_name"`
	AlbumName  string `json:"album_name"`
	Duration   int    `json:"duration"`
	Image      string `json:"image"`
	Audio      string `json:"audio"`
}

type jamendoArtist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var body struct {
		Results []jamendoTrack `json:"results"`
	}
	if err := c.get(ctx, "/tracks", query, limit, &body); err != nil {
		return nil, err
	}

	out := make([]Track, 0, len(body.Results))
	for _, t := range body.Results {
		out = append(out, Track{
			ID:           t.ID,
			Title:        t.Name,
			Artist:       t.ArtistName,
			Album:        t.AlbumName,
			DurationSecs: t.Duration,
			CoverURL:     t.Image,
			AudioURL:     t.Audio,
		})
	}
	return out, nil
}

func (c *Client) SearchArtists(ctx context.Context, query string, limit int) ([]Artist, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var body struct {
		Results []jamendoArtist `json:"results"`
	}
	if err := c.get(ctx, "/artists", query, limit, &body); err != nil {
		return nil, err
	}

	out := make([]Artist, 0, len(body.Results))
	for _, a := range body.Results {
		out = append(out, Artist{
			ID:       a.ID,
			Name:     a.Name,
			ImageURL: a.Image,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path, query string, limit int, into any) error {
	val := url.Values{}
	val.Set("client_id", c.clientID)
	val.Set("format", "json")
	val.Set("limit", fmt.Sprint(limit))
	val.Set("search", query)

	reqURL := c.baseURL + path + "?" + val.Encode()

	resp, err := c.doWithRetry(ctx, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(into)
}

// doWithRetry retries transient upstream failures (connect errors, 429, 5xx)
// with exponential backoff before giving up.
func (c *Client) doWithRetry(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err == nil && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		if err != nil {
			lastErr = err
			log.Printf("loopify: catalog retry %d/%d: %v", attempt+1, c.maxRetries, err)
		} else {
			lastErr = fmt.Errorf("catalog status %d", resp.StatusCode)
			resp.Body.Close()
			log.Printf("loopify: catalog retry %d/%d: status %d", attempt+1, c.maxRetries, resp.StatusCode)
		}

		if attempt == c.maxRetries-1 {
			break
		}
		backoff := c.baseBackoff * time.Duration(1<<attempt)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("catalog request failed after %d attempts: %w", c.maxRetries, lastErr)
}
