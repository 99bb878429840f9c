package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"fkstream/models"
)

// Client talks to the Fankai metadata API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a metadata API client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

// GetAllSeries returns the full, unpaginated series listing.
func (c *Client) GetAllSeries(ctx context.Context) ([]models.Series, error) {
	var series []models.Series
	if err := c.getJSON(ctx, "/series?paginate=false", &series); err != nil {
		return nil, err
	}
	return series, nil
}

// GetSeriesDetails returns the series record for one id.
func (c *Client) GetSeriesDetails(ctx context.Context, seriesID string) (*models.Series, error) {
	var series models.Series
	if err := c.getJSON(ctx, "/series/"+seriesID, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// GetSeasons returns the seasons of a series.
func (c *Client) GetSeasons(ctx context.Context, seriesID string) ([]models.Season, error) {
	var payload struct {
		Seasons []models.Season `json:"seasons"`
	}
	if err := c.getJSON(ctx, "/series/"+seriesID+"/seasons", &payload); err != nil {
		return nil, err
	}
	return payload.Seasons, nil
}

// GetEpisodes returns the episodes of a season.
func (c *Client) GetEpisodes(ctx context.Context, seasonID string) ([]models.APIEpisode, error) {
	var payload struct {
		Episodes []models.APIEpisode `json:"episodes"`
	}
	if err := c.getJSON(ctx, "/seasons/"+seasonID+"/episodes", &payload); err != nil {
		return nil, err
	}
	return payload.Episodes, nil
}

// GetActors returns the cast of a series.
func (c *Client) GetActors(ctx context.Context, seriesID string) ([]models.Actor, error) {
	var payload struct {
		Actors []models.Actor `json:"actors"`
	}
	if err := c.getJSON(ctx, "/series/"+seriesID+"/actors", &payload); err != nil {
		return nil, err
	}
	return payload.Actors, nil
}

// getJSON fetches path and decodes the response, retrying transient
// failures. 4xx answers are not retried: the request will not get better.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				io.Copy(io.Discard, resp.Body)
				err := fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}
