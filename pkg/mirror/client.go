package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"decensor/pkg/errors"
	"decensor/pkg/logger"
)

// Client talks to the dataset publisher's hosting API
type Client struct {
	httpClient *http.Client
	listingURL string
	token      string
	logger     logger.Logger
}

// NewClient creates a dataset client. listingURL is the directory-listing
// endpoint returning the batch entries as a JSON array.
func NewClient(listingURL string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		listingURL: listingURL,
		logger:     log,
	}
}

// SetToken sets the optional bearer token for the hosting API
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "decensor")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

// ListBatches fetches the remote batch listing, keeps file entries whose
// names are decimal digits, and returns them sorted ascending by the
// numeric value of the name. Any transport, status or parse failure is a
// ListingError.
func (c *Client) ListBatches(ctx context.Context) ([]RemoteBatch, error) {
	req, err := c.newRequest(ctx, c.listingURL)
	if err != nil {
		return nil, &errors.ListingError{URL: c.listingURL, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("batch listing request failed", map[string]interface{}{
			"url":   c.listingURL,
			"error": err.Error(),
		})
		return nil, &errors.ListingError{URL: c.listingURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorWithFields("batch listing returned non-OK status", map[string]interface{}{
			"url":    c.listingURL,
			"status": resp.StatusCode,
		})
		return nil, &errors.ListingError{URL: c.listingURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ListingError{URL: c.listingURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var entries []RemoteBatch
	if err := json.Unmarshal(body, &entries); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse batch listing", map[string]interface{}{
			"url":          c.listingURL,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, &errors.ListingError{URL: c.listingURL, Err: fmt.Errorf("failed to parse listing: %w", err)}
	}

	batches := make([]RemoteBatch, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != "file" {
			continue
		}
		if _, err := strconv.Atoi(entry.Name); err != nil {
			c.logger.DebugWithFields("skipping non-numeric listing entry", map[string]interface{}{
				"name": entry.Name,
			})
			continue
		}
		batches = append(batches, entry)
	}

	sort.Slice(batches, func(i, j int) bool {
		a, _ := strconv.Atoi(batches[i].Name)
		b, _ := strconv.Atoi(batches[j].Name)
		return a < b
	})

	c.logger.DebugWithFields("batch listing fetched", map[string]interface{}{
		"url":      c.listingURL,
		"batches":  len(batches),
		"duration": time.Since(start),
	})

	return batches, nil
}

// FetchBatch downloads a batch's content. The caller owns the returned
// body. A non-success status is a FetchError with the body closed.
func (c *Client) FetchBatch(ctx context.Context, batch RemoteBatch) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, batch.DownloadURL)
	if err != nil {
		return nil, &errors.FetchError{Batch: batch.Name, URL: batch.DownloadURL, Err: err}
	}
	// Batch content is plain text, not an API resource
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errors.FetchError{Batch: batch.Name, URL: batch.DownloadURL, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &errors.FetchError{Batch: batch.Name, URL: batch.DownloadURL, Status: resp.StatusCode}
	}

	return resp.Body, nil
}
