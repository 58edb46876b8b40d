package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.harvestapp.com/v2"
	perPage        = 100
)

// Client defines the Harvest API operations used by the export pipeline.
type Client interface {
	ListTimeEntries(ctx context.Context, from, to time.Time, userID int64) (*TimeEntryCollection, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx response from the Harvest API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("harvest api returned status %d: %s", e.StatusCode, e.Body)
}

type ClientConfig struct {
	BaseURL    string
	AccountID  string
	AuthToken  string
	UserAgent  string
	HTTPClient httpDoer
	Logger     *slog.Logger
}

type HTTPClient struct {
	baseURL    string
	accountID  string
	authToken  string
	userAgent  string
	httpClient httpDoer
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.AccountID) == "" {
		return nil, errors.New("harvest account id is required")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("harvest auth token is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &HTTPClient{
		baseURL:    baseURL,
		accountID:  strings.TrimSpace(cfg.AccountID),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
		logger:     logger,
	}, nil
}

// ListTimeEntries fetches every time entry in the inclusive date range,
// following next_page until the listing is exhausted. Entries keep the
// server's order; no retries are attempted on failure.
func (c *HTTPClient) ListTimeEntries(ctx context.Context, from, to time.Time, userID int64) (*TimeEntryCollection, error) {
	collection := &TimeEntryCollection{}

	page := 1
	for {
		query := url.Values{}
		query.Set("from", from.Format("2006-01-02"))
		query.Set("to", to.Format("2006-01-02"))
		query.Set("per_page", strconv.Itoa(perPage))
		query.Set("page", strconv.Itoa(page))
		if userID > 0 {
			query.Set("user_id", strconv.FormatInt(userID, 10))
		}

		var body timeEntriesPage
		if err := c.getJSON(ctx, "/time_entries", query, &body); err != nil {
			return nil, err
		}
		c.logger.Debug("fetched time entries page",
			"page", page, "entries", len(body.TimeEntries), "total_pages", body.TotalPages)

		for _, raw := range body.TimeEntries {
			var entry TimeEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return nil, fmt.Errorf("decode time entry on page %d: %w", page, err)
			}
			collection.Entries = append(collection.Entries, entry)
			collection.Raw = append(collection.Raw, raw)
		}

		if body.NextPage == nil {
			return collection, nil
		}
		page = *body.NextPage
	}
}

func (c *HTTPClient) getJSON(ctx context.Context, endpointPath string, query url.Values, out any) error {
	requestURL := c.baseURL + endpointPath
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request GET %s: %w", endpointPath, err)
	}
	req.Header.Set("Harvest-Account-ID", c.accountID)
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request GET %s failed: %w", endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(responseBody)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response GET %s: %w", endpointPath, err)
	}
	return nil
}
