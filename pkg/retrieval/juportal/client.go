package juportal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ai-lawyer-be/pkg/retrieval"
)

const (
	defaultBaseURL = "https://juportal.be/api"
	defaultLimit   = 20
	maxLimit       = 100

	requestTimeout = 15 * time.Second
)

// SearchCriteria narrows a case-law query. All fields are optional;
// an empty criteria set searches by keywords alone.
type SearchCriteria struct {
	Keywords string
	Court    string
	Ecli     string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

// Client queries the Juportal case-law index. Upstream failures and
// malformed payloads degrade to an empty result set with a logged
// warning; only context cancellation is propagated as an error so the
// caller can distinguish "nothing found" from "caller gave up".
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

func NewClient(baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Ecli     string `json:"ecli"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Court    string `json:"court"`
	Decision string `json:"decision_date"`
	URL      string `json:"url"`
}

// Search returns case-law items matching the criteria as EXTERNAL
// retrieval items in upstream order. Juportal reports no relevance
// scores, so HasScore stays false and the merger ranks by position.
func (c *Client) Search(ctx context.Context, criteria SearchCriteria) ([]retrieval.Item, error) {
	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	if criteria.Keywords != "" {
		params.Set("q", criteria.Keywords)
	}
	if criteria.Court != "" {
		params.Set("court", criteria.Court)
	}
	if criteria.Ecli != "" {
		params.Set("ecli", criteria.Ecli)
	}
	if criteria.DateFrom != nil {
		params.Set("date_from", criteria.DateFrom.Format("2006-01-02"))
	}
	if criteria.DateTo != nil {
		params.Set("date_to", criteria.DateTo.Format("2006-01-02"))
	}
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Printf("[WARN] Juportal request build failed: %v", err)
		return []retrieval.Item{}, nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Printf("[WARN] Juportal unreachable: %v", err)
		return []retrieval.Item{}, nil
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Printf("[WARN] Juportal response read failed: %v", err)
		return []retrieval.Item{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Printf("[WARN] Juportal returned status %d: %s", resp.StatusCode, string(bodyBytes))
		return []retrieval.Item{}, nil
	}

	var parsed searchResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		c.logger.Printf("[WARN] Juportal returned malformed payload: %v", err)
		return []retrieval.Item{}, nil
	}

	items := make([]retrieval.Item, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		if res.Ecli == "" {
			c.logger.Printf("[WARN] Juportal result without ECLI skipped")
			continue
		}

		var decisionDate *time.Time
		if res.Decision != "" {
			if parsedDate, err := time.Parse("2006-01-02", res.Decision); err == nil {
				decisionDate = &parsedDate
			} else {
				c.logger.Printf("[WARN] Juportal decision date %q unparseable, dropped", res.Decision)
			}
		}

		items = append(items, retrieval.Item{
			Id:      res.Ecli,
			Source:  retrieval.SourceExternal,
			Title:   res.Title,
			Content: res.Summary,
			External: &retrieval.ExternalMetadata{
				Court:  res.Court,
				Date:   decisionDate,
				CaseId: res.Ecli,
				URL:    res.URL,
			},
		})
	}

	return items, nil
}
