// Package tracking is a small client for the Weights & Biases GraphQL API,
// limited to listing the runs of a project.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/signalnine/fedexps/internal/ctxlog"
)

const runsQuery = `query Runs($entity: String!, $project: String!, $cursor: String, $perPage: Int!, $filters: JSONString) {
  project(name: $project, entityName: $entity) {
    runs(filters: $filters, after: $cursor, first: $perPage, order: "+created_at") {
      edges {
        node { name displayName state tags config summaryMetrics }
        cursor
      }
      pageInfo { endCursor hasNextPage }
    }
  }
}`

const viewerQuery = `query Viewer { viewer { entity } }`

type Client struct {
	BaseURL    string
	APIKey     string
	PageSize   int
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		PageSize:   100,
		MaxRetries: 3,
		Backoff:    time.Second,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Filter selects runs. Tags match if a run carries any of them.
type Filter struct {
	Entity  string
	Project string
	Tags    []string
	State   string
}

// Encode renders the mongo-style filter document the API expects.
func (f Filter) Encode() (string, error) {
	doc := map[string]any{}
	if len(f.Tags) > 0 {
		doc["tags"] = map[string]any{"$in": f.Tags}
	}
	if f.State != "" {
		doc["state"] = f.State
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type runsPage struct {
	Project *struct {
		Runs struct {
			Edges []struct {
				Node struct {
					Name           string   `json:"name"`
					DisplayName    string   `json:"displayName"`
					State          string   `json:"state"`
					Tags           []string `json:"tags"`
					Config         string   `json:"config"`
					SummaryMetrics string   `json:"summaryMetrics"`
				} `json:"node"`
				Cursor string `json:"cursor"`
			} `json:"edges"`
			PageInfo struct {
				EndCursor   string `json:"endCursor"`
				HasNextPage bool   `json:"hasNextPage"`
			} `json:"pageInfo"`
		} `json:"runs"`
	} `json:"project"`
}

// Runs lists every run matching f, following pagination to the end.
func (c *Client) Runs(ctx context.Context, f Filter) ([]Run, error) {
	if f.Project == "" {
		return nil, fmt.Errorf("tracking: project is required")
	}
	if f.Entity == "" {
		entity, err := c.DefaultEntity(ctx)
		if err != nil {
			return nil, err
		}
		f.Entity = entity
	}
	filters, err := f.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding filters: %w", err)
	}
	perPage := c.PageSize
	if perPage < 1 {
		perPage = 100
	}

	logger := ctxlog.FromContext(ctx)
	var runs []Run
	var cursor *string
	for {
		vars := map[string]any{
			"entity":  f.Entity,
			"project": f.Project,
			"perPage": perPage,
			"filters": filters,
			"cursor":  cursor,
		}
		var page runsPage
		if err := c.do(ctx, gqlRequest{Query: runsQuery, Variables: vars}, &page); err != nil {
			return nil, err
		}
		if page.Project == nil {
			return nil, fmt.Errorf("tracking: project %s/%s not found", f.Entity, f.Project)
		}
		for _, e := range page.Project.Runs.Edges {
			cfg, err := decodeJSONString(e.Node.Config)
			if err != nil {
				return nil, fmt.Errorf("run %s: decoding config: %w", e.Node.Name, err)
			}
			sum, err := decodeJSONString(e.Node.SummaryMetrics)
			if err != nil {
				return nil, fmt.Errorf("run %s: decoding summary: %w", e.Node.Name, err)
			}
			runs = append(runs, Run{
				ID:      e.Node.Name,
				Name:    e.Node.DisplayName,
				State:   e.Node.State,
				Tags:    e.Node.Tags,
				Config:  unwrapConfig(cfg),
				Summary: sum,
			})
		}
		info := page.Project.Runs.PageInfo
		logger.Debug("fetched runs page", "project", f.Project, "runs", len(runs), "more", info.HasNextPage)
		if !info.HasNextPage || info.EndCursor == "" {
			break
		}
		next := info.EndCursor
		cursor = &next
	}
	return runs, nil
}

// DefaultEntity returns the entity of the user owning the API key.
func (c *Client) DefaultEntity(ctx context.Context) (string, error) {
	var resp struct {
		Viewer *struct {
			Entity string `json:"entity"`
		} `json:"viewer"`
	}
	if err := c.do(ctx, gqlRequest{Query: viewerQuery}, &resp); err != nil {
		return "", err
	}
	if resp.Viewer == nil || resp.Viewer.Entity == "" {
		return "", fmt.Errorf("tracking: no default entity for this API key")
	}
	return resp.Viewer.Entity, nil
}

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.Code, e.Body)
}

func (e *statusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// do posts a GraphQL request, retrying rate limits and server errors with
// exponential backoff.
func (c *Client) do(ctx context.Context, req gqlRequest, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	delay := c.Backoff
	for attempt := 0; ; attempt++ {
		err := c.post(ctx, body, out)
		if err == nil {
			return nil
		}
		se, ok := err.(*statusError)
		if !ok || !se.retryable() || attempt >= c.MaxRetries {
			return err
		}
		logger.Warn("tracking API request failed, retrying", "attempt", attempt+1, "err", err, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (c *Client) post(ctx context.Context, body []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.SetBasicAuth("api", c.APIKey)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("tracking request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding tracking response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("tracking API error: %s", envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("tracking API returned no data")
	}
	return json.Unmarshal(envelope.Data, out)
}
