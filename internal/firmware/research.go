package firmware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrJobNotFound replaces any lookup failure that mentions a 404.
var ErrJobNotFound = errors.New("Research job not found")

// ListFilters are the optional query parameters of GET /research.
type ListFilters struct {
	Where Where
	Limit int
	// Sort is a field name; a leading "-" sorts descending.
	Sort string
}

// Create starts a research job. The topic is always tagged with sessionID.
func (c *Client) Create(ctx context.Context, sessionID, topic string) (CreateResponse, error) {
	var out CreateResponse
	body := map[string]string{"topic": Tag(sessionID, topic)}
	if err := c.do(ctx, http.MethodPost, "/research", body, &out); err != nil {
		return CreateResponse{}, err
	}
	return out, nil
}

// Get fetches one research job.
func (c *Client) Get(ctx context.Context, id string) (Job, error) {
	var out Job
	err := c.do(ctx, http.MethodGet, "/research/"+url.PathEscape(id), nil, &out)
	if err != nil {
		// Any reportable failure whose text mentions 404.
		if IsReportable(err) && strings.Contains(err.Error(), "404") {
			return Job{}, ErrJobNotFound
		}
		return Job{}, err
	}
	return out, nil
}

// List returns research jobs matching filters.
func (c *Client) List(ctx context.Context, filters ListFilters) (ListResponse, error) {
	params := url.Values{}
	if filters.Where != nil {
		b, err := json.Marshal(filters.Where)
		if err != nil {
			return ListResponse{}, fmt.Errorf("encoding where: %w", err)
		}
		params.Set("where", string(b))
	}
	if filters.Limit > 0 {
		params.Set("limit", strconv.Itoa(filters.Limit))
	}
	if filters.Sort != "" {
		params.Set("sort", filters.Sort)
	}

	path := "/research"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out ListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return ListResponse{}, err
	}
	if out.Docs == nil {
		out.Docs = []Job{}
	}
	return out, nil
}

// Quota returns usage of the current quota window.
func (c *Client) Quota(ctx context.Context) (Quota, error) {
	var out Quota
	if err := c.do(ctx, http.MethodGet, "/quota", nil, &out); err != nil {
		return Quota{}, err
	}
	return out, nil
}
