// Package lamdamclient is a Go client for the Lamdam record API.
package lamdamclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Record is a record as returned by the list endpoint. Fields that only one
// data type carries are left empty for the other.
type Record struct {
	ID             string      `json:"id"`
	CollectionID   string      `json:"collectionId"`
	DataType       string      `json:"dataType"`
	Prompt         string      `json:"prompt"`
	Input          string      `json:"input"`
	Response       *string     `json:"response,omitempty"`
	OutputPositive *string     `json:"outputPositive,omitempty"`
	OutputNegative *string     `json:"outputNegative,omitempty"`
	History        [][2]string `json:"history"`
	Creator        string      `json:"creator"`
	CreatorID      string      `json:"creatorId"`
	CreatedAt      time.Time   `json:"createdAt"`
	LastUpdated    time.Time   `json:"lastUpdated"`
	Status         string      `json:"status"`
	Hash           string      `json:"hash"`
}

type PageInfo struct {
	HasNext   bool   `json:"hasNext"`
	HasPrev   bool   `json:"hasPrev"`
	TotalPage int64  `json:"totalPage"`
	Count     int64  `json:"count"`
	FirstID   string `json:"firstId"`
	LastID    string `json:"lastId"`
}

type RecordPage struct {
	Entries []Record `json:"entries"`
	Paging  PageInfo `json:"paging"`
}

// ListParams are the query parameters of GET /api/records.
type ListParams struct {
	CollectionID string
	Keyword      string
	FromID       string
	ToID         string
	Status       []string
	Creators     []string
	Features     []string
	Sort         string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("collectionId", p.CollectionID)
	set("q", p.Keyword)
	set("fromId", p.FromID)
	set("toId", p.ToID)
	set("status", strings.Join(p.Status, ","))
	set("creators", strings.Join(p.Creators, ","))
	set("features", strings.Join(p.Features, ","))
	set("sort", p.Sort)
	return v
}

// APIError is a failure envelope returned by the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lamdam: %d %s", e.StatusCode, e.Message)
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Result  T      `json:"result"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a client for the API rooted at baseURL (without the /api
// suffix) authenticating with a session token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListRecords fetches one page of records.
func (c *Client) ListRecords(ctx context.Context, params ListParams) (*RecordPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/records?"+params.values().Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lamdam: list records: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lamdam: read response: %w", err)
	}

	var env envelope[RecordPage]
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("lamdam: decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	return &env.Result, nil
}
