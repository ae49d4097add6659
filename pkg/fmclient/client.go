// Package fmclient is a typed HTTP client for the FileMaker Data API. It
// translates logical record operations on a named layout into
// authenticated requests against
// <server>:<port>/fmi/data/vLatest/databases/<database> and turns
// non-success responses into structured errors.
package fmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultPort = 3030

// Config describes the Data API endpoint.
type Config struct {
	// Server is the scheme+host of the FileMaker server, e.g.
	// "https://fms.example.com".
	Server string
	// Database is the database name addressed by every request.
	Database string
	// Port is the Data API port. Defaults to 3030 (the OttoFMS proxy).
	Port int
	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration
}

// BaseURL returns the database root all record endpoints hang off.
func (c Config) BaseURL() string {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d/fmi/data/vLatest/databases/%s", strings.TrimRight(c.Server, "/"), port, c.Database)
}

// SessionURL returns the endpoint credential-mode login tokens are
// acquired from.
func (c Config) SessionURL() string {
	return c.BaseURL() + "/sessions"
}

// Message is one entry of the Data API response message list.
type Message struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Record is a single stored record: its field data plus the server's
// physical record identity, which is distinct from any logical id kept
// inside the field data.
type Record struct {
	FieldData map[string]interface{} `json:"fieldData"`
	RecordID  string                 `json:"recordId"`
	ModID     string                 `json:"modId"`
}

// RecordSet is a page of records returned by list, get and find.
type RecordSet struct {
	Data []Record `json:"data"`
}

// Params are request options passed through to the Data API without
// interpretation (ordering, windowing, script execution).
type Params map[string]string

// Client is a Data API client for one database. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	auth       TokenProvider
	httpClient *http.Client
}

func New(cfg Config, auth TokenProvider) (*Client, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("server is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL(),
		auth:       auth,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// List returns a page of records from the layout. Params map onto the
// Data API's query options (_limit, _offset, _sort) untouched.
func (c *Client) List(ctx context.Context, layout string, params Params) (*RecordSet, error) {
	raw, err := c.request(ctx, http.MethodGet, "/layouts/"+layout+"/records", nil, params)
	if err != nil {
		return nil, err
	}
	return decodeRecordSet(raw)
}

// Create inserts a record and returns the server-assigned record id.
func (c *Client) Create(ctx context.Context, layout string, fieldData interface{}, params Params) (string, error) {
	body := map[string]interface{}{"fieldData": fieldData}
	for k, v := range params {
		body[k] = v
	}
	raw, err := c.request(ctx, http.MethodPost, "/layouts/"+layout+"/records", body, nil)
	if err != nil {
		return "", err
	}
	var resp struct {
		RecordID string `json:"recordId"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	return resp.RecordID, nil
}

// Get fetches a single record by its record id.
func (c *Client) Get(ctx context.Context, layout, recordID string, params Params) (*RecordSet, error) {
	raw, err := c.request(ctx, http.MethodGet, "/layouts/"+layout+"/records/"+recordID, nil, params)
	if err != nil {
		return nil, err
	}
	return decodeRecordSet(raw)
}

// Update applies a partial update to the record's field data.
func (c *Client) Update(ctx context.Context, layout, recordID string, fieldData interface{}, params Params) error {
	body := map[string]interface{}{"fieldData": fieldData}
	for k, v := range params {
		body[k] = v
	}
	_, err := c.request(ctx, http.MethodPatch, "/layouts/"+layout+"/records/"+recordID, body, nil)
	return err
}

// Delete removes a record by its record id.
func (c *Client) Delete(ctx context.Context, layout, recordID string, params Params) error {
	_, err := c.request(ctx, http.MethodDelete, "/layouts/"+layout+"/records/"+recordID, nil, params)
	return err
}

// Find runs a structured search. With ignoreEmptyResult set, the Data
// API's "no records match the request" error is mapped to an empty
// record set instead of being returned.
func (c *Client) Find(ctx context.Context, layout string, queries []Query, params Params, ignoreEmptyResult bool) (*RecordSet, error) {
	encoded := make([]map[string]string, 0, len(queries))
	for _, q := range queries {
		encoded = append(encoded, q.encode())
	}
	body := map[string]interface{}{"query": encoded}
	for k, v := range params {
		body[k] = v
	}

	raw, err := c.request(ctx, http.MethodPost, "/layouts/"+layout+"/_find", body, nil)
	if err != nil {
		if ignoreEmptyResult && IsNoRecords(err) {
			return &RecordSet{Data: []Record{}}, nil
		}
		return nil, err
	}
	return decodeRecordSet(raw)
}

// request performs one authenticated call and returns the envelope's
// response payload. A response of HTTP 401 invalidates the cached token
// and retries once with a fresh one.
func (c *Client) request(ctx context.Context, method, path string, body interface{}, query Params) (json.RawMessage, error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	raw, status, err := c.do(ctx, method, path, body, query, token)
	if status == http.StatusUnauthorized {
		fresh, refreshErr := c.auth.Refresh(ctx, token)
		if refreshErr != nil {
			return nil, refreshErr
		}
		if fresh == token {
			// Static key mode: a retry cannot succeed.
			return nil, err
		}
		raw, _, err = c.do(ctx, method, path, body, query, fresh)
	}
	return raw, err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, query Params, token string) (json.RawMessage, int, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build data api url: %w", err)
	}
	if len(query) > 0 {
		values := url.Values{}
		for k, v := range query {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode data api request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create data api request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("data api request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read data api response: %w", err)
	}

	var env struct {
		Response json.RawMessage `json:"response"`
		Messages []Message       `json:"messages"`
	}
	if jsonErr := json.Unmarshal(respBody, &env); jsonErr != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, translateError(resp.StatusCode, respBody)
	}
	return env.Response, resp.StatusCode, nil
}

func decodeRecordSet(raw json.RawMessage) (*RecordSet, error) {
	var set RecordSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("failed to decode data api record set: %w", err)
	}
	return &set, nil
}

// translateError builds an *Error from a non-success response body. The
// code is the first reported message code, or a generic "500" when the
// body is not parsable JSON.
func translateError(status int, body []byte) *Error {
	var env struct {
		Messages []Message `json:"messages"`
	}
	code := codeGeneric
	if err := json.Unmarshal(body, &env); err == nil && len(env.Messages) > 0 && env.Messages[0].Code != "" {
		code = env.Messages[0].Code
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 512 {
		detail = detail[:512]
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("data api request failed with status %d: %s", status, detail),
	}
}
